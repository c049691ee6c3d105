package store

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var (
	keyIndexID    = []byte("index_id")
	keyGeneration = []byte("generation")
)

// ensureIndexID gives a new database its identity. The id survives Clear.
func ensureIndexID(tx *bbolt.Tx) error {
	b, err := tx.CreateBucketIfNotExists(bucketStats)
	if err != nil {
		return err
	}
	if b.Get(keyIndexID) != nil {
		return nil
	}
	return b.Put(keyIndexID, []byte(uuid.NewString()))
}

// bumpGeneration must run in every transaction that changes stored records.
func bumpGeneration(tx *bbolt.Tx) error {
	if err := ensureIndexID(tx); err != nil {
		return err
	}
	b := tx.Bucket(bucketStats)

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, decodeGeneration(b.Get(keyGeneration))+1)
	return b.Put(keyGeneration, buf)
}

func decodeGeneration(data []byte) uint64 {
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

func readIndexVersion(db *bbolt.DB) (string, error) {
	var version string
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketStats)
		if b == nil {
			return fmt.Errorf("stats bucket not found")
		}
		version = fmt.Sprintf("%s:%d", b.Get(keyIndexID), decodeGeneration(b.Get(keyGeneration)))
		return nil
	})
	return version, err
}

// IndexVersion identifies the current contents of the index. It differs
// between databases and changes on every upsert and clear.
func (s *BoltStore) IndexVersion() (string, error) {
	return readIndexVersion(s.db)
}

// IndexVersion is the version of the database the store writes to.
func (s *BoltVectorStore) IndexVersion() (string, error) {
	return readIndexVersion(s.db)
}
