package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"captionrag/config"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every indexed record and ledger entry",
	Long: `Remove all caption records and the ingest ledger from the index so the next
ingest starts from an empty store. Ingest never deduplicates, so run this
before re-ingesting a playlist you do not want indexed twice.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	a, err := openApp(openForInspect)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.store.GetStats()
	if err != nil {
		return err
	}
	if err := a.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}

	fmt.Printf("Removed %d records from %d videos in %s\n", stats.Records, stats.Videos, config.IndexDBPath(a.dir))
	return nil
}
