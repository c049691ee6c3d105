package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"captionrag/config"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the index holds",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(config.IndexDBPath(GetRootDir())); os.IsNotExist(err) {
		return fmt.Errorf("no index found. Run 'captionrag ingest' first")
	}

	a, err := openApp(openForInspect)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.store.GetStats()
	if err != nil {
		return err
	}
	videos, err := a.store.ListVideos()
	if err != nil {
		return err
	}

	if statsJSON {
		output, _ := json.MarshalIndent(map[string]interface{}{
			"records": stats.Records,
			"videos":  videos,
		}, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Index: %s\n", config.IndexDBPath(a.dir))
	fmt.Printf("  Embedding: %s/%s\n", a.cfg.Embedding.Provider, a.cfg.Embedding.Model)
	fmt.Printf("  Records:   %d\n", stats.Records)
	fmt.Printf("  Videos:    %d\n", stats.Videos)

	if len(videos) > 0 {
		fmt.Println()
		for _, v := range videos {
			fmt.Printf("  %-14s %4d cues %4d chunks  ingested %dx, last %s\n",
				v.VideoID, v.Cues, v.Chunks, v.Ingests, v.LastIngested.Format("2006-01-02 15:04"))
		}
	}
	return nil
}
