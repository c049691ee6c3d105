package cli

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"captionrag/config"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [playlist]",
	Short: "Index the captions of a playlist",
	Long: `Fetch, normalize and chunk the captions of every video in a playlist and
store their embeddings in .captionrag/index.db.

With captions.source "dir" the playlist is a directory of <id>.<lang>.vtt or
.srt files (default: the project directory). With "ytdlp" it is a playlist
URL handed to yt-dlp.

Ingesting the same playlist twice adds a second set of records; use
'captionrag reset' first to start over.

Examples:
  captionrag ingest ./captions
  captionrag ingest "https://www.youtube.com/playlist?list=PL..."`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	playlist := GetRootDir()
	if len(args) > 0 {
		playlist = args[0]
	}
	if cfg.Captions.Source == "dir" {
		abs, err := filepath.Abs(playlist)
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
		playlist = abs
	} else if len(args) == 0 {
		return fmt.Errorf("a playlist URL is required with captions.source %q", cfg.Captions.Source)
	}

	a, err := openApp(openForIngest)
	if err != nil {
		return err
	}
	defer a.Close()

	ingestUC, err := a.ingestUseCase()
	if err != nil {
		return err
	}

	fmt.Printf("Ingesting %s...\n", playlist)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progressCallback := func(indexed, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = newBar(total, "[cyan]Embedding[reset]")
		}
		_ = bar.Set(indexed)

		if indexed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(indexed) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-indexed)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	result, err := ingestUC.IngestPlaylist(cmd.Context(), playlist, progressCallback)
	if err != nil {
		if result != nil && result.ChunksIndexed > 0 {
			fmt.Printf("\n%d chunks were indexed before the failure.\n", result.ChunksIndexed)
		}
		return exitError(fmt.Errorf("ingest failed: %w", err))
	}

	fmt.Printf("\nIngest complete:\n")
	fmt.Printf("  Videos found:    %d\n", result.Videos)
	fmt.Printf("  No captions:     %d (skipped)\n", result.VideosSkipped)
	fmt.Printf("  Failed:          %d\n", result.VideosFailed)
	fmt.Printf("  Cues:            %d\n", result.Cues)
	fmt.Printf("  Chunks indexed:  %d\n", result.ChunksIndexed)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\nIndex stored at: %s\n", config.IndexDBPath(GetRootDir()))
	return nil
}

func newBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
