package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"captionrag/config"
	"captionrag/internal/domain"
	"captionrag/internal/usecase"
)

var (
	askQuestion string
	askTopK     int
	askValidate bool
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question from the indexed captions",
	Long: `Retrieve caption chunks for a question, let the model pick the most useful
ones and answer from them with links to the cited moments.

Examples:
  captionrag ask -q "what is a closure?"
  captionrag ask -q "how do I profile memory?" --top-k 3 --validate --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to answer (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of sources (default from config)")
	askCmd.Flags().BoolVar(&askValidate, "validate", false, "rate each source and keep only highly relevant ones")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	_ = askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := checkTopK(askTopK, GetConfig().Retrieve.MaxTopK); err != nil {
		return err
	}
	if _, err := os.Stat(config.IndexDBPath(GetRootDir())); os.IsNotExist(err) {
		return fmt.Errorf("no index found. Run 'captionrag ingest' first")
	}

	a, err := openApp(openForQuery)
	if err != nil {
		return err
	}
	defer a.Close()

	askUC, err := a.askUseCase(cmd.Context())
	if err != nil {
		return err
	}

	req := usecase.AskRequest{Question: askQuestion, TopK: askTopK}
	if cmd.Flags().Changed("validate") {
		req.Validate = &askValidate
	}

	answer, err := askUC.Ask(cmd.Context(), req)
	if err != nil {
		return exitError(err)
	}

	if askJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}
	printAnswer(answer)
	return nil
}

// checkTopK rejects --top-k values the pipeline would refuse, before any
// provider is set up.
func checkTopK(topK, maxTopK int) error {
	if topK < 0 {
		return fmt.Errorf("--top-k must not be negative, got %d", topK)
	}
	if maxTopK > 0 && topK > maxTopK {
		return fmt.Errorf("%w: --top-k %d, retrieve.max_top_k is %d", domain.ErrTopKTooLarge, topK, maxTopK)
	}
	return nil
}

func printAnswer(answer domain.Answer) {
	fmt.Println(answer.Answer)
	if len(answer.Sources) == 0 {
		return
	}

	fmt.Printf("\nSources:\n")
	for i, s := range answer.Sources {
		fmt.Printf("--- [%d] %s (%s-%s) ---\n", i+1, s.URL, clock(s.Start), clock(s.End))
		text := s.Text
		if len(text) > 300 {
			text = text[:300] + "..."
		}
		fmt.Println(text)
		if s.Validation != nil && s.Validation.Comment != "" {
			fmt.Printf("Relevance: %s (%s)\n", s.Validation.Relevance, s.Validation.Comment)
		}
		fmt.Println()
	}
}

// clock renders seconds as m:ss or h:mm:ss.
func clock(seconds int) string {
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
