package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"docsearch/internal/domain"
	"docsearch/internal/usecase"
)

var (
	queryMode  string
	queryTopK  int
	queryJSON  bool
	queryTrace bool
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Search indexed documents",
	Long: `Search the indexed corpus. Results are ranked by the cascading
pipeline and aggregated per the configured mode.

Modes:
  document  ranked documents with their best chunks (default)
  chunk     individual ranked chunks
  context   documents with the neighborhood of each best chunk

Examples:
  docsearch query "connection pooling"
  docsearch query -m chunk -k 5 "retry backoff"
  docsearch query --json "error handling" | jq .`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryMode, "mode", "m", "document", "result mode: document, chunk, context")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 10, "maximum number of results")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "emit JSON")
	queryCmd.Flags().BoolVar(&queryTrace, "trace", false, "show per-stage pipeline trace")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, rootDir, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.indexUC.Restore(cmd.Context()); err != nil {
		if errors.Is(err, usecase.ErrNotIndexed) {
			return fmt.Errorf("no index found in %s, run 'docsearch index' first", rootDir)
		}
		return err
	}

	result, err := a.searchUC.Search(cmd.Context(), args[0], usecase.Mode(queryMode), queryTopK)
	if err != nil {
		return err
	}

	if queryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result)
	if queryTrace {
		printTrace(result.Trace)
	}
	return nil
}

func printResult(result *usecase.SearchResult) {
	switch result.Mode {
	case usecase.ModeChunk:
		if len(result.Chunks) == 0 {
			fmt.Println("No results.")
			return
		}
		for i, sc := range result.Chunks {
			fmt.Printf("%2d. [%.4f] %s (%s)\n", i+1, sc.Score, sc.Chunk.ID, sc.Chunk.Type)
			fmt.Printf("    %s\n", excerpt(sc.Chunk.Content, 160))
		}

	default:
		if len(result.Documents) == 0 {
			fmt.Println("No results.")
			return
		}
		for i, doc := range result.Documents {
			fmt.Printf("%2d. [%.4f] doc %d\n", i+1, doc.Score, doc.DocID)
			for _, sc := range doc.BestChunks {
				title := ""
				if t, ok := sc.Chunk.SectionTitle(); ok {
					title = " # " + t
				}
				fmt.Printf("    [%.4f] %s%s\n", sc.Score, sc.Chunk.ID, title)
				fmt.Printf("      %s\n", excerpt(sc.Chunk.Content, 120))
			}
			if len(doc.ContextChunks) > 0 {
				fmt.Printf("    context: %d surrounding chunks\n", len(doc.ContextChunks))
			}
		}
	}
}

func printTrace(trace []domain.StageTrace) {
	fmt.Println("\nPipeline trace:")
	for _, t := range trace {
		status := "ran"
		switch {
		case t.Skipped:
			status = "skipped"
		case t.Dropped:
			status = "dropped"
		}
		fmt.Printf("  %-8s %-8s pool=%d\n", t.Stage, status, t.Candidates)
	}
}

func excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
