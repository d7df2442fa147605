package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"docsearch/internal/domain"
	"docsearch/internal/usecase"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics for the indexed corpus",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "emit JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	stats, err := a.searchUC.Stats()
	if err != nil {
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("Documents:        %d\n", stats.TotalDocs)
	fmt.Printf("Chunks:           %d\n", stats.TotalChunks)
	fmt.Printf("Avg chunk words:  %.1f\n", stats.AvgChunkWords)

	fmt.Println("Chunks by type:")
	types := make([]string, 0, len(stats.ChunksByType))
	for t := range stats.ChunksByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-12s %d\n", t, stats.ChunksByType[domain.ChunkType(t)])
	}

	fmt.Println("Chunks by level:")
	levels := make([]int, 0, len(stats.ChunksByLevel))
	for l := range stats.ChunksByLevel {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	for _, l := range levels {
		fmt.Printf("  level %d      %d\n", l, stats.ChunksByLevel[l])
	}
	return nil
}
