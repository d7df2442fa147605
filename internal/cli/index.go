package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index documents for retrieval",
	Long: `Index documents for later retrieval. The source is configured in
docsearch.yaml (a directory tree or a JSON dataset); the index is stored in
.docsearch/index.db within the target directory.

Examples:
  docsearch index .                 # Index current directory
  docsearch index /path/to/docs     # Index specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	dir := rootDir
	if len(args) > 0 {
		var err error
		dir, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dir)
	}

	a, err := newApp(cfg, dir, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Chunking documents"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		bar.Set(done)
	}

	start := time.Now()
	summary, err := a.indexUC.Index(cmd.Context(), progress)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d documents into %d chunks in %s\n",
		summary.Docs, summary.Chunks, time.Since(start).Round(time.Millisecond))
	if summary.Embedded {
		fmt.Println("Dense embeddings built")
	}
	return nil
}
