package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/qforge/internal/filter"
)

var (
	filterOut     string
	filterWorkers int
)

var filterCmd = &cobra.Command{
	Use:   "filter <dir>...",
	Short: "Flag questions that cannot be solved from their own text",
	Long: `Filter asks the backend whether each stored question can be answered
without outside context, such as a figure or an earlier example. Annotated
copies go to <out>/filtered-<dir>/ and per-folder counts to
<out>/filter_stats.json. The input folders are not modified.

Example:
  qforge filter generated_questions --workers 16`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringVarP(&filterOut, "out", "o", "filtered_questions", "output root for annotated copies")
	filterCmd.Flags().IntVarP(&filterWorkers, "workers", "w", 8, "concurrent backend requests")
	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	p, err := rt.provider()
	if err != nil {
		return err
	}

	banner("qforge filter")
	fmt.Fprintf(os.Stderr, "  Folders:  %d\n", len(args))
	fmt.Fprintf(os.Stderr, "  Output:   %s\n", filterOut)
	fmt.Fprintf(os.Stderr, "  Workers:  %d\n\n", filterWorkers)

	stats, err := filter.New(p, rt.cfg.LLM.Model, filterWorkers, rt.log).Run(ctx, args, filterOut)
	for _, s := range stats {
		fmt.Fprintf(os.Stderr, "  %-30s %d/%d processed, %d solvable, %d unsolvable, %d errors\n",
			s.Folder, s.Processed, s.Total, s.Solvable, s.Unsolvable, s.Errors)
	}
	return err
}
