package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/qforge/internal/passage"
	"github.com/ppiankov/qforge/internal/worker"
)

var (
	fetchName         string
	fetchIgnoreRobots bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download a book into the textbooks directory",
	Long: `Fetch downloads a plain-text or HTML book and stores it as
<textbooks-dir>/<name>.txt. HTML is reduced to its visible text. robots.txt
is honored unless --ignore-robots is given.

Example:
  qforge fetch https://www.gutenberg.org/cache/epub/33283/pg33283.txt --name calculus_made_easy`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchName, "name", "", "collection name (default: derived from the URL)")
	fetchCmd.Flags().BoolVar(&fetchIgnoreRobots, "ignore-robots", false, "do not consult robots.txt")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if fetchIgnoreRobots {
		fmt.Fprintf(os.Stderr, "⚠️  Ignoring robots.txt. Make sure you have permission to download %s\n", args[0])
	}

	limiter := worker.NewLimiter(rt.cfg.RateLimit.RequestsPerSecond, rt.cfg.RateLimit.Burst)
	fetcher := passage.NewFetcher(rt.cfg.HTTP, limiter, fetchIgnoreRobots)

	rt.log.Info("Fetching book", "url", args[0])
	res, err := fetcher.FetchWithRetry(ctx, args[0])
	if err != nil {
		return err
	}

	name := fetchName
	if name == "" {
		name = res.Name
	}
	path, err := passage.Save(rt.cfg.Paths.TextbooksDir, name, res.Text)
	if err != nil {
		return err
	}

	pages := len(passage.Paginate(res.Text, passage.DefaultPageSize))
	fmt.Printf("✓ Saved %s (%d pages) to %s\n", name, pages, path)
	return nil
}
