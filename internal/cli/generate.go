package cli

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/qforge/internal/model"
	"github.com/ppiankov/qforge/internal/passage"
	"github.com/ppiankov/qforge/internal/pipeline"
	"github.com/ppiankov/qforge/internal/store"
	"github.com/ppiankov/qforge/internal/worker"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate questions from every book in the library",
	Long: `Generate walks every book in the textbooks directory, splits it into page
groups and generates questions for each group in fixed-size batches.

Books that already have records in the output directory are skipped unless
--no-resume is given.

Example:
  qforge generate --model gpt-4o-mini --verify
  qforge generate --pages-per-group 2 --batch-size 20 --hints --domain`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var rangeCmd = &cobra.Command{
	Use:   "range <book> <start> <end>",
	Short: "Generate questions for an explicit page range of one book",
	Long: `Range generates questions for pages start through end of one book. The
range is clamped to the book. Earlier records never cause pages to be skipped.

Example:
  qforge range calculus 10 40 --verify`,
	Args: cobra.ExactArgs(3),
	RunE: runRange,
}

var (
	rangePagesPerGroup int
	rangeBatchSize     int
)

func init() {
	rootCmd.AddCommand(generateCmd, rangeCmd)

	for _, cmd := range []*cobra.Command{generateCmd, rangeCmd} {
		f := cmd.Flags()
		f.IntP("questions", "n", 0, "questions per page group")
		f.String("difficulty", "", "high_school, undergrad, graduate or research")
		f.Bool("verify", false, "re-solve every question and keep only matching answers")
		f.Int("attempts", 0, "verification attempts per question")
		f.Float64("overgenerate", 0, "draft this many times the target when verifying")
		f.Bool("hints", false, "add hints to every question")
		f.Bool("domain", false, "classify every question into a subject domain")
	}

	generateCmd.Flags().Int("pages-per-group", 0, "pages joined into one passage")
	generateCmd.Flags().Int("batch-size", 0, "page groups run concurrently")
	generateCmd.Flags().Bool("no-shuffle", false, "process books in name order")
	generateCmd.Flags().Bool("no-resume", false, "do not skip books that already have records")

	rangeCmd.Flags().IntVar(&rangePagesPerGroup, "pages-per-group", 1, "pages joined into one passage")
	rangeCmd.Flags().IntVar(&rangeBatchSize, "batch-size", 10, "page groups run concurrently")
}

// generationFlags binds the shared generation flags of cmd to viper
func generationFlags(cmd *cobra.Command) {
	bindFlags(cmd.Flags(), map[string]string{
		"generation.questions_per_unit":    "questions",
		"generation.difficulty":            "difficulty",
		"generation.verify":                "verify",
		"generation.verification_attempts": "attempts",
		"generation.overgenerate":          "overgenerate",
		"generation.hints":                 "hints",
		"generation.classify_domain":       "domain",
	})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	generationFlags(cmd)
	bindFlags(cmd.Flags(), map[string]string{
		"batch.pages_per_group": "pages-per-group",
		"batch.batch_size":      "batch-size",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	noShuffle, _ := cmd.Flags().GetBool("no-shuffle")
	noResume, _ := cmd.Flags().GetBool("no-resume")
	cfg := rt.cfg
	if noShuffle {
		cfg.Batch.Shuffle = false
	}
	if noResume {
		cfg.Batch.Resume = false
	}

	lib := passage.NewLibrary(cfg.Paths.TextbooksDir, passage.DefaultPageSize)
	books := lib.Collections()
	if len(books) == 0 {
		return fmt.Errorf("no books found in %s", cfg.Paths.TextbooksDir)
	}
	if cfg.Batch.Shuffle {
		rand.Shuffle(len(books), func(i, j int) { books[i], books[j] = books[j], books[i] })
	}

	var units []model.WorkUnit
	for _, book := range books {
		units = append(units, passage.BookGroups(lib, book, cfg.Batch.PagesPerGroup)...)
	}

	return runUnits(ctx, rt, lib, units, cfg.Batch.BatchSize, cfg.Batch.Resume)
}

func runRange(cmd *cobra.Command, args []string) error {
	generationFlags(cmd)

	start, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid start page %q: %w", args[1], err)
	}
	end, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid end page %q: %w", args[2], err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	lib := passage.NewLibrary(rt.cfg.Paths.TextbooksDir, passage.DefaultPageSize)
	book := args[0]
	pages := lib.PageCount(book)
	if pages == 0 {
		return fmt.Errorf("book %q not found in %s", book, rt.cfg.Paths.TextbooksDir)
	}

	units := passage.Groups(book, start, end, pages, rangePagesPerGroup)
	if len(units) == 0 {
		return fmt.Errorf("page range %d-%d is empty for %s (%d pages)", start, end, book, pages)
	}
	return runUnits(ctx, rt, lib, units, rangeBatchSize, false)
}

// runUnits locks the output directory and runs units through the batch
// processor. Partial failure is reported but is not an error.
func runUnits(ctx context.Context, rt *runtime, lib *passage.Library, units []model.WorkUnit, batchSize int, resume bool) error {
	cfg := rt.cfg

	out, err := store.Open(cfg.Paths.OutputDir)
	if err != nil {
		return err
	}
	if err := out.Lock(); err != nil {
		return err
	}
	defer func() { _ = out.Unlock() }()

	snapshot := worker.NewSnapshot(nil)
	if resume {
		tags, err := out.Provenances()
		if err != nil {
			return fmt.Errorf("scan output dir: %w", err)
		}
		snapshot = worker.NewSnapshot(tags)
	}

	p, err := rt.provider()
	if err != nil {
		return err
	}

	opts := pipeline.OptionsFromConfig(cfg.Generation)
	runner := pipeline.NewUnitRunner(lib, rt.generator(p, out), opts, rt.log)

	banner("qforge generation")
	fmt.Fprintf(os.Stderr, "  Run:          %s\n", rt.runID)
	fmt.Fprintf(os.Stderr, "  Textbooks:    %s\n", lib.Dir())
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", out.Dir())
	fmt.Fprintf(os.Stderr, "  Page groups:  %d\n", len(units))
	fmt.Fprintf(os.Stderr, "  Batch size:   %d\n", batchSize)
	fmt.Fprintf(os.Stderr, "  Questions:    %d per group (%s)\n", opts.TargetCount, opts.Difficulty)
	fmt.Fprintf(os.Stderr, "  Verify:       %v\n", opts.Verify)
	if resume {
		fmt.Fprintf(os.Stderr, "  Resume:       %d books already processed\n", snapshot.Len())
	}
	fmt.Fprintf(os.Stderr, "\n")

	summary := worker.NewBatchProcessor(runner, batchSize, rt.log, rt.metrics).Process(ctx, units, snapshot)

	banner("Generation complete")
	fmt.Fprintf(os.Stderr, "  Units:      %d\n", summary.Units)
	fmt.Fprintf(os.Stderr, "  Skipped:    %d\n", summary.Skipped)
	fmt.Fprintf(os.Stderr, "  Failed:     %d\n", summary.Failed)
	fmt.Fprintf(os.Stderr, "  Generated:  %d\n", summary.Stats.Parsed)
	if opts.Verify {
		fmt.Fprintf(os.Stderr, "  Verified:   %d\n", summary.Stats.Verified)
	}
	fmt.Fprintf(os.Stderr, "  Persisted:  %d\n", summary.Stats.Persisted)
	fmt.Fprintf(os.Stderr, "  Duration:   %v\n", summary.Duration.Round(time.Millisecond))
	if summary.Cancelled {
		fmt.Fprintf(os.Stderr, "  Interrupted before all batches ran\n")
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
