package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/qforge/internal/model"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <record.json> <solution.txt>",
	Short: "Grade a solution against a stored question",
	Long: `Evaluate grades the solution in <solution.txt> against the reference
solution of a stored record. The solution is correct when the grade reaches
generation.verification_threshold.

Example:
  qforge evaluate generated_questions/question_20240101_120000_1.json answer.txt`,
	Args: cobra.ExactArgs(2),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("parse record %s: %w", args[0], err)
	}
	student, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read solution: %w", err)
	}

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

	res, err := rt.generator(p, nil).ValidateSolution(ctx, rec.Question, string(student), rec.Solution)
	if err != nil {
		return err
	}

	verdict := "✗ incorrect"
	if res.IsCorrect {
		verdict = "✓ correct"
	}
	fmt.Printf("%s (score %.2f, threshold %.2f)\n", verdict, res.Score, rt.cfg.Generation.VerificationThreshold)
	if res.BoxedSolution != nil {
		fmt.Printf("Reference answer: %s\n", *res.BoxedSolution)
	}
	if res.Feedback != "" {
		fmt.Printf("\n%s\n", res.Feedback)
	}
	return nil
}
