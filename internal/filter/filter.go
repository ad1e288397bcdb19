// Package filter flags persisted questions that cannot be solved from their
// own text, such as those pointing at a figure or an earlier example.
package filter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/qforge/internal/llm"
	"github.com/ppiankov/qforge/internal/logger"
	"github.com/ppiankov/qforge/internal/model"
	"github.com/ppiankov/qforge/internal/store"
	"github.com/ppiankov/qforge/internal/worker"
)

// StatsFile is written to the output root after all folders are processed
const StatsFile = "filter_stats.json"

// AnnotatedRecord is a record copy carrying the solvability judgement
type AnnotatedRecord struct {
	model.Record
	Filtered       bool   `json:"filtered"`
	FilterResponse bool   `json:"filter_response"` // true when judged solvable
	FilterReason   string `json:"filter_reason,omitempty"`
}

// FolderStats summarizes one input folder
type FolderStats struct {
	Folder     string `json:"folder"`
	Total      int    `json:"total"`
	Processed  int    `json:"processed"`
	Solvable   int    `json:"solvable"`
	Unsolvable int    `json:"unsolvable"`
	Errors     int    `json:"errors"`
}

// Filter judges records with the backend
type Filter struct {
	provider llm.Provider
	model    string
	workers  int
	logger   *logger.Logger
}

func New(p llm.Provider, model string, workers int, log *logger.Logger) *Filter {
	if log == nil {
		log = logger.Nop()
	}
	return &Filter{provider: p, model: model, workers: workers, logger: log}
}

// IsSolvable asks the backend whether question stands on its own. An answer
// that mentions neither true nor false counts as unsolvable.
func (f *Filter) IsSolvable(ctx context.Context, question string) (bool, string, error) {
	if strings.TrimSpace(question) == "" {
		return false, "no question text found", nil
	}

	resp, err := f.provider.Generate(ctx, llm.GenerateRequest{
		Model:       f.model,
		Prompt:      llm.SolvabilityPrompt(question),
		Temperature: 0.0,
	})
	if err != nil {
		return false, "", err
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Text))
	switch {
	case strings.Contains(answer, "true"):
		return true, answer, nil
	case strings.Contains(answer, "false"):
		return false, answer, nil
	default:
		return false, "unclear response: " + answer, nil
	}
}

// Run filters every folder into outputRoot/filtered-<folder> and writes the
// per-folder stats to outputRoot/filter_stats.json
func (f *Filter) Run(ctx context.Context, folders []string, outputRoot string) ([]FolderStats, error) {
	out, err := store.Open(outputRoot)
	if err != nil {
		return nil, err
	}

	all := make([]FolderStats, 0, len(folders))
	for _, folder := range folders {
		stats, err := f.Folder(ctx, folder, outputRoot)
		if err != nil {
			return all, err
		}
		f.logger.Info("Folder filtered",
			"folder", stats.Folder,
			"processed", stats.Processed,
			"total", stats.Total,
			"unsolvable", stats.Unsolvable,
			"errors", stats.Errors)
		all = append(all, stats)
	}

	if err := out.WriteJSON(StatsFile, all); err != nil {
		return all, err
	}
	return all, nil
}

// Folder judges every record in folder and writes annotated copies
func (f *Filter) Folder(ctx context.Context, folder, outputRoot string) (FolderStats, error) {
	name := filepath.Base(filepath.Clean(folder))
	stats := FolderStats{Folder: name}

	info, err := os.Stat(folder)
	if err != nil {
		return stats, fmt.Errorf("open folder: %w", err)
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("open folder: %s is not a directory", folder)
	}

	in, err := store.Open(folder)
	if err != nil {
		return stats, err
	}
	entries, malformed, err := in.Scan()
	if err != nil {
		return stats, err
	}
	for _, path := range malformed {
		f.logger.Warn("Skipping unreadable record", "path", path)
	}

	out, err := store.Open(filepath.Join(outputRoot, "filtered-"+name))
	if err != nil {
		return stats, err
	}

	stats.Total = len(entries) + len(malformed)
	stats.Errors = len(malformed)
	stats.Processed = len(malformed)

	pool := worker.NewPool(ctx, f.workers)
	pool.Start()
	for _, e := range entries {
		pool.Submit(&judgeJob{filter: f, entry: e, out: out})
	}

	for _, r := range pool.Wait() {
		res := r.(*judgeResult)
		stats.Processed++
		switch {
		case res.err != nil:
			stats.Errors++
			f.logger.Warn("Filter failed", "path", res.path, "error", res.err)
		case res.solvable:
			stats.Solvable++
		default:
			stats.Unsolvable++
		}
	}
	return stats, nil
}

type judgeJob struct {
	filter *Filter
	entry  store.Entry
	out    *store.DirStore
}

type judgeResult struct {
	path     string
	solvable bool
	err      error
}

func (r *judgeResult) GetError() error { return r.err }

func (j *judgeJob) Execute(ctx context.Context) worker.Result {
	res := &judgeResult{path: j.entry.Path}

	solvable, reason, err := j.filter.IsSolvable(ctx, j.entry.Record.Question)
	if err != nil {
		res.err = err
		return res
	}
	res.solvable = solvable

	annotated := AnnotatedRecord{
		Record:         j.entry.Record,
		Filtered:       true,
		FilterResponse: solvable,
		FilterReason:   reason,
	}
	res.err = j.out.WriteJSON(filepath.Base(j.entry.Path), annotated)
	return res
}
