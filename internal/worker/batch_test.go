package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/qforge/internal/model"
)

func units(collection string, n int) []model.WorkUnit {
	out := make([]model.WorkUnit, n)
	for i := range out {
		out[i] = model.WorkUnit{Collection: collection, StartPage: i + 1, EndPage: i + 1}
	}
	return out
}

func TestBatchProcessor_AtMostBatchSizeInFlight(t *testing.T) {
	var current, peak int32
	runner := RunnerFunc(func(ctx context.Context, unit model.WorkUnit) (model.UnitStats, error) {
		n := atomic.AddInt32(&current, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return model.UnitStats{Persisted: 1}, nil
	})

	summary := NewBatchProcessor(runner, 2, nil, nil).Process(context.Background(), units("A", 5), NewSnapshot(nil))

	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Errorf("expected at most 2 units in flight, got %d", got)
	}
	if summary.Units != 5 || summary.Stats.Persisted != 5 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestBatchProcessor_BarrierBetweenBatches(t *testing.T) {
	var finishedFirst int32
	runner := RunnerFunc(func(ctx context.Context, unit model.WorkUnit) (model.UnitStats, error) {
		switch unit.StartPage {
		case 1:
			time.Sleep(30 * time.Millisecond)
			atomic.StoreInt32(&finishedFirst, 1)
		case 3:
			if atomic.LoadInt32(&finishedFirst) == 0 {
				return model.UnitStats{}, errors.New("second batch started before first finished")
			}
		}
		return model.UnitStats{}, nil
	})

	summary := NewBatchProcessor(runner, 2, nil, nil).Process(context.Background(), units("A", 3), NewSnapshot(nil))
	if summary.Failed != 0 {
		t.Errorf("barrier violated: %v", summary.Results[2].Err)
	}
}

func TestBatchProcessor_ResultsInDispatchOrder(t *testing.T) {
	runner := RunnerFunc(func(ctx context.Context, unit model.WorkUnit) (model.UnitStats, error) {
		// Later units finish first
		time.Sleep(time.Duration(5-unit.StartPage) * 5 * time.Millisecond)
		return model.UnitStats{Parsed: unit.StartPage}, nil
	})

	summary := NewBatchProcessor(runner, 5, nil, nil).Process(context.Background(), units("A", 4), NewSnapshot(nil))
	if len(summary.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(summary.Results))
	}
	for i, r := range summary.Results {
		if r.Index != i || r.Stats.Parsed != i+1 {
			t.Errorf("result %d out of order: %+v", i, r)
		}
	}
}

func TestBatchProcessor_FailureIsolated(t *testing.T) {
	runner := RunnerFunc(func(ctx context.Context, unit model.WorkUnit) (model.UnitStats, error) {
		if unit.StartPage == 2 {
			return model.UnitStats{}, errors.New("backend down")
		}
		return model.UnitStats{Parsed: 3, Verified: 2, Accepted: 2, Persisted: 2}, nil
	})

	summary := NewBatchProcessor(runner, 3, nil, nil).Process(context.Background(), units("A", 3), NewSnapshot(nil))
	if summary.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", summary.Failed)
	}
	if summary.Results[1].Err == nil {
		t.Error("expected error recorded on unit 2")
	}
	if summary.Stats.Persisted != 4 || summary.Stats.Parsed != 6 {
		t.Errorf("unexpected totals: %+v", summary.Stats)
	}
}

func TestBatchProcessor_ResumeSkipsCollection(t *testing.T) {
	var seen []string
	runner := RunnerFunc(func(ctx context.Context, unit model.WorkUnit) (model.UnitStats, error) {
		seen = append(seen, unit.Collection)
		return model.UnitStats{}, nil
	})

	work := append(units("A", 1), units("C", 2)...)
	work = append(work, units("B", 1)...)
	snapshot := NewSnapshot([]string{"C_pages_1-3", "not-a-tag"})

	summary := NewBatchProcessor(runner, 1, nil, nil).Process(context.Background(), work, snapshot)

	if summary.Skipped != 2 {
		t.Errorf("expected 2 skipped units, got %d", summary.Skipped)
	}
	for _, c := range seen {
		if c == "C" {
			t.Error("collection C should have been skipped")
		}
	}
	if !summary.Results[1].Skipped || !summary.Results[2].Skipped || summary.Results[3].Skipped {
		t.Errorf("unexpected skip flags: %+v", summary.Results)
	}
}

func TestBatchProcessor_CancelStopsBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ran int32
	runner := RunnerFunc(func(ctx context.Context, unit model.WorkUnit) (model.UnitStats, error) {
		atomic.AddInt32(&ran, 1)
		cancel()
		return model.UnitStats{}, nil
	})

	summary := NewBatchProcessor(runner, 2, nil, nil).Process(ctx, units("A", 6), NewSnapshot(nil))
	if !summary.Cancelled {
		t.Error("expected run to be marked cancelled")
	}
	if got := atomic.LoadInt32(&ran); got != 2 {
		t.Errorf("expected only the first batch to run, got %d units", got)
	}
}

func TestSnapshot(t *testing.T) {
	s := NewSnapshot([]string{"calc_pages_1-3", "calc_page_4", "bio_pages_2-2", "excerpt text"})
	if s.Len() != 2 {
		t.Errorf("expected 2 collections, got %d", s.Len())
	}
	if !s.Has("calc") || !s.Has("bio") || s.Has("excerpt text") {
		t.Errorf("unexpected snapshot contents: %v", s.Collections())
	}
	if got := s.Collections(); got[0] != "bio" || got[1] != "calc" {
		t.Errorf("expected sorted collections, got %v", got)
	}

	nested := NewSnapshot([]string{"intro_pages_vol1_pages_1-3", "notes_page_one_page_7", "mix_pages_a_page_2"})
	for _, c := range []string{"intro_pages_vol1", "notes_page_one", "mix_pages_a"} {
		if !nested.Has(c) {
			t.Errorf("expected %q in snapshot, got %v", c, nested.Collections())
		}
	}
	if nested.Has("intro") || nested.Has("notes") || nested.Has("mix") {
		t.Errorf("collection cut at an inner separator: %v", nested.Collections())
	}

	var empty Snapshot
	if empty.Has("calc") {
		t.Error("zero snapshot should be empty")
	}
}
