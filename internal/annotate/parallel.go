package annotate

import (
	"context"
	"runtime"
	"sync"

	"github.com/inodb/vibe-locus/internal/interval"
)

// WorkItem holds a parsed query interval ready for annotation.
type WorkItem struct {
	Seq      int
	Interval *interval.Interval
	Line     int
	Extra    any // caller-specific data
}

// WorkResult holds the annotation output for a single interval.
type WorkResult struct {
	Seq      int
	Interval *interval.Interval
	Line     int
	Record   *Record
	Err      error
	Extra    any
}

// ParallelAnnotate annotates work items using a pool of workers.
// Results arrive in completion order; use OrderedCollect to consume them by
// sequence number. If workers is 0, runtime.NumCPU() is used.
//
// Once ctx is done, workers stop annotating and only drain items, so the
// producer never blocks. Each drained item still yields a result carrying
// ctx.Err() to keep the sequence gap-free.
func (a *Annotator) ParallelAnnotate(ctx context.Context, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				r := WorkResult{
					Seq:      item.Seq,
					Interval: item.Interval,
					Line:     item.Line,
					Extra:    item.Extra,
				}
				if r.Err = ctx.Err(); r.Err == nil {
					r.Record, r.Err = a.Annotate(item.Interval)
				}
				results <- r
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// Out-of-order results wait in a pending map until their turn. It blocks
// until results is closed, draining the rest after fn fails.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
