// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"iter"
	"runtime"
	"slices"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Len returns the number of collected errors.
func (e *ProcessingErrors) Len() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors)
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// slot holds the result of one file, at its position in the input sequence.
type slot[T any] struct {
	value T
	ok    bool
}

// ForEachFile processes a slice of files in parallel. See ForEachSeq.
func ForEachFile[T any](ctx context.Context, files []string, maxWorkers int, fn func(string) (T, error), onProgress ProgressFunc) ([]T, *ProcessingErrors) {
	return ForEachSeq(ctx, slices.Values(files), maxWorkers, fn, onProgress)
}

// ForEachSeq pulls paths from files and processes them on a bounded pool.
//
// Results of successful files are returned in the order the sequence yielded them,
// so the output matches a sequential run. Failed files are left out and recorded in
// the returned errors, which is nil when every file succeeded. Cancelling ctx stops
// pulling from the sequence; files not yet started are recorded with ctx.Err().
// If maxWorkers is <= 0, defaults to 2x NumCPU.
func ForEachSeq[T any](ctx context.Context, files iter.Seq[string], maxWorkers int, fn func(string) (T, error), onProgress ProgressFunc) ([]T, *ProcessingErrors) {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	errs := &ProcessingErrors{}
	var slots []*slot[T]

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for path := range files {
		if ctx.Err() != nil {
			break
		}
		s := &slot[T]{}
		slots = append(slots, s)

		p.Go(func(ctx context.Context) error {
			if onProgress != nil {
				defer onProgress()
			}

			// Check for cancellation before processing
			select {
			case <-ctx.Done():
				errs.Add(path, ctx.Err())
				return ctx.Err()
			default:
			}

			result, err := fn(path)
			if err != nil {
				errs.Add(path, err)
				return nil // Don't stop pool on individual file errors
			}
			s.value = result
			s.ok = true
			return nil
		})
	}
	_ = p.Wait() // Context errors are already captured in errs

	if len(slots) == 0 {
		return nil, nil
	}

	results := make([]T, 0, len(slots))
	for _, s := range slots {
		if s.ok {
			results = append(results, s.value)
		}
	}

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
