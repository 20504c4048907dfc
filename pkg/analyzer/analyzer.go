// Package analyzer holds the contracts shared by file-based analyzers.
package analyzer

import (
	"context"
	"iter"
)

// FileAnalyzer is the interface that file-based analyzers implement.
// Files are pulled lazily so discovery and analysis overlap.
type FileAnalyzer[T any] interface {
	// Analyze processes every file the sequence yields and returns the result.
	// The context carries cancellation and an optional progress Tracker.
	Analyze(ctx context.Context, files iter.Seq[string]) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
