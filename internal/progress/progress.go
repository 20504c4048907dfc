// Package progress shows scan progress on the terminal.
package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Bar wraps a progress bar for file processing.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewSpinner creates a spinner for a file set whose size is not known up front,
// as when files are discovered while they are analyzed.
func NewSpinner(label string) *Bar {
	return NewSpinnerTo(os.Stderr, label)
}

// NewSpinnerTo is NewSpinner writing to w.
func NewSpinnerTo(w io.Writer, label string) *Bar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return &Bar{bar: bar}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (b *Bar) Tick() {
	_ = b.bar.Add(1)
}

// Callback adapts the bar to an analyzer progress callback.
func (b *Bar) Callback() func(current, total int, path string) {
	return func(int, int, string) { b.Tick() }
}

// Count returns the number of ticks so far.
func (b *Bar) Count() int64 {
	return b.bar.State().CurrentNum
}

// FinishSuccess clears the bar completely (no output).
func (b *Bar) FinishSuccess() {
	_ = b.bar.Finish()
	_ = b.bar.Clear()
}

// Abort clears the bar without printing anything; the caller reports the failure.
func (b *Bar) Abort() {
	_ = b.bar.Exit()
	_ = b.bar.Clear()
}
