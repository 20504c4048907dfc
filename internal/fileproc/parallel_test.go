package fileproc

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func TestForEachFile(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		createTestFile(t, tmpDir, "a.ts", "export const a = 1"),
		createTestFile(t, tmpDir, "b.ts", "export const b = 2"),
		createTestFile(t, tmpDir, "c.ts", "export const c = 3"),
	}

	results, errs := ForEachFile(context.Background(), files, 0, func(path string) (string, error) {
		data, err := os.ReadFile(path)
		return string(data), err
	}, nil)

	assert.Nil(t, errs)
	assert.Equal(t, []string{"export const a = 1", "export const b = 2", "export const c = 3"}, results)
}

func TestForEachFile_EmptyFileList(t *testing.T) {
	results, errs := ForEachFile(context.Background(), []string{}, 0, func(path string) (string, error) {
		return path, nil
	}, nil)

	assert.Nil(t, results)
	assert.Nil(t, errs)
}

// TestForEachSeq_PreservesOrder verifies results follow the sequence order even when
// later files finish first.
func TestForEachSeq_PreservesOrder(t *testing.T) {
	files := make([]string, 50)
	for i := range files {
		files[i] = fmt.Sprintf("file%02d.ts", i)
	}

	results, errs := ForEachFile(context.Background(), files, 8, func(path string) (string, error) {
		if path < "file10.ts" {
			time.Sleep(2 * time.Millisecond)
		}
		return path, nil
	}, nil)

	require.Nil(t, errs)
	assert.Equal(t, files, results)
}

func TestForEachSeq_WithErrors(t *testing.T) {
	files := []string{"ok1.ts", "bad.ts", "ok2.ts"}

	results, errs := ForEachFile(context.Background(), files, 2, func(path string) (string, error) {
		if path == "bad.ts" {
			return "", errors.New("unreadable")
		}
		return path, nil
	}, nil)

	assert.Equal(t, []string{"ok1.ts", "ok2.ts"}, results)
	require.NotNil(t, errs)
	assert.Equal(t, 1, errs.Len())
	assert.Equal(t, "bad.ts", errs.Errors[0].Path)
	assert.Equal(t, "bad.ts: unreadable", errs.Error())
}

func TestForEachSeq_ProgressCalledPerFile(t *testing.T) {
	files := []string{"a", "b", "c", "d"}
	var ticks atomic.Int32

	_, _ = ForEachFile(context.Background(), files, 2, func(path string) (int, error) {
		if path == "c" {
			return 0, errors.New("boom")
		}
		return 1, nil
	}, func() { ticks.Add(1) })

	assert.Equal(t, int32(4), ticks.Load())
}

func TestForEachSeq_LazySequence(t *testing.T) {
	var pulled atomic.Int32
	var seq iter.Seq[string] = func(yield func(string) bool) {
		for i := 0; i < 5; i++ {
			pulled.Add(1)
			if !yield(fmt.Sprintf("f%d", i)) {
				return
			}
		}
	}

	results, errs := ForEachSeq(context.Background(), seq, 1, func(path string) (string, error) {
		return path, nil
	}, nil)

	assert.Nil(t, errs)
	assert.Equal(t, []string{"f0", "f1", "f2", "f3", "f4"}, results)
	assert.Equal(t, int32(5), pulled.Load())
}

func TestForEachSeq_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, errs := ForEachFile(ctx, []string{"a", "b"}, 1, func(path string) (string, error) {
		return path, nil
	}, nil)

	assert.Empty(t, results)
	assert.Nil(t, errs)
}

func TestProcessingErrors(t *testing.T) {
	var nilErrs *ProcessingErrors
	assert.Equal(t, 0, nilErrs.Len())

	errs := &ProcessingErrors{}
	assert.False(t, errs.HasErrors())
	assert.Equal(t, "no errors", errs.Error())

	errs.Add("a", errors.New("x"))
	errs.Add("b", errors.New("y"))
	assert.True(t, errs.HasErrors())
	assert.Equal(t, 2, errs.Len())
	assert.Contains(t, errs.Error(), "2 files failed to process")
}
