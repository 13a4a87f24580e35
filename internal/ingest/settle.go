package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrUnsettled is returned by WaitStable when the file kept changing for the
// whole polling budget.
var ErrUnsettled = errors.New("file did not settle")

// WaitStable polls path until two consecutive stats report the same size and
// modification time, so a file still being copied in is not picked up early.
// It gives up after attempts polls with ErrUnsettled and the last stat seen,
// so callers can tell a file that is still growing from one that is stuck.
func WaitStable(ctx context.Context, path string, interval time.Duration, attempts int) (os.FileInfo, error) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if attempts <= 0 {
		attempts = 20
	}

	prev, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !prev.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		cur, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if cur.Size() == prev.Size() && cur.ModTime().Equal(prev.ModTime()) && cur.Size() > 0 {
			return cur, nil
		}
		prev = cur
		timer.Reset(interval)
	}
	return prev, fmt.Errorf("%w: %s still changing after %d checks", ErrUnsettled, path, attempts)
}
