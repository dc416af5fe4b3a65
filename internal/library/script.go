package library

import (
	"context"
	"time"
)

// scriptStrategy is the fallback listing for library layouts with neither a
// readable database nor an originals tree. It asks the photo application
// directly, so it only works while the application is available, and it is
// bounded by a wait cap because the application answers at its own pace.
type scriptStrategy struct {
	adapter     Adapter
	libraryPath string
	waitCap     time.Duration
}

// NewScriptStrategy lists filenames through the application adapter, waiting
// at most waitCap for an answer.
func NewScriptStrategy(adapter Adapter, libraryPath string, waitCap time.Duration) Strategy {
	return &scriptStrategy{adapter: adapter, libraryPath: libraryPath, waitCap: waitCap}
}

func (s *scriptStrategy) Name() string { return "applescript" }

func (s *scriptStrategy) List(ctx context.Context) ([]string, error) {
	if s.waitCap > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.waitCap)
		defer cancel()
	}
	return s.adapter.ListFilenames(ctx, s.libraryPath)
}
