package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// walkStrategy enumerates the library's originals directory on disk. Older
// library layouts keep every imported file under Masters/, so a plain walk
// recovers the same filename set the database would give us.
type walkStrategy struct {
	libraryPath string
}

// NewWalkStrategy lists filenames by walking the Masters directory under
// libraryPath.
func NewWalkStrategy(libraryPath string) Strategy {
	return &walkStrategy{libraryPath: libraryPath}
}

func (s *walkStrategy) Name() string { return "masters_walk" }

func (s *walkStrategy) List(ctx context.Context) ([]string, error) {
	mastersDir := filepath.Join(s.libraryPath, "Masters")
	info, err := os.Stat(mastersDir)
	if err != nil || !info.IsDir() {
		return nil, ErrNotApplicable
	}

	var names []string
	err = filepath.WalkDir(mastersDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", mastersDir, err)
	}
	// An empty Masters tree means this layout is not where the library
	// keeps its originals, so let the next strategy have a go.
	if len(names) == 0 {
		return nil, ErrNotApplicable
	}
	return names, nil
}
