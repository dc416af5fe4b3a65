package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"photosync/internal/logging"
)

// Adapter is the capability boundary to the photo application itself. Both
// operations hand work to an external, independently-progressing process;
// giving up on one means walking away, never killing it.
type Adapter interface {
	ListFilenames(ctx context.Context, libraryPath string) ([]string, error)
	Import(ctx context.Context, stagingDir, libraryPath string) error
}

const listFilenamesScript = `set output to ""
tell application "Photos"
	repeat with mediaItem in every media item
		set output to output & (filename of mediaItem) & linefeed
	end repeat
end tell
return output`

// ScriptAdapter drives the photo application through osascript.
type ScriptAdapter struct {
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewScriptAdapter returns an adapter that polls external process completion
// at pollInterval.
func NewScriptAdapter(pollInterval time.Duration, logger *slog.Logger) *ScriptAdapter {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &ScriptAdapter{
		pollInterval: pollInterval,
		logger:       logging.NewComponentLogger(logger, "script-adapter"),
	}
}

func (a *ScriptAdapter) ListFilenames(ctx context.Context, libraryPath string) ([]string, error) {
	out, err := os.CreateTemp("", "photosync-listing-*.txt")
	if err != nil {
		return nil, fmt.Errorf("creating listing output file: %w", err)
	}
	outPath := out.Name()
	defer os.Remove(outPath)

	cmd := exec.Command("osascript", "-e", listFilenamesScript)
	cmd.Stdout = out
	if err := a.await(ctx, cmd, "list_filenames"); err != nil {
		out.Close()
		return nil, err
	}
	out.Close()

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("reading listing output: %w", err)
	}
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

func (a *ScriptAdapter) Import(ctx context.Context, stagingDir, libraryPath string) error {
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return fmt.Errorf("reading staging directory: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, filepath.Join(stagingDir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil
	}
	sort.Strings(files)

	cmd := exec.Command("osascript", "-e", importScript(files))
	return a.await(ctx, cmd, "import")
}

func importScript(files []string) string {
	refs := make([]string, len(files))
	for i, file := range files {
		refs[i] = fmt.Sprintf("POSIX file %q", file)
	}
	return fmt.Sprintf(
		`tell application "Photos" to import {%s} skip check duplicates yes`,
		strings.Join(refs, ", "),
	)
}

// await starts cmd and waits for it with an interval-based poll. When ctx
// expires the process is left running; the caller has given up waiting, not
// cancelled the work.
func (a *ScriptAdapter) await(ctx context.Context, cmd *exec.Cmd, operation string) error {
	started := time.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting osascript: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("osascript %s: %w", operation, err)
			}
			return nil
		case <-ticker.C:
			a.logger.Debug("waiting on external process",
				logging.String("operation", operation),
				logging.String("elapsed", time.Since(started).Round(time.Second).String()),
			)
		case <-ctx.Done():
			a.logger.Warn("gave up waiting on external process",
				logging.String("operation", operation),
				logging.String("elapsed", time.Since(started).Round(time.Second).String()),
			)
			return ctx.Err()
		}
	}
}
