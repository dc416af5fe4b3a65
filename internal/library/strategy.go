package library

import (
	"context"
	"errors"
	"log/slog"

	"photosync/internal/logging"
	"photosync/internal/services"
)

// ErrNotApplicable signals that a strategy cannot run against this library
// layout at all, as opposed to running and failing.
var ErrNotApplicable = errors.New("listing strategy not applicable")

// Strategy enumerates the filenames already present in a photo library.
// Implementations must return base filenames, never paths.
type Strategy interface {
	Name() string
	List(ctx context.Context) ([]string, error)
}

// ListFilenames runs the strategies in order and returns the result of the
// first one that succeeds. A strategy that fails, for any reason, only
// causes a fall through to the next one; the distinction between "not
// applicable" and "broke" matters only for the log line. When every
// strategy has been exhausted the account cannot be reconciled safely.
func ListFilenames(ctx context.Context, strategies []Strategy, logger *slog.Logger) ([]string, string, error) {
	logger = logging.NewComponentLogger(logger, "library")

	for _, strategy := range strategies {
		names, err := strategy.List(ctx)
		if err == nil {
			logger.Info("local listing complete",
				logging.String("strategy", strategy.Name()),
				logging.Int("filenames", len(names)),
			)
			return names, strategy.Name(), nil
		}
		if errors.Is(err, ErrNotApplicable) {
			logger.Debug("listing strategy not applicable",
				logging.String("strategy", strategy.Name()),
			)
			continue
		}
		logger.Warn("listing strategy failed",
			logging.String("strategy", strategy.Name()),
			logging.Error(err),
		)
	}

	return nil, "", services.Wrap(services.ErrListing, "listing_local", "list_filenames",
		"every local listing strategy failed", nil)
}
