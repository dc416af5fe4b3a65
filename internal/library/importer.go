package library

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"photosync/internal/logging"
)

// ImportAndWait hands the staged files to the application and waits for the
// import to finish, up to timeout. Import is best-effort once handed off:
// running out of patience logs a warning and reports incomplete, it never
// fails the account.
func ImportAndWait(ctx context.Context, adapter Adapter, stagingDir, libraryPath string, timeout time.Duration, logger *slog.Logger) bool {
	logger = logging.NewComponentLogger(logger, "importer")

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := adapter.Import(ctx, stagingDir, libraryPath)
	switch {
	case err == nil:
		logger.Info("import complete", logging.String("staging_dir", stagingDir))
		return true
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("import still running after wait cap, proceeding",
			logging.String("staging_dir", stagingDir),
			logging.String(logging.FieldEventType, "import_timeout"),
		)
		return false
	default:
		logger.Warn("import trigger failed",
			logging.String("staging_dir", stagingDir),
			logging.Error(err),
			logging.String(logging.FieldEventType, "import_failed"),
		)
		return false
	}
}
