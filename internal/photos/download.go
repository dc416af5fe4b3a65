package photos

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"photosync/internal/logging"
)

const (
	// Download URL suffixes selecting the full-resolution variant.
	imageSuffix = "=d"
	videoSuffix = "=dv"

	// creationTimeLayout is the fixed timestamp format of mediaMetadata.creationTime.
	creationTimeLayout = "2006-01-02T15:04:05Z"
)

// DownloadURL derives the variant download URL for the item, or ok=false for
// media classes the pipeline does not handle.
func DownloadURL(item Item) (string, bool) {
	switch {
	case strings.HasPrefix(item.MimeType, "image"):
		return item.BaseURL + imageSuffix, true
	case strings.HasPrefix(item.MimeType, "video"):
		return item.BaseURL + videoSuffix, true
	default:
		return "", false
	}
}

// Download streams one remote item into destDir. The body goes to a
// uniquely-named temp file first and is renamed to the item's filename only
// after a complete, successful write, so a partial download never shadows
// the real filename. Returns false on any per-item failure; a failed item
// must never abort its siblings, so errors are logged rather than returned.
func Download(ctx context.Context, client Getter, item Item, destDir string, logger *slog.Logger) bool {
	logger = logging.NewComponentLogger(logger, "downloader")

	target, ok := DownloadURL(item)
	if !ok {
		logger.Warn("skipping unknown media type",
			logging.String("filename", item.Filename),
			logging.String("mime_type", item.MimeType),
			logging.String(logging.FieldEventType, "download_type_skipped"),
		)
		return false
	}

	logger.Info("downloading", logging.String("filename", item.Filename))

	resp, err := client.Download(ctx, target)
	if err != nil {
		logger.Error("download request failed",
			logging.String("filename", item.Filename),
			logging.Error(err),
			logging.String(logging.FieldEventType, "download_failed"),
		)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("download rejected",
			logging.String("filename", item.Filename),
			logging.Int("status", resp.StatusCode),
			logging.String(logging.FieldEventType, "download_failed"),
		)
		return false
	}

	tmpPath := filepath.Join(destDir, fmt.Sprintf(".download-%s.tmp", uuid.New().String()))
	if err := writeStream(tmpPath, resp.Body); err != nil {
		os.Remove(tmpPath)
		logger.Error("download write failed",
			logging.String("filename", item.Filename),
			logging.Error(err),
			logging.String(logging.FieldEventType, "download_failed"),
		)
		return false
	}

	restoreTimestamp(tmpPath, item, logger)

	finalPath := filepath.Join(destDir, item.Filename)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		logger.Error("download rename failed",
			logging.String("filename", item.Filename),
			logging.Error(err),
			logging.String(logging.FieldEventType, "download_failed"),
		)
		return false
	}
	return true
}

func writeStream(path string, body io.Reader) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// restoreTimestamp sets atime and mtime to the capture time when the
// metadata carries a well-formed value. A malformed timestamp leaves the
// filesystem defaults in place and is not an error.
func restoreTimestamp(path string, item Item, logger *slog.Logger) {
	if item.CreationTime == "" {
		return
	}
	captured, err := time.Parse(creationTimeLayout, item.CreationTime)
	if err != nil {
		logger.Warn("ignoring malformed capture timestamp",
			logging.String("filename", item.Filename),
			logging.String("creation_time", item.CreationTime),
			logging.String(logging.FieldEventType, "timestamp_malformed"),
		)
		return
	}
	if err := os.Chtimes(path, captured, captured); err != nil {
		logger.Warn("could not set file timestamp",
			logging.String("filename", item.Filename),
			logging.Error(err),
			logging.String(logging.FieldEventType, "timestamp_failed"),
		)
	}
}
