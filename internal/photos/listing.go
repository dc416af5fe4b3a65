package photos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"photosync/internal/logging"
	"photosync/internal/services"
)

// Item is one remote media item's metadata, keyed by filename everywhere in
// the pipeline. Matching is filename-based only; there is no content hashing.
type Item struct {
	Filename     string
	MimeType     string
	BaseURL      string
	CreationTime string
}

// Listing is a filename-keyed index of remote media items that remembers
// first-seen order for reporting. Duplicate filenames are last-write-wins:
// the record is replaced, the position is kept.
type Listing struct {
	items map[string]Item
	order []string
}

// NewListing returns an empty listing.
func NewListing() *Listing {
	return &Listing{items: make(map[string]Item)}
}

// Add inserts or replaces the record for item.Filename.
func (l *Listing) Add(item Item) {
	if _, exists := l.items[item.Filename]; !exists {
		l.order = append(l.order, item.Filename)
	}
	l.items[item.Filename] = item
}

// Get returns the record for filename.
func (l *Listing) Get(filename string) (Item, bool) {
	item, ok := l.items[filename]
	return item, ok
}

// Len returns the number of distinct filenames.
func (l *Listing) Len() int { return len(l.items) }

// Filenames returns the filenames in first-seen order.
func (l *Listing) Filenames() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Getter is the authenticated HTTP surface the listing and downloader need.
// It is GET-only by design.
type Getter interface {
	Get(ctx context.Context, rawURL string, params url.Values) (*http.Response, error)
	Download(ctx context.Context, rawURL string) (*http.Response, error)
}

type mediaItemsResponse struct {
	MediaItems    []mediaItem `json:"mediaItems"`
	NextPageToken string      `json:"nextPageToken"`
}

type mediaItem struct {
	Filename      string `json:"filename"`
	MimeType      string `json:"mimeType"`
	BaseURL       string `json:"baseUrl"`
	MediaMetadata struct {
		CreationTime string `json:"creationTime"`
	} `json:"mediaMetadata"`
}

// FetchAll enumerates every remote media item, following page tokens until
// the server stops returning one. Items without a filename are skipped with
// a diagnostic; a page without a mediaItems key is an empty page, not an
// error.
func FetchAll(ctx context.Context, client Getter, apiBaseURL string, logger *slog.Logger) (*Listing, error) {
	logger = logging.NewComponentLogger(logger, "remote-listing")
	listing := NewListing()

	pageToken := ""
	for page := 1; ; page++ {
		params := url.Values{}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		resp, err := client.Get(ctx, apiBaseURL+"/mediaItems", params)
		if err != nil {
			return nil, services.Wrap(services.ErrListing, "listing-remote", "mediaItems", "request failed", err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, services.Wrap(services.ErrListing, "listing-remote", "mediaItems", "read response", readErr)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, services.Wrap(services.ErrListing, "listing-remote", "mediaItems",
				fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(body, 256)), nil)
		}

		var parsed mediaItemsResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, services.Wrap(services.ErrListing, "listing-remote", "mediaItems", "decode response", err)
		}

		if parsed.MediaItems == nil {
			logger.Warn("page without mediaItems property",
				logging.Int("page", page),
				logging.String(logging.FieldEventType, "remote_page_empty"),
			)
		}
		for _, raw := range parsed.MediaItems {
			if raw.Filename == "" {
				logger.Warn("media item without filename skipped",
					logging.Int("page", page),
					logging.String(logging.FieldEventType, "remote_item_missing_filename"),
				)
				continue
			}
			listing.Add(Item{
				Filename:     raw.Filename,
				MimeType:     raw.MimeType,
				BaseURL:      raw.BaseURL,
				CreationTime: raw.MediaMetadata.CreationTime,
			})
		}

		logger.Debug("fetched media items page",
			logging.Int("page", page),
			logging.Int("total", listing.Len()),
		)

		pageToken = parsed.NextPageToken
		if pageToken == "" {
			return listing, nil
		}
	}
}

func truncate(data []byte, limit int) string {
	if len(data) <= limit {
		return string(data)
	}
	return string(data[:limit]) + "..."
}
