package reconcile

import (
	"log/slog"

	"golang.org/x/text/cases"

	"photosync/internal/logging"
	"photosync/internal/photos"
)

// Index is a membership set over filenames with optional case folding.
// Matching is case-insensitive by default because the library and the
// remote side disagree about extension casing often enough to cause
// duplicate downloads otherwise.
type Index struct {
	names         map[string]struct{}
	caseSensitive bool
	folder        cases.Caser
}

// NewIndex returns an empty index. With caseSensitive false, lookups fold
// both sides before comparing.
func NewIndex(caseSensitive bool) *Index {
	return &Index{
		names:         make(map[string]struct{}),
		caseSensitive: caseSensitive,
		folder:        cases.Fold(),
	}
}

func (i *Index) key(name string) string {
	if i.caseSensitive {
		return name
	}
	return i.folder.String(name)
}

// Add records a filename as present.
func (i *Index) Add(name string) {
	i.names[i.key(name)] = struct{}{}
}

// AddAll records every filename in names.
func (i *Index) AddAll(names []string) {
	for _, name := range names {
		i.Add(name)
	}
}

// Merge copies every entry of other into the index. Both indexes must use
// the same folding mode; keys are stored pre-folded so re-folding is a
// no-op.
func (i *Index) Merge(other *Index) {
	for name := range other.names {
		i.names[name] = struct{}{}
	}
}

// Contains reports whether name is present, honoring the folding mode.
func (i *Index) Contains(name string) bool {
	_, ok := i.names[i.key(name)]
	return ok
}

// Len reports the number of distinct entries.
func (i *Index) Len() int { return len(i.names) }

// Plan selects the remote items missing from the local index, in the order
// the remote listing first saw them. A non-negative maxCount caps the plan;
// a negative maxCount means unlimited.
func Plan(remote *photos.Listing, local *Index, maxCount int, logger *slog.Logger) []photos.Item {
	logger = logging.NewComponentLogger(logger, "reconciler")

	var plan []photos.Item
	for _, filename := range remote.Filenames() {
		if maxCount >= 0 && len(plan) >= maxCount {
			logger.Info("download cap reached", logging.Int("max_downloads", maxCount))
			break
		}
		if local.Contains(filename) {
			continue
		}
		item, ok := remote.Get(filename)
		if !ok {
			continue
		}
		plan = append(plan, item)
	}

	logger.Info("reconciliation complete",
		logging.Int("remote", remote.Len()),
		logging.Int("local", local.Len()),
		logging.Int("to_download", len(plan)),
	)
	return plan
}
