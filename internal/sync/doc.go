// Package sync sequences the per-account pipeline: authenticate, list both
// sides, reconcile, download, import, clean up. The orchestrator is the
// only place that knows the order of operations; every step lives in its
// own package.
package sync
