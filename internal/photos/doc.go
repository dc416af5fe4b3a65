// Package photos talks to the remote media API: it paginates the full
// media-item listing into a filename-keyed index and streams individual
// items into a staging directory, restoring capture timestamps where the
// metadata allows.
package photos
