// Package auth owns the OAuth credential lifecycle for one account: a
// file-backed token store with single-writer locking, a token source that
// persists silent refreshes before they are used, the interactive
// authorization-code exchange, and a retrying HTTP client that attaches the
// current bearer token to every request.
package auth
