// Package config loads, normalizes, and validates photosync configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PHOTOSYNC_CLIENT_ID. The Config type centralizes every knob the CLI needs,
// so cache/library directories and OAuth client settings are discovered in
// one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
