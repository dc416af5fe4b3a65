// Package services defines the shared failure taxonomy for the sync
// pipeline: sentinel markers that distinguish configuration problems (stop
// the run), authorization and listing problems (skip the account), and
// transient faults (already retried where they occurred), plus helpers for
// wrapping errors with stage context.
package services
