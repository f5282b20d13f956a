// Package ratelimit guards the external catalog API with interval-based
// pacing shared across all callers in the process.
package ratelimit
