// Package daemon schedules the engine's background work: the bootstrap
// pipeline on startup and a periodic eviction sweep, guarded by a lock file
// so only one instance runs against a catalog database.
package daemon
