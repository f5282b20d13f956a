// Package scryfall implements the client for the external card catalog API:
// the bulk dump manifest, streamed dump downloads, and per-card detail
// fetches.
//
// The client does not pace itself; callers route every request through the
// shared rate limiter. Errors carry the services sentinel taxonomy so the
// engine can classify not-found responses apart from transport failures.
package scryfall
