// Command grimoire is the CLI for the local card catalog engine: index
// bootstrap, search, detail lookups, permanence management, eviction sweeps,
// and the background daemon.
package main
