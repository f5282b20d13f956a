// Package hotcache implements the ephemeral first tier of the detail cache:
// an expirable LRU of serialized card rows. Hits refresh the entry TTL so
// actively viewed cards avoid warm-tier reads entirely.
package hotcache
