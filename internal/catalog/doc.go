// Package catalog persists the mirrored card catalog in SQLite: the
// denormalized search index seeded by the bulk loader and the warm
// detail-cache tier holding full card records.
//
// The index table (cards_index) is read-optimized and append-only from the
// loader's perspective; rows never expire and conflicts on catalog_id are
// ignored, which makes bulk loading idempotent. The detail table (cards) is
// written on first fetch, promoted to permanent by the engine, and trimmed by
// the eviction sweep.
//
// Treat this package as the single source of truth for storage semantics;
// when you add columns, update schema.sql and bump schemaVersion.
package catalog
