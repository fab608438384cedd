// Package repositories implements SQL persistence for the permission-tier store.
//
// Queries use $n placeholders and ON CONFLICT upserts so the same statements run on
// SQLite (mattn/go-sqlite3) and on Postgres (bun's pgdriver).
//
// Key Implementations:
//   - [PermRepository] : per-guild, per-user permission tiers
//
// Stored tiers are decoded with [models.MustPermLevel]; a value outside 0-3 is a data-integrity failure and panics.
package repositories
