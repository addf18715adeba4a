// Package metastore persists entity metadata per environment in a SQLite
// database inside the environment's cache directory. Each environment gets
// its own database file, so concurrently used environments never touch each
// other's cached metadata. An optional FTS5 index supports full-text lookups
// over display names and descriptions.
package metastore
