// Package history keeps a SQLite ledger of optimization runs.
//
// Each run row records where its originals were archived and how it ended,
// and the results table holds one row per asset per output variant. The
// ledger is what `assetopt runs` and `assetopt restore RUN_ID` read; the
// archive directories themselves remain the recovery point.
//
// Schema changes append a statement to migrations in schema.go. Opening an
// older ledger applies the missing steps; a ledger written by a newer build is
// rejected with ErrSchemaMismatch.
package history
