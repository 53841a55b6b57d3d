// Package ledger persists the set of message IDs that have already been
// relayed, so a re-run never forwards the same message twice.
//
// The set is loaded fully at startup and rewritten wholesale once per run.
// Storage backends:
//   - json: a flat JSON array of integers (the default)
//   - sqlite: a single-file SQLite database
//
// Both backends also keep an append-only audit trail of relay attempts.
package ledger
