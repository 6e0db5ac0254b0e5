// Package dough maintains a personal double-entry ledger derived from bank
// transaction feeds, recurring schedules, and human classification
// decisions, and computes running and current balances across a
// hierarchical chart of accounts.
//
// The ledger is local-first and auditable: every decision is an append-only
// JSONL log line in the journal directory, and the whole state is replayed
// from those logs on every run.
//
//   - journalEntries.jsonl: JournalEntry and RevertJournalEntry lines.
//   - classifiedTransactions.jsonl: ClassifiedTransaction and
//     RevertClassifiedTransaction lines.
//   - sourceTransactions.jsonl: raw transactions, as received.
//   - forReview.txt: the review report, rewritten on every run. Approve a
//     row by placing a '*' at the beginning of its line.
//
// A run builds the chart of accounts, replays the logs, ingests new source
// transactions, turns approved classifications into journal entries,
// rewrites the review report, expands scheduled and budget entries, and
// computes balances. Balances fan every leg out to its account and all its
// ancestors, and are reconciled with declared balances as of a date.
package dough
