// Package storage is the optional append-only audit journal.
//
// Cycle outcomes worth keeping (deliveries, delivery failures, poll and
// validation failures) are appended by an event-bus subscriber. Nothing in the
// bot reads the journal back; tracker state always starts empty.
//
// Drivers:
//   - "file":   JSON Lines at <path minus extension>.audit.jsonl
//   - "sqlite": a SQLite database (modernc.org/sqlite, no cgo)
package storage
