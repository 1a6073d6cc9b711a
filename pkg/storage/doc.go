// Package storage is the durable tweet store, a single SQLite file opened in
// place on every run.
//
// The tweets table is keyed by the API-assigned tweet id with a PRIMARY KEY
// constraint, so a duplicate insert is a detectable, rejected condition
// rather than silent corruption. All writes go through an idempotent upsert
// (INSERT ... ON CONFLICT(id) DO UPDATE); the full API payload is stored
// verbatim in the json column next to the indexed columns used for lookup
// and export. The store only grows: Store exposes open-or-create plus upsert
// and intentionally has no drop, truncate or recreate operation.
package storage
