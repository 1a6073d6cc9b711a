// Package scraper drives the ingest pipeline for one search query.
//
// A run is a strictly sequential loop: fetch one page, deduplicate it
// against the store, upsert the records, persist the advanced cursor, then
// decide whether to continue. There is no concurrent fetch/persist overlap;
// since the upsert is idempotent and the checkpoint only advances after a
// page has been fully persisted, a crash anywhere in the loop costs at most
// one re-processed page and never loses data.
//
// The Fetcher absorbs the recoverable failure modes (rate-limit backoff,
// bounded transient retries); anything else propagates up, leaving the run
// in the failed state with the checkpoint at the last good page.
package scraper
