// Package checkpoint persists pagination progress so an interrupted harvest
// resumes where it stopped instead of restarting from page one.
//
// One checkpoint file exists per query key (a digest of the full query
// expression), holding the next cursor to fetch and running counters. Files
// are plain indented JSON so they can be inspected by hand, live under the
// platform data directory, and are replaced atomically via a temp file and
// rename so a crash mid-save never corrupts the previous state.
//
// The cursor only moves through Advance, which is called after a page has
// been fully processed and persisted; a failed run therefore leaves the
// checkpoint at the last good page.
package checkpoint
