package query

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"tweetharvest/pkg/errors"
)

// Builder assembles a twitterapi.io advanced-search expression from semantic
// filter parts. Clause order is fixed so the same inputs always produce the
// same query string (and therefore the same checkpoint key).
type Builder struct {
	// Handle is the author whose replies are searched. Required.
	Handle string

	// Filter toggles. The clause is always emitted; exclusion negates it.
	IncludeRetweets    bool
	IncludeQuotes      bool
	IncludeSelfThreads bool

	// Optional date bounds, accepted as "YYYY-MM-DD" or
	// "YYYY-MM-DD HH:MM:SS" and normalized to the API's UTC form.
	Since string
	Until string
}

// Clauses returns the ordered clause sequence the query is built from
func (b *Builder) Clauses() ([]string, error) {
	handle := strings.TrimSpace(b.Handle)
	if handle == "" {
		return nil, errors.New(errors.ErrorTypeConfiguration, "search handle is required")
	}

	parts := []string{
		"from:" + handle,
		"filter:replies",
	}

	parts = append(parts, toggleClause("retweets", b.IncludeRetweets))
	parts = append(parts, toggleClause("quote", b.IncludeQuotes))
	parts = append(parts, toggleClause("self_threads", b.IncludeSelfThreads))

	if b.Since != "" {
		parts = append(parts, "since:"+FormatTimeUTC(b.Since))
	}
	if b.Until != "" {
		parts = append(parts, "until:"+FormatTimeUTC(b.Until))
	}

	return parts, nil
}

// Build returns the full query expression
func (b *Builder) Build() (string, error) {
	parts, err := b.Clauses()
	if err != nil {
		return "", err
	}
	return strings.Join(parts, " "), nil
}

// Key returns a short stable digest of the query expression, used to key the
// checkpoint file so distinct searches never share pagination state.
func (b *Builder) Key() (string, error) {
	q, err := b.Build()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(q))
	return hex.EncodeToString(sum[:8]), nil
}

// toggleClause emits "filter:<name>" when included, "-filter:<name>" otherwise
func toggleClause(name string, include bool) string {
	if include {
		return "filter:" + name
	}
	return "-filter:" + name
}

// FormatTimeUTC normalizes a timestamp to the API's YYYY-MM-DD_HH:MM:SS_UTC
// form. Already-normalized values pass through unchanged; a bare date gets a
// midnight time component.
func FormatTimeUTC(ts string) string {
	ts = strings.TrimSpace(ts)
	if strings.Contains(ts, "_UTC") {
		return ts
	}

	date := ts
	hms := "00:00:00"
	if i := strings.IndexByte(ts, ' '); i >= 0 {
		date, hms = ts[:i], ts[i+1:]
	}
	return date + "_" + hms + "_UTC"
}
