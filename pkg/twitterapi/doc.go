// Package twitterapi is a thin client for the twitterapi.io REST API.
//
// It covers the two endpoints the harvester uses: advanced search (one page
// of tweets matching a query expression, paginated by cursor) and thread
// context (one page of a tweet's conversation). HTTP status codes are mapped
// to the typed errors in pkg/errors so the fetch layer can decide what is
// retryable; the client itself never retries.
package twitterapi
