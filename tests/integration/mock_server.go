package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"tweetharvest/pkg/models"
)

// MockTwitterAPIServer simulates the twitterapi.io search and thread
// endpoints with scripted pages, so a full harvest can run against it
type MockTwitterAPIServer struct {
	server       *httptest.Server
	requestCount int32

	mu          sync.Mutex
	searchPages map[string]*models.Page       // cursor -> page
	threadPages map[string]*models.Page       // tweetId -> page
	failures    map[string]int                // cursor -> status code to serve
	failCounts  map[string]int                // cursor -> remaining failures
	seenKeys    []string                      // X-API-Key values received
	seenCursors []string                      // search cursors received, in order
}

// NewMockTwitterAPIServer starts a mock server with no pages scripted
func NewMockTwitterAPIServer() *MockTwitterAPIServer {
	m := &MockTwitterAPIServer{
		searchPages: make(map[string]*models.Page),
		threadPages: make(map[string]*models.Page),
		failures:    make(map[string]int),
		failCounts:  make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/twitter/tweet/advanced_search", m.handleSearch)
	mux.HandleFunc("/twitter/tweet/thread_context", m.handleThread)

	m.server = httptest.NewServer(mux)
	return m
}

// URL returns the mock server's base URL
func (m *MockTwitterAPIServer) URL() string {
	return m.server.URL
}

// Close shuts the mock server down
func (m *MockTwitterAPIServer) Close() {
	m.server.Close()
}

// RequestCount returns the number of API requests served
func (m *MockTwitterAPIServer) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// SetSearchPage scripts the search response for a cursor. The first page of
// a run uses the empty cursor.
func (m *MockTwitterAPIServer) SetSearchPage(cursor string, page *models.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchPages[cursor] = page
}

// SetThreadPage scripts the thread context response for a tweet id
func (m *MockTwitterAPIServer) SetThreadPage(tweetID string, page *models.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threadPages[tweetID] = page
}

// FailCursor makes the next n search requests for a cursor return the given
// status code before the scripted page is served
func (m *MockTwitterAPIServer) FailCursor(cursor string, status, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[cursor] = status
	m.failCounts[cursor] = n
}

// SeenCursors returns the search cursors received, in request order
func (m *MockTwitterAPIServer) SeenCursors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.seenCursors))
	copy(out, m.seenCursors)
	return out
}

// SeenAPIKeys returns the X-API-Key header values received
func (m *MockTwitterAPIServer) SeenAPIKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.seenKeys))
	copy(out, m.seenKeys)
	return out
}

func (m *MockTwitterAPIServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	cursor := r.URL.Query().Get("cursor")

	m.mu.Lock()
	m.seenKeys = append(m.seenKeys, r.Header.Get("X-API-Key"))
	m.seenCursors = append(m.seenCursors, cursor)

	if m.failCounts[cursor] > 0 {
		m.failCounts[cursor]--
		status := m.failures[cursor]
		m.mu.Unlock()
		writeError(w, status)
		return
	}

	page, ok := m.searchPages[cursor]
	m.mu.Unlock()

	if r.Header.Get("X-API-Key") == "" {
		writeError(w, http.StatusUnauthorized)
		return
	}
	if r.URL.Query().Get("query") == "" {
		writeError(w, http.StatusBadRequest)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound)
		return
	}

	writePage(w, page)
}

func (m *MockTwitterAPIServer) handleThread(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	tweetID := r.URL.Query().Get("tweetId")

	m.mu.Lock()
	page, ok := m.threadPages[tweetID]
	m.mu.Unlock()

	if !ok {
		writePage(w, &models.Page{})
		return
	}
	writePage(w, page)
}

func writePage(w http.ResponseWriter, page *models.Page) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(page)
}

func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
}
