// Package testserver runs a fake price API for E2E tests and records what
// the client asked it.
package testserver

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// Server is a fake price API.
type Server struct {
	*httptest.Server

	mu   sync.Mutex
	seen []Request
}

// Request is one recorded call.
type Request struct {
	Path   string
	Query  url.Values
	APIKey string
}

// New starts a server for routes. Every request is recorded before its
// handler runs.
func New(routes map[string]http.HandlerFunc) *Server {
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}

	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		mux.ServeHTTP(w, r)
	}))
	return s
}

func (s *Server) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, Request{
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		APIKey: r.Header.Get("x-cg-demo-api-key"),
	})
}

// Requests returns a copy of the recorded calls in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.seen...)
}

// LastRequest returns the most recent call, or nil before the first.
func (s *Server) LastRequest() *Request {
	reqs := s.Requests()
	if len(reqs) == 0 {
		return nil
	}
	return &reqs[len(reqs)-1]
}

// RequestCount returns the number of recorded calls.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// IDBatches returns the ids query of every batched favorites lookup.
func (s *Server) IDBatches() []string {
	var batches []string
	for _, r := range s.Requests() {
		if ids := r.Query.Get("ids"); r.Path == "/coins/markets" && ids != "" {
			batches = append(batches, ids)
		}
	}
	return batches
}

// Paths returns the path of every recorded call.
func (s *Server) Paths() []string {
	reqs := s.Requests()
	paths := make([]string, len(reqs))
	for i, r := range reqs {
		paths[i] = r.Path
	}
	return paths
}

// ClearRequests forgets every recorded call.
func (s *Server) ClearRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = nil
}
