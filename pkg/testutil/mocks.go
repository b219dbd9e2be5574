// Package testutil provides common testing utilities and mock implementations.
package testutil

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/mediafabric/fabric-client/internal/auth"
)

// CorrelationPlaceholder in a scripted feed is replaced with the
// client_reference_id of the most recent act request, so a scripted entry
// can match an operation whose correlation ID is generated at submit time.
const CorrelationPlaceholder = "__CORRELATION__"

// MockSigner is a deterministic DigestSigner: the signature components are
// derived from the digest itself so token tests are reproducible.
type MockSigner struct {
	mu    sync.Mutex
	calls int
	// Err, when set, fails every SignDigest call.
	Err error
}

// SignDigest returns a deterministic signature for the digest.
func (m *MockSigner) SignDigest(_ context.Context, accountID string, digest []byte) (auth.Signature, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return auth.Signature{}, m.Err
	}
	r := sha256.Sum256(append([]byte("r:"+accountID), digest...))
	s := sha256.Sum256(append([]byte("s:"+accountID), digest...))
	return auth.Signature{R: r[:], S: s[:], V: 27}, nil
}

// Calls returns the number of SignDigest invocations.
func (m *MockSigner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// StatusFeedServer is an httptest server scripting the act/status endpoints:
// act requests are recorded, and each status poll serves the next scripted
// feed (the last one repeats once the script runs out).
type StatusFeedServer struct {
	mu          sync.Mutex
	Server      *httptest.Server
	acts        []json.RawMessage
	feeds       [][]byte
	poll        int
	actPath     string
	feedPath    string
	correlation string
}

// NewStatusFeedServer creates a feed server for one tenant.
func NewStatusFeedServer(tenantID string, feeds ...any) *StatusFeedServer {
	s := &StatusFeedServer{
		actPath:  "/wlt/act/" + tenantID,
		feedPath: "/wlt/status/act/" + tenantID,
	}
	for _, feed := range feeds {
		encoded, err := json.Marshal(feed)
		if err != nil {
			panic(err)
		}
		s.feeds = append(s.feeds, encoded)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *StatusFeedServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case s.actPath:
		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			s.acts = append(s.acts, body)
			var ref struct {
				ClientReferenceID string `json:"client_reference_id"`
			}
			if json.Unmarshal(body, &ref) == nil && ref.ClientReferenceID != "" {
				s.correlation = ref.ClientReferenceID
			}
		}
		w.Write([]byte(`{}`))
	case s.feedPath:
		idx := s.poll
		if idx >= len(s.feeds) {
			idx = len(s.feeds) - 1
		}
		s.poll++
		if idx < 0 {
			w.Write([]byte(`[]`))
			return
		}
		w.Write(bytes.ReplaceAll(s.feeds[idx], []byte(CorrelationPlaceholder), []byte(s.correlation)))
	default:
		http.NotFound(w, r)
	}
}

// URL returns the server's base URL.
func (s *StatusFeedServer) URL() string { return s.Server.URL }

// Close shuts the server down.
func (s *StatusFeedServer) Close() { s.Server.Close() }

// Acts returns the recorded act request bodies.
func (s *StatusFeedServer) Acts() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]json.RawMessage(nil), s.acts...)
}

// Polls returns how many status-feed requests were served.
func (s *StatusFeedServer) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poll
}
