package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v3"
	"github.com/genjidb/genji"
	"github.com/genjidb/genji/engine/badgerengine"
	"github.com/stretchr/testify/require"
)

// NewGenjiDB opens a genji database on a badger engine in a temp dir.
// Closing it is up to the caller.
func NewGenjiDB(t *testing.T) *genji.DB {
	opts := badger.DefaultOptions(t.TempDir()).
		WithLogger(nil).
		WithBlockSize(8 * 1024).
		WithValueThreshold(128 * 1024)

	engine, err := badgerengine.NewEngine(opts)
	require.NoError(t, err)
	db, err := genji.New(context.Background(), engine)
	require.NoError(t, err)
	return db
}

// CapturedRequest is the last request a ClickHouseServer received.
type CapturedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
	User   string
	Pass   string
}

// ClickHouseServer fakes the ClickHouse HTTP interface.
type ClickHouseServer struct {
	*httptest.Server

	mu   sync.Mutex
	last CapturedRequest
}

// NewClickHouseServer serves every request with handle after recording
// it. The server is closed when the test ends.
func NewClickHouseServer(t *testing.T, handle http.HandlerFunc) *ClickHouseServer {
	s := &ClickHouseServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured := CapturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   string(body),
		}
		captured.User, captured.Pass, _ = r.BasicAuth()
		s.mu.Lock()
		s.last = captured
		s.mu.Unlock()
		handle(w, r)
	}))
	t.Cleanup(s.Server.Close)
	return s
}

func (s *ClickHouseServer) Last() CapturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
