package clickhouse

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/chdash/chdash/config"
	"github.com/chdash/chdash/utils/testutil"

	"github.com/stretchr/testify/require"
)

func newTestHTTPClient(t *testing.T, url string) *HTTPClient {
	cfg := config.GetDefaultConfig().ClickHouse
	security := config.Security{}
	c, err := NewHTTPClient(config.Host{URL: url, User: "monitor", Password: "secret"}, cfg, &security)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestHTTPClientQuery(t *testing.T) {
	srv := testutil.NewClickHouseServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"meta": [{"name": "user", "type": "String"}, {"name": "cnt", "type": "UInt64"}],
			"data": [{"user": "default", "cnt": "42"}, {"user": "monitor", "cnt": "7"}],
			"rows": 2
		}`))
	})
	c := newTestHTTPClient(t, srv.URL)

	res, err := c.Query(context.Background(), Request{
		SQL:      "SELECT user, count() AS cnt FROM system.query_log WHERE type = {type: String} GROUP BY user",
		Params:   map[string]string{"type": "QueryFinish"},
		Settings: map[string]string{"use_query_cache": "0"},
	})
	require.NoError(t, err)
	captured := srv.Last()
	require.Equal(t, []string{"user", "cnt"}, res.Columns)
	require.Len(t, res.Rows, 2)
	require.Equal(t, "default", res.Rows[0]["user"])
	require.Equal(t, "42", res.Rows[0]["cnt"])

	require.Equal(t, http.MethodPost, captured.Method)
	require.Equal(t, "/", captured.Path)
	require.Contains(t, captured.Body, "{type: String}")
	require.Equal(t, []string{"QueryFinish"}, captured.Query["param_type"])
	require.Equal(t, []string{"JSON"}, captured.Query["default_format"])
	require.Equal(t, []string{"0"}, captured.Query["use_query_cache"])
	require.Equal(t, []string{"30"}, captured.Query["max_execution_time"])
	require.Equal(t, []string{"10000"}, captured.Query["max_result_rows"])
	require.Equal(t, []string{"break"}, captured.Query["result_overflow_mode"])
	require.Equal(t, "monitor", captured.User)
	require.Equal(t, "secret", captured.Pass)
}

func TestHTTPClientEmptyResult(t *testing.T) {
	srv := testutil.NewClickHouseServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"meta": []map[string]string{{"name": "a", "type": "UInt8"}},
			"data": []interface{}{},
		})
	})
	c := newTestHTTPClient(t, srv.URL)
	res, err := c.Query(context.Background(), Request{SQL: "SELECT 1 AS a WHERE 0"})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, res.Columns)
	require.NotNil(t, res.Rows)
	require.Empty(t, res.Rows)
}

func TestHTTPClientException(t *testing.T) {
	srv := testutil.NewClickHouseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ClickHouse-Exception-Code", "60")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Code: 60. DB::Exception: Table default.nope does not exist. (UNKNOWN_TABLE)\n"))
	})
	c := newTestHTTPClient(t, srv.URL)
	_, err := c.Query(context.Background(), Request{SQL: "SELECT * FROM nope"})
	require.Error(t, err)
	require.True(t, IsException(err))
	require.Equal(t, "Code: 60. DB::Exception: Table default.nope does not exist. (UNKNOWN_TABLE)", err.Error())
}

func TestHTTPClientExceptionInBody(t *testing.T) {
	srv := testutil.NewClickHouseServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta": [{"name": "a", "type": "UInt8"}], "data": [{"a": 1}, Code: 241. DB::Exception: Memory limit exceeded`))
	})
	c := newTestHTTPClient(t, srv.URL)
	_, err := c.Query(context.Background(), Request{SQL: "SELECT a FROM big"})
	require.True(t, IsException(err))
	require.Contains(t, err.Error(), "Code: 241.")
}

func TestHTTPClientPing(t *testing.T) {
	srv := testutil.NewClickHouseServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Ok.\n"))
	})
	c := newTestHTTPClient(t, srv.URL)
	require.NoError(t, c.Ping(context.Background()))
	require.Equal(t, "/ping", srv.Last().Path)

	srv.Close()
	require.Error(t, c.Ping(context.Background()))
}

func TestHTTPClientCanceled(t *testing.T) {
	srv := testutil.NewClickHouseServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta": [], "data": []}`))
	})
	c := newTestHTTPClient(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Query(ctx, Request{SQL: "SELECT 1"})
	require.Error(t, err)
	require.False(t, IsException(err))
}

func TestParseException(t *testing.T) {
	e := parseException("Code: 62. DB::Exception: Syntax error")
	require.Equal(t, 62, e.Code)
	require.Equal(t, "DB::Exception: Syntax error", e.Message)

	e = parseException("bad gateway")
	require.Equal(t, 0, e.Code)
	require.Equal(t, "bad gateway", e.Error())
}
