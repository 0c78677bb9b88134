package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chdash/chdash/component/clickhouse"
	"github.com/chdash/chdash/component/clickhouse/mock"
	"github.com/chdash/chdash/config"
	"github.com/chdash/chdash/database/docdb"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	docDB, err := docdb.NewSQLiteDB(t.TempDir(), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = docDB.Close() })

	client := mock.Returning(mock.Rows([]string{"query", "user"}, []interface{}{"SELECT 1", "default"}))
	pool, err := clickhouse.NewPool(context.Background(), config.GetDefaultConfig().ClickHouse, config.Security{}, client.Factory())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewRouter(nil, docDB, pool)
}

func get(ng *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ng.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRouter(t *testing.T) {
	ng := newTestRouter(t)

	w := get(ng, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"health":true}`, w.Body.String())

	w = get(ng, "/")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/0/running-queries", w.Header().Get("Location"))

	w = get(ng, "/0/running-queries")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	require.Contains(t, w.Body.String(), "SELECT 1")

	w = get(ng, "/api/v1/hosts/0/queries/running-queries")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = get(ng, "/config")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "dashboard")

	w = get(ng, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "chdash_clickhouse_queries_total")

	w = get(ng, "/nothing")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "404 page not found", w.Body.String())
}
