package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/chdash/chdash/database/docdb"

	"github.com/VictoriaMetrics/VictoriaMetrics/lib/procutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type testSuite struct {
	tmpDir string
	db     docdb.DocDB
}

func (ts *testSuite) setup(t *testing.T) {
	var err error
	ts.tmpDir, err = os.MkdirTemp(os.TempDir(), "chdash-test-.*")
	require.NoError(t, err)
	ts.db, err = docdb.NewSQLiteDB(ts.tmpDir, true)
	require.NoError(t, err)
	def := GetDefaultConfig()
	StoreGlobalConfig(def)
	err = LoadConfigFromStorage(context.Background(), ts.db)
	require.NoError(t, err)
}

func (ts *testSuite) close(t *testing.T) {
	err := ts.db.Close()
	require.NoError(t, err)
	err = os.RemoveAll(ts.tmpDir)
	require.NoError(t, err)
}

func TestHTTPService(t *testing.T) {
	ts := testSuite{}
	ts.setup(t)
	defer ts.close(t)
	addr := setupHTTPService(t, ts.db)
	resp, err := http.Get("http://" + addr + "/config")
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	err = resp.Body.Close()
	require.NoError(t, err)
	cfg := Config{}
	require.Greater(t, len(data), 10)
	err = json.Unmarshal(data, &cfg)
	require.NoError(t, err)
	require.Equal(t, GetDefaultConfig().Dashboard, cfg.Dashboard)
	// passwords are never exposed
	require.NotContains(t, string(data), "password")

	res, err := http.Post("http://"+addr+"/config", "application/json", bytes.NewReader([]byte(`{"dashboard": {"max_rows": 200,"refresh_interval_secs":10}}`)))
	require.NoError(t, err)
	require.Equal(t, 200, res.StatusCode)
	globalCfg := GetGlobalConfig()
	require.Equal(t, 200, globalCfg.Dashboard.MaxRows)
	require.Equal(t, 10, globalCfg.Dashboard.RefreshIntervalSecs)
	err = res.Body.Close()
	require.NoError(t, err)

	// persisted
	stored, err := ts.db.LoadConfig(context.Background())
	require.NoError(t, err)
	require.JSONEq(t, `{"refresh_interval_secs":10,"default_last_hours":24,"max_rows":200,"query_truncate":100}`, stored[dashboardModule])

	// test for post invalid config
	res, err = http.Post("http://"+addr+"/config", "application/json", bytes.NewReader([]byte(`{"dashboard": {"max_rows": 0}}`)))
	require.NoError(t, err)
	require.Equal(t, 503, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, `{"message":"new config is invalid: {\"default_last_hours\":24,\"max_rows\":0,\"query_truncate\":100,\"refresh_interval_secs\":10}","status":"error"}`, string(body))
	err = res.Body.Close()
	require.NoError(t, err)

	// test empty body config
	res, err = http.Post("http://"+addr+"/config", "application/json", bytes.NewReader([]byte(``)))
	require.NoError(t, err)
	require.Equal(t, 503, res.StatusCode)
	body, err = io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, `{"message":"EOF","status":"error"}`, string(body))
	err = res.Body.Close()
	require.NoError(t, err)

	// test unknown config
	res, err = http.Post("http://"+addr+"/config", "application/json", bytes.NewReader([]byte(`{"unknown_module": {"enable": true}}`)))
	require.NoError(t, err)
	require.Equal(t, 503, res.StatusCode)
	body, err = io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, `{"message":"config unknown_module not support modify or unknow","status":"error"}`, string(body))
	err = res.Body.Close()
	require.NoError(t, err)

	// test unknown field
	res, err = http.Post("http://"+addr+"/config", "application/json", bytes.NewReader([]byte(`{"dashboard": {"theme": "dark"}}`)))
	require.NoError(t, err)
	require.Equal(t, 503, res.StatusCode)
	require.NoError(t, res.Body.Close())

	globalCfg = GetGlobalConfig()
	require.Equal(t, 200, globalCfg.Dashboard.MaxRows)
	require.Equal(t, 10, globalCfg.Dashboard.RefreshIntervalSecs)

	// reload from storage into a fresh global config
	StoreGlobalConfig(GetDefaultConfig())
	require.NoError(t, LoadConfigFromStorage(context.Background(), ts.db))
	require.Equal(t, 200, GetGlobalConfig().Dashboard.MaxRows)
}

func TestLoadUnknownModule(t *testing.T) {
	ts := testSuite{}
	ts.setup(t)
	defer ts.close(t)

	require.NoError(t, ts.db.SaveConfig(context.Background(), map[string]string{"unknown": "{}"}))
	require.Error(t, LoadConfigFromStorage(context.Background(), ts.db))
}

func TestCombineHTTPWithFile(t *testing.T) {
	ts := testSuite{}
	ts.setup(t)
	defer ts.close(t)
	addr := setupHTTPService(t, ts.db)

	cfgFileName := "test-cfg.toml"
	err := os.WriteFile(cfgFileName, []byte(""), 0666)
	require.NoError(t, err)
	defer os.Remove(cfgFileName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ReloadRoutine(ctx, cfgFileName)

	res, err := http.Post("http://"+addr+"/config", "application/json", bytes.NewReader([]byte(`{"dashboard": {"query_truncate": 50}}`)))
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())

	time.Sleep(100 * time.Millisecond)
	cfg := GetGlobalConfig()
	require.Equal(t, 50, cfg.Dashboard.QueryTruncate)

	err = os.WriteFile(cfgFileName, []byte("[[clickhouse.hosts]]\nurl = \"http://10.0.1.8:8123\""), 0666)
	require.NoError(t, err)
	procutil.SelfSIGHUP()

	time.Sleep(100 * time.Millisecond)
	cfg = GetGlobalConfig()
	require.Equal(t, 50, cfg.Dashboard.QueryTruncate)
	require.Equal(t, []Host{{URL: "http://10.0.1.8:8123"}}, cfg.ClickHouse.Hosts)
}

func setupHTTPService(t *testing.T, docDB docdb.DocDB) string {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	gin.SetMode(gin.ReleaseMode)
	ng := gin.New()

	ng.Use(gin.Recovery())
	configGroup := ng.Group("/config")
	HTTPService(configGroup, docDB)
	httpServer := &http.Server{Handler: ng}

	go func() {
		if err = httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			require.NoError(t, err)
		}
	}()
	t.Cleanup(func() {
		_ = httpServer.Close()
	})
	return listener.Addr().String()
}
