package clickhouse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/chdash/chdash/config"

	"github.com/pingcap/log"
	"github.com/pkg/errors"
	commonconfig "github.com/prometheus/common/config"
	"go.uber.org/zap"
	"golang.org/x/net/context/ctxhttp"
)

// HTTPClient talks to the ClickHouse HTTP interface. The SQL is sent as
// the POST body and parameters as `param_<name>` URL values.
type HTTPClient struct {
	endpoint string
	client   *http.Client
	settings map[string]string
}

func NewHTTPClient(host config.Host, chCfg config.ClickHouse, security *config.Security) (*HTTPClient, error) {
	u, err := url.Parse(host.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid clickhouse url %s", host.URL)
	}
	httpCfg := security.GetHTTPClientConfig()
	if len(host.User) > 0 {
		httpCfg.BasicAuth = &commonconfig.BasicAuth{
			Username: host.User,
			Password: commonconfig.Secret(host.Password),
		}
	}
	client, err := commonconfig.NewClientFromConfig(httpCfg, "clickhouse")
	if err != nil {
		return nil, errors.Wrap(err, "failed to build clickhouse http client")
	}
	client.Timeout = chCfg.Timeout()
	u.RawQuery = ""
	return &HTTPClient{
		endpoint: strings.TrimSuffix(u.String(), "/") + "/",
		client:   client,
		settings: baseSettings(chCfg),
	}, nil
}

type jsonResult struct {
	Meta []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"meta"`
	Data []map[string]interface{} `json:"data"`
}

func (c *HTTPClient) Query(ctx context.Context, req Request) (*Result, error) {
	values := url.Values{}
	values.Set("default_format", "JSON")
	for k, v := range mergeSettings(c.settings, req.Settings) {
		values.Set(k, v)
	}
	for k, v := range req.Params {
		values.Set("param_"+k, v)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.endpoint+"?"+values.Encode(), strings.NewReader(req.SQL))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "text/plain; charset=utf-8")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := ctxhttp.Do(ctx, c.client, httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to request clickhouse")
	}
	defer resp.Body.Close()

	body := bytesP.Get()
	defer bytesP.Put(body)
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return nil, errors.Wrap(err, "failed to read clickhouse response")
	}
	if resp.StatusCode != http.StatusOK {
		log.Debug("clickhouse returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("exception-code", resp.Header.Get("X-ClickHouse-Exception-Code")))
		return nil, parseException(body.String())
	}

	var res jsonResult
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&res); err != nil {
		// Exceptions raised after the header was sent end up inside the body.
		if idx := strings.LastIndex(body.String(), "Code: "); idx >= 0 {
			return nil, parseException(body.String()[idx:])
		}
		return nil, errors.Wrap(err, "failed to decode clickhouse response")
	}
	result := &Result{
		Columns: make([]string, 0, len(res.Meta)),
		Rows:    res.Data,
	}
	for _, m := range res.Meta {
		result.Columns = append(result.Columns, m.Name)
	}
	if result.Rows == nil {
		result.Rows = []map[string]interface{}{}
	}
	return result, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequest(http.MethodGet, c.endpoint+"ping", nil)
	if err != nil {
		return err
	}
	resp, err := ctxhttp.Do(ctx, c.client, req)
	if err != nil {
		return errors.Wrap(err, "failed to ping clickhouse")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("clickhouse ping returned HTTP status %s", resp.Status)
	}
	return nil
}

func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// baseSettings are sent with every query of a host.
func baseSettings(cfg config.ClickHouse) map[string]string {
	settings := map[string]string{
		"max_execution_time": strconv.Itoa(cfg.TimeoutSecs),
	}
	if cfg.MaxResultRows > 0 {
		settings["max_result_rows"] = strconv.Itoa(cfg.MaxResultRows)
		settings["result_overflow_mode"] = "break"
	}
	return settings
}
