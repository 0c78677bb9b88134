package page

import (
	"context"
	"fmt"
	"strings"

	"github.com/chdash/chdash/component/clickhouse"
	"github.com/chdash/chdash/component/queries"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("query config not found")

const QueryErrorTitle = "ClickHouse Query Error"

// Querier runs a request against one host.
type Querier interface {
	Query(ctx context.Context, req clickhouse.Request) (*clickhouse.Result, error)
}

// QueryError is what users see when ClickHouse rejects a page query.
type QueryError struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	SQL     string `json:"sql"`
	Docs    string `json:"docs,omitempty"`
}

func NewQueryError(cfg *queries.QueryConfig, err error) *QueryError {
	return &QueryError{
		Title:   QueryErrorTitle,
		Message: err.Error(),
		SQL:     cfg.SQL,
		Docs:    cfg.Docs,
	}
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Message)
}

type Page struct {
	Config        *queries.QueryConfig        `json:"config"`
	Host          int                         `json:"host"`
	Columns       []string                    `json:"columns"`
	Rows          []map[string]interface{}    `json:"rows"`
	Params        map[string]string           `json:"params"`
	ActivePresets []queries.FilterParamPreset `json:"active_presets,omitempty"`
	RelatedCharts []queries.RelatedChart      `json:"related_charts,omitempty"`
	Error         *QueryError                 `json:"error,omitempty"`
}

// Fetch runs cfg with already bound params.
func Fetch(ctx context.Context, q Querier, cfg *queries.QueryConfig, params map[string]string) (*clickhouse.Result, error) {
	return q.Query(ctx, clickhouse.Request{
		SQL:      cfg.SQL,
		Params:   params,
		Settings: cfg.ClickHouseSettings,
		Label:    cfg.Name,
	})
}

// Render resolves the config called name, binds its params and runs it.
// ClickHouse failures end up in Page.Error, unknown names and unbound
// params are returned as errors before any query is sent.
func Render(ctx context.Context, q Querier, host int, name string, filters, route map[string]string) (*Page, error) {
	cfg := queries.GetQueryConfigByName(name)
	if cfg == nil {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	params, err := queries.Bind(cfg, filters, route)
	if err != nil {
		return nil, err
	}
	p := &Page{
		Config:        cfg,
		Host:          host,
		Params:        params,
		ActivePresets: queries.ActivePresets(cfg, params),
		RelatedCharts: cfg.RelatedCharts,
		Rows:          []map[string]interface{}{},
	}
	res, err := Fetch(ctx, q, cfg, params)
	if err != nil {
		p.Error = NewQueryError(cfg, err)
		p.Columns = cfg.Columns
		return p, nil
	}
	p.Rows = res.Rows
	p.Columns = selectColumns(cfg.Columns, res.Columns)
	return p, nil
}

// selectColumns keeps the configured columns the result actually has, or
// every returned column when none are configured.
func selectColumns(configured, returned []string) []string {
	if len(configured) == 0 {
		return returned
	}
	has := make(map[string]struct{}, len(returned))
	for _, c := range returned {
		has[c] = struct{}{}
	}
	cols := make([]string, 0, len(configured))
	for _, c := range configured {
		if _, ok := has[c]; ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// ScopedLink prefixes path with the host index route segment.
func ScopedLink(host int, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("/%d%s", host, path)
}
