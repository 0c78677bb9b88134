package charts

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/chdash/chdash/component/clickhouse"
	"github.com/chdash/chdash/component/queries"

	"github.com/pkg/errors"
)

var (
	ErrUnknownChart    = errors.New("unknown chart")
	ErrInvalidInterval = errors.New("invalid chart interval")
)

type Kind string

const (
	KindArea    Kind = "area"
	KindBar     Kind = "bar"
	KindBarList Kind = "bar-list"
)

// intervals are the bucketing functions {interval} may be replaced with.
var intervals = map[string]struct{}{
	"toStartOfMinute":         {},
	"toStartOfFiveMinutes":    {},
	"toStartOfTenMinutes":     {},
	"toStartOfFifteenMinutes": {},
	"toStartOfHour":           {},
	"toStartOfDay":            {},
	"toMonday":                {},
	"toStartOfMonth":          {},
}

// Definition binds a chart id to its SQL and adapter.
type Definition struct {
	ID    string
	Kind  Kind
	Title string
	SQL   string

	Index           string
	Categories      []string
	Readable        ReadableFormat
	ReadableColumns []string
	ReadableColumn  string
	FormattedColumn string

	DefaultInterval  string
	DefaultLastHours int
}

var definitions = []*Definition{
	{
		ID:    "query-count",
		Kind:  KindArea,
		Title: "Running Queries",
		SQL: `
      SELECT {interval}(event_time) AS bucket,
             COUNT() AS query_count
      FROM system.query_log
      WHERE type = 'QueryStart'
        AND event_time >= now() - INTERVAL {last_hours: UInt32} HOUR
      GROUP BY bucket
      ORDER BY bucket
    `,
		Index:            "bucket",
		Categories:       []string{"query_count"},
		Readable:         ReadableQuantity,
		DefaultInterval:  "toStartOfHour",
		DefaultLastHours: 24,
	},
	{
		ID:    "query-duration",
		Kind:  KindArea,
		Title: "Avg Queries Duration",
		SQL: `
      SELECT {interval}(event_time) AS bucket,
             AVG(query_duration_ms) / 1000 AS query_duration_s,
             formatReadableTimeDelta(query_duration_s) AS readable_query_duration
      FROM system.query_log
      WHERE type = 'QueryFinish'
        AND event_time >= now() - INTERVAL {last_hours: UInt32} HOUR
      GROUP BY bucket
      ORDER BY bucket
    `,
		Index:            "bucket",
		Categories:       []string{"query_duration_s"},
		Readable:         ReadableLookup,
		ReadableColumns:  []string{"readable_query_duration"},
		DefaultInterval:  "toStartOfHour",
		DefaultLastHours: 24,
	},
	{
		ID:    "query-memory",
		Kind:  KindArea,
		Title: "Avg Memory Usage",
		SQL: `
      SELECT {interval}(event_time) AS bucket,
             AVG(memory_usage) AS avg_memory_usage,
             formatReadableSize(avg_memory_usage) AS readable_memory_usage
      FROM system.query_log
      WHERE type = 'QueryFinish'
        AND event_time >= now() - INTERVAL {last_hours: UInt32} HOUR
      GROUP BY bucket
      ORDER BY bucket
    `,
		Index:            "bucket",
		Categories:       []string{"avg_memory_usage"},
		Readable:         ReadableSize,
		ReadableColumns:  []string{"readable_memory_usage"},
		DefaultInterval:  "toStartOfHour",
		DefaultLastHours: 24,
	},
	{
		ID:    "query-count-by-user",
		Kind:  KindBar,
		Title: "Total Queries by users",
		SQL: `
      SELECT user,
             COUNT() AS query_count,
             formatReadableQuantity(query_count) AS readable_query_count
      FROM system.query_log
      WHERE type = 'QueryFinish'
        AND event_time >= now() - INTERVAL {last_hours: UInt32} HOUR
      GROUP BY user
      ORDER BY query_count DESC
      LIMIT 20
    `,
		Index:            "user",
		Categories:       []string{"query_count"},
		Readable:         ReadableQuantity,
		ReadableColumn:   "readable_query_count",
		DefaultLastHours: 24,
	},
	{
		ID:    "summary-used-by-running-queries",
		Kind:  KindBarList,
		Title: "Running queries Summary",
		SQL: `
      SELECT 'Running queries' AS name,
             toFloat64(COUNT()) AS value,
             formatReadableQuantity(value) AS formatted
      FROM system.processes
      UNION ALL
      SELECT 'Memory usage' AS name,
             toFloat64(SUM(memory_usage)) AS value,
             formatReadableSize(value) AS formatted
      FROM system.processes
      UNION ALL
      SELECT 'Rows read' AS name,
             toFloat64(SUM(read_rows)) AS value,
             formatReadableQuantity(value) AS formatted
      FROM system.processes
      UNION ALL
      SELECT 'Bytes read' AS name,
             toFloat64(SUM(read_bytes)) AS value,
             formatReadableSize(value) AS formatted
      FROM system.processes
    `,
		FormattedColumn: "formatted",
	},
	{
		ID:    "summary-used-by-merges",
		Kind:  KindBarList,
		Title: "Merge Summary",
		SQL: `
      SELECT 'Running merges' AS name,
             toFloat64(COUNT()) AS value,
             formatReadableQuantity(value) AS formatted
      FROM system.merges
      UNION ALL
      SELECT 'Memory usage' AS name,
             toFloat64(SUM(memory_usage)) AS value,
             formatReadableSize(value) AS formatted
      FROM system.merges
      UNION ALL
      SELECT 'Rows read' AS name,
             toFloat64(SUM(rows_read)) AS value,
             formatReadableQuantity(value) AS formatted
      FROM system.merges
      UNION ALL
      SELECT 'Compressed bytes' AS name,
             toFloat64(SUM(total_size_bytes_compressed)) AS value,
             formatReadableSize(value) AS formatted
      FROM system.merges
    `,
		FormattedColumn: "formatted",
	},
	{
		ID:    "merge-count",
		Kind:  KindArea,
		Title: "Merges",
		SQL: `
      SELECT {interval}(event_time) AS bucket,
             countIf(event_type = 'MergeParts') AS merge_count
      FROM system.part_log
      WHERE event_time >= now() - INTERVAL {last_hours: UInt32} HOUR
      GROUP BY bucket
      ORDER BY bucket
    `,
		Index:            "bucket",
		Categories:       []string{"merge_count"},
		Readable:         ReadableQuantity,
		DefaultInterval:  "toStartOfFiveMinutes",
		DefaultLastHours: 24,
	},
}

var definitionByID = func() map[string]*Definition {
	m := make(map[string]*Definition, len(definitions))
	for _, d := range definitions {
		m[d.ID] = d
	}
	return m
}()

// Get returns nil for unknown chart ids.
func Get(id string) *Definition {
	return definitionByID[id]
}

func All() []*Definition {
	return append([]*Definition(nil), definitions...)
}

// Resolve fills the unset fields of desc from the definition. lastHours
// is the fallback when neither sets one.
func (d *Definition) Resolve(desc queries.ChartDescriptor, lastHours int) queries.ChartDescriptor {
	if desc.Title == "" {
		desc.Title = d.Title
	}
	if desc.Interval == "" {
		desc.Interval = d.DefaultInterval
	}
	if desc.LastHours <= 0 {
		desc.LastHours = d.DefaultLastHours
	}
	if desc.LastHours <= 0 {
		desc.LastHours = lastHours
	}
	return desc
}

// Request builds the query of the chart for a resolved descriptor.
func (d *Definition) Request(desc queries.ChartDescriptor) (clickhouse.Request, error) {
	sql := d.SQL
	if strings.Contains(sql, "{interval}") {
		if _, ok := intervals[desc.Interval]; !ok {
			return clickhouse.Request{}, errors.Wrapf(ErrInvalidInterval, "%q", desc.Interval)
		}
		sql = strings.ReplaceAll(sql, "{interval}", desc.Interval)
	}
	params := map[string]string{}
	for _, name := range queries.Params(sql) {
		switch name {
		case "last_hours":
			params[name] = strconv.Itoa(desc.LastHours)
		default:
			return clickhouse.Request{}, errors.Wrapf(queries.ErrMissingParam, "%s of chart %s", name, d.ID)
		}
	}
	return clickhouse.Request{SQL: sql, Params: params, Label: "chart:" + d.ID}, nil
}

// Querier runs a request against one host.
type Querier interface {
	Query(ctx context.Context, req clickhouse.Request) (*clickhouse.Result, error)
}

// Data is the rendered, formatted result of a chart.
type Data struct {
	ChartID    string   `json:"chart_id"`
	Kind       Kind     `json:"kind"`
	Title      string   `json:"title"`
	Interval   string   `json:"interval,omitempty"`
	LastHours  int      `json:"last_hours,omitempty"`
	ShowLegend bool     `json:"show_legend"`
	SQL        string   `json:"sql"`
	Series     []Series `json:"series"`

	adapter adapter
}

type adapter interface {
	Series() []Series
	RenderSVG(w io.Writer) error
}

// Load queries the chart data and wraps it in its adapter.
func Load(ctx context.Context, q Querier, d *Definition, desc queries.ChartDescriptor) (*Data, error) {
	req, err := d.Request(desc)
	if err != nil {
		return nil, err
	}
	res, err := q.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	data := &Data{
		ChartID:    d.ID,
		Kind:       d.Kind,
		Title:      desc.Title,
		Interval:   desc.Interval,
		LastHours:  desc.LastHours,
		ShowLegend: desc.Legend(),
		SQL:        req.SQL,
		adapter:    d.adapter(desc, res.Rows),
	}
	data.Series = data.adapter.Series()
	return data, nil
}

func (d *Definition) adapter(desc queries.ChartDescriptor, rows []map[string]interface{}) adapter {
	switch d.Kind {
	case KindBar:
		return &BarChart{
			Title:          desc.Title,
			Data:           rows,
			Index:          d.Index,
			Categories:     d.Categories,
			Readable:       d.Readable,
			ReadableColumn: d.ReadableColumn,
			ShowLegend:     desc.Legend(),
		}
	case KindBarList:
		return &BarList{
			Title:           desc.Title,
			Data:            rows,
			FormattedColumn: d.FormattedColumn,
		}
	default:
		return &AreaChart{
			Title:           desc.Title,
			Data:            rows,
			Index:           d.Index,
			Categories:      d.Categories,
			Readable:        d.Readable,
			ReadableColumns: d.ReadableColumns,
			ShowLegend:      desc.Legend(),
		}
	}
}

func (c *Data) RenderSVG(w io.Writer) error {
	return c.adapter.RenderSVG(w)
}
