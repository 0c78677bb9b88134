package page

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/chdash/chdash/component/clickhouse"
	"github.com/chdash/chdash/component/clickhouse/mock"
	"github.com/chdash/chdash/component/queries"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func historyRows() *clickhouse.Result {
	return mock.Rows(
		[]string{"type", "query_id", "query_duration", "event_time", "query", "user", "readable_read_rows", "pct_read_rows", "extra"},
		[]interface{}{"QueryFinish", "q-1", 1.5, "2024-01-02 15:04:05", "-- dashboard\nSELECT 1", "default", "1.00 thousand", "100", "x"},
		[]interface{}{"QueryFinish", "q-2", 0.25, "2024-01-02 15:05:05", "SELECT 2", "monitor", "500.00", "50", "y"},
	)
}

func TestRender(t *testing.T) {
	client := mock.Returning(historyRows())
	p, err := Render(context.Background(), client, 1, "history-queries", map[string]string{
		"type":  "QueryFinish",
		"bogus": "1",
	}, nil)
	require.NoError(t, err)
	require.Nil(t, p.Error)
	require.Equal(t, 1, p.Host)
	require.Equal(t, "history-queries", p.Config.Name)
	// configured order, limited to returned columns
	require.Equal(t, []string{"user", "query", "query_duration", "event_time", "readable_read_rows", "type", "query_id"}, p.Columns)
	require.Len(t, p.Rows, 2)
	require.Equal(t, []queries.FilterParamPreset{{Name: "type = QueryFinish", Key: "type", Value: "QueryFinish"}}, p.ActivePresets)
	require.Len(t, p.RelatedCharts, 4)

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, "history-queries", reqs[0].Label)
	require.Equal(t, map[string]string{"type": "QueryFinish", "duration_1m": "", "user": ""}, reqs[0].Params)
}

func TestRenderAllColumnsWhenNoneConfigured(t *testing.T) {
	res := mock.Rows([]string{"b", "a"}, []interface{}{1, 2})
	p, err := Render(context.Background(), mock.Returning(res), 0, queries.QueryDetailName, nil, map[string]string{"query_id": "q"})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, p.Columns)
}

func TestRenderNotFound(t *testing.T) {
	client := mock.Returning(historyRows())
	_, err := Render(context.Background(), client, 0, "nope", nil, nil)
	require.True(t, errors.Is(err, ErrNotFound))
	require.Empty(t, client.Requests())
}

func TestRenderMissingParam(t *testing.T) {
	client := mock.Returning(historyRows())
	_, err := Render(context.Background(), client, 0, "table-columns", nil, map[string]string{"database": "system"})
	require.True(t, errors.Is(err, queries.ErrMissingParam))
	require.Empty(t, client.Requests())
}

func TestRenderQueryError(t *testing.T) {
	client := mock.Failing(&clickhouse.Exception{Code: 60, Message: "DB::Exception: Table system.processes does not exist"})
	p, err := Render(context.Background(), client, 0, "running-queries", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, p.Error)
	require.Equal(t, "ClickHouse Query Error", p.Error.Title)
	require.Equal(t, "Code: 60. DB::Exception: Table system.processes does not exist", p.Error.Message)
	require.Equal(t, p.Config.SQL, p.Error.SQL)
	require.Equal(t, "https://clickhouse.com/docs/en/operations/system-tables/processes", p.Error.Docs)
	require.Empty(t, p.Rows)
}

func TestScopedLink(t *testing.T) {
	require.Equal(t, "/0/query/abc", ScopedLink(0, "/query/abc"))
	require.Equal(t, "/3/history-queries?user=x", ScopedLink(3, "history-queries?user=x"))
}

func TestCell(t *testing.T) {
	p, err := Render(context.Background(), mock.Returning(historyRows()), 2, "history-queries", nil, nil)
	require.NoError(t, err)
	row := p.Rows[0]

	c := p.Cell(row, "query", 100)
	require.Equal(t, queries.ColumnFormatCodeDialog, c.Format)
	require.Equal(t, "SELECT 1", c.Text)
	require.Equal(t, "-- dashboard\nSELECT 1", c.Full)
	require.Equal(t, "Query", c.Title)

	c = p.Cell(row, "query_duration", 100)
	require.Equal(t, "1.5s", c.Text)

	c = p.Cell(row, "user", 100)
	require.Equal(t, queries.ColumnFormatColoredBadge, c.Format)
	require.Equal(t, "default", c.Text)
	require.Equal(t, c.Color, p.Cell(row, "user", 100).Color)
	require.NotEmpty(t, c.Color)

	c = p.Cell(row, "readable_read_rows", 100)
	require.Equal(t, "1.00 thousand", c.Text)
	require.Equal(t, 100.0, c.Percent)

	c = p.Cell(row, "query_id", 100)
	require.Equal(t, "/2/query/q-1", c.Href)

	c = p.Cell(row, "extra", 100)
	require.Equal(t, queries.ColumnFormatText, c.Format)
	require.Equal(t, "x", c.Text)

	row["event_time"] = time.Now().Add(-2 * time.Hour).Format("2006-01-02 15:04:05")
	c = p.Cell(row, "event_time", 100)
	require.Equal(t, "2 hours ago", c.Text)
}

func TestCellFormats(t *testing.T) {
	p := &Page{Host: 0, Config: queries.GetQueryConfigByName("running-queries")}
	row := map[string]interface{}{
		"query_id":     "id/1",
		"query_detail": "id/1",
		"file_open":    "1234567",
		"query":        "SELECT very_long_column_name FROM t",
	}
	c := p.Cell(row, "query_detail", 100)
	require.Equal(t, "/0/query/id%2F1", c.Href)
	require.Equal(t, "truncate max-w-48 text-wrap", c.ClassName)
	require.Equal(t, "Query Detail", c.Title)

	c = p.Cell(row, "query_id", 100)
	require.Equal(t, []queries.Action{queries.ActionKillQuery, queries.ActionExplainQuery, queries.ActionQuerySettings}, c.Actions)

	c = p.Cell(row, "file_open", 100)
	require.Equal(t, "1,234,567", c.Text)

	c = p.Cell(row, "query", 100)
	require.Equal(t, "min-w-96", c.ClassName)
	require.Equal(t, "Running Query", c.Title)

	merges := &Page{Config: queries.GetQueryConfigByName("merges")}
	c = merges.Cell(map[string]interface{}{"is_mutation": "1"}, "is_mutation", 100)
	require.Equal(t, "true", c.Text)
}

func TestExport(t *testing.T) {
	p := &Page{
		Columns: []string{"user", "query"},
		Rows: []map[string]interface{}{
			{"user": "default", "query": "SELECT 1, 2"},
			{"user": "monitor", "query": nil},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, p.Export(&buf, ExportCSV))
	require.Contains(t, buf.String(), "user,query")
	require.Contains(t, buf.String(), `default,"SELECT 1, 2"`)

	buf.Reset()
	require.NoError(t, p.Export(&buf, ExportTable))
	require.Contains(t, buf.String(), "SELECT 1, 2")
	require.Contains(t, buf.String(), "USER")

	buf.Reset()
	require.NoError(t, p.Export(&buf, ExportMarkdown))
	require.Contains(t, buf.String(), "| default | SELECT 1, 2 |")

	require.True(t, errors.Is(p.Export(&buf, "xml"), ErrUnknownExport))
}
