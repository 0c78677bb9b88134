package charts

import (
	"context"
	"regexp"
	"testing"

	"github.com/chdash/chdash/component/clickhouse"
	"github.com/chdash/chdash/component/clickhouse/mock"
	"github.com/chdash/chdash/component/queries"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	var ids []string
	for _, d := range All() {
		ids = append(ids, d.ID)
	}
	require.Equal(t, []string{
		"query-count",
		"query-duration",
		"query-memory",
		"query-count-by-user",
		"summary-used-by-running-queries",
		"summary-used-by-merges",
		"merge-count",
	}, ids)
	require.Nil(t, Get("nope"))

	// every chart referenced by a query config exists
	for _, cfg := range queries.All() {
		for _, rc := range cfg.RelatedCharts {
			require.NotNil(t, Get(rc.ChartID), "%s -> %s", cfg.Name, rc.ChartID)
		}
	}
}

func TestResolve(t *testing.T) {
	d := Get("query-count")
	desc := d.Resolve(queries.ChartDescriptor{}, 48)
	require.Equal(t, "Running Queries", desc.Title)
	require.Equal(t, "toStartOfHour", desc.Interval)
	require.Equal(t, 24, desc.LastHours)

	desc = d.Resolve(queries.ChartDescriptor{Title: "t", Interval: "toStartOfDay", LastHours: 336}, 48)
	require.Equal(t, queries.ChartDescriptor{Title: "t", Interval: "toStartOfDay", LastHours: 336}, desc)

	desc = Get("summary-used-by-merges").Resolve(queries.ChartDescriptor{}, 48)
	require.Equal(t, 48, desc.LastHours)
}

func TestRequest(t *testing.T) {
	d := Get("query-count")
	req, err := d.Request(queries.ChartDescriptor{Interval: "toStartOfDay", LastHours: 336})
	require.NoError(t, err)
	require.Contains(t, req.SQL, "toStartOfDay(event_time) AS bucket")
	require.NotContains(t, req.SQL, "{interval}")
	require.Equal(t, map[string]string{"last_hours": "336"}, req.Params)
	require.Equal(t, "chart:query-count", req.Label)

	_, err = d.Request(queries.ChartDescriptor{Interval: "sleep(3); --", LastHours: 1})
	require.True(t, errors.Is(err, ErrInvalidInterval))

	req, err = Get("summary-used-by-running-queries").Request(queries.ChartDescriptor{})
	require.NoError(t, err)
	require.Empty(t, req.Params)
}

func TestLoad(t *testing.T) {
	client := mock.Returning(mock.Rows([]string{"name", "value", "formatted"},
		[]interface{}{"Running queries", 3.0, "3.00"},
		[]interface{}{"Memory usage", 2048.0, "2.00 KiB"},
	))
	d := Get("summary-used-by-running-queries")
	data, err := Load(context.Background(), client, d, d.Resolve(queries.ChartDescriptor{}, 24))
	require.NoError(t, err)
	require.Equal(t, KindBarList, data.Kind)
	require.Equal(t, "Running queries Summary", data.Title)
	require.True(t, data.ShowLegend)
	require.Equal(t, []Series{{Name: "value", Points: []Point{
		{X: "Running queries", Y: 3, Formatted: "3.00"},
		{X: "Memory usage", Y: 2048, Formatted: "2.00 KiB"},
	}}}, data.Series)

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, "chart:summary-used-by-running-queries", reqs[0].Label)
}

func TestLoadError(t *testing.T) {
	client := mock.Failing(&clickhouse.Exception{Code: 81, Message: "DB::Exception: Database system does not exist"})
	d := Get("merge-count")
	_, err := Load(context.Background(), client, d, d.Resolve(queries.ChartDescriptor{}, 24))
	require.True(t, clickhouse.IsException(err))

	_, err = Load(context.Background(), client, d, queries.ChartDescriptor{Interval: "bad"})
	require.True(t, errors.Is(err, ErrInvalidInterval))
	require.Len(t, client.Requests(), 1)
}

var selfAliasRe = regexp.MustCompile(`(?i)\b\w+\(\s*(\w+)\s*\)\s+AS\s+(\w+)`)

func TestChartAliasesDoNotShadowColumns(t *testing.T) {
	for _, d := range All() {
		for _, m := range selfAliasRe.FindAllStringSubmatch(d.SQL, -1) {
			require.NotEqual(t, m[1], m[2], "%s aliases %s over the column it reads", d.ID, m[0])
		}
		for _, cat := range d.Categories {
			require.Contains(t, d.SQL, "AS "+cat, "%s category %s", d.ID, cat)
		}
	}

	req, err := Get("query-memory").Request(queries.ChartDescriptor{Interval: "toStartOfHour", LastHours: 24})
	require.NoError(t, err)
	require.Contains(t, req.SQL, "AVG(memory_usage) AS avg_memory_usage")
	require.Contains(t, req.SQL, "formatReadableSize(avg_memory_usage) AS readable_memory_usage")
}
