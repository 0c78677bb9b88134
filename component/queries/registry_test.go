package queries

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetQueryConfigByName(t *testing.T) {
	cfg := GetQueryConfigByName("history-queries")
	require.NotNil(t, cfg)
	require.Equal(t, "history-queries", cfg.Name)
	require.Nil(t, GetQueryConfigByName("nope"))
	require.NotNil(t, GetQueryConfigByName(QueryDetailName))
}

func TestAll(t *testing.T) {
	var names []string
	for _, c := range All() {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{
		"running-queries",
		"history-queries",
		"failed-queries",
		"expensive-queries",
		"merges",
		"database-tables",
		"table-columns",
		"query-detail",
	}, names)

	var nav []string
	for _, c := range Navigable() {
		nav = append(nav, c.Name)
	}
	require.Equal(t, []string{"running-queries", "history-queries", "failed-queries", "expensive-queries", "merges"}, nav)

	// callers cannot reorder the registry
	all := All()
	all[0] = nil
	require.NotNil(t, All()[0])
}

func TestConfigsAreConsistent(t *testing.T) {
	for _, c := range All() {
		for col, f := range c.ColumnFormats {
			require.NotEmpty(t, f.Format, "%s.%s", c.Name, col)
		}
		for _, p := range c.FilterParamPresets {
			_, isDefault := c.DefaultParams[p.Key]
			inSQL := false
			for _, name := range Params(c.SQL) {
				inSQL = inSQL || name == p.Key
			}
			require.True(t, isDefault || inSQL, "%s preset %s", c.Name, p.Name)
		}
		require.NotEmpty(t, c.Docs, c.Name)
	}
}

func TestHistoryQueriesConfig(t *testing.T) {
	cfg := GetQueryConfigByName("history-queries")
	f, ok := cfg.ColumnFormat("query")
	require.True(t, ok)
	require.Equal(t, ColumnFormatCodeDialog, f.Format)
	require.Equal(t, 100, f.Options.MaxTruncate)
	require.True(t, f.Options.HideQueryComment)
	require.Equal(t, "Query", f.Options.DialogTitle)
	require.Len(t, cfg.FilterParamPresets, 5)
	require.Len(t, cfg.RelatedCharts, 4)
	require.False(t, cfg.RelatedCharts[3].Descriptor.Legend())
	require.True(t, cfg.RelatedCharts[0].Descriptor.Legend())

	running := GetQueryConfigByName("running-queries")
	f, _ = running.ColumnFormat("query_id")
	require.Equal(t, []Action{ActionKillQuery, ActionExplainQuery, ActionQuerySettings}, f.Options.Actions)
}
