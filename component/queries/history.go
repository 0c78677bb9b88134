package queries

var historyQueriesConfig = &QueryConfig{
	Name:        "history-queries",
	Description: "Contains information about executed queries: start time, duration of processing, error messages",
	SQL: `
      SELECT
          type,
          query_id,
          query_duration_ms,
          query_duration_ms / 1000 as query_duration,
          event_time,
          query,
          formatted_query AS readable_query,
          user,
          read_rows,
          formatReadableQuantity(read_rows) AS readable_read_rows,
          round(100 * read_rows / MAX(read_rows) OVER ()) AS pct_read_rows,
          written_rows,
          formatReadableQuantity(written_rows) AS readable_written_rows,
          round(100 * written_rows / MAX(written_rows) OVER ()) AS pct_written_rows,
          result_rows,
          formatReadableQuantity(result_rows) AS readable_result_rows,
          memory_usage,
          formatReadableSize(memory_usage) AS readable_memory_usage,
          round(100 * memory_usage / MAX(memory_usage) OVER ()) AS pct_memory_usage,
          query_kind,
          client_name
      FROM system.query_log
      WHERE
        if ({type: String} != '', type = {type: String}, type != 'QueryStart')
        AND if ({duration_1m: String} = '1', query_duration >= 60, true)
        AND if ({user: String} != '', user = {user: String}, true)
      ORDER BY event_time DESC
      LIMIT 1000
  `,
	Columns: []string{
		"user",
		"query",
		"query_duration",
		"readable_memory_usage",
		"event_time",
		"readable_read_rows",
		"readable_written_rows",
		"readable_result_rows",
		"query_kind",
		"type",
		"client_name",
		"query_id",
	},
	ColumnFormats: map[string]ColumnFormatSpec{
		"user":           Format(ColumnFormatColoredBadge),
		"type":           Format(ColumnFormatColoredBadge),
		"query_duration": Format(ColumnFormatDuration),
		"query_kind":     Format(ColumnFormatColoredBadge),
		"readable_query": Format(ColumnFormatCode),
		"query": FormatWith(ColumnFormatCodeDialog, ColumnFormatOptions{
			MaxTruncate:      100,
			HideQueryComment: true,
			DialogTitle:      "Query",
		}),
		"event_time":            Format(ColumnFormatRelatedTime),
		"readable_read_rows":    Format(ColumnFormatBackgroundBar),
		"readable_written_rows": Format(ColumnFormatBackgroundBar),
		"readable_memory_usage": Format(ColumnFormatBackgroundBar),
		"query_id": FormatWith(ColumnFormatLink, ColumnFormatOptions{
			Href:  "/[ctx.hostId]/query/[query_id]",
			Title: "Query Detail",
		}),
	},
	DefaultParams: map[string]string{
		"type":        "",
		"duration_1m": "",
		"user":        "",
	},
	FilterParamPresets: []FilterParamPreset{
		{Name: "type = QueryStart", Key: "type", Value: "QueryStart"},
		{Name: "type = QueryFinish", Key: "type", Value: "QueryFinish"},
		{Name: "type = ExceptionBeforeStart", Key: "type", Value: "ExceptionBeforeStart"},
		{Name: "type = ExceptionWhileProcessing", Key: "type", Value: "ExceptionWhileProcessing"},
		{Name: "query_duration > 1m", Key: "duration_1m", Value: "1"},
	},
	RelatedCharts: []RelatedChart{
		{ChartID: "query-count", Descriptor: ChartDescriptor{
			Title:     "Running Queries over last 14 days (query / day)",
			Interval:  "toStartOfDay",
			LastHours: 24 * 14,
		}},
		{ChartID: "query-duration", Descriptor: ChartDescriptor{
			Title:     "Avg Queries Duration over last 14 days (AVG(duration in seconds) / day)",
			Interval:  "toStartOfDay",
			LastHours: 24 * 14,
		}},
		{ChartID: "query-memory", Descriptor: ChartDescriptor{
			Title:     "Avg Memory Usage for queries over last 14 days",
			Interval:  "toStartOfDay",
			LastHours: 24 * 14,
		}},
		{ChartID: "query-count-by-user", Descriptor: ChartDescriptor{
			Title:      "Total Queries over last 14 days by users",
			Interval:   "toStartOfDay",
			LastHours:  24 * 14,
			ShowLegend: boolPtr(false),
		}},
	},
	Docs: "https://clickhouse.com/docs/en/operations/system-tables/query_log",
}
