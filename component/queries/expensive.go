package queries

var expensiveQueriesConfig = &QueryConfig{
	Name:        "expensive-queries",
	Description: "Finished queries grouped by normalized text, most expensive first",
	SQL: `
      SELECT
          normalized_query_hash,
          any(query) AS query,
          count() AS cnt,
          sum(query_duration_ms) / 1000 AS total_duration,
          avg(query_duration_ms) / 1000 AS avg_duration,
          round(100 * total_duration / MAX(total_duration) OVER ()) AS pct_total_duration,
          formatReadableTimeDelta(total_duration) AS readable_total_duration,
          max(memory_usage) AS max_memory_usage,
          formatReadableSize(max_memory_usage) AS readable_max_memory_usage,
          round(100 * max_memory_usage / MAX(max_memory_usage) OVER ()) AS pct_max_memory_usage,
          sum(read_rows) AS read_rows,
          formatReadableQuantity(read_rows) AS readable_read_rows,
          round(100 * read_rows / MAX(read_rows) OVER ()) AS pct_read_rows,
          groupUniqArray(user) AS users,
          max(event_time) AS last_event_time
      FROM system.query_log
      WHERE
        type = 'QueryFinish'
        AND event_time > now() - INTERVAL {last_hours: UInt32} HOUR
      GROUP BY normalized_query_hash
      ORDER BY {order_by: Identifier} DESC
      LIMIT 100
  `,
	Columns: []string{
		"query",
		"cnt",
		"readable_total_duration",
		"avg_duration",
		"readable_max_memory_usage",
		"readable_read_rows",
		"users",
		"last_event_time",
	},
	ColumnFormats: map[string]ColumnFormatSpec{
		"query": FormatWith(ColumnFormatCodeDialog, ColumnFormatOptions{
			MaxTruncate:      100,
			HideQueryComment: true,
			DialogTitle:      "Query",
		}),
		"cnt":                       Format(ColumnFormatNumber),
		"readable_total_duration":   Format(ColumnFormatBackgroundBar),
		"avg_duration":              Format(ColumnFormatDuration),
		"readable_max_memory_usage": Format(ColumnFormatBackgroundBar),
		"readable_read_rows":        Format(ColumnFormatBackgroundBar),
		"last_event_time":           Format(ColumnFormatRelatedTime),
	},
	DefaultParams: map[string]string{
		"last_hours": "24",
		"order_by":   "total_duration",
	},
	FilterParamPresets: []FilterParamPreset{
		{Name: "last 1 hour", Key: "last_hours", Value: "1"},
		{Name: "last 7 days", Key: "last_hours", Value: "168"},
		{Name: "by memory", Key: "order_by", Value: "max_memory_usage"},
		{Name: "by read rows", Key: "order_by", Value: "read_rows"},
		{Name: "by count", Key: "order_by", Value: "cnt"},
	},
	RelatedCharts: []RelatedChart{
		{ChartID: "query-duration", Descriptor: ChartDescriptor{
			Title:     "Avg Queries Duration over last 24 hours (AVG(duration in seconds) / hour)",
			Interval:  "toStartOfHour",
			LastHours: 24,
		}},
		{ChartID: "query-memory", Descriptor: ChartDescriptor{
			Title:     "Avg Memory Usage for queries over last 24 hours",
			Interval:  "toStartOfHour",
			LastHours: 24,
		}},
	},
	ClickHouseSettings: map[string]string{
		"max_threads": "2",
	},
	Docs: "https://clickhouse.com/docs/en/operations/system-tables/query_log",
}
