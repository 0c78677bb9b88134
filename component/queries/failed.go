package queries

var failedQueriesConfig = &QueryConfig{
	Name:        "failed-queries",
	Description: "Queries that raised an exception before or while processing",
	SQL: `
      SELECT
          type,
          query_id,
          event_time,
          user,
          query,
          exception_code,
          exception,
          query_duration_ms / 1000 AS query_duration,
          client_name
      FROM system.query_log
      WHERE
        type IN ('ExceptionBeforeStart', 'ExceptionWhileProcessing')
        AND if ({type: String} != '', type = {type: String}, true)
        AND event_time > now() - INTERVAL {last_hours: UInt32} HOUR
      ORDER BY event_time DESC
      LIMIT 1000
  `,
	Columns: []string{
		"event_time",
		"type",
		"user",
		"query",
		"exception_code",
		"exception",
		"query_duration",
		"query_id",
	},
	ColumnFormats: map[string]ColumnFormatSpec{
		"event_time": Format(ColumnFormatRelatedTime),
		"type":       Format(ColumnFormatColoredBadge),
		"user":       Format(ColumnFormatColoredBadge),
		"query": FormatWith(ColumnFormatCodeDialog, ColumnFormatOptions{
			MaxTruncate:      100,
			HideQueryComment: true,
			DialogTitle:      "Failed Query",
		}),
		"exception_code": Format(ColumnFormatBadge),
		"exception": FormatWith(ColumnFormatCodeDialog, ColumnFormatOptions{
			MaxTruncate: 80,
			DialogTitle: "Exception",
		}),
		"query_duration": Format(ColumnFormatDuration),
		"query_id": FormatWith(ColumnFormatLink, ColumnFormatOptions{
			Href:  "/[ctx.hostId]/query/[query_id]",
			Title: "Query Detail",
		}),
	},
	DefaultParams: map[string]string{
		"type":       "",
		"last_hours": "24",
	},
	FilterParamPresets: []FilterParamPreset{
		{Name: "type = ExceptionBeforeStart", Key: "type", Value: "ExceptionBeforeStart"},
		{Name: "type = ExceptionWhileProcessing", Key: "type", Value: "ExceptionWhileProcessing"},
		{Name: "last 1 hour", Key: "last_hours", Value: "1"},
		{Name: "last 7 days", Key: "last_hours", Value: "168"},
	},
	Docs: "https://clickhouse.com/docs/en/operations/system-tables/query_log",
}
