package queries

var runningQueriesConfig = &QueryConfig{
	Name:        "running-queries",
	Description: "Queries currently being processed by the server",
	SQL: `
      SELECT *,
        query_id as query_detail,
        multiIf (elapsed < 30, format('{} seconds', round(elapsed, 1)),
                 elapsed < 90, 'a minute',
                 formatReadableTimeDelta(elapsed, 'days', 'minutes')) as readable_elapsed,
        round(100 * elapsed / max(elapsed) OVER ()) AS pct_elapsed,
        formatReadableQuantity(read_rows) as readable_read_rows,
        round(100 * read_rows / max(read_rows) OVER ()) AS pct_read_rows,
        formatReadableQuantity(written_rows) as readable_written_rows,
        round(100 * written_rows / max(written_rows) OVER ()) AS pct_written_rows,
        formatReadableQuantity(total_rows_approx) as readable_total_rows_approx,
        formatReadableSize(peak_memory_usage) as readable_peak_memory_usage,
        multiIf (
          memory_usage = 0, formatReadableSize(memory_usage),
          formatReadableSize(memory_usage) = formatReadableSize(peak_memory_usage), formatReadableSize(memory_usage),
          formatReadableSize(memory_usage) || ' (peak ' || readable_peak_memory_usage || ')'
        ) as readable_memory_usage,
        round(100 * memory_usage / max(memory_usage) OVER ()) AS pct_memory_usage,
        if(total_rows_approx > 0 AND query_kind = 'Select', toString(round((100 * read_rows) / total_rows_approx, 2)) || '%', '') AS progress,
        if(total_rows_approx > 0 AND query_kind = 'Select', round((100 * read_rows) / total_rows_approx, 2), 0) AS pct_progress,
        (elapsed / (read_rows / total_rows_approx)) * (1 - (read_rows / total_rows_approx)) AS estimated_remaining_time,
        formatReadableQuantity(ProfileEvents['Merge']) AS launched_merges,
        formatReadableQuantity(ProfileEvents['MergedRows']) AS rows_before_merge,
        formatReadableSize(ProfileEvents['MergedUncompressedBytes']) AS bytes_before_merge,
        formatReadableTimeDelta(ProfileEvents['MergesTimeMilliseconds'] / 1000, 'days', 'minutes') AS merges_time,
        formatReadableTimeDelta(ProfileEvents['PartsLockHoldMicroseconds'] / 1000 / 1000) AS parts_lock_hold,
        ProfileEvents['FileOpen'] AS file_open,
        ProfileEvents['ContextLock'] AS context_lock,
        ProfileEvents['RWLockAcquiredReadLocks'] AS rw_lock_acquired_read_locks
      FROM system.processes
      WHERE is_cancelled = 0
      ORDER BY elapsed
    `,
	Columns: []string{
		"query",
		"query_detail",
		"user",
		"readable_memory_usage",
		"readable_elapsed",
		"progress",
		"readable_read_rows",
		"readable_written_rows",
		"launched_merges",
		"rows_before_merge",
		"bytes_before_merge",
		"merges_time",
		"file_open",
		"parts_lock_hold",
		"context_lock",
		"rw_lock_acquired_read_locks",
		"query_id",
	},
	ColumnFormats: map[string]ColumnFormatSpec{
		"query": FormatWith(ColumnFormatCodeDialog, ColumnFormatOptions{
			MaxTruncate:      100,
			HideQueryComment: true,
			DialogTitle:      "Running Query",
			TriggerClassName: "min-w-96",
		}),
		"user":                     Format(ColumnFormatColoredBadge),
		"estimated_remaining_time": Format(ColumnFormatDuration),
		"query_detail": FormatWith(ColumnFormatLink, ColumnFormatOptions{
			Href:      "/[ctx.hostId]/query/[query_id]",
			ClassName: "truncate max-w-48 text-wrap",
			Title:     "Query Detail",
		}),
		"query_id": FormatWith(ColumnFormatAction, ColumnFormatOptions{
			Actions: []Action{ActionKillQuery, ActionExplainQuery, ActionQuerySettings},
		}),
		"readable_elapsed":      Format(ColumnFormatBackgroundBar),
		"readable_read_rows":    Format(ColumnFormatBackgroundBar),
		"readable_written_rows": Format(ColumnFormatBackgroundBar),
		"readable_memory_usage": Format(ColumnFormatBackgroundBar),
		"progress":              Format(ColumnFormatBackgroundBar),
		"file_open":             Format(ColumnFormatNumber),
	},
	RelatedCharts: []RelatedChart{
		{ChartID: "query-count", Descriptor: ChartDescriptor{
			Title:     "Total Running Queries over last 12 hours (query / 5 minutes)",
			Interval:  "toStartOfFiveMinutes",
			LastHours: 12,
		}},
		{ChartID: "query-count-by-user", Descriptor: ChartDescriptor{
			Title:      "Total Queries over last 14 days by users",
			Interval:   "toStartOfDay",
			LastHours:  24 * 14,
			ShowLegend: boolPtr(false),
		}},
		{ChartID: "summary-used-by-running-queries", Descriptor: ChartDescriptor{
			Title: "Running queries Summary",
		}},
		{ChartID: "summary-used-by-merges", Descriptor: ChartDescriptor{
			Title: "Merge Summary",
		}},
	},
	Docs: "https://clickhouse.com/docs/en/operations/system-tables/processes",
}
