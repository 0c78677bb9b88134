package queries

var mergesConfig = &QueryConfig{
	Name:        "merges",
	Description: "Merges and part mutations currently in process for tables in the MergeTree family",
	SQL: `
      SELECT
          database,
          table,
          database || '.' || table AS table_name,
          round(elapsed, 1) AS elapsed,
          round(100 * elapsed / max(elapsed) OVER ()) AS pct_elapsed,
          round(progress * 100, 2) AS pct_progress,
          toString(round(progress * 100, 2)) || '%' AS readable_progress,
          num_parts,
          result_part_name,
          is_mutation,
          total_size_bytes_compressed,
          formatReadableSize(total_size_bytes_compressed) AS readable_total_size_bytes_compressed,
          rows_read,
          formatReadableQuantity(rows_read) AS readable_rows_read,
          round(100 * rows_read / max(rows_read) OVER ()) AS pct_rows_read,
          rows_written,
          formatReadableQuantity(rows_written) AS readable_rows_written,
          memory_usage,
          formatReadableSize(memory_usage) AS readable_memory_usage,
          round(100 * memory_usage / max(memory_usage) OVER ()) AS pct_memory_usage,
          merge_type,
          merge_algorithm
      FROM system.merges
      ORDER BY progress DESC
  `,
	Columns: []string{
		"table_name",
		"elapsed",
		"readable_progress",
		"num_parts",
		"result_part_name",
		"is_mutation",
		"readable_total_size_bytes_compressed",
		"readable_rows_read",
		"readable_rows_written",
		"readable_memory_usage",
		"merge_type",
		"merge_algorithm",
	},
	ColumnFormats: map[string]ColumnFormatSpec{
		"table_name": FormatWith(ColumnFormatLink, ColumnFormatOptions{
			Href: "/[ctx.hostId]/database/[database]/[table]",
		}),
		"elapsed":               Format(ColumnFormatDuration),
		"readable_progress":     Format(ColumnFormatBackgroundBar),
		"num_parts":             Format(ColumnFormatNumber),
		"is_mutation":           Format(ColumnFormatBoolean),
		"readable_rows_read":    Format(ColumnFormatBackgroundBar),
		"readable_memory_usage": Format(ColumnFormatBackgroundBar),
		"merge_type":            Format(ColumnFormatBadge),
		"merge_algorithm":       Format(ColumnFormatBadge),
	},
	RelatedCharts: []RelatedChart{
		{ChartID: "merge-count", Descriptor: ChartDescriptor{
			Title:     "Merges over last 24 hours (merge / 5 minutes)",
			Interval:  "toStartOfFiveMinutes",
			LastHours: 24,
		}},
		{ChartID: "summary-used-by-merges", Descriptor: ChartDescriptor{
			Title: "Merge Summary",
		}},
	},
	Docs: "https://clickhouse.com/docs/en/operations/system-tables/merges",
}
