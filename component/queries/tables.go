package queries

var databaseTablesConfig = &QueryConfig{
	Name:        "database-tables",
	Description: "Tables of a database with their engine and size",
	SQL: `
      SELECT
          database,
          name,
          engine,
          total_rows,
          formatReadableQuantity(total_rows) AS readable_total_rows,
          total_bytes,
          formatReadableSize(total_bytes) AS readable_total_bytes,
          round(100 * total_bytes / max(total_bytes) OVER ()) AS pct_total_bytes,
          metadata_modification_time,
          comment
      FROM system.tables
      WHERE database = {database: String}
      ORDER BY total_bytes DESC, name
  `,
	Columns: []string{
		"name",
		"engine",
		"readable_total_rows",
		"readable_total_bytes",
		"metadata_modification_time",
		"comment",
	},
	ColumnFormats: map[string]ColumnFormatSpec{
		"name": FormatWith(ColumnFormatLink, ColumnFormatOptions{
			Href: "/[ctx.hostId]/database/[database]/[name]",
		}),
		"engine":                     Format(ColumnFormatColoredBadge),
		"readable_total_bytes":       Format(ColumnFormatBackgroundBar),
		"metadata_modification_time": Format(ColumnFormatRelatedTime),
	},
	Docs:   "https://clickhouse.com/docs/en/operations/system-tables/tables",
	Hidden: true,
}

var tableColumnsConfig = &QueryConfig{
	Name:        "table-columns",
	Description: "Columns of a table with their type and on-disk size",
	SQL: `
      SELECT
          name,
          type,
          default_kind,
          default_expression,
          data_compressed_bytes,
          formatReadableSize(data_compressed_bytes) AS readable_compressed,
          round(100 * data_compressed_bytes / max(data_compressed_bytes) OVER ()) AS pct_compressed,
          formatReadableSize(data_uncompressed_bytes) AS readable_uncompressed,
          if(data_compressed_bytes > 0, round(data_uncompressed_bytes / data_compressed_bytes, 2), 0) AS compression_ratio,
          is_in_primary_key,
          is_in_sorting_key,
          comment
      FROM system.columns
      WHERE database = {database: String} AND table = {table: String}
      ORDER BY position
  `,
	Columns: []string{
		"name",
		"type",
		"default_kind",
		"default_expression",
		"readable_compressed",
		"readable_uncompressed",
		"compression_ratio",
		"is_in_primary_key",
		"is_in_sorting_key",
		"comment",
	},
	ColumnFormats: map[string]ColumnFormatSpec{
		"type":                Format(ColumnFormatCode),
		"default_expression":  Format(ColumnFormatCode),
		"readable_compressed": Format(ColumnFormatBackgroundBar),
		"compression_ratio":   Format(ColumnFormatNumber),
		"is_in_primary_key":   Format(ColumnFormatBoolean),
		"is_in_sorting_key":   Format(ColumnFormatBoolean),
	},
	Docs:   "https://clickhouse.com/docs/en/operations/system-tables/columns",
	Hidden: true,
}
