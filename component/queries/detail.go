package queries

// QueryDetailName is the config backing the per-query detail page.
const QueryDetailName = "query-detail"

var queryDetailConfig = &QueryConfig{
	Name:        QueryDetailName,
	Description: "Every query_log event of one query",
	SQL: `
      SELECT *,
          query_duration_ms AS duration_ms
      FROM system.query_log
      WHERE query_id = {query_id: String}
      ORDER BY event_time
  `,
	Docs:   "https://clickhouse.com/docs/en/operations/system-tables/query_log",
	Hidden: true,
}
