package querydetail

import (
	"context"
	"net/url"
	"strings"

	"github.com/chdash/chdash/component/format"
	"github.com/chdash/chdash/component/page"
	"github.com/chdash/chdash/component/queries"
)

const (
	profileEventsDocs = "https://clickhouse.com/docs/en/operations/system-tables/metrics"
	settingsDocs      = "https://clickhouse.com/docs/en/operations/server-configuration-parameters/settings"
	dataFormatsDocs   = "https://clickhouse.com/docs/en/chdb/data-formats"

	finishType = "QueryFinish"
	unknown    = "Unknown"
)

type Link struct {
	Text     string `json:"text"`
	Href     string `json:"href"`
	External bool   `json:"external,omitempty"`
}

// Field is one labeled value of the detail. Either Value or Links is set.
type Field struct {
	Key     string `json:"key"`
	DocLink string `json:"doc_link,omitempty"`
	Value   string `json:"value,omitempty"`
	Links   []Link `json:"links,omitempty"`
}

type Detail struct {
	QueryID      string  `json:"query_id"`
	DurationMs   float64 `json:"duration_ms"`
	Type         string  `json:"type"`
	User         string  `json:"user"`
	QueryPreview string  `json:"query_preview"`
	Query        string  `json:"query"`
	Fields       []Field `json:"fields"`
}

// View is the rendered detail page. Detail is nil when query_log has no
// row for the id.
type View struct {
	Host    int              `json:"host"`
	QueryID string           `json:"query_id"`
	Detail  *Detail          `json:"detail,omitempty"`
	Error   *page.QueryError `json:"error,omitempty"`
}

// Render loads every query_log event of queryID and merges them.
func Render(ctx context.Context, q page.Querier, host int, queryID string, previewLen int) (*View, error) {
	cfg := queries.GetQueryConfigByName(queries.QueryDetailName)
	params, err := queries.Bind(cfg, nil, map[string]string{"query_id": queryID})
	if err != nil {
		return nil, err
	}
	v := &View{Host: host, QueryID: queryID}
	res, err := page.Fetch(ctx, q, cfg, params)
	if err != nil {
		v.Error = page.NewQueryError(cfg, err)
		return v, nil
	}
	v.Detail = Build(host, res.Rows, previewLen)
	return v, nil
}

// Build merges the events of one query. The duration is summed over all
// events, the type comes from the last one and the remaining fields from
// the QueryFinish event, or the first event when there is none.
func Build(host int, rows []map[string]interface{}, previewLen int) *Detail {
	if len(rows) == 0 {
		return nil
	}
	first := rows[0]
	d := &Detail{
		QueryID: str(first["query_id"]),
		Type:    str(rows[len(rows)-1]["type"]),
		User:    str(first["user"]),
	}
	for _, r := range rows {
		if f, ok := format.Float(r["duration_ms"]); ok {
			d.DurationMs += f
		}
	}
	if d.Type == "" {
		d.Type = unknown
	}
	if d.User == "" {
		d.User = unknown
	}
	query := str(first["query"])
	d.QueryPreview = format.Query(query, format.QueryOptions{CommentRemove: true, Trim: true, Truncate: previewLen})
	d.Query = format.Dedent(query)

	src := first
	for _, r := range rows {
		if str(r["type"]) == finishType {
			src = r
			break
		}
	}
	d.Fields = buildFields(host, src)
	return d
}

func buildFields(host int, r map[string]interface{}) []Field {
	plain := func(key, column string) Field {
		return Field{Key: key, Value: format.Value(r[column])}
	}
	doc := func(key, link, column string) Field {
		return Field{Key: key, DocLink: link, Value: format.Value(r[column])}
	}

	initialUser := Field{Key: "Initial user"}
	if u := str(r["initial_user"]); u != "" {
		initialUser.Links = []Link{{Text: u, Href: page.ScopedLink(host, "/history-queries?user="+url.QueryEscape(u)), External: true}}
	}
	initialQuery := Field{Key: "Initial query id"}
	if id := str(r["initial_query_id"]); id != "" {
		initialQuery.Links = []Link{{Text: id, Href: page.ScopedLink(host, "/query/"+url.PathEscape(id)), External: true}}
	}

	fields := []Field{
		plain("Host name", "hostname"),
		plain("Client host name", "client_hostname"),
		plain("Client name", "client_name"),
		plain("Client revision", "client_revision"),
		initialUser,
		initialQuery,
		plain("Initial address", "initial_address"),
		plain("Initial port", "initial_port"),
		plain("Initial query start time", "initial_query_start_time"),
		{Key: "Databases", Links: databaseLinks(host, stringList(r["databases"]))},
		{Key: "Tables", Links: tableLinks(host, stringList(r["tables"]))},
		plain("Columns", "columns"),
		plain("Partitions", "partitions"),
		plain("Projections", "projections"),
		plain("Views", "views"),
		plain("Exception code", "exception_code"),
		plain("Exception", "exception"),
		plain("Stack trace", "stack_trace"),
		plain("HTTP method", "http_method"),
		plain("HTTP user agent", "http_user_agent"),
		plain("HTTP referer", "http_referer"),
		plain("Forwarded for", "forwarded_for"),
		plain("Quota key", "quota_key"),
		plain("Distributed depth", "distributed_depth"),
		plain("Revision", "revision"),
		plain("Log Comment", "log_comment"),
		doc("Profile events", profileEventsDocs, "ProfileEvents"),
		doc("Settings", settingsDocs, "Settings"),
		{Key: "Used aggregate functions", Links: referenceLinks(stringList(r["used_aggregate_functions"]))},
		plain("Used aggregate function combinators", "used_aggregate_function_combinators"),
		doc("Used database engines", dataFormatsDocs, "used_database_engines"),
		plain("Used data type families", "used_data_type_families"),
		plain("Used dictionaries", "used_dictionaries"),
		doc("Used formats", dataFormatsDocs, "used_formats"),
		{Key: "Used functions", Links: referenceLinks(stringList(r["used_functions"]))},
		plain("Used storages", "used_storages"),
		plain("Used table functions", "used_table_functions"),
		plain("Used row policies", "used_row_policies"),
		plain("Used privileges", "used_privileges"),
		plain("Missing privileges", "missing_privileges"),
	}

	res := fields[:0]
	for _, f := range fields {
		if !f.empty() {
			res = append(res, f)
		}
	}
	return res
}

func (f Field) empty() bool {
	if f.Links != nil {
		return len(f.Links) == 0
	}
	switch f.Value {
	case "", "0", "[]", "{}", "null":
		return true
	}
	return false
}

func databaseLinks(host int, databases []string) []Link {
	links := make([]Link, 0, len(databases))
	for _, db := range databases {
		links = append(links, Link{Text: db, Href: page.ScopedLink(host, "/database/"+url.PathEscape(db))})
	}
	return links
}

func tableLinks(host int, tables []string) []Link {
	links := make([]Link, 0, len(tables))
	for _, t := range tables {
		db, table, _ := strings.Cut(t, ".")
		links = append(links, Link{Text: t, Href: page.ScopedLink(host, "/database/"+url.PathEscape(db)+"/"+url.PathEscape(table))})
	}
	return links
}

// referenceLinks point at a GitHub search of the SQL reference docs.
func referenceLinks(items []string) []Link {
	links := make([]Link, 0, len(items))
	for _, item := range items {
		q := url.Values{}
		q.Set("q", `repo:ClickHouse/ClickHouse path:docs/en/sql-reference path:*.md "# `+item+`"`)
		links = append(links, Link{Text: item, Href: "https://github.com/search?" + q.Encode(), External: true})
	}
	return links
}

func str(v interface{}) string {
	return format.Value(v)
}

// stringList reads an Array(String) column from either client.
func stringList(v interface{}) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []interface{}:
		res := make([]string, 0, len(x))
		for _, e := range x {
			res = append(res, format.Value(e))
		}
		return res
	}
	return nil
}
