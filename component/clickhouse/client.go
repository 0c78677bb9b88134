package clickhouse

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Request is one parameterized query. Params are bound server side
// against `{name: Type}` placeholders, never interpolated into SQL.
type Request struct {
	SQL      string
	Params   map[string]string
	Settings map[string]string
	// Label names the query in metrics and logs, usually a config name.
	Label string
}

// Result keeps the column order of the projection next to the rows.
type Result struct {
	Columns []string
	Rows    []map[string]interface{}
}

type Client interface {
	Query(ctx context.Context, req Request) (*Result, error)
	Ping(ctx context.Context) error
	Close() error
}

// Exception is an error reported by the ClickHouse server.
type Exception struct {
	Code    int
	Message string
}

func (e *Exception) Error() string {
	if e.Code == 0 {
		return e.Message
	}
	return fmt.Sprintf("Code: %d. %s", e.Code, e.Message)
}

var exceptionRe = regexp.MustCompile(`(?s)^Code: (\d+)\. (.*)$`)

// parseException turns the HTTP interface error body, e.g.
// "Code: 60. DB::Exception: Table default.x does not exist. (UNKNOWN_TABLE)",
// into an Exception.
func parseException(body string) *Exception {
	body = strings.TrimSpace(body)
	m := exceptionRe.FindStringSubmatch(body)
	if m == nil {
		return &Exception{Message: body}
	}
	code, _ := strconv.Atoi(m[1])
	return &Exception{Code: code, Message: strings.TrimSpace(m[2])}
}

// IsException reports whether err was raised by the server rather than
// the transport.
func IsException(err error) bool {
	var e *Exception
	return errors.As(err, &e)
}

func mergeSettings(base, extra map[string]string) map[string]string {
	if len(base) == 0 {
		return extra
	}
	res := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		res[k] = v
	}
	for k, v := range extra {
		res[k] = v
	}
	return res
}
