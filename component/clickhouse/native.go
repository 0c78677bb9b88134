package clickhouse

import (
	"context"
	"crypto/tls"
	"net/url"
	"reflect"

	"github.com/chdash/chdash/config"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
)

// NativeClient uses the native TCP protocol. Host urls look like
// tcp://host:9000, the tls:// or clickhouses:// schemes enable TLS.
type NativeClient struct {
	conn     driver.Conn
	settings map[string]string
}

func NewNativeClient(host config.Host, chCfg config.ClickHouse, security *config.Security) (*NativeClient, error) {
	u, err := url.Parse(host.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid clickhouse url %s", host.URL)
	}
	opts := &clickhouse.Options{
		Protocol: clickhouse.Native,
		Addr:     []string{u.Host},
		Auth: clickhouse.Auth{
			Username: host.User,
			Password: host.Password,
		},
		DialTimeout: chCfg.Timeout(),
		ReadTimeout: chCfg.Timeout(),
	}
	if len(u.Path) > 1 {
		opts.Auth.Database = u.Path[1:]
	}
	tlsConfig := security.GetTLSConfig()
	if tlsConfig == nil && (u.Scheme == "tls" || u.Scheme == "clickhouses") {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	opts.TLS = tlsConfig

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open clickhouse native connection to %s", u.Host)
	}
	return &NativeClient{conn: conn, settings: baseSettings(chCfg)}, nil
}

func (c *NativeClient) Query(ctx context.Context, req Request) (*Result, error) {
	settings := clickhouse.Settings{}
	for k, v := range mergeSettings(c.settings, req.Settings) {
		settings[k] = v
	}
	ctx = clickhouse.Context(ctx,
		clickhouse.WithParameters(clickhouse.Parameters(req.Params)),
		clickhouse.WithSettings(settings))

	rows, err := c.conn.Query(ctx, req.SQL)
	if err != nil {
		return nil, convertNativeError(err)
	}
	defer rows.Close()

	columnTypes := rows.ColumnTypes()
	result := &Result{
		Columns: rows.Columns(),
		Rows:    []map[string]interface{}{},
	}
	for rows.Next() {
		dest := make([]interface{}, len(columnTypes))
		for i, ct := range columnTypes {
			dest[i] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "failed to scan clickhouse row")
		}
		row := make(map[string]interface{}, len(dest))
		for i, d := range dest {
			row[result.Columns[i]] = deref(reflect.ValueOf(d).Elem())
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, convertNativeError(err)
	}
	return result, nil
}

func (c *NativeClient) Ping(ctx context.Context) error {
	return convertNativeError(c.conn.Ping(ctx))
}

func (c *NativeClient) Close() error {
	return c.conn.Close()
}

// deref unwraps the pointers Nullable columns scan into.
func deref(v reflect.Value) interface{} {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

func convertNativeError(err error) error {
	if err == nil {
		return nil
	}
	var ex *clickhouse.Exception
	if errors.As(err, &ex) {
		return &Exception{Code: int(ex.Code), Message: "DB::Exception: " + ex.Message}
	}
	return errors.Wrap(err, "clickhouse native query failed")
}
