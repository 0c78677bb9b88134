// Package mock provides an in-memory clickhouse.Client for tests.
package mock

import (
	"context"
	"sync"

	"github.com/chdash/chdash/component/clickhouse"
	"github.com/chdash/chdash/config"
)

type Handler func(req clickhouse.Request) (*clickhouse.Result, error)

type Client struct {
	handler Handler

	mu       sync.Mutex
	requests []clickhouse.Request
	pingErr  error
	closed   bool
}

func NewClient(handler Handler) *Client {
	return &Client{handler: handler}
}

// Returning answers every query with res.
func Returning(res *clickhouse.Result) *Client {
	return NewClient(func(clickhouse.Request) (*clickhouse.Result, error) {
		return res, nil
	})
}

// Failing answers every query with err.
func Failing(err error) *Client {
	return NewClient(func(clickhouse.Request) (*clickhouse.Result, error) {
		return nil, err
	})
}

func (c *Client) Query(ctx context.Context, req clickhouse.Request) (*clickhouse.Result, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.handler(req)
}

func (c *Client) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pingErr
}

func (c *Client) SetPingError(err error) {
	c.mu.Lock()
	c.pingErr = err
	c.mu.Unlock()
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) Requests() []clickhouse.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]clickhouse.Request(nil), c.requests...)
}

// Factory hands out c for every configured host.
func (c *Client) Factory() clickhouse.ClientFactory {
	return func(config.Host, config.ClickHouse, *config.Security) (clickhouse.Client, error) {
		return c, nil
	}
}

// Rows builds a Result from positional values.
func Rows(columns []string, values ...[]interface{}) *clickhouse.Result {
	res := &clickhouse.Result{Columns: columns, Rows: []map[string]interface{}{}}
	for _, vs := range values {
		row := make(map[string]interface{}, len(columns))
		for i, c := range columns {
			if i < len(vs) {
				row[c] = vs[i]
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}
