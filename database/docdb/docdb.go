package docdb

import (
	"context"
	"io"
)

// DocDB stores the runtime-tunable dashboard settings, one JSON document
// per config module.
type DocDB interface {
	io.Closer

	SaveConfig(ctx context.Context, cfg map[string]string) error
	LoadConfig(ctx context.Context) (map[string]string, error)
}
