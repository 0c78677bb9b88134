package database

import (
	"context"
	"testing"

	"github.com/chdash/chdash/config"

	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	for _, backend := range []string{config.DocDBBackendSQLite, config.DocDBBackendGenji} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.GetDefaultConfig()
			cfg.Storage.Path = t.TempDir()
			cfg.Storage.DocDBBackend = backend

			db, err := Open(context.Background(), &cfg)
			require.NoError(t, err)
			require.NoError(t, db.SaveConfig(context.Background(), map[string]string{"dashboard": "{}"}))
			got, err := db.LoadConfig(context.Background())
			require.NoError(t, err)
			require.Equal(t, map[string]string{"dashboard": "{}"}, got)
			require.NoError(t, db.Close())
		})
	}
}
