package docdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteDocDB(t *testing.T) {
	db, err := NewSQLiteDB(t.TempDir(), true)
	require.NoError(t, err)
	testDocDB(t, db)
}

func TestSQLiteDocDBReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := NewSQLiteDB(dir, false)
	require.NoError(t, err)
	require.NoError(t, db.SaveConfig(t.Context(), map[string]string{"dashboard": "{}"}))
	require.NoError(t, db.Close())

	db, err = NewSQLiteDB(dir, false)
	require.NoError(t, err)
	defer db.Close()
	cfgs, err := db.LoadConfig(t.Context())
	require.NoError(t, err)
	require.Equal(t, map[string]string{"dashboard": "{}"}, cfgs)
}
