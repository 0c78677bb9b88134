package docdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDocDB(t *testing.T, db DocDB) {
	ctx := context.Background()
	if deadline, ok := t.Deadline(); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}
	defer func() {
		require.NoError(t, db.Close())
	}()

	cfgs, err := db.LoadConfig(ctx)
	require.NoError(t, err)
	require.Empty(t, cfgs)

	err = db.SaveConfig(ctx, map[string]string{"dashboard": `{"max_rows":10}`, "other": "x"})
	require.NoError(t, err)
	cfgs, err = db.LoadConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"dashboard": `{"max_rows":10}`, "other": "x"}, cfgs)

	// saving replaces the whole set
	err = db.SaveConfig(ctx, map[string]string{"dashboard": `{"max_rows":20}`})
	require.NoError(t, err)
	cfgs, err = db.LoadConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"dashboard": `{"max_rows":20}`}, cfgs)

	err = db.SaveConfig(ctx, map[string]string{})
	require.NoError(t, err)
	cfgs, err = db.LoadConfig(ctx)
	require.NoError(t, err)
	require.Empty(t, cfgs)
}
