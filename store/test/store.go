// Package test builds throwaway stores for tests.
package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/rundown/internal/profile"
	"github.com/hrygo/rundown/store"
	"github.com/hrygo/rundown/store/db"
)

// NewTestingStore returns a migrated SQLite store in a temp dir, closed on cleanup.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	p := &profile.Profile{
		Mode:   "dev",
		Data:   dir,
		Driver: "sqlite",
		DSN:    filepath.Join(dir, "rundown_test.db"),
	}

	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)

	s := store.New(driver, p)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}
