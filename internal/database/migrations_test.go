package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestMigrations_EmbeddedInOrder(t *testing.T) {
	fsys, err := Migrations("")
	require.NoError(t, err)

	files, err := pending(fsys)
	require.NoError(t, err)
	require.Equal(t, []string{"0001_init.sql"}, files)
}

func TestPending_SortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"0003_c.sql": {Data: []byte("SELECT 3")},
		"0001_a.sql": {Data: []byte("SELECT 1")},
		"README.md":  {Data: []byte("docs")},
		"0002_b.sql": {Data: []byte("SELECT 2")},
	}

	files, err := pending(fsys)
	require.NoError(t, err)
	require.Equal(t, []string{"0001_a.sql", "0002_b.sql", "0003_c.sql"}, files)
}
