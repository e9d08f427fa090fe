package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_SortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_blocks.sql": {Data: []byte("SELECT 2;")},
		"m/001_init.sql":   {Data: []byte("SELECT 1;")},
		"m/README.md":      {Data: []byte("notes")},
		"m/sub/003_x.sql":  {Data: []byte("SELECT 3;")},
	}

	files, err := migrationFiles(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_blocks.sql"}, files)
}

func TestMigrationFiles_MissingDir(t *testing.T) {
	_, err := migrationFiles(fstest.MapFS{}, "nope")
	require.Error(t, err)
}

func TestMigrationVersion(t *testing.T) {
	assert.Equal(t, "001", migrationVersion("sql/001_init.sql"))
	assert.Equal(t, "010", migrationVersion("010_add_index.sql"))
}

func TestEmbeddedSchemaDeclaresAllCollections(t *testing.T) {
	files, err := migrationFiles(embedded, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	content, err := embedded.ReadFile("sql/" + files[0])
	require.NoError(t, err)
	for _, table := range []string{"instructors", "sections", "meeting_blocks"} {
		assert.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS "+table)
	}
}
