// cache_test.go - Tests fuer den Build-Cache
package buildcache

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLib(t *testing.T, c *Cache, hash string) string {
	t.Helper()
	path := c.Path(hash, ".so")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("library"), 0o644))
	return path
}

func TestStoreLookup(t *testing.T) {
	c := Open(t.TempDir())
	defer c.Close()

	_, ok, err := c.Lookup("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	file := writeLib(t, c, "abc")
	require.NoError(t, c.Store(Entry{Hash: "abc", Model: "sphere", Target: "c/double/host", Compiler: "gcc", File: file}))

	e, ok, err := c.Lookup("abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sphere", e.Model)
	assert.Equal(t, "c/double/host", e.Target)
	assert.Equal(t, file, e.File)
	assert.EqualValues(t, len("library"), e.Size)
	assert.Equal(t, 1, e.Hits)

	e, _, _ = c.Lookup("abc")
	assert.Equal(t, 2, e.Hits)
}

func TestLookupStaleFile(t *testing.T) {
	c := Open(t.TempDir())
	defer c.Close()

	file := writeLib(t, c, "abc")
	require.NoError(t, c.Store(Entry{Hash: "abc", Model: "sphere", Target: "c/double/host", File: file}))
	require.NoError(t, os.Remove(file))

	_, ok, err := c.Lookup("abc")
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreMissingFile(t *testing.T) {
	c := Open(t.TempDir())
	defer c.Close()

	err := c.Store(Entry{Hash: "abc", File: filepath.Join(c.Dir, "nope.so")})
	assert.Error(t, err)
}

func TestPrune(t *testing.T) {
	c := Open(t.TempDir())
	defer c.Close()

	for _, h := range []string{"a", "b"} {
		require.NoError(t, c.Store(Entry{Hash: h, Model: "sphere", Target: "c/double/host", File: writeLib(t, c, h)}))
	}

	n, err := c.Prune(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = c.Prune(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.NoFileExists(t, c.Path("a", ".so"))
	entries, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()

	c := Open(dir)
	require.NoError(t, c.Store(Entry{Hash: "abc", Model: "cylinder", Target: "c/single/host", File: writeLib(t, c, "abc")}))
	require.NoError(t, c.Close())

	c = Open(dir)
	defer c.Close()
	_, ok, err := c.Lookup("abc")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMigrateV1(t *testing.T) {
	dir := t.TempDir()

	conn, err := sql.Open("sqlite3", filepath.Join(dir, "index.sqlite"))
	require.NoError(t, err)
	_, err = conn.Exec(`
		CREATE TABLE settings (id INTEGER PRIMARY KEY CHECK (id = 1), schema_version INTEGER NOT NULL DEFAULT 1);
		INSERT INTO settings (id) VALUES (1);
		CREATE TABLE libraries (
			hash TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			target TEXT NOT NULL,
			compiler TEXT NOT NULL DEFAULT '',
			file TEXT NOT NULL,
			size INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	c := Open(dir)
	defer c.Close()

	file := writeLib(t, c, "abc")
	require.NoError(t, c.Store(Entry{Hash: "abc", Model: "sphere", Target: "c/double/host", File: file}))
	e, ok, err := c.Lookup("abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, e.Hits)

	version, err := c.db.getSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}
