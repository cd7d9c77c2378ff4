package engine

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCacheMemoizesByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("// LINT.IfChange\n// LINT.ThenChange(\"b.go\")\n"), 0o644))

	c := newParseCache(2)
	defer c.close()

	ds1, err := c.get(path)
	require.NoError(t, err)
	ds2, err := c.get(path)
	require.NoError(t, err)
	require.Equal(t, ds1, ds2)
}

func TestParseCacheConcurrentRequestsGetSameResult(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("// LINT.IfChange\n"), 0o644))

	c := newParseCache(4)
	defer c.close()

	var wg sync.WaitGroup
	results := make([][]int, 8)
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ds, err := c.get(path)
			require.NoError(t, err)
			results[i] = []int{len(ds)}
		}()
	}
	wg.Wait()

	for _, r := range results {
		require.Equal(t, []int{1}, r)
	}
}

func TestParseCachePropagatesError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.go")
	require.NoError(t, os.WriteFile(path, []byte("// LINT.IfChange(oops\n"), 0o644))

	c := newParseCache(1)
	defer c.close()

	_, err := c.get(path)
	require.Error(t, err)
}
