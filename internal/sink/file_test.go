package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "c", "app.log")

	require.NoError(t, Append(path, "first"))
	require.NoError(t, Append(path, "second"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(raw))
}

func TestAppendNeverTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	require.NoError(t, Append(path, "new"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing\nnew\n", string(raw))
}

func TestAppendThroughFileFails(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := Append(filepath.Join(blocker, "app.log"), "line")
	assert.Error(t, err)
}

func TestCountLines(t *testing.T) {
	dir := t.TempDir()

	n, err := CountLines(filepath.Join(dir, "missing.log"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	cases := map[string]int{
		"":           0,
		"one\n":      1,
		"a\nb\nc\n":  3,
		"a\nb\nc":    3,
		"\n\n":       2,
		"no newline": 1,
	}
	for content, want := range cases {
		path := filepath.Join(dir, "count.log")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		got, err := CountLines(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, "content %q", content)
	}
}

func TestCountLinesOnDirectory(t *testing.T) {
	_, err := CountLines(t.TempDir())
	assert.Error(t, err)
}
