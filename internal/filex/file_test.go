package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedDir(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "a", "b")

	got, err := EnsureDir(target)
	require.NoError(t, err)
	assert.Equal(t, target, got)

	info, err := os.Stat(got)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_ExistingDirIsFine(t *testing.T) {
	base := t.TempDir()

	got, err := EnsureDir(base)
	require.NoError(t, err)
	assert.Equal(t, base, got)
}
