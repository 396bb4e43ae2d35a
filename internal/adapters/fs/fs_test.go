package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/fs"
)

func TestFile_Exists(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out.txt")
	f := fs.NewFile(path)

	exists, err := f.Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))

	exists, err = f.Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, f.ID())
}

func TestFile_Exists_StatError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	tmpDir := t.TempDir()
	locked := filepath.Join(tmpDir, "locked")
	require.NoError(t, os.Mkdir(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o700) }) //nolint:gosec // Test cleanup

	_, err := fs.NewFile(filepath.Join(locked, "out.txt")).Exists(context.Background())
	require.Error(t, err)
}

func TestFile_WriteCreatesParents(t *testing.T) {
	tmpDir := t.TempDir()
	f := fs.NewFile(filepath.Join(tmpDir, "build", "nested", "out.txt"))

	require.NoError(t, f.Write(context.Background(), []byte("hello")))

	data, err := f.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFile_ReadMissing(t *testing.T) {
	_, err := fs.NewFile(filepath.Join(t.TempDir(), "nope")).Read(context.Background())
	require.Error(t, err)
}

func TestFile_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fs.NewFile(filepath.Join(t.TempDir(), "out")).Exists(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStore_Artifact(t *testing.T) {
	tmpDir := t.TempDir()
	store := fs.NewStore(tmpDir)

	a, err := store.Artifact("build/clean.csv")
	require.NoError(t, err)
	assert.Equal(t, "build/clean.csv", a.ID())

	require.NoError(t, a.Write(context.Background(), []byte("x")))
	_, err = os.Stat(filepath.Join(tmpDir, "build", "clean.csv"))
	require.NoError(t, err)
}

func TestStore_ArtifactAbsolutePath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "abs.txt")
	a, err := fs.NewStore("/elsewhere").Artifact(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, a.(*fs.File).Path())
}
