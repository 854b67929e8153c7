package fs_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/fs"
)

func TestWalker_WalkFiles(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	mustCreateFile(t, tmpDir, "file1.txt")
	mustCreateFile(t, tmpDir, "dir1/file2.txt")
	mustCreateFile(t, tmpDir, "dir2/file3.txt")

	walker := fs.NewWalker()
	var files []string
	for filePath, err := range walker.WalkFiles(tmpDir, nil) {
		require.NoError(t, err)
		files = append(files, filePath)
	}

	assert.Equal(t, []string{
		filepath.Join(tmpDir, "dir1", "file2.txt"),
		filepath.Join(tmpDir, "dir2", "file3.txt"),
		filepath.Join(tmpDir, "file1.txt"),
	}, files)
}

func TestWalker_WalkFiles_SkipsVCSAndIgnored(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	mustCreateFile(t, tmpDir, ".git/config")
	mustCreateFile(t, tmpDir, ".jj/store")
	mustCreateFile(t, tmpDir, "src/main.c")
	mustCreateFile(t, tmpDir, "src/main.o")
	mustCreateFile(t, tmpDir, "node_modules/x/index.js")

	walker := fs.NewWalker()
	var files []string
	for filePath, err := range walker.WalkFiles(tmpDir, []string{"*.o", "node_modules"}) {
		require.NoError(t, err)
		files = append(files, filePath)
	}

	assert.Equal(t, []string{filepath.Join(tmpDir, "src", "main.c")}, files)
}

func TestWalker_WalkFiles_EarlyBreak(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	mustCreateFile(t, tmpDir, "a.txt")
	mustCreateFile(t, tmpDir, "b.txt")

	count := 0
	for range fs.NewWalker().WalkFiles(tmpDir, nil) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestWalker_WalkFiles_MissingRoot(t *testing.T) {
	t.Parallel()

	var gotErr error
	for _, err := range fs.NewWalker().WalkFiles(filepath.Join(t.TempDir(), "nope"), nil) {
		gotErr = err
	}
	require.Error(t, gotErr)
}
