package archive_test

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/tools/archive"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func readAll(t *testing.T, file string) map[string]string {
	t.Helper()
	got := make(map[string]string)
	err := archive.Walk(file, func(name string, _ fs.FileInfo, r io.Reader) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		got[name] = string(data)
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestCreate_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target string
		method string
	}{
		{"site.zip", "ZIP_DEFLATED"},
		{"site.zip", "ZIP_STORED"},
		{"site.zip", "ZIP_BZIP2"},
		{"site.zip", "ZIP_ZSTD"},
		{"site.zip", ""},
		{"site.tar", ""},
		{"site.tar.gz", ""},
		{"site.tar.bz2", ""},
	}

	for _, tt := range tests {
		t.Run(tt.target+"/"+tt.method, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			writeFile(t, root, "css/site.css", "body{color:red}")
			writeFile(t, root, "index.html", "<html></html>")

			target := domain.FileIn(root, tt.target)
			err := archive.Create(target, domain.FilesIn(root, "index.html", "css/site.css"), archive.Options{
				ZipMethod: tt.method,
			})
			require.NoError(t, err)

			assert.Equal(t, map[string]string{
				"index.html":   "<html></html>",
				"css/site.css": "body{color:red}",
			}, readAll(t, target.OSPath()))
		})
	}
}

func TestCreate_PrefixAndDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "assets/img/logo.svg", "<svg/>")
	writeFile(t, root, "assets/fonts/a.woff", "woff")
	writeFile(t, root, "assets/.git/HEAD", "ref")
	writeFile(t, root, "assets/fonts/a.woff.tmp", "tmp")

	target := domain.FileIn(root, "dist.tar.gz")
	err := archive.Create(target, domain.FilesIn(root, "assets"), archive.Options{
		Prefix: "site-1.0",
		Ignore: []string{"*.tmp"},
	})
	require.NoError(t, err)

	entries, err := archive.List(target.OSPath())
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		"site-1.0/assets/fonts/a.woff",
		"site-1.0/assets/img/logo.svg",
	}, names)
}

func TestCreate_TargetInsideSourceDirectory(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"site/out.zip", "site/out.tar"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			writeFile(t, root, "site/index.html", "<html></html>")

			target := domain.FileIn(root, name)
			err := archive.Create(target, domain.FilesIn(root, "site"), archive.Options{
				ZipMethod: "ZIP_STORED",
			})
			require.NoError(t, err)

			assert.Equal(t, map[string]string{
				"site/index.html": "<html></html>",
			}, readAll(t, target.OSPath()))
		})
	}
}

func TestCreate_Verbose(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")

	var out bytes.Buffer
	target := domain.FileIn(root, "out.zip")
	err := archive.Create(target, domain.FilesIn(root, "a.txt"), archive.Options{
		Prefix:  "pkg",
		Verbose: &out,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "a.txt")+" => out.zip:pkg/a.txt\n", out.String())
}

func TestCreate_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown extension", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, "a.txt", "a")

		target := domain.FileIn(root, "out.rar")
		err := archive.Create(target, domain.FilesIn(root, "a.txt"), archive.Options{})
		require.Error(t, err)
		assert.Equal(t, "Unknown file extension: out.rar", err.Error())
		assert.NoFileExists(t, target.OSPath())
	})

	t.Run("invalid zip method", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, "a.txt", "a")

		target := domain.FileIn(root, "out.zip")
		err := archive.Create(target, domain.FilesIn(root, "a.txt"), archive.Options{ZipMethod: "ZIP_LZMA"})
		require.Error(t, err)
		assert.Equal(t, "Not a valid zip method: ZIP_LZMA", err.Error())
		assert.NoFileExists(t, target.OSPath())
	})

	t.Run("missing source removes partial output", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, "a.txt", "a")

		target := domain.FileIn(root, "out.tar")
		err := archive.Create(target, domain.FilesIn(root, "a.txt", "missing.txt"), archive.Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrFileOpenFailed.Error())
		assert.NoFileExists(t, target.OSPath())
	})
}

func TestList_Digests(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")

	target := domain.FileIn(root, "out.zip")
	require.NoError(t, archive.Create(target, domain.FilesIn(root, "a.txt"), archive.Options{}))

	entries, err := archive.List(target.OSPath())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, int64(5), entries[0].Size)
	assert.Equal(t, xxhash.Sum64String("hello"), entries[0].Digest)
	assert.True(t, entries[0].Mode.IsRegular())
}

func TestList_Errors(t *testing.T) {
	t.Parallel()

	_, err := archive.List("notes.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown file extension")

	_, err = archive.List(filepath.Join(t.TempDir(), "missing.zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrArchiveReadFailed.Error())
}
