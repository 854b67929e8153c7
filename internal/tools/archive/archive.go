package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	kfs "go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Options controls how Create writes an archive.
type Options struct {
	// ZipMethod is the ARCHIVE_ZIP_METHOD name. Empty selects ZIP_DEFLATED.
	ZipMethod string
	// Prefix is prepended to every entry name.
	Prefix string
	// Ignore holds file name globs skipped when recursing into directories.
	Ignore []string
	// Verbose receives one "<source> => <target>:<name>" line per entry.
	Verbose io.Writer
}

// WalkFunc is called for every regular file in an archive. r is only valid
// during the call.
type WalkFunc func(name string, info fs.FileInfo, r io.Reader) error

// Entry describes one file stored in an archive.
type Entry struct {
	Name   string
	Size   int64
	Mode   fs.FileMode
	Digest uint64
}

type entryWriter interface {
	Add(name string, info fs.FileInfo, r io.Reader) error
	Close() error
}

// Create writes sources into the archive target. The format follows the
// target suffix. Directory sources are added recursively. On failure the
// partially written target is removed.
func Create(target domain.Node, sources []domain.Node, opts Options) (err error) {
	format, err := FormatFor(target.Path())
	if err != nil {
		return err
	}

	method := uint16(0)
	if format == FormatZip {
		name := opts.ZipMethod
		if name == "" {
			name = "ZIP_DEFLATED"
		}
		if method, err = ParseZipMethod(name); err != nil {
			return err
		}
	}

	out, err := os.Create(target.OSPath())
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileCreateFailed.Error()), "path", target.Path())
	}
	defer func() {
		if err != nil {
			_ = os.Remove(target.OSPath())
		}
	}()

	self, err := out.Stat()
	if err != nil {
		_ = out.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrFileCreateFailed.Error()), "path", target.Path())
	}

	var w entryWriter
	if format == FormatZip {
		w = newZipWriter(out, method)
	} else {
		tw, terr := newTarWriter(out, format)
		if terr != nil {
			_ = out.Close()
			return zerr.With(zerr.Wrap(terr, domain.ErrArchiveWriteFailed.Error()), "path", target.Path())
		}
		w = tw
	}

	addErr := addSources(w, target, self, sources, opts)
	closeErr := w.Close()
	fileErr := out.Close()

	if addErr != nil {
		return addErr
	}
	if err := errors.Join(closeErr, fileErr); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveWriteFailed.Error()), "path", target.Path())
	}
	return nil
}

// addSources never stores self, the archive being written, even when it
// lies inside a source directory.
func addSources(w entryWriter, target domain.Node, self fs.FileInfo, sources []domain.Node, opts Options) error {
	walker := kfs.NewWalker()

	for _, src := range sources {
		if !src.IsDir() {
			if err := addFile(w, target, self, src.OSPath(), entryName(opts.Prefix, src.Path()), opts.Verbose); err != nil {
				return err
			}
			continue
		}

		for file, err := range walker.WalkFiles(src.OSPath(), opts.Ignore) {
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", src.Path())
			}
			rel, err := filepath.Rel(src.OSPath(), file)
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", file)
			}
			name := entryName(opts.Prefix, filepath.Join(src.Path(), rel))
			if err := addFile(w, target, self, file, name, opts.Verbose); err != nil {
				return err
			}
		}
	}
	return nil
}

func addFile(w entryWriter, target domain.Node, self fs.FileInfo, file, name string, verbose io.Writer) error {
	f, err := os.Open(file)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", file)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", file)
	}
	if os.SameFile(info, self) {
		return nil
	}

	if verbose != nil {
		abs, absErr := filepath.Abs(file)
		if absErr != nil {
			abs = file
		}
		_, _ = fmt.Fprintf(verbose, "%s => %s:%s\n", abs, target.Path(), name)
	}

	if err := w.Add(name, info, f); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveWriteFailed.Error()), "entry", name)
	}
	return nil
}

// entryName joins prefix and the source path with forward slashes and
// strips anything that would escape the archive root.
func entryName(prefix, p string) string {
	name := path.Join(filepath.ToSlash(prefix), filepath.ToSlash(p))
	name = strings.TrimLeft(name, "/")
	for strings.HasPrefix(name, "../") {
		name = strings.TrimPrefix(name, "../")
	}
	return name
}

// Walk calls fn for every regular file in the archive file.
func Walk(file string, fn WalkFunc) error {
	format, err := FormatFor(file)
	if err != nil {
		return err
	}
	if format == FormatZip {
		return walkZip(file, fn)
	}
	return walkTar(file, format, fn)
}

// List returns the entries of the archive file in stored order.
func List(file string) ([]Entry, error) {
	var entries []Entry
	err := Walk(file, func(name string, info fs.FileInfo, r io.Reader) error {
		h := xxhash.New()
		n, err := io.Copy(h, r)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "entry", name)
		}
		entries = append(entries, Entry{
			Name:   name,
			Size:   n,
			Mode:   info.Mode(),
			Digest: h.Sum64(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
