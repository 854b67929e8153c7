package archive

import (
	"archive/tar"
	"errors"
	"io"
	"io/fs"
	"os"

	dsbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

type tarWriter struct {
	tw         *tar.Writer
	compressor io.WriteCloser
}

func newTarWriter(w io.Writer, format Format) (*tarWriter, error) {
	t := &tarWriter{}

	switch format {
	case FormatTarGz:
		t.compressor = gzip.NewWriter(w)
	case FormatTarBz2:
		bw, err := dsbzip2.NewWriter(w, &dsbzip2.WriterConfig{Level: dsbzip2.DefaultCompression})
		if err != nil {
			return nil, err
		}
		t.compressor = bw
	}

	if t.compressor != nil {
		t.tw = tar.NewWriter(t.compressor)
	} else {
		t.tw = tar.NewWriter(w)
	}
	return t, nil
}

func (w *tarWriter) Add(name string, info fs.FileInfo, r io.Reader) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Format = tar.FormatPAX

	if err := w.tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(w.tw, r)
	return err
}

func (w *tarWriter) Close() error {
	err := w.tw.Close()
	if w.compressor != nil {
		err = errors.Join(err, w.compressor.Close())
	}
	return err
}

func walkTar(file string, format Format, fn WalkFunc) error {
	f, err := os.Open(file)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "path", file)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	switch format {
	case FormatTarGz:
		gr, err := gzip.NewReader(f)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "path", file)
		}
		defer func() { _ = gr.Close() }()
		r = gr
	case FormatTarBz2:
		br, err := dsbzip2.NewReader(f, nil)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "path", file)
		}
		defer func() { _ = br.Close() }()
		r = br
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "path", file)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := fn(hdr.Name, hdr.FileInfo(), tr); err != nil {
			return err
		}
	}
}
