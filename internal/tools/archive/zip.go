package archive

import (
	"archive/zip"
	"io"
	"io/fs"
	"strings"

	dsbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Zip compression methods beyond the two archive/zip defines.
const (
	methodBzip2 uint16 = 12
	methodZstd         = zstd.ZipMethodWinZip
)

var zipMethods = map[string]uint16{
	"ZIP_STORED":   zip.Store,
	"ZIP_DEFLATED": zip.Deflate,
	"ZIP_BZIP2":    methodBzip2,
	"ZIP_ZSTD":     methodZstd,
}

// ParseZipMethod maps an ARCHIVE_ZIP_METHOD value to a zip method id.
func ParseZipMethod(name string) (uint16, error) {
	m, ok := zipMethods[strings.TrimSpace(name)]
	if !ok {
		return 0, domain.Detail(domain.ErrInvalidZipMethod, name)
	}
	return m, nil
}

type zipWriter struct {
	zw     *zip.Writer
	method uint16
}

func newZipWriter(w io.Writer, method uint16) *zipWriter {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
	zw.RegisterCompressor(methodBzip2, func(out io.Writer) (io.WriteCloser, error) {
		return dsbzip2.NewWriter(out, &dsbzip2.WriterConfig{Level: dsbzip2.DefaultCompression})
	})
	zw.RegisterCompressor(methodZstd, zstd.ZipCompressor())
	return &zipWriter{zw: zw, method: method}
}

func (w *zipWriter) Add(name string, info fs.FileInfo, r io.Reader) error {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = w.method

	dst, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, r)
	return err
}

func (w *zipWriter) Close() error {
	return w.zw.Close()
}

func walkZip(file string, fn WalkFunc) error {
	zr, err := zip.OpenReader(file)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "path", file)
	}
	defer func() { _ = zr.Close() }()

	zr.RegisterDecompressor(zip.Deflate, flate.NewReader)
	zr.RegisterDecompressor(methodBzip2, newBzip2ReadCloser)
	zr.RegisterDecompressor(methodZstd, zstd.ZipDecompressor())

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := visitZipFile(f, fn); err != nil {
			return err
		}
	}
	return nil
}

func visitZipFile(f *zip.File, fn WalkFunc) error {
	rc, err := f.Open()
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "entry", f.Name)
	}
	defer func() { _ = rc.Close() }()
	return fn(f.Name, f.FileInfo(), rc)
}

func newBzip2ReadCloser(r io.Reader) io.ReadCloser {
	br, err := dsbzip2.NewReader(r, nil)
	if err != nil {
		return io.NopCloser(errReader{err: err})
	}
	return br
}

type errReader struct {
	err error
}

func (r errReader) Read([]byte) (int, error) {
	return 0, r.err
}
