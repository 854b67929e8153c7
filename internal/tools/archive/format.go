// Package archive provides the Archive builder, which packs its sources
// into a zip or tar file, and readers to inspect the result.
package archive

import (
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
)

// Format identifies an archive container and its compression.
type Format int

const (
	// FormatZip is a zip file.
	FormatZip Format = iota + 1
	// FormatTar is an uncompressed tarball.
	FormatTar
	// FormatTarGz is a gzip compressed tarball.
	FormatTarGz
	// FormatTarBz2 is a bzip2 compressed tarball.
	FormatTarBz2
)

// Compound suffixes come before ".tar".
var suffixes = []struct {
	suffix string
	format Format
}{
	{".zip", FormatZip},
	{".tar.gz", FormatTarGz},
	{".tar.bz2", FormatTarBz2},
	{".tar", FormatTar},
}

// FormatFor selects the format from the suffix of path.
func FormatFor(path string) (Format, error) {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s.suffix) {
			return s.format, nil
		}
	}
	return 0, domain.Detail(domain.ErrUnknownArchiveExtension, path)
}

// Suffixes lists the recognized archive suffixes.
func Suffixes() []string {
	out := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		out = append(out, s.suffix)
	}
	return out
}

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatTar:
		return "tar"
	case FormatTarGz:
		return "tar.gz"
	case FormatTarBz2:
		return "tar.bz2"
	default:
		return "unknown"
	}
}
