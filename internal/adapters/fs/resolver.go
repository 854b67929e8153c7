package fs

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// Resolver implements ports.InputResolver with doublestar globs.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveInputs expands the patterns relative to root. Results keep the
// order of the patterns; matches of one pattern are sorted and duplicates
// are dropped. A pattern without glob characters is returned as is, even
// when the file does not exist yet, since an earlier step may produce it.
// A glob that matches nothing is an error.
func (r *Resolver) ResolveInputs(inputs []string, root string) ([]string, error) {
	var (
		result []string
		seen   = make(map[string]struct{})
	)
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}

	fsys := os.DirFS(root)
	for _, input := range inputs {
		if !isGlob(input) {
			add(filepath.Clean(input))
			continue
		}

		pattern := filepath.ToSlash(filepath.Clean(input))
		if !doublestar.ValidatePattern(pattern) {
			return nil, zerr.With(zerr.Wrap(doublestar.ErrBadPattern, "failed to glob path"), "pattern", input)
		}

		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to glob path"), "pattern", input)
		}
		if len(matches) == 0 {
			return nil, zerr.With(domain.ErrInputNotFound, "pattern", input)
		}

		slices.Sort(matches)
		for _, m := range matches {
			add(filepath.FromSlash(m))
		}
	}

	return result, nil
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
