// Package domain contains the core model shared by the host driver and the
// tools: the construction environment, file nodes, builders, scanners and the
// registry they are recorded in.
package domain

import (
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Registry records the builders and scanners contributed by tools. It is
// created per invocation and handed to each tool's Generate call.
type Registry struct {
	builders map[string]*Builder
	scanners []*Scanner
	tools    []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]*Builder),
	}
}

// AddBuilder registers b under its name.
func (r *Registry) AddBuilder(b *Builder) error {
	if _, exists := r.builders[b.Name]; exists {
		return zerr.With(ErrBuilderAlreadyExists, "builder", b.Name)
	}
	r.builders[b.Name] = b
	return nil
}

// AddScanner registers s.
func (r *Registry) AddScanner(s *Scanner) error {
	for _, existing := range r.scanners {
		if existing.Name == s.Name {
			return zerr.With(ErrScannerAlreadyExists, "scanner", s.Name)
		}
	}
	r.scanners = append(r.scanners, s)
	return nil
}

// MarkTool records that the named tool has been generated.
func (r *Registry) MarkTool(name string) {
	if !slices.Contains(r.tools, name) {
		r.tools = append(r.tools, name)
	}
}

// HasTool reports whether the named tool has been generated.
func (r *Registry) HasTool(name string) bool {
	return slices.Contains(r.tools, name)
}

// Tools returns the generated tool names in generation order.
func (r *Registry) Tools() []string {
	return slices.Clone(r.tools)
}

// Builder returns the builder registered under name.
func (r *Registry) Builder(name string) (*Builder, error) {
	b, ok := r.builders[name]
	if !ok {
		return nil, zerr.With(ErrBuilderNotFound, "builder", name)
	}
	return b, nil
}

// Builders returns all builders sorted by name.
func (r *Registry) Builders() []*Builder {
	names := slices.Sorted(maps.Keys(r.builders))
	out := make([]*Builder, 0, len(names))
	for _, n := range names {
		out = append(out, r.builders[n])
	}
	return out
}

// Scanners returns all scanners in registration order.
func (r *Registry) Scanners() []*Scanner {
	return slices.Clone(r.scanners)
}

// ScannerFor returns the scanner whose longest skey matches the end of path.
func (r *Registry) ScannerFor(path string) (*Scanner, bool) {
	var (
		best    *Scanner
		bestLen int
	)
	for _, s := range r.scanners {
		for _, key := range s.Skeys {
			if strings.HasSuffix(path, key) && len(key) > bestLen {
				best, bestLen = s, len(key)
			}
		}
	}
	return best, best != nil
}
