// Package tools holds the catalog of tools a project can enable.
package tools

import (
	"context"
	"fmt"
	"slices"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/tools/archive"
	"go.trai.ch/kiln/internal/tools/avr"
	"go.trai.ch/kiln/internal/tools/documents"
	"go.trai.ch/kiln/internal/tools/pyside"
	"go.trai.ch/kiln/internal/tools/web"
	"go.trai.ch/zerr"
)

// NodeID is the unique identifier for the catalog Graft node.
const NodeID graft.ID = "tools.catalog"

func init() {
	graft.Register(graft.Node[*Catalog]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Catalog, error) {
			return Default(), nil
		},
	})
}

// Catalog is an ordered set of tools looked up by name.
type Catalog struct {
	tools []ports.Tool
}

// NewCatalog creates a catalog of the given tools.
func NewCatalog(tools ...ports.Tool) *Catalog {
	return &Catalog{tools: tools}
}

// Default returns the catalog of every bundled tool.
func Default() *Catalog {
	return NewCatalog(
		archive.New(),
		avr.New(),
		documents.New(),
		pyside.New(),
		web.New(),
	)
}

// Names returns the tool names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.tools))
	for _, t := range c.tools {
		names = append(names, t.Name())
	}
	return names
}

// Lookup returns the tool registered under name.
func (c *Catalog) Lookup(name string) (ports.Tool, bool) {
	i := slices.IndexFunc(c.tools, func(t ports.Tool) bool { return t.Name() == name })
	if i < 0 {
		return nil, false
	}
	return c.tools[i], true
}

// Load generates the named tools into reg. Tools already generated are
// skipped, so a tool's defaults are applied once per registry.
func (c *Catalog) Load(reg *domain.Registry, env *domain.Env, names []string, log ports.Logger) error {
	for _, name := range names {
		if reg.HasTool(name) {
			continue
		}

		tool, ok := c.Lookup(name)
		if !ok {
			return zerr.With(zerr.With(domain.ErrUnknownTool, "tool", name), "available", c.Names())
		}
		if !tool.Exists(env) {
			return zerr.With(domain.ErrToolUnavailable, "tool", name)
		}

		if err := tool.Generate(reg, env, log); err != nil {
			return zerr.With(err, "tool", name)
		}
		reg.MarkTool(name)
		log.Debug(fmt.Sprintf("loaded tool %s", name))
	}
	return nil
}
