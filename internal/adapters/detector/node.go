package detector

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/linear"
	"go.trai.ch/kiln/internal/adapters/tui"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the renderer Graft node.
const NodeID graft.ID = "adapter.renderer"

func init() {
	graft.Register(graft.Node[ports.Renderer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Renderer, error) {
			return NewRenderer(os.Stdout, os.Stderr, os.Getenv(OutputEnvVar)), nil
		},
	})
}

// NewRenderer returns the interactive renderer on stderr when stdout is a
// terminal outside CI, and the linear renderer otherwise. override is an
// OutputEnvVar value.
func NewRenderer(stdout, stderr *os.File, override string) ports.Renderer {
	if ResolveMode(DetectEnvironment(stdout), override) == ModeTUI {
		return tui.New(stderr)
	}
	return linear.NewRenderer(stdout, stderr)
}
