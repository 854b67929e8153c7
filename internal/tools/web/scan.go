package web

import (
	"os"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func readText(node domain.Node) (string, error) {
	data, err := os.ReadFile(node.OSPath())
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", node.Path())
	}
	return string(data), nil
}

// nodeSet collects nodes in first-seen order.
type nodeSet struct {
	nodes []domain.Node
	seen  map[string]struct{}
}

func (s *nodeSet) add(nodes ...domain.Node) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	for _, n := range nodes {
		if _, ok := s.seen[n.Path()]; ok {
			continue
		}
		s.seen[n.Path()] = struct{}{}
		s.nodes = append(s.nodes, n)
	}
}
