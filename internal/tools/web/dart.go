package web

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// dartEmitter adds the dependency list and source map dart2js writes next
// to its output.
func dartEmitter(_ *domain.Env, targets, sources []domain.Node) ([]domain.Node, []domain.Node, error) {
	js := targets[0]
	return append(targets, js.Rel(js.Path()+".deps"), js.Rel(js.Path()+".map")), sources, nil
}

// ScanDart reads the dependency list a previous dart2js run left in
// <source>.js.deps. Only file: URLs are understood; other entries are
// reported and skipped. A missing list yields no dependencies.
func ScanDart(_ context.Context, node domain.Node, _ *domain.Env, host domain.Host) ([]domain.Node, error) {
	depsFile := node.Rel(node.Path() + ".js.deps")

	f, err := os.Open(depsFile.OSPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", depsFile.Path())
	}
	defer func() { _ = f.Close() }()

	var deps nodeSet
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		u, err := url.Parse(line)
		if err != nil || u.Scheme != "file" {
			host.Warn(fmt.Sprintf("%s: cannot handle dependency %q", node.Path(), line))
			continue
		}
		deps.add(domain.File(u.Path))
	}
	if err := sc.Err(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", depsFile.Path())
	}
	return deps.nodes, nil
}
