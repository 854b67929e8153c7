package domain

import (
	"os"
	"path/filepath"
	"strings"
)

// Node is a reference to a file that takes part in a build step.
// A node does not have to exist: scanners return speculative nodes for
// names they could not resolve so that the host reports them as missing.
//
// The path is what appears in command lines. A node created with FileIn
// also knows the directory the path is relative to, which is used for all
// file system access.
type Node struct {
	root string
	path string
}

// File returns a node for the given path. The path is cleaned but kept
// relative if it was relative.
func File(path string) Node {
	if path == "" {
		return Node{}
	}
	return Node{path: filepath.Clean(path)}
}

// FileIn returns a node for path relative to root.
func FileIn(root, path string) Node {
	n := File(path)
	if !filepath.IsAbs(n.path) {
		n.root = root
	}
	return n
}

// Files converts a list of paths to nodes.
func Files(paths ...string) []Node {
	nodes := make([]Node, 0, len(paths))
	for _, p := range paths {
		nodes = append(nodes, File(p))
	}
	return nodes
}

// FilesIn converts a list of paths relative to root to nodes.
func FilesIn(root string, paths ...string) []Node {
	nodes := make([]Node, 0, len(paths))
	for _, p := range paths {
		nodes = append(nodes, FileIn(root, p))
	}
	return nodes
}

// Path returns the path of the node as given.
func (n Node) Path() string {
	return n.path
}

// Root returns the directory the node path is relative to.
func (n Node) Root() string {
	return n.root
}

// OSPath returns the path used to access the file.
func (n Node) OSPath() string {
	if n.root == "" || n.path == "" {
		return n.path
	}
	return filepath.Join(n.root, n.path)
}

// Rel returns a node for path in the same root as n.
func (n Node) Rel(path string) Node {
	return FileIn(n.root, path)
}

// String implements fmt.Stringer.
func (n Node) String() string {
	return n.path
}

// IsZero reports whether the node refers to no file.
func (n Node) IsZero() bool {
	return n.path == ""
}

// Dir returns the directory containing the node.
func (n Node) Dir() string {
	return filepath.Dir(n.path)
}

// Name returns the last element of the path.
func (n Node) Name() string {
	return filepath.Base(n.path)
}

// Base returns the file name without its suffix.
func (n Node) Base() string {
	name := n.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Abs returns the absolute path of the node.
func (n Node) Abs() string {
	abs, err := filepath.Abs(n.OSPath())
	if err != nil {
		return n.OSPath()
	}
	return abs
}

// Exists reports whether the node exists on disk.
func (n Node) Exists() bool {
	if n.path == "" {
		return false
	}
	_, err := os.Stat(n.OSPath())
	return err == nil
}

// IsDir reports whether the node is an existing directory.
func (n Node) IsDir() bool {
	fi, err := os.Stat(n.OSPath())
	return err == nil && fi.IsDir()
}

// HasSuffix reports whether the node path ends with suffix.
func (n Node) HasSuffix(suffix string) bool {
	return strings.HasSuffix(n.path, suffix)
}

// WithSuffix replaces oldSuffix by newSuffix. When the node does not end in
// oldSuffix its last extension is replaced instead.
func (n Node) WithSuffix(oldSuffix, newSuffix string) Node {
	p := n.path
	if oldSuffix != "" && strings.HasSuffix(p, oldSuffix) {
		p = strings.TrimSuffix(p, oldSuffix)
	} else {
		p = strings.TrimSuffix(p, filepath.Ext(p))
	}
	return Node{root: n.root, path: p + newSuffix}
}

// Paths returns the paths of the given nodes.
func Paths(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.path)
	}
	return out
}
