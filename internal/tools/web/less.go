package web

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
)

// LESS configuration keys.
const (
	KeyLessBackend     = "LESS_BACKEND"
	KeyLessIncludePath = "LESS_INCLUDE_PATH"
	KeyLessFlags       = "LESS_FLAGS"
	KeyLessCompress    = "LESS_COMPRESS"
	KeyLessSourceMap   = "LESS_SOURCE_MAP"
	KeyLessStrictMath  = "LESS_STRICT_MATH"
)

// LESS backends.
const (
	BackendLessc  = "lessc"
	BackendPlessc = "plessc"
)

var lessOptions = []option{
	{key: KeyLessIncludePath, list: true},
	{key: KeyLessFlags, list: true},
	{key: KeyLessCompress},
	{key: KeyLessSourceMap},
	{key: KeyLessStrictMath},
}

// LessCommand generates the command line that compiles sources[0] into
// targets[0].
func LessCommand(env *domain.Env, targets, sources []domain.Node) (string, error) {
	backend, err := selectBackend(env, KeyLessBackend, BackendLessc, BackendPlessc)
	if err != nil {
		return "", err
	}

	switch backend {
	case BackendPlessc:
		if err := checkOptions(env, backend, lessOptions, KeyLessCompress); err != nil {
			return "", err
		}
		return commandLine(env, targets, sources,
			[]string{"$PLESSC"},
			flagIf(env, KeyLessCompress, "-f=compressed"),
			[]string{"$SOURCE", "$TARGET"},
		)
	default:
		if err := checkOptions(env, backend, lessOptions,
			KeyLessIncludePath, KeyLessFlags, KeyLessCompress, KeyLessSourceMap, KeyLessStrictMath); err != nil {
			return "", err
		}
		var includes []string
		if dirs := env.List(KeyLessIncludePath); len(dirs) > 0 {
			includes = []string{"--include-path=" + strings.Join(dirs, string(filepath.ListSeparator))}
		}
		return commandLine(env, targets, sources,
			[]string{"$LESSC", "$LESS_FLAGS"},
			includes,
			flagIf(env, KeyLessCompress, "--compress"),
			flagIf(env, KeyLessStrictMath, "--strict-math=on"),
			flagIf(env, KeyLessSourceMap, "--source-map"),
			[]string{"$SOURCE", "$TARGET"},
		)
	}
}

func lessEmitter(env *domain.Env, targets, sources []domain.Node) ([]domain.Node, []domain.Node, error) {
	if env.Bool(KeyLessSourceMap) {
		targets = append(targets, targets[0].Rel(targets[0].Path()+".map"))
	}
	return targets, sources, nil
}

// lessImport matches @import "x"; @import 'x'; and @import url(x); with
// optional import options such as (reference) and trailing media queries.
// Comments are not recognized.
var lessImport = regexp.MustCompile(`@import\s*(?:\([^)]*\)\s*)?(?:url\(\s*["']?([^"')]+?)["']?\s*\)|["']([^"']+)["'])[^;]*;`)

// ScanLess returns the files imported by a LESS style sheet. Names are
// looked up in the directory of the style sheet, then in each entry of
// LESS_INCLUDE_PATH. Names that cannot be found are returned as they would
// be expected next to the style sheet.
func ScanLess(_ context.Context, node domain.Node, env *domain.Env, _ domain.Host) ([]domain.Node, error) {
	content, err := readText(node)
	if err != nil {
		return nil, err
	}

	dirs := append([]string{node.Dir()}, env.List(KeyLessIncludePath)...)

	var deps nodeSet
	for _, m := range lessImport.FindAllStringSubmatch(content, -1) {
		name, isURL := m[2], false
		if m[1] != "" {
			name, isURL = strings.TrimSpace(m[1]), true
		}
		if skipLessImport(name, isURL) {
			continue
		}
		deps.add(resolveLess(node, dirs, name))
	}
	return deps.nodes, nil
}

func skipLessImport(name string, isURL bool) bool {
	switch {
	case name == "":
		return true
	case strings.HasPrefix(name, "http:"), strings.HasPrefix(name, "https:"), strings.HasPrefix(name, "//"):
		return true
	case isURL && strings.HasSuffix(name, ".css"):
		return true
	}
	return false
}

func resolveLess(node domain.Node, dirs []string, name string) domain.Node {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = []string{name + ".less", name}
	}

	for _, dir := range dirs {
		for _, c := range candidates {
			n := node.Rel(filepath.Join(dir, c))
			if n.Exists() && !n.IsDir() {
				return n
			}
		}
	}
	return node.Rel(filepath.Join(node.Dir(), candidates[0]))
}
