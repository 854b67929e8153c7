package web

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
)

// CoffeeScript configuration keys.
const (
	KeyCoffeeBackend      = "COFFEE_BACKEND"
	KeyCoffeeFlags        = "COFFEE_FLAGS"
	KeyCoffeeBare         = "COFFEE_BARE"
	KeyCoffeeMap          = "COFFEE_MAP"
	KeyCoffeeNoHeader     = "COFFEE_NO_HEADER"
	KeyCoffeeTranspile    = "COFFEE_TRANSPILE"
	KeyCoffeeIgnorePrefix = "COFFEE_IGNORE_PREFIX"
	KeyCoffeeJSSuffix     = "COFFEE_JS_SUFFIX"
	KeyCoffeeJSRoot       = "COFFEE_JS_ROOT"
)

// CoffeeScript backends.
const (
	BackendCoffee = "coffee"
	BackendIced   = "iced"
)

var coffeeOptions = []option{
	{key: KeyCoffeeFlags, list: true},
	{key: KeyCoffeeBare},
	{key: KeyCoffeeMap},
	{key: KeyCoffeeNoHeader},
	{key: KeyCoffeeTranspile},
}

// CoffeeCommand generates the command line that compiles sources[0]. The
// compiler names its output after the source, so only the directory of
// targets[0] is passed on.
func CoffeeCommand(env *domain.Env, targets, sources []domain.Node) (string, error) {
	backend, err := selectBackend(env, KeyCoffeeBackend, BackendCoffee, BackendIced)
	if err != nil {
		return "", err
	}

	compiler := "$COFFEE"
	supported := []string{KeyCoffeeFlags, KeyCoffeeBare, KeyCoffeeMap, KeyCoffeeNoHeader, KeyCoffeeTranspile}
	if backend == BackendIced {
		compiler = "$ICED"
		supported = []string{KeyCoffeeFlags, KeyCoffeeBare, KeyCoffeeMap, KeyCoffeeNoHeader}
	}
	if err := checkOptions(env, backend, coffeeOptions, supported...); err != nil {
		return "", err
	}

	return commandLine(env, targets, sources,
		[]string{compiler, "$COFFEE_FLAGS"},
		flagIf(env, KeyCoffeeBare, "--bare"),
		flagIf(env, KeyCoffeeMap, "--map"),
		flagIf(env, KeyCoffeeNoHeader, "--no-header"),
		flagIf(env, KeyCoffeeTranspile, "--transpile"),
		[]string{"--output", "${TARGET.dir}", "--compile", "$SOURCE"},
	)
}

// coffeeEmitter adds the source map. CoffeeScript 2 writes app.js.map,
// the 1.x line that iced follows writes app.map.
func coffeeEmitter(env *domain.Env, targets, sources []domain.Node) ([]domain.Node, []domain.Node, error) {
	if !env.Bool(KeyCoffeeMap) {
		return targets, sources, nil
	}
	js := targets[0]
	if env.String(KeyCoffeeBackend) == BackendIced {
		return append(targets, js.WithSuffix(".js", ".map")), sources, nil
	}
	return append(targets, js.Rel(js.Path()+".map")), sources, nil
}

var (
	// require 'x', require "x", require('x')
	requireCall = regexp.MustCompile(`\brequire\s*\(?\s*["']([^"']+)["']`)
	// require(['a', 'b'], ...), define(['a', 'b'], ...) and the paren-less forms
	moduleList = regexp.MustCompile(`\b(?:require|define)\s*\(?\s*\[([^\]]*)\]`)
	quoted     = regexp.MustCompile(`["']([^"']+)["']`)
)

// ScanCoffee returns the dependencies named by require and define calls.
//
// Names ending in COFFEE_JS_SUFFIX are resolved against COFFEE_JS_ROOT.
// Names without a suffix refer to a module next to the requiring file: when
// a .coffee source exists the host is asked to compile it and its outputs
// are returned, otherwise the .js file itself. Names starting with
// COFFEE_IGNORE_PREFIX are skipped, anything else is reported.
func ScanCoffee(ctx context.Context, node domain.Node, env *domain.Env, host domain.Host) ([]domain.Node, error) {
	content, err := readText(node)
	if err != nil {
		return nil, err
	}

	var deps nodeSet
	for _, name := range requiredModules(content) {
		nodes, err := resolveModule(ctx, node, env, host, name)
		if err != nil {
			return nil, err
		}
		deps.add(nodes...)
	}
	return deps.nodes, nil
}

// requiredModules returns the quoted module names in content, in order of
// appearance.
func requiredModules(content string) []string {
	type match struct {
		pos  int
		name string
	}
	var matches []match

	for _, loc := range requireCall.FindAllStringSubmatchIndex(content, -1) {
		matches = append(matches, match{pos: loc[0], name: content[loc[2]:loc[3]]})
	}
	for _, loc := range moduleList.FindAllStringSubmatchIndex(content, -1) {
		list := content[loc[2]:loc[3]]
		for _, q := range quoted.FindAllStringSubmatchIndex(list, -1) {
			matches = append(matches, match{pos: loc[2] + q[0], name: list[q[2]:q[3]]})
		}
	}

	slices.SortStableFunc(matches, func(a, b match) int {
		return cmp.Compare(a.pos, b.pos)
	})

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSpace(m.name))
	}
	return names
}

func resolveModule(ctx context.Context, node domain.Node, env *domain.Env, host domain.Host, name string) ([]domain.Node, error) {
	ignore := env.String(KeyCoffeeIgnorePrefix)
	jsSuffix := env.String(KeyCoffeeJSSuffix)

	switch {
	case name == "":
		return nil, nil
	case ignore != "" && strings.HasPrefix(name, ignore):
		return nil, nil
	case jsSuffix != "" && strings.HasSuffix(name, jsSuffix):
		return []domain.Node{node.Rel(filepath.Join(env.String(KeyCoffeeJSRoot), name))}, nil
	case filepath.Ext(name) == "" && !strings.Contains(name, "!"):
		base := filepath.Join(node.Dir(), name)
		src := node.Rel(base + ".coffee")
		if src.Exists() {
			return host.Request(ctx, CoffeeBuilder, src)
		}
		return []domain.Node{node.Rel(base + ".js")}, nil
	default:
		host.Warn(fmt.Sprintf("%s: ignoring unknown dependency %q", node.Path(), name))
		return nil, nil
	}
}
