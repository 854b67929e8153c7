package web

import (
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// BuiltinBackend selects the in-process minifier.
const BuiltinBackend = "builtin"

// option is a configuration key that not every backend understands.
type option struct {
	key string
	// list options are enabled by a non-empty value, the others by a true one.
	list bool
}

func (o option) enabled(env *domain.Env) bool {
	if o.list {
		return len(env.List(o.key)) > 0
	}
	return env.Bool(o.key)
}

// selectBackend returns the backend named by key, which must be one of known.
func selectBackend(env *domain.Env, key string, known ...string) (string, error) {
	name := strings.TrimSpace(env.String(key))
	if !slices.Contains(known, name) {
		err := domain.Detail(domain.ErrUnsupportedBackend, fmt.Sprintf("%s=%s", key, name))
		return "", zerr.With(err, "supported", strings.Join(known, ", "))
	}
	return name, nil
}

// checkOptions fails for the first enabled option that backend does not
// list in supported.
func checkOptions(env *domain.Env, backend string, all []option, supported ...string) error {
	for _, o := range all {
		if !o.enabled(env) || slices.Contains(supported, o.key) {
			continue
		}
		err := zerr.Wrap(domain.ErrUnsupportedOption, fmt.Sprintf("option %s is not supported by %s", o.key, backend))
		return zerr.With(zerr.With(err, "option", o.key), "backend", backend)
	}
	return nil
}

// flagIf returns flag when the toggle key is set.
func flagIf(env *domain.Env, key, flag string) []string {
	if env.Bool(key) {
		return []string{flag}
	}
	return nil
}

// commandLine builds a command from literal words and substitution
// templates, dropping empty words.
func commandLine(env *domain.Env, targets, sources []domain.Node, words ...[]string) (string, error) {
	var parts []string
	for _, group := range words {
		for _, w := range group {
			if w != "" {
				parts = append(parts, w)
			}
		}
	}
	return env.Subst(strings.Join(parts, " "), targets, sources)
}
