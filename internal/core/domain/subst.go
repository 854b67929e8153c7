package domain

import (
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.trai.ch/zerr"
)

const maxSubstDepth = 32

// Subst expands a command template against the environment.
//
// Supported forms are $NAME, ${NAME}, ${NAME.attr} and $$ for a literal
// dollar sign. SOURCE, SOURCES, TARGET and TARGETS expand to the given
// nodes, shell-quoted where needed. The attributes dir, file, base and
// abspath apply to them with or without braces; any other suffix such as
// $TARGET.map is kept as text. Variables expand recursively, lists are joined
// with spaces and unset variables expand to the empty string.
func (e *Env) Subst(template string, targets, sources []Node) (string, error) {
	s := &substituter{env: e, targets: targets, sources: sources}
	out, err := s.expand(template, nil)
	if err != nil {
		return "", err
	}
	return collapseSpaces(out), nil
}

type substituter struct {
	env     *Env
	targets []Node
	sources []Node
}

func (s *substituter) expand(template string, stack []string) (string, error) {
	if len(stack) > maxSubstDepth {
		return "", zerr.With(ErrSubstitutionCycle, "variable", stack[len(stack)-1])
	}

	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' || i+1 >= len(template) {
			b.WriteByte(c)
			continue
		}

		next := template[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '{':
			end := strings.IndexByte(template[i+2:], '}')
			if end < 0 {
				b.WriteString(template[i:])
				return b.String(), nil
			}
			expr := template[i+2 : i+2+end]
			val, err := s.lookup(expr, stack)
			if err != nil {
				return "", err
			}
			b.WriteString(val)
			i += 2 + end
		case isNameStart(next):
			j := i + 1
			for j < len(template) && isNameChar(template[j]) {
				j++
			}
			j = nodeAttrEnd(template, i+1, j)
			val, err := s.lookup(template[i+1:j], stack)
			if err != nil {
				return "", err
			}
			b.WriteString(val)
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func (s *substituter) lookup(expr string, stack []string) (string, error) {
	name, attr, _ := strings.Cut(expr, ".")

	switch name {
	case "SOURCE":
		return s.nodes(first(s.sources), attr)
	case "SOURCES":
		return s.nodes(s.sources, attr)
	case "TARGET":
		return s.nodes(first(s.targets), attr)
	case "TARGETS":
		return s.nodes(s.targets, attr)
	}

	if attr != "" {
		return "", zerr.With(zerr.With(ErrInvalidConfigValue, "variable", name), "attribute", attr)
	}
	if slices.Contains(stack, name) {
		return "", zerr.With(ErrSubstitutionCycle, "variable", name)
	}

	v, ok := s.env.Lookup(name)
	if !ok || v == nil {
		return "", nil
	}

	stack = append(stack, name)
	if list, ok := v.([]string); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			expanded, err := s.expand(item, stack)
			if err != nil {
				return "", err
			}
			if expanded != "" {
				parts = append(parts, expanded)
			}
		}
		return strings.Join(parts, " "), nil
	}
	return s.expand(render(v), stack)
}

func (s *substituter) nodes(nodes []Node, attr string) (string, error) {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		var p string
		switch attr {
		case "":
			p = n.Path()
		case "dir":
			p = n.Dir()
		case "file":
			p = n.Name()
		case "base":
			p = n.Base()
		case "abspath":
			p = n.Abs()
		default:
			return "", zerr.With(ErrInvalidConfigValue, "attribute", attr)
		}
		parts = append(parts, shellquote.Join(p))
	}
	return strings.Join(parts, " "), nil
}

var nodeAttrs = []string{"dir", "file", "base", "abspath"}

// nodeAttrEnd extends an unbraced SOURCE, SOURCES, TARGET or TARGETS
// reference over a following ".attr" when attr is a node attribute.
func nodeAttrEnd(template string, start, end int) int {
	switch template[start:end] {
	case "SOURCE", "SOURCES", "TARGET", "TARGETS":
	default:
		return end
	}
	if end >= len(template) || template[end] != '.' {
		return end
	}
	j := end + 1
	for j < len(template) && isNameChar(template[j]) {
		j++
	}
	if !slices.Contains(nodeAttrs, template[end+1:j]) {
		return end
	}
	return j
}

func first(nodes []Node) []Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[:1]
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// collapseSpaces trims the command line and squeezes runs of blanks left by
// empty expansions, leaving quoted sections untouched.
func collapseSpaces(s string) string {
	var b strings.Builder
	var quote byte
	lastSpace := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ' ' || c == '\t':
			if lastSpace {
				continue
			}
			lastSpace = true
			b.WriteByte(' ')
			continue
		}
		lastSpace = false
		b.WriteByte(c)
	}
	return strings.TrimRight(b.String(), " ")
}
