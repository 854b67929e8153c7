package domain

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.trai.ch/zerr"
)

// Env is the construction environment shared by all tools: a mapping from
// configuration keys to strings, bools, ints, string lists or string maps.
//
// Tools write to the environment only while they are generated; builders,
// scanners and command generators treat it as read-only.
type Env struct {
	vars map[string]any
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{vars: make(map[string]any)}
}

// Clone returns a deep copy of the environment.
func (e *Env) Clone() *Env {
	c := NewEnv()
	for k, v := range e.vars {
		switch val := v.(type) {
		case []string:
			c.vars[k] = slices.Clone(val)
		case map[string]string:
			c.vars[k] = maps.Clone(val)
		default:
			c.vars[k] = val
		}
	}
	return c
}

// Lookup returns the raw value stored under key.
func (e *Env) Lookup(key string) (any, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Has reports whether key is set to a non-nil value.
func (e *Env) Has(key string) bool {
	v, ok := e.vars[key]
	return ok && v != nil
}

// Keys returns all keys in sorted order.
func (e *Env) Keys() []string {
	return slices.Sorted(maps.Keys(e.vars))
}

// Replace sets key to value, overwriting any previous value.
func (e *Env) Replace(key string, value any) {
	e.vars[key] = normalize(value)
}

// SetDefault sets key to value only if key is not yet present.
func (e *Env) SetDefault(key string, value any) {
	if _, ok := e.vars[key]; ok {
		return
	}
	e.vars[key] = normalize(value)
}

// Merge replaces every key of values.
func (e *Env) Merge(values map[string]any) {
	for k, v := range values {
		e.Replace(k, v)
	}
}

// Append adds values to the list stored under key. A string value is
// split into words first, so appending to "-O2" yields ["-O2", ...].
func (e *Env) Append(key string, values ...string) {
	current := e.List(key)
	e.vars[key] = append(current, values...)
}

// String returns the value of key rendered as a single string.
// Lists are joined with spaces; missing keys yield "".
func (e *Env) String(key string) string {
	return render(e.vars[key])
}

// Bool interprets the value of key as a toggle. Strings such as "yes",
// "true", "on" and "1" count as true, as do non-zero ints and non-empty lists.
func (e *Env) Bool(key string) bool {
	switch v := e.vars[key].(type) {
	case bool:
		return v
	case int:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true
		}
		return false
	case []string:
		return len(v) > 0
	case map[string]string:
		return len(v) > 0
	default:
		return false
	}
}

// List returns the value of key as a list of words. A string value is
// split using shell quoting rules.
func (e *Env) List(key string) []string {
	switch v := e.vars[key].(type) {
	case nil:
		return nil
	case []string:
		return slices.Clone(v)
	case string:
		return splitWords(v)
	default:
		return []string{render(v)}
	}
}

// Int returns the value of key as an integer.
func (e *Env) Int(key string) (int, error) {
	switch v := e.vars[key].(type) {
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, zerr.With(zerr.With(ErrInvalidConfigValue, "key", key), "value", v)
		}
		return n, nil
	case nil:
		return 0, zerr.With(ErrMissingConfig, "key", key)
	default:
		return 0, zerr.With(zerr.With(ErrInvalidConfigValue, "key", key), "value", render(v))
	}
}

// StringMap returns the value of key as a map. Only map values qualify.
func (e *Env) StringMap(key string) map[string]string {
	if m, ok := e.vars[key].(map[string]string); ok {
		return maps.Clone(m)
	}
	return nil
}

// Require fails with ErrMissingConfig for the first key that is not set
// or set to an empty string.
func (e *Env) Require(keys ...string) error {
	for _, k := range keys {
		if !e.Has(k) || e.String(k) == "" {
			return zerr.With(ErrMissingConfig, "key", k)
		}
	}
	return nil
}

func splitWords(s string) []string {
	words, err := shellquote.Split(s)
	if err != nil {
		return strings.Fields(s)
	}
	return words
}

func normalize(value any) any {
	switch v := value.(type) {
	case nil, string, bool, int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return int(v) //nolint:gosec // configuration integers are small
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v) //nolint:gosec // configuration integers are small
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, render(normalize(item)))
		}
		return out
	case map[string]string:
		return maps.Clone(v)
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, item := range v {
			out[k] = render(normalize(item))
		}
		return out
	default:
		return fmt.Sprint(v)
	}
}

func render(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case []string:
		return strings.Join(v, " ")
	case map[string]string:
		keys := slices.Sorted(maps.Keys(v))
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+v[k])
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(v)
	}
}
