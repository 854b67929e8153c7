package domain

import (
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// ParseAssignments turns KEY=VALUE pairs into environment values. A value
// is read as a bool or an int when it parses as one; a value containing
// commas becomes a list. Later pairs override earlier ones.
func ParseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, zerr.With(ErrInvalidConfigValue, "assignment", pair)
		}
		out[key] = parseValue(value)
	}
	return out, nil
}

func parseValue(s string) any {
	if strings.Contains(s, ",") {
		var list []string
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
		return list
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}
