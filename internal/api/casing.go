package api

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CamelizeKeys rewrites every map key in a decoded JSON document from
// snake_case to camelCase, recursing through nested objects and arrays.
// Values are never modified, only keys; primitives pass through unchanged.
// The conversion is idempotent: camelCase keys contain no underscores and
// are returned as-is.
func CamelizeKeys(doc any) any {
	switch v := doc.(type) {
	case map[string]any:
		converted := make(map[string]any, len(v))
		for key, value := range v {
			converted[snakeToCamelCase(key)] = CamelizeKeys(value)
		}
		return converted
	case []any:
		for i, value := range v {
			v[i] = CamelizeKeys(value)
		}
		return v
	default:
		return v
	}
}

func snakeToCamelCase(input string) string {
	if !strings.Contains(input, "_") {
		return input
	}

	c := cases.Title(language.English)

	parts := strings.Split(input, "_")
	result := parts[0]

	// Capitalises the first letter of each subsequent word and appends it.
	for _, part := range parts[1:] {
		result += c.String(part)
	}

	return result
}
