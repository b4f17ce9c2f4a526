package upstream

import (
	"fmt"
	"strings"

	"github.com/conceptforge/concept-api/internal/domain/concept"
)

// Extractor pulls a candidate string out of a decoded JSON object.
// It reports false when the candidate is absent, not a string, or blank.
type Extractor struct {
	Name string
	Fn   func(payload map[string]any) (string, bool)
}

// Field extracts a top-level string field.
func Field(name string) Extractor {
	return Extractor{
		Name: name,
		Fn: func(payload map[string]any) (string, bool) {
			return nonEmptyString(payload[name])
		},
	}
}

// FirstOf extracts field from the first element of the array stored under list,
// e.g. FirstOf("data", "url") reads payload.data[0].url.
func FirstOf(list, field string) Extractor {
	return Extractor{
		Name: fmt.Sprintf("%s[0].%s", list, field),
		Fn: func(payload map[string]any) (string, bool) {
			items, ok := payload[list].([]any)
			if !ok || len(items) == 0 {
				return "", false
			}
			item, ok := items[0].(map[string]any)
			if !ok {
				return "", false
			}
			return nonEmptyString(item[field])
		},
	}
}

// Extract tries each extractor in order and returns the first match.
func Extract(payload map[string]any, extractors []Extractor) (string, error) {
	for _, e := range extractors {
		if v, ok := e.Fn(payload); ok {
			return v, nil
		}
	}

	names := make([]string, 0, len(extractors))
	for _, e := range extractors {
		names = append(names, e.Name)
	}
	return "", fmt.Errorf("%w: none of [%s] present in response", concept.ErrUpstreamFormat, strings.Join(names, ", "))
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
