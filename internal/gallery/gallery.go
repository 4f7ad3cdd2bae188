package gallery

import (
	"encoding/json"
	"strings"
)

// ParseValue normalizes a stored gallery meta value into an ordered list of
// URL strings. Earlier versions of the system wrote this field in three
// shapes: a JSON array, a JSON-encoded string containing a JSON array, and
// a newline- or comma-delimited plain string. This function is the only
// code path that may read the raw field; callers never see the stored
// shape.
//
// A malformed value yields an empty list, never an error; a broken gallery
// on one item must not break anything else.
func ParseValue(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	// JSON array, the current write format.
	if strings.HasPrefix(raw, "[") {
		var urls []string
		if err := json.Unmarshal([]byte(raw), &urls); err == nil {
			return clean(urls)
		}
		// Arrays that fail to decode as []string may hold mixed types;
		// salvage the string elements.
		var mixed []interface{}
		if err := json.Unmarshal([]byte(raw), &mixed); err == nil {
			var urls []string
			for _, v := range mixed {
				if s, ok := v.(string); ok {
					urls = append(urls, s)
				}
			}
			return clean(urls)
		}
		return nil
	}

	// Double-encoded: a JSON string whose content is itself a JSON array.
	if strings.HasPrefix(raw, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(raw), &inner); err == nil {
			return ParseValue(inner)
		}
		return nil
	}

	// Delimited plain string, the oldest format.
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})
	return clean(parts)
}

// Dedupe removes duplicate URLs while preserving first-seen order.
func Dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// Sanitize is the write-path normalization applied whenever a gallery list
// is persisted: trim, drop empties, dedupe.
func Sanitize(urls []string) []string {
	return Dedupe(clean(urls))
}

// Encode serializes a gallery list in the current storage format.
func Encode(urls []string) (string, error) {
	b, err := json.Marshal(urls)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func clean(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u != "" {
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
