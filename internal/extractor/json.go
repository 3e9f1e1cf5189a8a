package extractor

import (
	"encoding/json"
	"strings"
)

// fences are markdown wrappers models put around JSON.
var fences = []string{"```json", "```yaml", "```text", "```", "`json"}

// StripFences removes markdown code fences from model output.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, f := range fences {
		s = strings.ReplaceAll(s, f, "")
	}
	return s
}

// ExtractArray pulls a JSON array of objects out of raw model output. It
// parses the text between the first '[' and the last ']'; when that is not
// valid JSON (prose between two arrays, say) it falls back to the first
// balanced array. Non-object string items become {"question": item}.
// ok is false when no array parses.
func ExtractArray(raw string) (records []map[string]any, ok bool) {
	s := StripFences(raw)
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return nil, false
	}

	var items []any
	if err := json.Unmarshal([]byte(s[start:end+1]), &items); err != nil {
		candidate := balanced(s, start, '[', ']')
		if candidate == "" {
			return nil, false
		}
		if err := json.Unmarshal([]byte(candidate), &items); err != nil {
			return nil, false
		}
	}

	records = make([]map[string]any, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case map[string]any:
			records = append(records, v)
		case string:
			if strings.TrimSpace(v) != "" {
				records = append(records, map[string]any{"question": v})
			}
		}
	}
	return records, true
}

// ExtractObject finds the first balanced JSON object in s.
func ExtractObject(s string) (map[string]any, bool) {
	s = StripFences(s)
	start := strings.Index(s, "{")
	if start == -1 {
		return nil, false
	}
	candidate := balanced(s, start, '{', '}')
	if candidate == "" {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// balanced returns the bracketed span opening at s[start], skipping
// brackets inside JSON strings, or "" when it never closes.
func balanced(s string, start int, openCh, closeCh byte) string {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}

// Records reads question or answer records from model output: an array when
// present, otherwise a single object.
func Records(raw string) ([]map[string]any, bool) {
	if recs, ok := ExtractArray(raw); ok {
		return recs, true
	}
	if obj, ok := ExtractObject(raw); ok {
		return []map[string]any{obj}, true
	}
	return nil, false
}

// Field returns a record value as trimmed text. Numbers are formatted
// without a trailing ".0".
func Field(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			b, _ := json.Marshal(v)
			return string(b)
		case bool:
			if v {
				return "true"
			}
			return "false"
		}
	}
	return ""
}

// StringList reads a JSON array of strings from a record.
func StringList(rec map[string]any, key string) []string {
	items, ok := rec[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
