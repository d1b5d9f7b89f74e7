package common

import "strings"

// ExtractJSONArray isolates a JSON array embedded in free-form model output.
// The outermost [ ... ] span wins; otherwise markdown code fences are stripped
// and the remainder returned. ok is false when nothing is left.
func ExtractJSONArray(text string) (raw string, ok bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		return text[start : end+1], true
	}

	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	return cleaned, cleaned != ""
}
