package completion

import (
	"encoding/json"
	"regexp"
)

var (
	arrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractStructured returns the first bracket-delimited array embedded in
// free text, or else the first brace-delimited object. Empty string when
// neither is present.
func ExtractStructured(content string) string {
	if fragment := arrayPattern.FindString(content); fragment != "" {
		return fragment
	}
	return objectPattern.FindString(content)
}

// ParseStructured extracts embedded JSON from a model reply and decodes it
// into v. Returns false (never an error) on any parse failure.
func ParseStructured(content string, v any) bool {
	fragment := ExtractStructured(content)
	if fragment == "" {
		return false
	}
	return json.Unmarshal([]byte(fragment), v) == nil
}

// ParseObject decodes the first brace-delimited object only, for replies
// whose payload is an object that may itself contain arrays.
func ParseObject(content string, v any) bool {
	fragment := objectPattern.FindString(content)
	if fragment == "" {
		return false
	}
	return json.Unmarshal([]byte(fragment), v) == nil
}
