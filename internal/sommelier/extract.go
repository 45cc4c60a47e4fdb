package sommelier

import (
	"errors"

	"github.com/goccy/go-json"
)

// ErrNoJSON means the reply contained no decodable JSON object.
var ErrNoJSON = errors.New("no JSON object found in model reply")

// maxCandidates bounds how many opening braces are tried, so a long reply
// full of unbalanced braces costs linear time.
const maxCandidates = 32

// ExtractJSONObject returns the first balanced {...} span of text that
// decodes as a JSON object. Models wrap their JSON in prose or code fences,
// and sometimes emit brace-delimited fragments that are not JSON, so a span
// that fails to decode is skipped and scanning resumes at the next '{'.
func ExtractJSONObject(text string) ([]byte, error) {
	tried := 0
	for start := 0; start < len(text) && tried < maxCandidates; start++ {
		if text[start] != '{' {
			continue
		}
		tried++
		end := matchBrace(text, start)
		if end < 0 {
			continue
		}
		candidate := []byte(text[start : end+1])
		if json.Valid(candidate) {
			return candidate, nil
		}
	}
	return nil, ErrNoJSON
}

// matchBrace returns the index of the '}' closing the '{' at start, or -1.
// Braces inside JSON string literals are ignored.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
