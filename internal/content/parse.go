package content

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/smallbiznis/breakeven/internal/content/domain"
)

var (
	errEmptyResponse = errors.New("empty response")
	errNoDocument    = errors.New("no json document found")
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// Parse extracts a Document from raw model output. It tries the whole body,
// then the first balanced object, then the first fenced code block.
func Parse(raw string) (domain.Document, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return domain.Document{}, errEmptyResponse
	}

	strategies := []func(string) (string, bool){
		func(s string) (string, bool) { return s, true },
		firstBalancedObject,
		firstFencedBlock,
	}
	for _, extract := range strategies {
		candidate, ok := extract(body)
		if !ok {
			continue
		}
		var doc domain.Document
		if err := json.Unmarshal([]byte(candidate), &doc); err == nil {
			return doc, nil
		}
	}
	return domain.Document{}, errNoDocument
}

// firstBalancedObject returns the first {...} region whose braces balance,
// ignoring braces inside JSON strings.
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
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
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func firstFencedBlock(s string) (string, bool) {
	m := fencedBlock.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	inner := strings.TrimSpace(m[1])
	return inner, inner != ""
}
