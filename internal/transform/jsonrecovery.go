package transform

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedBlockRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	trailingCommaRe = regexp.MustCompile(`,\s*([\]}])`)
)

// recoverJSON applies the recovery chain from spec.md §4.3: direct parse,
// then fenced-code-block extraction, then a balanced-brace scan, then
// trailing-comma normalization, in that order, returning the first
// candidate that parses as valid JSON.
func recoverJSON(raw string) (json.RawMessage, error) {
	attempts := []func(string) (string, bool){
		func(s string) (string, bool) { return s, true },
		extractFencedBlock,
		extractBalancedBraces,
	}

	var lastErr error
	for _, attempt := range attempts {
		candidate, ok := attempt(raw)
		if !ok {
			continue
		}
		if msg, err := tryParse(candidate); err == nil {
			return msg, nil
		} else {
			lastErr = err
		}
		// Final fallback within each candidate: normalize trailing commas,
		// the single most common LLM JSON malformation.
		normalized := trailingCommaRe.ReplaceAllString(candidate, "$1")
		if msg, err := tryParse(normalized); err == nil {
			return msg, nil
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON content found in response")
	}
	return nil, fmt.Errorf("json recovery exhausted: %w", lastErr)
}

func tryParse(s string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("empty candidate")
	}
	var v json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func extractFencedBlock(s string) (string, bool) {
	m := fencedBlockRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// extractBalancedBraces scans for the first top-level balanced [...] or
// {...} span, tolerant of prose surrounding the JSON payload.
func extractBalancedBraces(s string) (string, bool) {
	openers := map[byte]byte{'[': ']', '{': '}'}
	for i := 0; i < len(s); i++ {
		closer, ok := openers[s[i]]
		if !ok {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for j := i; j < len(s); j++ {
			c := s[j]
			if inString {
				if escaped {
					escaped = false
				} else if c == '\\' {
					escaped = true
				} else if c == '"' {
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case s[i]:
				depth++
			case closer:
				depth--
				if depth == 0 {
					return s[i : j+1], true
				}
			}
		}
	}
	return "", false
}
