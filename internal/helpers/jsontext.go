package helpers

import "strings"

// UnwrapFence returns the body of s when s is a single ``` or ~~~ fenced
// block (language tag allowed); otherwise s is returned trimmed.
func UnwrapFence(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))
	for _, fence := range []string{"```", "~~~"} {
		if !strings.HasPrefix(s, fence) {
			continue
		}
		rest := s[len(fence):]
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			return s
		}
		rest = rest[nl+1:]
		if end := strings.LastIndex(rest, fence); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return s
}

// FindJSONObject returns the first balanced {...} in s, ignoring braces
// inside strings. Text around the object is allowed.
func FindJSONObject(s string) (string, bool) {
	s = UnwrapFence(s)
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if obj, ok := balancedFrom(s, start); ok {
			return obj, true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func balancedFrom(s string, start int) (string, bool) {
	var (
		depth    int
		inString bool
		escaped  bool
	)
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
	return "", false
}
