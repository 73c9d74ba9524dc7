package jsanalyze

import (
	"regexp"
	"strings"
)

// call is one syntactic function invocation found in a script:
// name(args), with args still unparsed.
type call struct {
	args  string
	start int
	end   int
}

// scanCalls finds every invocation of name in source. The name match is
// case-insensitive and must not be preceded by an identifier character,
// so "fetch" does not match "prefetch".
func scanCalls(source, name string) []call {
	lowerSource := strings.ToLower(source)
	lowerName := strings.ToLower(name)
	var calls []call

	for idx := 0; idx < len(source); {
		pos := strings.Index(lowerSource[idx:], lowerName)
		if pos == -1 {
			break
		}
		start := idx + pos
		if start > 0 && isIdentChar(lowerSource[start-1]) {
			idx = start + len(lowerName)
			continue
		}
		afterName := skipSpaces(source, start+len(name))
		if afterName >= len(source) || source[afterName] != '(' {
			idx = start + len(lowerName)
			continue
		}
		args, nextIdx, ok := callArguments(source, afterName)
		if !ok {
			idx = start + len(lowerName)
			continue
		}
		calls = append(calls, call{args: args, start: start, end: nextIdx})
		idx = nextIdx
	}

	return calls
}

// callArguments returns the argument text between balanced parentheses
// starting at openIdx, honoring string literals and escapes.
func callArguments(source string, openIdx int) (string, int, bool) {
	depth := 0
	inSingle, inDouble, inBacktick := false, false, false
	escaped := false

	for i := openIdx; i < len(source); i++ {
		ch := source[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if inSingle {
			if ch == '\'' {
				inSingle = false
			}
			continue
		}
		if inDouble {
			if ch == '"' {
				inDouble = false
			}
			continue
		}
		if inBacktick {
			if ch == '`' {
				inBacktick = false
			}
			continue
		}
		switch ch {
		case '\'':
			inSingle = true
		case '"':
			inDouble = true
		case '`':
			inBacktick = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return source[openIdx+1 : i], i + 1, true
			}
		}
	}

	return "", openIdx, false
}

// splitArgs splits an argument list on top-level commas only.
func splitArgs(arguments string) []string {
	var args []string
	depth := 0
	start := 0
	inSingle, inDouble, inBacktick := false, false, false
	escaped := false

	for i := 0; i < len(arguments); i++ {
		ch := arguments[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if inSingle {
			if ch == '\'' {
				inSingle = false
			}
			continue
		}
		if inDouble {
			if ch == '"' {
				inDouble = false
			}
			continue
		}
		if inBacktick {
			if ch == '`' {
				inBacktick = false
			}
			continue
		}
		switch ch {
		case '\'':
			inSingle = true
		case '"':
			inDouble = true
		case '`':
			inBacktick = true
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if arg := strings.TrimSpace(arguments[start:i]); arg != "" {
					args = append(args, arg)
				}
				start = i + 1
			}
		}
	}

	if start < len(arguments) {
		if arg := strings.TrimSpace(arguments[start:]); arg != "" {
			args = append(args, arg)
		}
	}

	return args
}

// stringArgument decodes an argument that is a plain string literal.
// Non-literal arguments (variables, expressions) decode to "".
func stringArgument(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) < 2 {
		return ""
	}
	first := raw[0]
	if (first == '"' || first == '\'' || first == '`') && raw[len(raw)-1] == first {
		return unescapeJS(raw[1 : len(raw)-1])
	}
	return ""
}

// objectField pulls a string-literal value for key out of an object
// literal, e.g. url from "{ url: '/api/users', method: 'POST' }".
func objectField(block, key string) string {
	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(key) + `\s*:\s*`)
	for _, pair := range pattern.FindAllStringIndex(block, -1) {
		pos := pair[1]
		if pos >= len(block) {
			continue
		}
		quote := block[pos]
		if quote != '\'' && quote != '"' && quote != '`' {
			continue
		}
		if literal, ok := scanQuoted(block, pos); ok {
			return unescapeJS(literal[1 : len(literal)-1])
		}
	}
	return ""
}

func scanQuoted(source string, start int) (string, bool) {
	quote := source[start]
	for i := start + 1; i < len(source); i++ {
		ch := source[i]
		if ch == '\\' {
			i++
			continue
		}
		if ch == quote {
			return source[start : i+1], true
		}
	}
	return "", false
}

func unescapeJS(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func skipSpaces(source string, idx int) int {
	for idx < len(source) {
		switch source[idx] {
		case ' ', '\t', '\r', '\n':
			idx++
		default:
			return idx
		}
	}
	return idx
}

func isIdentChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || b == '_' || b == '$'
}
