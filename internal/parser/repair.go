package parser

import (
	"encoding/json"
	"strings"
)

// repairs run in order; each is pure and total.
var repairs = []func(string) string{
	convertSingleQuotes,
	quoteBareTokens,
	closeTruncated,
	stripTrailingCommas,
}

// Repair applies every syntactic repair to s. Valid JSON comes back
// semantically unchanged.
func Repair(s string) string {
	for _, r := range repairs {
		s = r(s)
	}
	return s
}

// convertSingleQuotes rewrites 'single-quoted' strings as JSON strings.
// Apostrophes inside double-quoted strings or words are left alone.
func convertSingleQuotes(s string) string {
	if !strings.Contains(s, "'") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	inDouble, inSingle, escaped := false, false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inDouble:
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inDouble = false
			}
		case inSingle:
			switch {
			case escaped:
				if c != '\'' {
					b.WriteByte('\\')
				}
				b.WriteByte(c)
				escaped = false
			case c == '\\':
				escaped = true
			case c == '\'':
				b.WriteByte('"')
				inSingle = false
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
		case c == '"':
			inDouble = true
			b.WriteByte(c)
		case c == '\'' && opensSingleQuoted(s, i):
			inSingle = true
			b.WriteByte('"')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// quoteBareTokens quotes unquoted keys and unquoted scalar values, and maps
// Python-style literals onto JSON ones.
func quoteBareTokens(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	var stack []byte
	var prev byte
	inString, escaped := false, false

	for i := 0; i < len(s); {
		c := s[i]
		if inString {
			b.WriteByte(c)
			i++
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
				prev = '"'
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			b.WriteByte(c)
			i++
			continue
		case isSpace(c):
			b.WriteByte(c)
			i++
			continue
		case c == '{' || c == '[':
			stack = append(stack, c)
		case c == '}' || c == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case isBareStart(c) && len(stack) > 0 && (prev == '{' || prev == '[' || prev == ',' || prev == ':'):
			keyPos := stack[len(stack)-1] == '{' && (prev == '{' || prev == ',')
			var tok string
			var n int
			if keyPos {
				tok, n = readBare(s[i:], ":,{}[]\"\n")
				b.WriteString(quoteJSON(tok))
			} else {
				tok, n = readBare(s[i:], ",}]\n")
				b.WriteString(bareValue(tok))
			}
			i += n
			prev = 'v'
			continue
		}

		b.WriteByte(c)
		prev = c
		i++
	}
	return b.String()
}

func readBare(s, stops string) (string, int) {
	n := strings.IndexAny(s, stops)
	if n < 0 {
		n = len(s)
	}
	return strings.TrimSpace(s[:n]), n
}

func bareValue(tok string) string {
	switch tok {
	case "true", "True", "TRUE":
		return "true"
	case "false", "False", "FALSE":
		return "false"
	case "null", "None", "nil", "undefined", "NULL":
		return "null"
	}
	if (tok[0] == '-' || (tok[0] >= '0' && tok[0] <= '9')) && json.Valid([]byte(tok)) {
		return tok
	}
	return quoteJSON(tok)
}

func quoteJSON(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(out)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isBareStart(c byte) bool {
	return c == '_' || c == '$' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// closeTruncated terminates an unfinished string and closes every open
// object and array, dropping a dangling comma and completing a dangling key.
func closeTruncated(s string) string {
	type frame struct {
		open      byte
		expectKey bool
	}
	var stack []frame
	inString, escaped, stringIsKey := false, false, false

	for i := 0; i < len(s); i++ {
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
			stringIsKey = len(stack) > 0 && stack[len(stack)-1].open == '{' && stack[len(stack)-1].expectKey
		case '{':
			stack = append(stack, frame{open: '{', expectKey: true})
		case '[':
			stack = append(stack, frame{open: '['})
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case ':':
			if len(stack) > 0 && stack[len(stack)-1].open == '{' {
				stack[len(stack)-1].expectKey = false
			}
		case ',':
			if len(stack) > 0 && stack[len(stack)-1].open == '{' {
				stack[len(stack)-1].expectKey = true
			}
		}
	}

	if len(stack) == 0 && !inString {
		return s
	}

	out := s
	if inString {
		if escaped {
			out = out[:len(out)-1]
		}
		out += `"`
	}
	out = strings.TrimRight(out, " \t\r\n")

	switch {
	case strings.HasSuffix(out, ","):
		out = out[:len(out)-1]
	case strings.HasSuffix(out, ":"):
		out += "null"
	case strings.HasSuffix(out, `"`) && stringIsKey && len(stack) > 0 && stack[len(stack)-1].expectKey:
		out += ":null"
	}

	var b strings.Builder
	b.WriteString(out)
	for j := len(stack) - 1; j >= 0; j-- {
		if stack[j].open == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}

// stripTrailingCommas drops commas that directly precede a closing delimiter.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
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
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j == len(s) || s[j] == '}' || s[j] == ']' {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
