package parser

import (
	"regexp"
	"strings"
)

// strategy proposes candidate JSON texts, best first.
type strategy func(string) []string

// strategies run in order over fence-stripped text.
var strategies = []strategy{
	wholeText,
	balancedRegions,
	one(firstBraceBlock),
	one(braceSlice),
	one(openToEnd),
	one(keyValueLines),
}

// one adapts a single-candidate extractor to a strategy.
func one(f func(string) (string, bool)) strategy {
	return func(s string) []string {
		if c, ok := f(s); ok {
			return []string{c}
		}
		return nil
	}
}

var (
	fenceBody   = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n?(.*?)```")
	fenceMarker = regexp.MustCompile("```[A-Za-z0-9_-]*")
	braceBlock  = regexp.MustCompile(`(?s)\{[^{}]*(?:\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}[^{}]*)*\}`)
	keyLine     = regexp.MustCompile(`^\s*(?:"[^"]+"|'[^']+'|[A-Za-z_][\w-]*)\s*:`)
	bracketLine = regexp.MustCompile(`^\s*[\[\]{}]+,?\s*$`)
)

// candidates returns the distinct texts worth decoding, best first. The body
// of the first fenced block goes ahead of the strategies since a model that
// fences its answer usually fences exactly the JSON.
func candidates(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	if m := fenceBody.FindStringSubmatch(text); m != nil {
		add(m[1])
	}

	stripped := StripFences(text)
	for _, s := range strategies {
		for _, c := range s(stripped) {
			add(c)
		}
	}
	return out
}

// StripFences removes markdown code-fence markers, keeping their contents.
func StripFences(text string) string {
	return strings.TrimSpace(fenceMarker.ReplaceAllString(text, ""))
}

func wholeText(s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		return []string{s}
	}
	return nil
}

// balancedRegions returns every top-level {...} or [...] region whose
// delimiters balance, in order, ignoring delimiters inside string literals.
// A short note ahead of the payload therefore does not hide it.
func balancedRegions(s string) []string {
	var out []string
	for start := 0; start < len(s); start++ {
		if s[start] != '{' && s[start] != '[' {
			continue
		}
		if end, ok := matchClose(s, start); ok {
			out = append(out, s[start:end+1])
			start = end
		}
	}
	return out
}

// matchClose finds the index closing the delimiter at start.
func matchClose(s string, start int) (int, bool) {
	var stack []byte
	inString := false
	var quote byte
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				inString = false
			}
			continue
		}

		switch c {
		case '"', '\'':
			// Apostrophes only open strings in value or key position.
			if c == '\'' && !opensSingleQuoted(s, i) {
				continue
			}
			inString, quote = true, c
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				return 0, false
			}
			open := stack[len(stack)-1]
			if (open == '{') != (c == '}') {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// opensSingleQuoted reports whether the apostrophe at i follows a structural
// character, as in {'a': 'b'}, rather than sitting inside a word.
func opensSingleQuoted(s string, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch s[j] {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[', ',', ':':
			return true
		default:
			return false
		}
	}
	return true
}

func firstBraceBlock(s string) (string, bool) {
	m := braceBlock.FindString(s)
	return m, m != ""
}

func braceSlice(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// openToEnd slices from the first opening delimiter to the end of the text,
// dropping any preamble so a cut-off payload can still be closed by Repair.
func openToEnd(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	return s[start:], true
}

// keyValueLines keeps lines that look like JSON members or bare brackets and
// wraps the result in an object when needed.
func keyValueLines(s string) (string, bool) {
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if keyLine.MatchString(line) || bracketLine.MatchString(line) {
			kept = append(kept, strings.TrimRight(line, " \t\r"))
		}
	}
	if len(kept) == 0 {
		return "", false
	}

	joined := strings.TrimSpace(strings.Join(kept, "\n"))
	if !strings.HasPrefix(joined, "{") && !strings.HasPrefix(joined, "[") {
		joined = "{" + strings.TrimSuffix(joined, ",") + "}"
	}
	return joined, true
}
