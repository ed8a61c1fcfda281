package query

// token is one whitespace separated word and its byte offset in the line.
type token struct {
	text string
	pos  int
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// tokenize splits s on ASCII whitespace, keeping offsets so callers can
// return to the raw text.
func tokenize(s string) []token {
	var out []token
	start := -1
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) {
			if start >= 0 {
				out = append(out, token{text: s[start:i], pos: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, token{text: s[start:], pos: start})
	}
	return out
}

// upperASCII upper-cases ASCII letters only so byte offsets into the result
// match the input.
func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// cutAt returns s up to the first occurrence of c.
func cutAt(s string, c byte) string {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return s[:i]
		}
	}
	return s
}
