// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfreader

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// xobjectCalls returns the operand of every Do operator in content, in the
// order the operators appear. Strings, comments and inline image data are
// skipped so their bytes are never mistaken for operators.
func xobjectCalls(content []byte) []string {
	var (
		calls []string
		prev  string
		name  bool
	)

	for i := 0; i < len(content); {
		c := content[i]
		switch {
		case isSpace(c):
			i++
			continue
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
			continue
		case c == '(':
			i = skipLiteralString(content, i)
			prev, name = "", false
			continue
		case c == '<' && i+1 < len(content) && content[i+1] == '<',
			c == '>' && i+1 < len(content) && content[i+1] == '>':
			i += 2
			prev, name = "", false
			continue
		case c == '<':
			for i < len(content) && content[i] != '>' {
				i++
			}
			i++
			prev, name = "", false
			continue
		case c == '[' || c == ']' || c == '{' || c == '}' || c == ')' || c == '>':
			i++
			prev, name = "", false
			continue
		case c == '/':
			start := i + 1
			i = start
			for i < len(content) && !isSpace(content[i]) && !isDelimiter(content[i]) {
				i++
			}
			prev, name = string(content[start:i]), true
			continue
		}

		start := i
		for i < len(content) && !isSpace(content[i]) && !isDelimiter(content[i]) {
			i++
		}
		if i == start {
			i++
			continue
		}
		switch tok := string(content[start:i]); tok {
		case "Do":
			if name {
				if decoded, err := types.DecodeName(prev); err == nil {
					calls = append(calls, decoded)
				} else {
					calls = append(calls, prev)
				}
			}
		case "BI":
			i = skipInlineImage(content, i)
		}
		prev, name = "", false
	}
	return calls
}

// skipLiteralString returns the index just past the string opening at i.
func skipLiteralString(b []byte, i int) int {
	depth := 0
	for ; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(b)
}

// skipInlineImage returns the index just past the EI operator that ends the
// inline image whose BI operator ends at i.
func skipInlineImage(b []byte, i int) int {
	id := bytes.Index(b[i:], []byte("ID"))
	if id < 0 {
		return len(b)
	}
	i += id + 2
	for i < len(b) {
		ei := bytes.Index(b[i:], []byte("EI"))
		if ei < 0 {
			return len(b)
		}
		at := i + ei
		end := at + 2
		if at > 0 && isSpace(b[at-1]) && (end == len(b) || isSpace(b[end])) {
			return end
		}
		i = end
	}
	return len(b)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
