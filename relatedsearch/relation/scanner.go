package relation

import (
	"sort"
	"strings"
)

// Edit replaces Length bytes at Offset.
type Edit struct {
	Offset      int
	Length      int
	Replacement string
}

// ScanCondition finds bare identifier tokens of a raw SQL condition that replace knows.
// Tokens inside quoted literals or identifiers, qualified tokens (preceded by a dot),
// named parameters (preceded by a colon) and function names are left alone.
func ScanCondition(cond string, replace func(token string) (string, bool)) []Edit {
	var edits []Edit
	for i := 0; i < len(cond); {
		c := cond[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := strings.IndexByte(cond[i+1:], c)
			if end < 0 {
				return edits
			}
			i += end + 2
		case isIdentStart(c):
			start := i
			for i < len(cond) && isIdentPart(cond[i]) {
				i++
			}
			if start > 0 && isQualifier(cond[start-1]) {
				continue
			}
			if i < len(cond) && (cond[i] == '(' || cond[i] == '.') {
				continue
			}
			if replacement, ok := replace(cond[start:i]); ok {
				edits = append(edits, Edit{Offset: start, Length: i - start, Replacement: replacement})
			}
		case isDigit(c):
			for i < len(cond) && (isIdentPart(cond[i]) || cond[i] == '.') {
				i++
			}
		default:
			i++
		}
	}
	return edits
}

// ApplyEdits applies non-overlapping edits in a single pass, so a replacement is never
// scanned again.
func ApplyEdits(s string, edits []Edit) string {
	if len(edits) == 0 {
		return s
	}
	sorted := append([]Edit{}, edits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	var b strings.Builder
	pos := 0
	for _, e := range sorted {
		if e.Offset < pos {
			continue
		}
		b.WriteString(s[pos:e.Offset])
		b.WriteString(e.Replacement)
		pos = e.Offset + e.Length
	}
	b.WriteString(s[pos:])
	return b.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isQualifier(c byte) bool {
	switch c {
	case '.', ':', '@', '$', '\'', '"', '`':
		return true
	}
	return false
}
