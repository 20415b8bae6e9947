package relation

import (
	"regexp"
	"strings"
)

// ClauseTerm is one comma-separated term of an ORDER BY or GROUP BY clause. Ident is the
// leading bare identifier, empty when the term starts with anything else (a quoted name,
// a qualified column, a function call).
type ClauseTerm struct {
	Ident    string
	Modifier string
	raw      string
}

func (t ClauseTerm) String() string {
	if t.Ident == "" {
		return t.raw
	}
	return t.Ident + t.Modifier
}

var leadingIdent = regexp.MustCompile(`(?s)^(\w+)(.*)$`)

// SplitClause splits a clause on top-level commas.
func SplitClause(clause string) []ClauseTerm {
	var terms []ClauseTerm
	for _, part := range splitTopLevel(clause) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		term := ClauseTerm{raw: part}
		if m := leadingIdent.FindStringSubmatch(part); m != nil && !strings.HasPrefix(m[2], ".") && !strings.HasPrefix(m[2], "(") {
			term.Ident = m[1]
			term.Modifier = m[2]
		}
		terms = append(terms, term)
	}
	return terms
}

func JoinClause(terms []ClauseTerm) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// RewriteClause replaces leading identifiers that replace knows, keeping modifiers such as
// DESC verbatim. It returns the rewritten clause and the identifiers that were replaced.
func RewriteClause(clause string, replace func(ident string) (string, bool)) (string, []string) {
	terms := SplitClause(clause)
	var matched []string
	for i, t := range terms {
		if t.Ident == "" {
			continue
		}
		if replacement, ok := replace(t.Ident); ok {
			matched = append(matched, t.Ident)
			terms[i].Ident = replacement
		}
	}
	return JoinClause(terms), matched
}

var sortRelationToken = regexp.MustCompile("[`\"]?(\\w+)[`\"]?\\.")

// SortExpressionRelations extracts the table aliases referenced as "alias." in a sort
// expression, excluding ownerAlias.
func SortExpressionRelations(expr, ownerAlias string) []string {
	var aliases []string
	for _, m := range sortRelationToken.FindAllStringSubmatch(expr, -1) {
		alias := m[1]
		if alias == ownerAlias || containsString(aliases, alias) {
			continue
		}
		aliases = append(aliases, alias)
	}
	return aliases
}

func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
