package dialect

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
)

// Dialect describes the SQL syntax differences the criteria and store layers care about.
type Dialect struct {
	// Name is the canonical backend name ("postgres", "mysql", "sqlite")
	Name string

	// Placeholder converts "?" markers into the backend's bind parameter syntax
	Placeholder sq.PlaceholderFormat

	// Like and NotLike are the partial-match operators
	Like    string
	NotLike string

	// LikeEscape is appended after a LIKE operand when the backend has no default escape character
	LikeEscape string

	// Regexp is the case-insensitive regular expression match operator
	Regexp string

	openQuote  string
	closeQuote string
}

var (
	Postgres = Dialect{
		Name:        "postgres",
		Placeholder: sq.Dollar,
		Like:        "ILIKE",
		NotLike:     "NOT ILIKE",
		Regexp:      "~*",
		openQuote:   `"`,
		closeQuote:  `"`,
	}

	MySQL = Dialect{
		Name:        "mysql",
		Placeholder: sq.Question,
		Like:        "LIKE",
		NotLike:     "NOT LIKE",
		Regexp:      "REGEXP",
		openQuote:   "`",
		closeQuote:  "`",
	}

	// SQLite needs a registered regexp() function for the REGEXP operator.
	SQLite = Dialect{
		Name:        "sqlite",
		Placeholder: sq.Question,
		Like:        "LIKE",
		NotLike:     "NOT LIKE",
		LikeEscape:  ` ESCAPE '\'`,
		Regexp:      "REGEXP",
		openQuote:   `"`,
		closeQuote:  `"`,
	}
)

// ByName returns the dialect registered under name. "pgx" and "postgresql" are aliases of
// "postgres", "sqlite3" of "sqlite".
func ByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx", "":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, errors.Errorf("dialect: unknown dialect %q", name)
	}
}

// IsZero reports whether d is the zero Dialect.
func (d Dialect) IsZero() bool {
	return d.Name == ""
}

// QuoteSimpleName quotes a single identifier. Names that are already quoted and "*" are kept as is.
func (d Dialect) QuoteSimpleName(name string) string {
	if name == "*" || d.isQuoted(name) {
		return name
	}
	escaped := strings.ReplaceAll(name, d.closeQuote, d.closeQuote+d.closeQuote)
	return d.openQuote + escaped + d.closeQuote
}

// QuoteTableName quotes every dot-separated part of a table name.
func (d Dialect) QuoteTableName(name string) string {
	if strings.Contains(name, "(") {
		return name
	}
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = d.QuoteSimpleName(part)
	}
	return strings.Join(parts, ".")
}

// QuoteColumnName quotes a possibly table-qualified column name: "t.qty" becomes "t"."qty".
// Expressions containing parentheses are returned untouched.
func (d Dialect) QuoteColumnName(name string) string {
	if strings.Contains(name, "(") {
		return name
	}
	prefix := ""
	if pos := strings.LastIndex(name, "."); pos >= 0 {
		prefix = d.QuoteTableName(name[:pos]) + "."
		name = name[pos+1:]
	}
	return prefix + d.QuoteSimpleName(name)
}

// Unquote strips the dialect quotes from a simple identifier.
func (d Dialect) Unquote(name string) string {
	if d.isQuoted(name) {
		inner := name[len(d.openQuote) : len(name)-len(d.closeQuote)]
		return strings.ReplaceAll(inner, d.closeQuote+d.closeQuote, d.closeQuote)
	}
	return name
}

func (d Dialect) isQuoted(name string) bool {
	return len(name) >= 2 && strings.HasPrefix(name, d.openQuote) && strings.HasSuffix(name, d.closeQuote)
}
