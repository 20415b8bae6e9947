package criteria

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/dialect"
)

// Criteria describes a query against one model: conditions with positional "?" parameters,
// ordering, grouping, paging and the relations to join.
type Criteria struct {
	Dialect dialect.Dialect

	// Select lists root columns to load; nil loads all declared columns
	Select   []string
	Distinct bool

	Condition string
	Params    []any

	Order  string
	Group  string
	Having string

	// Limit and Offset are ignored when negative
	Limit  int
	Offset int

	With With

	// Together requests that joined relations are fetched in the primary query
	Together bool
}

func New() *Criteria {
	return &Criteria{
		Dialect: dialect.Postgres,
		Limit:   -1,
		Offset:  -1,
	}
}

func (c *Criteria) Clone() *Criteria {
	clone := *c
	if c.Select != nil {
		clone.Select = append([]string{}, c.Select...)
	}
	if c.Params != nil {
		clone.Params = append([]any{}, c.Params...)
	}
	clone.With = c.With.Clone()
	return &clone
}

// AddCondition combines cond with the existing condition using operator ("AND" or "OR").
func (c *Criteria) AddCondition(cond string, operator string, params ...any) *Criteria {
	if cond == "" {
		return c
	}
	if c.Condition == "" {
		c.Condition = cond
	} else {
		c.Condition = "(" + c.Condition + ") " + normalizeOperator(operator) + " (" + cond + ")"
	}
	c.Params = append(c.Params, params...)
	return c
}

var comparisonPrefix = regexp.MustCompile(`(?s)^(?:\s*(<>|<=|>=|<|>|=))?(.*)$`)

// Compare adds a comparison of column against value.
//
// Slices become IN conditions, or a regular expression alternation under partial match.
// A nil value becomes IS NULL unless partialMatch is set. Strings may start with a
// comparison operator (<>, <=, >=, <, >, =); without one a partial match uses LIKE and an
// exact match uses "=". Empty strings and empty slices add nothing.
func (c *Criteria) Compare(column string, value any, partialMatch bool, operator string, escape bool) *Criteria {
	if value == nil {
		if partialMatch {
			return c
		}
		return c.AddInCondition(column, []any{nil}, operator)
	}

	if values, ok := AsSlice(value); ok {
		if len(values) == 0 {
			return c
		}
		if partialMatch {
			return c.AddRegexpCondition(column, values, escape, operator)
		}
		return c.AddInCondition(column, values, operator)
	}

	s, ok := value.(string)
	if !ok {
		return c.AddCondition(column+"=?", operator, value)
	}

	m := comparisonPrefix.FindStringSubmatch(s)
	op, s := m[1], m[2]
	if s == "" {
		return c
	}

	if partialMatch {
		switch op {
		case "":
			return c.AddSearchCondition(column, s, escape, operator, false)
		case "<>":
			return c.AddSearchCondition(column, s, escape, operator, true)
		}
	} else if op == "" {
		op = "="
	}
	return c.AddCondition(column+op+"?", operator, s)
}

// AddSearchCondition adds a LIKE (or NOT LIKE) condition. With escape the keyword is
// wrapped in % and its wildcard characters are escaped.
func (c *Criteria) AddSearchCondition(column, keyword string, escape bool, operator string, negate bool) *Criteria {
	if keyword == "" {
		return c
	}
	if escape {
		keyword = "%" + EscapeLike(keyword) + "%"
	}
	like := c.SQLDialect().Like
	if negate {
		like = c.SQLDialect().NotLike
	}
	return c.AddCondition(column+" "+like+" ?"+c.SQLDialect().LikeEscape, operator, keyword)
}

// AddInCondition adds "column IN (...)". A single nil value becomes "column IS NULL" and an
// empty list a condition that never matches.
func (c *Criteria) AddInCondition(column string, values []any, operator string) *Criteria {
	switch len(values) {
	case 0:
		return c.AddCondition("0=1", operator)
	case 1:
		if values[0] == nil {
			return c.AddCondition(column+" IS NULL", operator)
		}
		return c.AddCondition(column+"=?", operator, values[0])
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return c.AddCondition(column+" IN ("+marks+")", operator, values...)
}

// AddRegexpCondition matches column against an alternation of values. With escape the
// values are matched literally.
func (c *Criteria) AddRegexpCondition(column string, values []any, escape bool, operator string) *Criteria {
	alternatives := make([]string, 0, len(values))
	for _, v := range values {
		s := fmt.Sprint(v)
		if escape {
			s = regexp.QuoteMeta(s)
		}
		alternatives = append(alternatives, s)
	}
	pattern := "(" + strings.Join(alternatives, "|") + ")"
	return c.AddCondition(column+" "+c.SQLDialect().Regexp+" ?", operator, pattern)
}

// AddBetweenCondition adds "column BETWEEN lower AND upper". Nothing is added when either
// bound is nil or an empty string.
func (c *Criteria) AddBetweenCondition(column string, lower, upper any, operator string) *Criteria {
	if isBlank(lower) || isBlank(upper) {
		return c
	}
	return c.AddCondition(column+" BETWEEN ? AND ?", operator, lower, upper)
}

// AddOrder appends an ORDER BY fragment.
func (c *Criteria) AddOrder(order string) *Criteria {
	order = strings.TrimSpace(order)
	if order == "" {
		return c
	}
	if c.Order == "" {
		c.Order = order
	} else {
		c.Order += ", " + order
	}
	return c
}

// MergeWith merges other into c: conditions and having clauses are ANDed, parameters
// appended, the other's order takes precedence, groups are concatenated and joins merged
// by relation path.
func (c *Criteria) MergeWith(other *Criteria) *Criteria {
	if other == nil {
		return c
	}
	switch {
	case c.Select == nil && other.Select != nil:
		c.Select = append([]string{}, other.Select...)
	case other.Select != nil:
		for _, col := range other.Select {
			if !contains(c.Select, col) {
				c.Select = append(c.Select, col)
			}
		}
	}

	c.AddCondition(other.Condition, "AND", other.Params...)
	if other.Condition == "" {
		c.Params = append(c.Params, other.Params...)
	}

	if other.Order != "" && other.Order != c.Order {
		if c.Order == "" {
			c.Order = other.Order
		} else {
			c.Order = other.Order + ", " + c.Order
		}
	}
	if other.Group != "" {
		if c.Group == "" {
			c.Group = other.Group
		} else {
			c.Group += ", " + other.Group
		}
	}
	if other.Having != "" {
		if c.Having == "" {
			c.Having = other.Having
		} else {
			c.Having = "(" + c.Having + ") AND (" + other.Having + ")"
		}
	}
	if other.Limit > 0 {
		c.Limit = other.Limit
	}
	if other.Offset >= 0 {
		c.Offset = other.Offset
	}
	if other.Distinct {
		c.Distinct = true
	}
	if other.Together {
		c.Together = true
	}
	c.With.Merge(other.With)
	return c
}

// QuoteColumn quotes a table-qualified column with the criteria's dialect.
func (c *Criteria) QuoteColumn(alias, column string) string {
	return c.SQLDialect().QuoteColumnName(alias + "." + column)
}

// SQLDialect returns the dialect, PostgreSQL when unset.
func (c *Criteria) SQLDialect() dialect.Dialect {
	if c.Dialect.IsZero() {
		return dialect.Postgres
	}
	return c.Dialect
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcard characters with a backslash.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// AsSlice converts any slice or array (except []byte) to []any.
func AsSlice(value any) ([]any, bool) {
	if values, ok := value.([]any); ok {
		return values, true
	}
	if _, ok := value.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, true
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func normalizeOperator(operator string) string {
	operator = strings.ToUpper(strings.TrimSpace(operator))
	if operator == "" {
		return "AND"
	}
	return operator
}
