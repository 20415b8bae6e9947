package search

import (
	"reflect"
	"time"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/criteria"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
)

// BetweenValue is a search value matching an inclusive range.
type BetweenValue struct {
	Lower any
	Upper any
}

func Between(lower, upper any) BetweenValue {
	return BetweenValue{Lower: lower, Upper: upper}
}

// hasSearchValue reports whether v restricts the search. Nil, empty strings, empty lists
// and ranges with a blank bound do not. Values that are neither scalars nor lists are
// rejected.
func hasSearchValue(model, field, column string, v any) (bool, error) {
	switch v := v.(type) {
	case nil:
		return false, nil
	case string:
		return v != "", nil
	case BetweenValue:
		return !isBlank(v.Lower) && !isBlank(v.Upper), nil
	case time.Time, []byte:
		return true, nil
	}
	if values, ok := criteria.AsSlice(v); ok {
		return len(values) > 0, nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return true, nil
	}
	return false, schema.NewConfigurationError(model, field,
		"search value for column %s is a %T, expected a scalar or a list", column, v)
}

// compare adds the condition for value to c.
func compare(c *criteria.Criteria, column string, value any, partial bool, operator string, escape bool) {
	if between, ok := value.(BetweenValue); ok {
		c.AddBetweenCondition(column, between.Lower, between.Upper, operator)
		return
	}
	c.Compare(column, value, partial, operator, escape)
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
