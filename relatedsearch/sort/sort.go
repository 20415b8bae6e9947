package sort

import (
	"net/url"
	"strings"
)

const DefaultSortVar = "sort"

// Attribute is a sortable key: the ORDER BY expressions for both directions and a label.
type Attribute struct {
	Asc   string
	Desc  string
	Label string
}

// Sort turns the sort directive of a request ("make" or "make.desc") into an ORDER BY clause.
type Sort struct {
	// SortVar is the request parameter holding the directive
	SortVar string

	Attributes map[string]Attribute

	// Wildcard lets keys outside Attributes through WildcardColumn
	Wildcard       bool
	WildcardColumn func(key string) (string, bool)

	// DefaultOrder is used verbatim when the request carries no valid directive
	DefaultOrder string
}

func New(sortVar string) *Sort {
	if sortVar == "" {
		sortVar = DefaultSortVar
	}
	return &Sort{SortVar: sortVar, Attributes: map[string]Attribute{}}
}

// ParseDirective splits an optional ".asc" or ".desc" suffix off a directive.
func ParseDirective(raw string) (key string, descending bool) {
	raw = strings.TrimSpace(raw)
	if pos := strings.LastIndex(raw, "."); pos >= 0 {
		switch strings.ToLower(raw[pos+1:]) {
		case "desc":
			return raw[:pos], true
		case "asc":
			return raw[:pos], false
		}
	}
	return raw, false
}

// Directive returns the requested key and direction, whether or not the key is sortable.
func (s *Sort) Directive(params url.Values) (key string, descending bool, ok bool) {
	raw := params.Get(s.sortVar())
	if raw == "" {
		return "", false, false
	}
	key, descending = ParseDirective(raw)
	return key, descending, key != ""
}

// Resolve returns the attribute sortable under key.
func (s *Sort) Resolve(key string) (Attribute, bool) {
	if attr, ok := s.Attributes[key]; ok {
		return attr, true
	}
	if s.Wildcard && s.WildcardColumn != nil {
		if col, ok := s.WildcardColumn(key); ok {
			return Attribute{Asc: col, Desc: col + " DESC"}, true
		}
	}
	return Attribute{}, false
}

// Merge adds attrs, keeping attributes already present.
func (s *Sort) Merge(attrs map[string]Attribute) {
	if s.Attributes == nil {
		s.Attributes = make(map[string]Attribute, len(attrs))
	}
	for key, attr := range attrs {
		if _, ok := s.Attributes[key]; !ok {
			s.Attributes[key] = attr
		}
	}
}

// OrderBy returns the ORDER BY clause for the request: the requested attribute when it is
// sortable, DefaultOrder otherwise.
func (s *Sort) OrderBy(params url.Values) string {
	if key, descending, ok := s.Directive(params); ok {
		if attr, ok := s.Resolve(key); ok {
			if descending {
				return attr.Desc
			}
			return attr.Asc
		}
	}
	return s.DefaultOrder
}

func (s *Sort) Label(key string) string {
	return s.Attributes[key].Label
}

// Link builds the directive that sorts by key, toggling the direction of the current one.
func (s *Sort) Link(params url.Values, key string) string {
	current, descending, ok := s.Directive(params)
	if ok && current == key && !descending {
		return key + ".desc"
	}
	return key
}

func (s *Sort) sortVar() string {
	if s.SortVar == "" {
		return DefaultSortVar
	}
	return s.SortVar
}
