package record

import (
	"fmt"
	"sort"
	"strings"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/criteria"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
)

// Record is one row of a model together with the related records loaded for it.
// A loaded singular relation holds *Record (nil when absent), a plural one []*Record.
type Record struct {
	model      *schema.Model
	scenario   string
	attributes map[string]any
	related    map[string]any
	criteria   *criteria.Criteria
}

func New(model *schema.Model, attributes map[string]any) *Record {
	if attributes == nil {
		attributes = make(map[string]any)
	}
	return &Record{
		model:      model,
		attributes: attributes,
		related:    make(map[string]any),
	}
}

func (r *Record) Model() *schema.Model {
	return r.model
}

func (r *Record) Scenario() string {
	return r.scenario
}

func (r *Record) SetScenario(scenario string) *Record {
	r.scenario = scenario
	return r
}

func (r *Record) Attribute(name string) (any, bool) {
	v, ok := r.attributes[name]
	return v, ok
}

func (r *Record) SetAttribute(name string, value any) {
	r.attributes[name] = value
}

// AttributeNames lists declared columns first, then any other loaded attribute sorted by name.
func (r *Record) AttributeNames() []string {
	names := make([]string, 0, len(r.attributes))
	for _, col := range r.model.Columns {
		if _, ok := r.attributes[col]; ok {
			names = append(names, col)
		}
	}
	var extra []string
	for name := range r.attributes {
		if !r.model.HasColumn(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

func (r *Record) Related(name string) (any, bool) {
	v, ok := r.related[name]
	return v, ok
}

func (r *Record) SetRelated(name string, value any) {
	r.related[name] = value
}

// HasRelated reports whether the relation has been loaded.
func (r *Record) HasRelated(name string) bool {
	_, ok := r.related[name]
	return ok
}

// RelatedRecords returns the loaded plural relation, or the singular one as a one-element slice.
func (r *Record) RelatedRecords(name string) []*Record {
	switch v := r.related[name].(type) {
	case []*Record:
		return v
	case *Record:
		if v != nil {
			return []*Record{v}
		}
	}
	return nil
}

// Value follows a dotted path through attributes and loaded singular relations:
// "vehicle.manufacturer.name". It reports false when a step is missing or plural.
func (r *Record) Value(path string) (any, bool) {
	var current any = r
	for _, seg := range strings.Split(path, ".") {
		rec, ok := current.(*Record)
		if !ok || rec == nil {
			return nil, false
		}
		if v, ok := rec.attributes[seg]; ok {
			current = v
		} else if v, ok := rec.related[seg]; ok {
			current = v
		} else {
			return nil, false
		}
	}
	return current, true
}

// PrimaryKey returns the primary key values in declaration order.
func (r *Record) PrimaryKey() []any {
	pk := make([]any, len(r.model.PrimaryKey))
	for i, col := range r.model.PrimaryKey {
		pk[i] = r.attributes[col]
	}
	return pk
}

func (r *Record) IsAttributeSafe(name string) bool {
	return r.model.IsSafe(r.scenario, name)
}

// DbCriteria returns the live criteria that scopes accumulate into until the next query.
func (r *Record) DbCriteria() *criteria.Criteria {
	if r.criteria == nil {
		r.criteria = criteria.New()
	}
	return r.criteria
}

// ApplyScopes folds the accumulated scopes into c, scopes first, and resets them.
func (r *Record) ApplyScopes(c *criteria.Criteria) {
	if r.criteria == nil {
		return
	}
	scoped := r.criteria
	r.criteria = nil
	scoped.Dialect = c.Dialect
	scoped.MergeWith(c)
	*c = *scoped
}

func (r *Record) String() string {
	return fmt.Sprintf("%s%v", r.model.Name, r.PrimaryKey())
}

// Key builds a comparable key from primary key values. Values compare by their printed form
// so driver integer widths do not matter.
func Key(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(normalize(v))
	}
	return strings.Join(parts, "\x1f")
}

func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
