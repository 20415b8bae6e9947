package schema

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"github.com/pkg/errors"
)

// RelationKind is the cardinality of a relation
type RelationKind int

const (
	BelongsTo RelationKind = iota + 1
	HasOne
	HasMany
	ManyMany
)

var relationKindNames = map[RelationKind]string{
	BelongsTo: "belongs_to",
	HasOne:    "has_one",
	HasMany:   "has_many",
	ManyMany:  "many_many",
}

func (k RelationKind) String() string {
	if name, ok := relationKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsSingular reports whether the relation yields at most one record.
func (k RelationKind) IsSingular() bool {
	return k == BelongsTo || k == HasOne
}

func ParseRelationKind(s string) (RelationKind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(s), "-", "_")
	for kind, name := range relationKindNames {
		if name == normalized || strings.ReplaceAll(name, "_", "") == normalized {
			return kind, nil
		}
	}
	return 0, errors.Errorf("schema: unknown relation kind %q", s)
}

// Relation declares how a model reaches another model.
type Relation struct {
	Name string
	Kind RelationKind

	// Target is the related model name
	Target string

	// ForeignKey is the owner column for BelongsTo, the target column for HasOne/HasMany,
	// and the junction column pointing at the owner for ManyMany
	ForeignKey string

	// Through is the junction table of a ManyMany relation
	Through string

	// ThroughKey is the junction column pointing at the target of a ManyMany relation
	ThroughKey string

	// Alias replaces the relation name as SQL table alias
	Alias string
}

// TableAlias is the alias the related table gets in joined queries.
func (r Relation) TableAlias() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Name
}

// Model is the metadata of one record type.
type Model struct {
	Name  string
	Table string

	// Alias is the owner table alias in queries, "t" by default
	Alias string

	PrimaryKey []string
	Columns    []string

	// Labels overrides generated attribute labels
	Labels map[string]string

	// Safe lists the attributes assignable per scenario
	Safe map[string][]string

	// Fields declares the logical search attributes of the model
	Fields RelationMap

	relations []Relation
}

// NewModel creates a model. An empty table name is derived from the model name
// ("VehicleModel" becomes "vehicle_models").
func NewModel(name, table string) *Model {
	if table == "" {
		table = inflection.Plural(snakeCase(name))
	}
	return &Model{
		Name:       name,
		Table:      table,
		Alias:      "t",
		PrimaryKey: []string{"id"},
		Labels:     map[string]string{},
		Safe:       map[string][]string{},
	}
}

func (m *Model) WithColumns(columns ...string) *Model {
	m.Columns = append(m.Columns, columns...)
	return m
}

func (m *Model) WithPrimaryKey(columns ...string) *Model {
	m.PrimaryKey = columns
	return m
}

func (m *Model) WithAlias(alias string) *Model {
	m.Alias = alias
	return m
}

func (m *Model) WithLabel(attribute, label string) *Model {
	m.Labels[attribute] = label
	return m
}

// WithSafe marks attributes as assignable in scenario.
func (m *Model) WithSafe(scenario string, attributes ...string) *Model {
	m.Safe[scenario] = append(m.Safe[scenario], attributes...)
	return m
}

// WithField declares a logical attribute resolved through path.
func (m *Model) WithField(name, path string) *Model {
	m.Fields.Set(name, Field{Field: path})
	return m
}

func (m *Model) WithFieldSpec(name string, f Field) *Model {
	m.Fields.Set(name, f)
	return m
}

func (m *Model) AddRelation(r Relation) *Model {
	for i, existing := range m.relations {
		if existing.Name == r.Name {
			m.relations[i] = r
			return m
		}
	}
	m.relations = append(m.relations, r)
	return m
}

func (m *Model) BelongsTo(name, target, foreignKey string) *Model {
	return m.AddRelation(Relation{Name: name, Kind: BelongsTo, Target: target, ForeignKey: foreignKey})
}

func (m *Model) HasOne(name, target, foreignKey string) *Model {
	return m.AddRelation(Relation{Name: name, Kind: HasOne, Target: target, ForeignKey: foreignKey})
}

func (m *Model) HasMany(name, target, foreignKey string) *Model {
	return m.AddRelation(Relation{Name: name, Kind: HasMany, Target: target, ForeignKey: foreignKey})
}

func (m *Model) ManyMany(name, target, through, foreignKey, throughKey string) *Model {
	return m.AddRelation(Relation{
		Name:       name,
		Kind:       ManyMany,
		Target:     target,
		Through:    through,
		ForeignKey: foreignKey,
		ThroughKey: throughKey,
	})
}

// Relation returns the relation declared under name.
func (m *Model) Relation(name string) (Relation, bool) {
	for _, r := range m.relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

func (m *Model) HasRelation(name string) bool {
	_, ok := m.Relation(name)
	return ok
}

func (m *Model) Relations() []Relation {
	return append([]Relation{}, m.relations...)
}

func (m *Model) HasColumn(name string) bool {
	for _, c := range m.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// TableAlias is the alias of the model's own table, "t" when unset.
func (m *Model) TableAlias() string {
	if m.Alias == "" {
		return "t"
	}
	return m.Alias
}

// IsSafe reports whether attribute may be assigned in scenario. Names compare case-insensitively.
func (m *Model) IsSafe(scenario, attribute string) bool {
	for _, name := range m.Safe[scenario] {
		if strings.EqualFold(name, attribute) {
			return true
		}
	}
	return false
}

// AttributeLabel returns the declared label or one generated from the attribute name:
// "device_serial" and "deviceSerial" both become "Device Serial".
func (m *Model) AttributeLabel(attribute string) string {
	if label, ok := m.Labels[attribute]; ok {
		return label
	}
	return GenerateLabel(attribute)
}

func GenerateLabel(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(' ')
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	words := strings.Fields(strings.ToLower(b.String()))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
