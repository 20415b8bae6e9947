package schema

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Field describes one logical search attribute.
type Field struct {
	// Field is the dotted relation path of the searched column, e.g. "device.location.description"
	Field string `yaml:"field"`

	// SearchValue names another logical attribute holding the search value
	SearchValue string `yaml:"searchvalue,omitempty"`

	// Value is the dotted path used for display instead of Field
	Value string `yaml:"value,omitempty"`

	// PartialMatch defaults to true
	PartialMatch *bool `yaml:"partialMatch,omitempty"`
}

func (f Field) Partial() bool {
	return f.PartialMatch == nil || *f.PartialMatch
}

// DisplayPath is the path whose value is shown for the attribute outside search mode.
func (f Field) DisplayPath() string {
	if f.Value != "" {
		return f.Value
	}
	return f.Field
}

// Exact returns a copy of f with partial matching disabled.
func (f Field) Exact() Field {
	partial := false
	f.PartialMatch = &partial
	return f
}

// RelationMap maps logical attribute names to relation paths, in declaration order.
type RelationMap struct {
	names  []string
	fields map[string]Field
}

// Set declares or replaces a logical attribute.
func (m *RelationMap) Set(name string, f Field) {
	if m.fields == nil {
		m.fields = make(map[string]Field)
	}
	if _, ok := m.fields[name]; !ok {
		m.names = append(m.names, name)
	}
	m.fields[name] = f
}

func (m RelationMap) Get(name string) (Field, bool) {
	f, ok := m.fields[name]
	return f, ok
}

func (m RelationMap) Has(name string) bool {
	_, ok := m.fields[name]
	return ok
}

// Lookup finds name ignoring case and returns the declared spelling.
func (m RelationMap) Lookup(name string) (string, Field, bool) {
	if f, ok := m.fields[name]; ok {
		return name, f, true
	}
	for _, declared := range m.names {
		if strings.EqualFold(declared, name) {
			return declared, m.fields[declared], true
		}
	}
	return "", Field{}, false
}

func (m RelationMap) Names() []string {
	return append([]string{}, m.names...)
}

func (m RelationMap) Len() int {
	return len(m.names)
}

// UnmarshalYAML decodes a mapping of name to either a path string or a Field mapping,
// keeping the declaration order.
func (m *RelationMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return &yaml.TypeError{Errors: []string{"relation map must be a mapping"}}
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		valueNode := node.Content[i+1]
		var f Field
		if valueNode.Kind == yaml.ScalarNode {
			f.Field = valueNode.Value
		} else if err := valueNode.Decode(&f); err != nil {
			return err
		}
		m.Set(name, f)
	}
	return nil
}
