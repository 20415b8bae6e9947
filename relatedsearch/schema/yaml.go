package schema

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type catalogDocument struct {
	Models []modelDocument `yaml:"models"`
}

type modelDocument struct {
	Name       string              `yaml:"name"`
	Table      string              `yaml:"table"`
	Alias      string              `yaml:"alias"`
	PrimaryKey []string            `yaml:"primary_key"`
	Columns    []string            `yaml:"columns"`
	Labels     map[string]string   `yaml:"labels"`
	Safe       map[string][]string `yaml:"safe"`
	Relations  []relationDocument  `yaml:"relations"`
	Fields     RelationMap         `yaml:"fields"`
}

type relationDocument struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Target     string `yaml:"target"`
	ForeignKey string `yaml:"foreign_key"`
	Through    string `yaml:"through"`
	ThroughKey string `yaml:"through_key"`
	Alias      string `yaml:"alias"`
}

// LoadYAML builds a validated registry from a YAML catalog:
//
//	models:
//	  - name: Car
//	    columns: [id, name, vehicle_id]
//	    relations:
//	      - {name: vehicle, kind: belongs_to, target: Vehicle, foreign_key: vehicle_id}
//	    fields:
//	      make: vehicle.manufacturer.name
//	      serial: {field: vehicle.serial, partialMatch: false}
func LoadYAML(data []byte) (*Registry, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unable to parse model catalog")
	}

	registry := NewRegistry()
	for _, md := range doc.Models {
		if md.Name == "" {
			return nil, errors.New("schema: model without a name")
		}
		m := NewModel(md.Name, md.Table).WithColumns(md.Columns...)
		if md.Alias != "" {
			m.Alias = md.Alias
		}
		if len(md.PrimaryKey) > 0 {
			m.PrimaryKey = md.PrimaryKey
		}
		for attr, label := range md.Labels {
			m.WithLabel(attr, label)
		}
		for scenario, attrs := range md.Safe {
			m.WithSafe(scenario, attrs...)
		}
		for _, rd := range md.Relations {
			kind, err := ParseRelationKind(rd.Kind)
			if err != nil {
				return nil, NewConfigurationError(md.Name, rd.Name, "%s", err.Error())
			}
			m.AddRelation(Relation{
				Name:       rd.Name,
				Kind:       kind,
				Target:     rd.Target,
				ForeignKey: rd.ForeignKey,
				Through:    rd.Through,
				ThroughKey: rd.ThroughKey,
				Alias:      rd.Alias,
			})
		}
		m.Fields = md.Fields
		registry.Register(m)
	}

	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return registry, nil
}
