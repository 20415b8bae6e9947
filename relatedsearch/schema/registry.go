package schema

// Registry holds the models that relation paths may traverse.
type Registry struct {
	models map[string]*Model
	order  []string
}

func NewRegistry(models ...*Model) *Registry {
	r := &Registry{models: make(map[string]*Model)}
	for _, m := range models {
		r.Register(m)
	}
	return r
}

func (r *Registry) Register(m *Model) *Registry {
	if _, ok := r.models[m.Name]; !ok {
		r.order = append(r.order, m.Name)
	}
	r.models[m.Name] = m
	return r
}

func (r *Registry) Model(name string) (*Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

func (r *Registry) Models() []*Model {
	models := make([]*Model, 0, len(r.order))
	for _, name := range r.order {
		models = append(models, r.models[name])
	}
	return models
}

// Target returns the model a relation of owner points to.
func (r *Registry) Target(owner *Model, rel Relation) (*Model, error) {
	m, ok := r.models[rel.Target]
	if !ok {
		return nil, NewConfigurationError(owner.Name, rel.Name, "relation target model %q is not registered", rel.Target)
	}
	return m, nil
}

// Validate checks that every relation points to a registered model with a primary key.
func (r *Registry) Validate() error {
	for _, m := range r.Models() {
		if len(m.PrimaryKey) == 0 {
			return NewConfigurationError(m.Name, "", "model declares no primary key")
		}
		for _, rel := range m.relations {
			if _, err := r.Target(m, rel); err != nil {
				return err
			}
			if rel.ForeignKey == "" {
				return NewConfigurationError(m.Name, rel.Name, "relation declares no foreign key")
			}
			if rel.Kind == ManyMany && (rel.Through == "" || rel.ThroughKey == "") {
				return NewConfigurationError(m.Name, rel.Name, "many-many relation needs a junction table and key")
			}
		}
	}
	return nil
}
