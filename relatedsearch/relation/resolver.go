package relation

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/criteria"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/dialect"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
)

// ErrNotLeaf is returned when a path ends in a relation instead of a column. Such fields
// cannot be searched or sorted and are skipped.
var ErrNotLeaf = errors.New("relation: path names a relation, not a column")

// ResolvedPath is a logical attribute resolved to a column of a joined table.
type ResolvedPath struct {
	// Name is the logical attribute name
	Name string

	// Relation is the dotted relation path to join, empty for owner columns
	Relation string

	// Alias is the SQL alias of the table holding Column
	Alias string

	Column string

	// Quoted is the alias-qualified, quoted column reference
	Quoted string
}

func (p ResolvedPath) IsLocal() bool {
	return p.Relation == ""
}

// Join returns the select-none join chain the path needs.
func (p ResolvedPath) Join() criteria.With {
	var w criteria.With
	if !p.IsLocal() {
		w.Ensure(p.Relation, criteria.JoinOptions{Columns: criteria.NoColumns()})
	}
	return w
}

// Resolver resolves the logical attributes declared on an owner model.
type Resolver struct {
	registry *schema.Registry
	owner    *schema.Model
	dialect  dialect.Dialect
}

func NewResolver(registry *schema.Registry, owner *schema.Model, d dialect.Dialect) *Resolver {
	return &Resolver{registry: registry, owner: owner, dialect: d}
}

func (r *Resolver) Owner() *schema.Model {
	return r.owner
}

// Resolve resolves the logical attribute name declared on the owner.
func (r *Resolver) Resolve(name string) (ResolvedPath, error) {
	f, ok := r.owner.Fields.Get(name)
	if !ok {
		return ResolvedPath{}, schema.NotFoundError{Model: r.owner.Name, Property: name}
	}
	return r.ResolvePath(name, f.Field)
}

// ResolvePath resolves a dotted path starting at the owner. The last relation's declared
// alias replaces its name in the column reference, and a column that is itself a logical
// attribute of the target model is replaced by that attribute's path until a physical
// column is reached.
func (r *Resolver) ResolvePath(name, path string) (ResolvedPath, error) {
	if path == "" {
		return ResolvedPath{}, schema.NewConfigurationError(r.owner.Name, name, "empty relation path")
	}
	return r.resolve(name, strings.Split(path, "."), map[string]struct{}{})
}

func (r *Resolver) resolve(name string, segments []string, visited map[string]struct{}) (ResolvedPath, error) {
	column := segments[len(segments)-1]
	relations := segments[:len(segments)-1]

	if len(relations) == 0 {
		return ResolvedPath{
			Name:   name,
			Alias:  r.owner.TableAlias(),
			Column: column,
			Quoted: r.dialect.QuoteColumnName(r.owner.TableAlias() + "." + column),
		}, nil
	}

	model := r.owner
	var rel schema.Relation
	for _, seg := range relations {
		var ok bool
		rel, ok = model.Relation(seg)
		if !ok {
			return ResolvedPath{}, schema.NewConfigurationError(
				r.owner.Name, name, "relation %q is not declared on %s", seg, model.Name)
		}
		target, err := r.registry.Target(model, rel)
		if err != nil {
			return ResolvedPath{}, err
		}
		model = target
	}

	if model.HasRelation(column) {
		return ResolvedPath{}, errors.Wrapf(ErrNotLeaf, "%s.%s", r.owner.Name, name)
	}

	if f, ok := model.Fields.Get(column); ok {
		// (model, attribute) fully determines the expansion, so seeing it twice means the
		// expansion never terminates
		key := model.Name + "." + column
		if _, seen := visited[key]; seen {
			return ResolvedPath{}, schema.NewConfigurationError(
				r.owner.Name, name, "indirection cycle through %s", key)
		}
		visited[key] = struct{}{}

		next := append(append([]string{}, relations...), strings.Split(f.Field, ".")...)
		return r.resolve(name, next, visited)
	}

	alias := rel.TableAlias()
	return ResolvedPath{
		Name:     name,
		Relation: strings.Join(relations, "."),
		Alias:    alias,
		Column:   column,
		Quoted:   r.dialect.QuoteColumnName(alias + "." + column),
	}, nil
}

// FindRelationByAlias returns the relation path among paths whose last relation uses alias
// as its table alias.
func (r *Resolver) FindRelationByAlias(alias string, paths []string) (string, bool) {
	for _, rel := range r.owner.Relations() {
		if rel.TableAlias() == alias {
			return rel.Name, true
		}
	}
	for _, path := range paths {
		rel, err := r.lastRelation(path)
		if err == nil && rel.TableAlias() == alias {
			return path, true
		}
	}
	return "", false
}

func (r *Resolver) lastRelation(path string) (schema.Relation, error) {
	relations, err := r.relations(path)
	if err != nil {
		return schema.Relation{}, err
	}
	return relations[len(relations)-1], nil
}

// Multiplies reports whether joining path can yield several rows per owner row, that is
// whether a HAS-MANY or MANY-MANY relation lies on it. Undeclared paths do not multiply.
func (r *Resolver) Multiplies(path string) bool {
	relations, err := r.relations(path)
	if err != nil {
		return false
	}
	for _, rel := range relations {
		if !rel.Kind.IsSingular() {
			return true
		}
	}
	return false
}

func (r *Resolver) relations(path string) ([]schema.Relation, error) {
	model := r.owner
	var relations []schema.Relation
	for _, seg := range strings.Split(path, ".") {
		rel, ok := model.Relation(seg)
		if !ok {
			return nil, schema.NewConfigurationError(r.owner.Name, path, "relation %q is not declared on %s", seg, model.Name)
		}
		target, err := r.registry.Target(model, rel)
		if err != nil {
			return nil, err
		}
		relations = append(relations, rel)
		model = target
	}
	return relations, nil
}
