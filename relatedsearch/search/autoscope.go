package search

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/criteria"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/relation"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
)

// TryCompare is the autoscope entry point. With arguments
// (value, partialMatch=false, operator="AND", escape=false) it adds a comparison on the
// owner column or logical attribute name to the owner's live criteria and returns the
// owner. Without arguments a "get"-prefixed name reads the named attribute.
func (b *Behavior) TryCompare(name string, args ...any) (any, error) {
	model := b.model()
	if len(args) == 0 {
		// any name starting with a lowercase "get" is a getter, "getaway" included
		if rest := strings.TrimPrefix(name, "get"); rest != name && rest != "" {
			if v := b.TryGet(rest); v.IsSome() {
				return v.Unwrap(), nil
			}
			if v, ok := b.owner.Attribute(rest); ok {
				return v, nil
			}
		}
		if model.HasColumn(name) || model.Fields.Has(name) {
			return nil, schema.NotFoundError{Model: model.Name, Property: name, Reason: "parameters required for autoscope"}
		}
		return nil, schema.NotFoundError{Model: model.Name, Property: name}
	}

	inOwner := model.HasColumn(name)
	if !inOwner && !model.Fields.Has(name) {
		return nil, schema.NotFoundError{Model: model.Name, Property: name}
	}
	scope, err := parseScopeArgs(model.Name, name, args)
	if err != nil {
		return nil, err
	}

	if inOwner {
		crit, err := b.liveCriteria(name)
		if err != nil {
			return nil, err
		}
		column := b.dialect.QuoteColumnName(model.TableAlias() + "." + name)
		compare(crit, column, scope.value, scope.partial, scope.operator, scope.escape)
		return b.owner, nil
	}

	if err := b.AddRelationCondition(name, scope.value, scope.partial, scope.operator, scope.escape); err != nil {
		return nil, err
	}
	return b.owner, nil
}

// AddRelationCondition joins the relation holding the logical attribute field into the
// owner's live criteria and compares its column against value.
func (b *Behavior) AddRelationCondition(field string, value any, partial bool, operator string, escape bool) error {
	model := b.model()
	path, err := b.resolver.Resolve(field)
	if errors.Is(err, relation.ErrNotLeaf) {
		return schema.NewConfigurationError(model.Name, field, "attribute names a relation, not a column")
	}
	if err != nil {
		return err
	}
	if _, err := hasSearchValue(model.Name, field, path.Quoted, value); err != nil {
		return err
	}

	crit, err := b.liveCriteria(field)
	if err != nil {
		return err
	}
	if !path.IsLocal() {
		crit.With.Merge(path.Join())
	}
	compare(crit, path.Quoted, value, partial, operator, escape)
	return nil
}

func (b *Behavior) liveCriteria(field string) (*criteria.Criteria, error) {
	scoped, ok := b.owner.(ScopedOwner)
	if !ok {
		return nil, schema.NewConfigurationError(b.model().Name, field, "owner does not accumulate scopes")
	}
	crit := scoped.DbCriteria()
	crit.Dialect = b.dialect
	return crit, nil
}

type scopeArgs struct {
	value    any
	partial  bool
	operator string
	escape   bool
}

func parseScopeArgs(model, name string, args []any) (scopeArgs, error) {
	scope := scopeArgs{value: args[0], operator: "AND"}
	if len(args) > 4 {
		return scope, schema.NewConfigurationError(model, name, "autoscope takes at most 4 arguments, got %d", len(args))
	}
	var ok bool
	if len(args) > 1 {
		if scope.partial, ok = args[1].(bool); !ok {
			return scope, schema.NewConfigurationError(model, name, "partial match argument must be a bool, got %T", args[1])
		}
	}
	if len(args) > 2 {
		if scope.operator, ok = args[2].(string); !ok {
			return scope, schema.NewConfigurationError(model, name, "operator argument must be a string, got %T", args[2])
		}
	}
	if len(args) > 3 {
		if scope.escape, ok = args[3].(bool); !ok {
			return scope, schema.NewConfigurationError(model, name, "escape argument must be a bool, got %T", args[3])
		}
	}
	return scope, nil
}
