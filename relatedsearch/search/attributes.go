package search

import (
	"strings"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/option"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
)

// TryGet reads the logical attribute name. In the search scenario it returns the submitted
// search value, otherwise the value displayed for the attribute, read through the owner's
// loaded relations. Nothing is returned for names that are neither declared nor submitted.
func (b *Behavior) TryGet(name string) option.Option[any] {
	if b.isSearch() {
		if v, ok := b.state[strings.ToLower(name)]; ok {
			return option.Some(v)
		}
		if _, _, ok := b.model().Fields.Lookup(name); ok {
			return option.Some[any](nil)
		}
		return option.Nothing[any]()
	}

	_, f, ok := b.model().Fields.Lookup(name)
	if !ok {
		return option.Nothing[any]()
	}
	v, _ := b.owner.Value(f.DisplayPath())
	return option.Some(v)
}

// TrySet stores a search value. Only attributes safe in the search scenario are settable.
func (b *Behavior) TrySet(name string, value any) error {
	if !b.isSearch() || !b.owner.IsAttributeSafe(name) {
		return schema.InvalidOperationError{
			Model:  b.model().Name,
			Field:  name,
			Reason: "only safe search attributes are settable",
		}
	}
	b.state[strings.ToLower(name)] = value
	return nil
}

// Has reports whether name holds a search value or is a declared logical attribute.
// Names compare case-insensitively.
func (b *Behavior) Has(name string) bool {
	if _, ok := b.state[strings.ToLower(name)]; ok {
		return true
	}
	_, _, ok := b.model().Fields.Lookup(name)
	return ok
}

func (b *Behavior) Unset(name string) {
	delete(b.state, strings.ToLower(name))
}
