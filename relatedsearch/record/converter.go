package record

import "sort"

// ConvertOptions selects what Convert exports from a record.
type ConvertOptions struct {
	// Attributes to export, nil for all loaded attributes
	Attributes []string

	// Relations to export with their own options; a nil value exports all attributes and
	// no nested relations. Relations that are not loaded are skipped.
	Relations map[string]*ConvertOptions

	// AttributeAliases renames exported attribute keys. Nested options without aliases of
	// their own use the parent's.
	AttributeAliases map[string]string

	// AfterConvert is called with the record, its attribute map and its relation map
	AfterConvert func(r *Record, attributes map[string]any, relations map[string]any)
}

// Convert exports a record as a nested map.
func (o *ConvertOptions) Convert(r *Record) map[string]any {
	if r == nil {
		return nil
	}
	opts := o
	if opts == nil {
		opts = &ConvertOptions{}
	}

	names := opts.Attributes
	if names == nil {
		names = r.AttributeNames()
	}
	attributes := make(map[string]any, len(names))
	for _, name := range names {
		v, _ := r.Attribute(name)
		key := name
		if alias, ok := opts.AttributeAliases[name]; ok {
			key = alias
		}
		attributes[key] = v
	}

	relations := make(map[string]any, len(opts.Relations))
	relationNames := make([]string, 0, len(opts.Relations))
	for name := range opts.Relations {
		relationNames = append(relationNames, name)
	}
	sort.Strings(relationNames)
	for _, name := range relationNames {
		value, ok := r.Related(name)
		if !ok {
			continue
		}
		sub := opts.Relations[name].inherit(opts.AttributeAliases)
		switch v := value.(type) {
		case *Record:
			if v == nil {
				relations[name] = nil
			} else {
				relations[name] = sub.Convert(v)
			}
		case []*Record:
			relations[name] = sub.ConvertAll(v)
		}
	}

	if opts.AfterConvert != nil {
		opts.AfterConvert(r, attributes, relations)
	}

	out := make(map[string]any, len(attributes)+len(relations))
	for k, v := range attributes {
		out[k] = v
	}
	for k, v := range relations {
		out[k] = v
	}
	return out
}

func (o *ConvertOptions) inherit(aliases map[string]string) *ConvertOptions {
	if aliases == nil || (o != nil && o.AttributeAliases != nil) {
		return o
	}
	if o == nil {
		return &ConvertOptions{AttributeAliases: aliases}
	}
	sub := *o
	sub.AttributeAliases = aliases
	return &sub
}

func (o *ConvertOptions) ConvertAll(records []*Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, o.Convert(r))
	}
	return out
}
