package search

import (
	"net/url"
	"slices"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/criteria"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/provider"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/record"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/relation"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/sort"
)

// names that collide with the behavior's own properties
var reservedNames = []string{"owner", "enabled", "relations"}

// Options configures the provider built by RelatedSearch.
type Options struct {
	// Sort replaces the default sort settings. The generated attributes are added to a copy
	// of it and win over equally named ones.
	Sort *sort.Sort

	// KeenLoading is passed to KeenDataProvider.SetWithKeenLoading
	KeenLoading any

	// PageSize overrides the configured page size; a negative size disables pagination
	PageSize int

	Params    url.Values
	ExtraKeys []string
	Export    *record.ConvertOptions

	ProviderOptions []provider.Option
}

// RelatedSearch adds the conditions, joins and column rewrites needed by the submitted
// search values and the requested ordering to c, and returns a provider fetching the
// result. With useInboundSort the sort directive of opts.Params is honored as well.
//
// c is left untouched when an error is returned.
func (b *Behavior) RelatedSearch(c *criteria.Criteria, opts Options, useInboundSort bool) (p *provider.KeenDataProvider, err error) {
	if c == nil {
		c = criteria.New()
	}
	backup := c.Clone()
	defer func() {
		if err != nil {
			*c = *backup
		}
	}()

	model := b.model()
	logger := b.logger.With().
		Str("search", ulid.Make().String()).
		Str("model", model.Name).
		Logger()

	c.Dialect = b.dialect
	if scoped, ok := b.owner.(ScopedOwner); ok {
		scoped.ApplyScopes(c)
	}

	srt := b.newSort(opts.Sort)

	var sortKey string
	var sortAliases []string
	if useInboundSort {
		if key, _, ok := srt.Directive(opts.Params); ok {
			sortKey = key
			if attr, ok := srt.Attributes[key]; ok && !model.Fields.Has(key) {
				ownerAlias := model.TableAlias()
				sortAliases = append(
					relation.SortExpressionRelations(attr.Asc, ownerAlias),
					relation.SortExpressionRelations(attr.Desc, ownerAlias)...)
			}
		}
	}

	var with criteria.With
	resolved := make(map[string]relation.ResolvedPath, model.Fields.Len())
	attrs := make(map[string]sort.Attribute, model.Fields.Len())
	searching := b.isSearch()

	for _, name := range model.Fields.Names() {
		if isReserved(name) {
			return nil, schema.NewConfigurationError(model.Name, name, "%q is a reserved name", name)
		}
		f, _ := model.Fields.Get(name)
		path, err := b.resolver.ResolvePath(name, f.Field)
		if errors.Is(err, relation.ErrNotLeaf) {
			logger.Debug().Str("field", name).Msg("field names a relation, skipped")
			continue
		}
		if err != nil {
			return nil, err
		}
		resolved[name] = path
		attrs[name] = sort.Attribute{
			Asc:   path.Quoted,
			Desc:  path.Quoted + " DESC",
			Label: model.AttributeLabel(name),
		}

		required := name == sortKey
		if searching {
			valueName := name
			if f.SearchValue != "" {
				valueName = f.SearchValue
			}
			value := b.state[strings.ToLower(valueName)]
			ok, err := hasSearchValue(model.Name, name, path.Quoted, value)
			if err != nil {
				return nil, err
			}
			if ok {
				compare(c, path.Quoted, value, f.Partial(), "AND", true)
				required = true
			}
		}
		if required && !path.IsLocal() {
			with.Merge(path.Join())
		}
	}

	replace := func(ident string) (string, bool) {
		path, ok := resolved[ident]
		if !ok {
			return "", false
		}
		if !path.IsLocal() {
			with.Merge(path.Join())
		}
		return path.Quoted, true
	}
	if c.Order != "" {
		c.Order, _ = relation.RewriteClause(c.Order, replace)
	}
	if c.Group != "" {
		c.Group, _ = relation.RewriteClause(c.Group, replace)
	}
	if c.Condition != "" {
		c.Condition = relation.ApplyEdits(c.Condition, relation.ScanCondition(c.Condition, replace))
	}

	paths := make([]string, 0, len(resolved))
	for _, path := range resolved {
		if !path.IsLocal() {
			paths = append(paths, path.Relation)
		}
	}
	slices.Sort(paths)
	for _, alias := range sortAliases {
		if path, ok := b.resolver.FindRelationByAlias(alias, paths); ok {
			with.Ensure(path, criteria.JoinOptions{Columns: criteria.NoColumns()})
		}
	}

	for name, attr := range attrs {
		srt.Attributes[name] = attr
	}
	if srt.DefaultOrder != "" {
		srt.DefaultOrder = rewriteDefaultOrder(srt.DefaultOrder, attrs, replace)
	}

	if !with.IsEmpty() {
		c.With.Merge(with)
		c.Together = true
	}
	// a plural join repeats owner rows, and pages are counted in owners
	for _, path := range c.With.Paths() {
		if b.resolver.Multiplies(path) {
			c.Distinct = true
			break
		}
	}

	p, err = provider.NewKeenDataProvider(model, b.finder, c, b.providerOptions(srt, opts, logger)...)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Strs("joins", c.With.Paths()).
		Str("condition", c.Condition).
		Str("order", c.Order).
		Msg("related search prepared")
	return p, nil
}

// DataProvider returns a provider over c, or over the owner's scopes when c is nil. The
// request's sort directive does not add joins.
func (b *Behavior) DataProvider(c *criteria.Criteria, opts Options) (*provider.KeenDataProvider, error) {
	return b.RelatedSearch(c, opts, false)
}

// newSort copies base, or creates the default sort, and lets owner columns outside the
// attribute table through the wildcard.
func (b *Behavior) newSort(base *sort.Sort) *sort.Sort {
	model := b.model()
	var srt *sort.Sort
	if base == nil {
		srt = sort.New(b.config.SortVar(model.Name))
	} else {
		copied := *base
		srt = &copied
		srt.Attributes = make(map[string]sort.Attribute, len(base.Attributes))
		for k, v := range base.Attributes {
			srt.Attributes[k] = v
		}
		if srt.SortVar == "" {
			srt.SortVar = b.config.SortVar(model.Name)
		}
	}
	srt.Wildcard = true
	if srt.WildcardColumn == nil {
		srt.WildcardColumn = func(key string) (string, bool) {
			if !model.HasColumn(key) {
				return "", false
			}
			return b.dialect.QuoteColumnName(model.TableAlias() + "." + key), true
		}
	}
	return srt
}

func (b *Behavior) providerOptions(srt *sort.Sort, opts Options, logger zerolog.Logger) []provider.Option {
	popts := []provider.Option{
		provider.WithConfig(b.config),
		provider.WithSort(srt),
		provider.WithParams(opts.Params),
		provider.WithLogger(logger),
		provider.WithExtraKeys(opts.ExtraKeys...),
		provider.WithExport(opts.Export),
	}
	if opts.PageSize != 0 {
		popts = append(popts, provider.WithPageSize(opts.PageSize))
	}
	if opts.KeenLoading != nil {
		popts = append(popts, provider.WithKeenLoading(opts.KeenLoading))
	}
	return append(popts, opts.ProviderOptions...)
}

// rewriteDefaultOrder replaces "name [ASC|DESC]" terms naming a logical attribute with the
// attribute's sort expression.
func rewriteDefaultOrder(order string, attrs map[string]sort.Attribute, require func(string) (string, bool)) string {
	terms := relation.SplitClause(order)
	for i, t := range terms {
		attr, ok := attrs[t.Ident]
		if t.Ident == "" || !ok {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(t.Modifier)) {
		case "", "ASC":
			terms[i].Ident, terms[i].Modifier = attr.Asc, ""
		case "DESC":
			terms[i].Ident, terms[i].Modifier = attr.Desc, ""
		default:
			continue
		}
		require(t.Ident)
	}
	return relation.JoinClause(terms)
}

func isReserved(name string) bool {
	for _, r := range reservedNames {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}
