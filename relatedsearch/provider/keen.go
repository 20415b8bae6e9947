package provider

import (
	gosort "sort"
	"strings"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/criteria"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/record"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/session"
)

// KeenRelation is one relation, possibly a dotted path, loaded by a keen batch query.
type KeenRelation struct {
	Name    string
	Options criteria.JoinOptions
}

// KeenGroup is the set of relations loaded together by one batch query.
type KeenGroup []KeenRelation

// PrimaryKeySet maps each primary key column to the distinct values found on a page.
type PrimaryKeySet map[string][]any

// KeenDataProvider loads the configured relations of a fetched page with one query per
// keen group instead of one query per record.
type KeenDataProvider struct {
	*DataProvider

	groups []KeenGroup

	// ExtraKeys are selected in every batch query besides the primary key
	ExtraKeys []string

	// Export selects what ArrayData and JSONData convert
	Export *record.ConvertOptions

	// IncludeDataProviderInformation wraps ArrayData with the count summary
	IncludeDataProviderInformation bool
}

func NewKeenDataProvider(model *schema.Model, finder Finder, c *criteria.Criteria, opts ...Option) (*KeenDataProvider, error) {
	s := newSettings(opts)
	p := &KeenDataProvider{
		DataProvider:                   newDataProvider(model, finder, c, s),
		ExtraKeys:                      s.extraKeys,
		Export:                         s.export,
		IncludeDataProviderInformation: !s.withoutInfo,
	}
	p.DataProvider.fetch = p.fetchData
	if s.keenLoading != nil {
		if err := p.SetWithKeenLoading(s.keenLoading); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// KeenGroups returns the configured groups.
func (p *KeenDataProvider) KeenGroups() []KeenGroup {
	return p.groups
}

// SetWithKeenLoading configures the keen relations. It accepts a comma separated string,
// []string, map[string]criteria.JoinOptions, KeenRelation, KeenGroup, []KeenGroup,
// [][]string or []any mixing names and nested groups. Flat entries form one group placed
// after the nested groups; every nested group is loaded by its own query.
func (p *KeenDataProvider) SetWithKeenLoading(value any) error {
	var groups []KeenGroup
	var flat KeenGroup

	switch v := value.(type) {
	case nil:
	case string:
		flat = namesGroup(strings.Split(v, ","))
	case []string:
		flat = namesGroup(v)
	case map[string]criteria.JoinOptions:
		flat = optionsGroup(v)
	case KeenRelation:
		flat = KeenGroup{v}
	case KeenGroup:
		flat = v
	case []KeenGroup:
		groups = append(groups, v...)
	case [][]string:
		for _, names := range v {
			groups = append(groups, namesGroup(names))
		}
	case []any:
		for _, item := range v {
			switch it := item.(type) {
			case string:
				flat = append(flat, namesGroup([]string{it})...)
			case KeenRelation:
				flat = append(flat, it)
			default:
				g, err := p.parseGroup(item)
				if err != nil {
					return err
				}
				groups = append(groups, g)
			}
		}
	default:
		return p.keenValueError(value)
	}

	if len(flat) > 0 {
		groups = append(groups, flat)
	}
	p.groups = groups
	return nil
}

func (p *KeenDataProvider) parseGroup(value any) (KeenGroup, error) {
	switch v := value.(type) {
	case []string:
		return namesGroup(v), nil
	case map[string]criteria.JoinOptions:
		return optionsGroup(v), nil
	case KeenGroup:
		return v, nil
	case []any:
		var g KeenGroup
		for _, item := range v {
			switch it := item.(type) {
			case string:
				g = append(g, namesGroup([]string{it})...)
			case KeenRelation:
				g = append(g, it)
			default:
				return nil, p.keenValueError(item)
			}
		}
		return g, nil
	}
	return nil, p.keenValueError(value)
}

func (p *KeenDataProvider) keenValueError(value any) error {
	return schema.NewConfigurationError(p.model.Name, "keenLoading", "unsupported keen loading value of type %T", value)
}

func namesGroup(names []string) KeenGroup {
	var g KeenGroup
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			g = append(g, KeenRelation{Name: name})
		}
	}
	return g
}

func optionsGroup(options map[string]criteria.JoinOptions) KeenGroup {
	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	gosort.Strings(names)
	g := make(KeenGroup, 0, len(names))
	for _, name := range names {
		g = append(g, KeenRelation{Name: name, Options: options[name]})
	}
	return g
}

func (p *KeenDataProvider) fetchData(s session.DbSession) ([]*record.Record, error) {
	if len(p.groups) > 0 {
		p.prepareKeenLoading()
	}
	data, err := p.DataProvider.fetchData(s)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && len(p.groups) > 0 {
		return p.afterFetch(s, data)
	}
	return data, nil
}

// PageCriteria is the primary query criteria once the keen relations are taken out of it.
func (p *KeenDataProvider) PageCriteria() *criteria.Criteria {
	if len(p.groups) > 0 {
		p.prepareKeenLoading()
	}
	return p.DataProvider.PageCriteria()
}

// prepareKeenLoading adjusts the primary criteria for the keen relations it also joins:
// a singular top level relation whose columns the primary query loads is dropped from the
// keen groups, any other one is joined without columns. The primary query is made
// distinct so joins do not repeat records.
func (p *KeenDataProvider) prepareKeenLoading() {
	with := &p.criteria.With
	if with.IsEmpty() {
		return
	}
	for _, path := range with.Paths() {
		node := with.Find(path)
		rel, ok := p.model.Relation(path)
		if ok && rel.Kind.IsSingular() && !node.SelectsNone() {
			p.dropKeen(path)
			continue
		}
		if p.isKeen(path) {
			node.Columns = criteria.NoColumns()
		}
	}
	p.criteria.Distinct = true
}

func (p *KeenDataProvider) isKeen(name string) bool {
	for _, g := range p.groups {
		for _, rel := range g {
			if rel.Name == name {
				return true
			}
		}
	}
	return false
}

func (p *KeenDataProvider) dropKeen(name string) {
	for i, g := range p.groups {
		kept := g[:0:0]
		for _, rel := range g {
			if rel.Name != name {
				kept = append(kept, rel)
			}
		}
		p.groups[i] = kept
	}
}

// loadKeys collects the distinct primary key values of data per key column.
func (p *KeenDataProvider) loadKeys(data []*record.Record) PrimaryKeySet {
	keys := make(PrimaryKeySet, len(p.model.PrimaryKey))
	for i, col := range p.model.PrimaryKey {
		seen := make(map[string]struct{}, len(data))
		for _, r := range data {
			v := r.PrimaryKey()[i]
			k := record.Key([]any{v})
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys[col] = append(keys[col], v)
		}
	}
	return keys
}

// afterFetch runs one batch query per non-empty group and copies every relation the batch
// loaded onto the page record with the same primary key.
func (p *KeenDataProvider) afterFetch(s session.DbSession, data []*record.Record) ([]*record.Record, error) {
	keys := p.loadKeys(data)
	for i, group := range p.groups {
		if len(group) == 0 {
			continue
		}
		c := p.batchCriteria(keys, group)
		batch, err := p.finder.FindAll(s, p.model, c)
		if err != nil {
			return nil, err
		}

		index := make(map[string]*record.Record, len(batch))
		for _, r := range batch {
			index[record.Key(r.PrimaryKey())] = r
		}
		for _, r := range data {
			loaded, ok := index[record.Key(r.PrimaryKey())]
			if !ok {
				continue
			}
			for _, rel := range p.model.Relations() {
				if v, ok := loaded.Related(rel.Name); ok {
					r.SetRelated(rel.Name, v)
				}
			}
		}

		p.logger.Debug().
			Str("provider", p.id).
			Int("group", i).
			Strs("relations", group.names()).
			Int("keys", len(data)).
			Int("loaded", len(batch)).
			Msg("keen group loaded")
	}
	return data, nil
}

func (p *KeenDataProvider) batchCriteria(keys PrimaryKeySet, group KeenGroup) *criteria.Criteria {
	c := criteria.New()
	c.Dialect = p.criteria.Dialect
	c.Select = append(append([]string{}, p.model.PrimaryKey...), p.ExtraKeys...)
	for _, col := range p.model.PrimaryKey {
		c.AddInCondition(c.QuoteColumn(p.model.TableAlias(), col), keys[col], "AND")
	}
	for _, rel := range group {
		c.With.Ensure(rel.Name, rel.Options)
	}
	c.Together = true
	return c
}

func (g KeenGroup) names() []string {
	names := make([]string, len(g))
	for i, rel := range g {
		names[i] = rel.Name
	}
	return names
}
