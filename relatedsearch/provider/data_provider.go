package provider

import (
	"net/url"

	"github.com/rs/zerolog"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/criteria"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/record"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/session"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/sort"
)

// DataProvider fetches one page of a model's records matching a criteria, sorted by the
// request's sort directive.
type DataProvider struct {
	id         string
	model      *schema.Model
	finder     Finder
	criteria   *criteria.Criteria
	sort       *sort.Sort
	pagination *Pagination
	params     url.Values
	logger     zerolog.Logger

	// fetch loads the current page; KeenDataProvider replaces it
	fetch func(s session.DbSession) ([]*record.Record, error)

	data       []*record.Record
	fetched    bool
	total      int64
	totalKnown bool
}

func NewDataProvider(model *schema.Model, finder Finder, c *criteria.Criteria, opts ...Option) *DataProvider {
	return newDataProvider(model, finder, c, newSettings(opts))
}

func newDataProvider(model *schema.Model, finder Finder, c *criteria.Criteria, s *settings) *DataProvider {
	if c == nil {
		c = criteria.New()
	}
	id := s.id
	if id == "" {
		id = model.Name
	}
	p := &DataProvider{
		id:       id,
		model:    model,
		finder:   finder,
		criteria: c,
		sort:     s.sort,
		params:   s.params,
		logger:   s.logger,
	}
	if p.sort == nil {
		p.sort = sort.New(s.config.SortVar(id))
	} else if p.sort.SortVar == "" {
		p.sort.SortVar = s.config.SortVar(id)
	}
	if s.paginate {
		p.pagination = NewPagination(s.config.PageVar(id), s.config.PageSize)
		p.pagination.SetParams(s.params)
	}
	p.fetch = p.fetchData
	return p
}

func (p *DataProvider) ID() string {
	return p.id
}

func (p *DataProvider) Model() *schema.Model {
	return p.model
}

func (p *DataProvider) Criteria() *criteria.Criteria {
	return p.criteria
}

func (p *DataProvider) Sort() *sort.Sort {
	return p.sort
}

// Pagination is nil when pagination is disabled.
func (p *DataProvider) Pagination() *Pagination {
	return p.pagination
}

func (p *DataProvider) Params() url.Values {
	return p.params
}

// Data returns the current page, fetching it on first use or when refresh is set.
func (p *DataProvider) Data(s session.DbSession, refresh bool) ([]*record.Record, error) {
	if p.fetched && !refresh {
		return p.data, nil
	}
	if refresh {
		p.totalKnown = false
	}
	data, err := p.fetch(s)
	if err != nil {
		return nil, err
	}
	p.data = data
	p.fetched = true
	return data, nil
}

// ItemCount is the number of records on the fetched page.
func (p *DataProvider) ItemCount() int {
	return len(p.data)
}

// TotalItemCount is the number of records matching the criteria on all pages.
func (p *DataProvider) TotalItemCount(s session.DbSession, refresh bool) (int64, error) {
	if p.totalKnown && !refresh {
		return p.total, nil
	}
	c := p.criteria.Clone()
	c.Order = ""
	c.Limit, c.Offset = -1, -1
	total, err := p.finder.Count(s, p.model, c)
	if err != nil {
		return 0, err
	}
	p.total = total
	p.totalKnown = true
	return total, nil
}

// PageCriteria is the criteria of the query fetching the requested page. Unlike Data it
// does not count the matching records, so the page is not clamped to the last one.
func (p *DataProvider) PageCriteria() *criteria.Criteria {
	c := p.criteria.Clone()
	if p.pagination != nil {
		c.Limit = p.pagination.Limit()
		c.Offset = p.pagination.RequestedPage() * p.pagination.PageSize
	}
	if p.sort != nil {
		c.AddOrder(p.sort.OrderBy(p.params))
	}
	return c
}

func (p *DataProvider) fetchData(s session.DbSession) ([]*record.Record, error) {
	c := p.criteria.Clone()
	if p.pagination != nil {
		total, err := p.TotalItemCount(s, false)
		if err != nil {
			return nil, err
		}
		p.pagination.SetItemCount(total)
		c.Limit = p.pagination.Limit()
		c.Offset = p.pagination.Offset()
	}
	if p.sort != nil {
		c.AddOrder(p.sort.OrderBy(p.params))
	}

	data, err := p.finder.FindAll(s, p.model, c)
	if err != nil {
		return nil, err
	}
	p.logger.Debug().
		Str("provider", p.id).
		Int("limit", c.Limit).
		Int("offset", c.Offset).
		Str("order", c.Order).
		Int("items", len(data)).
		Msg("page fetched")
	return data, nil
}
