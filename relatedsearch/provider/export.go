package provider

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/session"
)

// CountSummary describes the fetched page. CurrentPage is 0-based; without pagination it is
// 1 and the whole result is one page.
type CountSummary struct {
	ItemCount      int   `json:"itemCount"`
	TotalItemCount int64 `json:"totalItemCount"`
	CurrentPage    int   `json:"currentPage"`
	PageCount      int   `json:"pageCount"`
	PageSize       int   `json:"pageSize"`
}

func (p *KeenDataProvider) CountData(s session.DbSession) (CountSummary, error) {
	total, err := p.TotalItemCount(s, false)
	if err != nil {
		return CountSummary{}, err
	}
	summary := CountSummary{
		ItemCount:      p.ItemCount(),
		TotalItemCount: total,
		CurrentPage:    1,
		PageCount:      1,
		PageSize:       p.ItemCount(),
	}
	if p.pagination != nil {
		p.pagination.SetItemCount(total)
		summary.CurrentPage = p.pagination.CurrentPage()
		summary.PageCount = p.pagination.PageCount()
		summary.PageSize = p.pagination.PageSize
	}
	return summary, nil
}

// ArrayData converts the current page with Export. With IncludeDataProviderInformation the
// records are returned under "data" next to the count summary fields.
func (p *KeenDataProvider) ArrayData(s session.DbSession, refresh bool) (any, error) {
	data, err := p.Data(s, refresh)
	if err != nil {
		return nil, err
	}
	items := p.Export.ConvertAll(data)
	if !p.IncludeDataProviderInformation {
		return items, nil
	}

	summary, err := p.CountData(s)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"itemCount":      summary.ItemCount,
		"totalItemCount": summary.TotalItemCount,
		"currentPage":    summary.CurrentPage,
		"pageCount":      summary.PageCount,
		"pageSize":       summary.PageSize,
		"data":           items,
	}, nil
}

func (p *KeenDataProvider) JSONData(s session.DbSession, refresh bool) ([]byte, error) {
	v, err := p.ArrayData(s, refresh)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode data")
	}
	return b, nil
}
