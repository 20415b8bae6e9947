package provider

import (
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/criteria"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/record"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/session"
)

// Finder loads records of a model. store.Store is the database implementation.
type Finder interface {
	FindAll(s session.DbSession, model *schema.Model, c *criteria.Criteria) ([]*record.Record, error)
	Count(s session.DbSession, model *schema.Model, c *criteria.Criteria) (int64, error)
}
