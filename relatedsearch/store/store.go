package store

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/criteria"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/record"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/session"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/session/identitymap"
)

// Store runs criteria against a database session and hydrates records with their joined
// relations.
type Store struct {
	registry *schema.Registry
	logger   zerolog.Logger
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func New(registry *schema.Registry, opts ...Option) *Store {
	s := &Store{registry: registry, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SQL returns the query FindAll would run.
func (s *Store) SQL(model *schema.Model, c *criteria.Criteria) (string, []any, error) {
	q, err := s.compile(model, c, selectRows)
	if err != nil {
		return "", nil, err
	}
	return s.toSQL(q.builder.PlaceholderFormat(c.SQLDialect().Placeholder))
}

// CountSQL returns the query Count would run.
func (s *Store) CountSQL(model *schema.Model, c *criteria.Criteria) (string, []any, error) {
	q, err := s.compile(model, c, countRows)
	if err != nil {
		return "", nil, err
	}
	builder := sq.Select("COUNT(*)").
		FromSelect(q.builder.PlaceholderFormat(sq.Question), "c").
		PlaceholderFormat(c.SQLDialect().Placeholder)
	return s.toSQL(builder)
}

// FindAll returns the records of model matching c, in result order, each root record once.
func (s *Store) FindAll(sess session.DbSession, model *schema.Model, c *criteria.Criteria) ([]*record.Record, error) {
	q, err := s.compile(model, c, selectRows)
	if err != nil {
		return nil, err
	}
	sql, args, err := s.toSQL(q.builder.PlaceholderFormat(c.SQLDialect().Placeholder))
	if err != nil {
		return nil, err
	}

	rows, err := sess.Connection().Query(sql, args...)
	if err != nil {
		return nil, err
	}
	h := newHydrator(q)
	err = h.consume(rows)
	if closeErr := rows.Close(); closeErr != nil {
		if err != nil {
			err = multierror.Append(err, closeErr)
		} else {
			err = closeErr
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("model", model.Name).
		Int("rows", h.rows).
		Int("records", len(h.roots)).
		Msg("hydrated")
	return h.roots, nil
}

// Count returns the number of distinct records of model matching c, or the number of groups
// when c is grouped. Order, limit and offset are ignored.
func (s *Store) Count(sess session.DbSession, model *schema.Model, c *criteria.Criteria) (int64, error) {
	sql, args, err := s.CountSQL(model, c)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := sess.Connection().QueryRow(sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) toSQL(builder sq.SelectBuilder) (string, []any, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return "", nil, errors.Wrap(err, "unable to build query")
	}
	return sql, args, nil
}

type recordKey struct {
	identitymap.KeyOf[*record.Record]
	model string
	pk    string
}

type attachment struct {
	parent   *record.Record
	relation string
	child    *record.Record
}

type hydrator struct {
	q        *query
	identity *identitymap.IdentityMap
	roots    []*record.Record
	rootSeen map[*record.Record]struct{}
	attached map[attachment]struct{}
	rows     int
}

func newHydrator(q *query) *hydrator {
	return &hydrator{
		q:        q,
		identity: identitymap.New(),
		rootSeen: make(map[*record.Record]struct{}),
		attached: make(map[attachment]struct{}),
	}
}

func (h *hydrator) consume(rows session.Rows) error {
	values := make([]any, len(h.q.selections))
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		h.row(values)
		h.rows++
	}
	return rows.Err()
}

func (h *hydrator) row(values []any) {
	byPath := make(map[string]map[string]any, len(h.q.joins)+1)
	for i, sel := range h.q.selections {
		attrs := byPath[sel.path]
		if attrs == nil {
			attrs = make(map[string]any)
			byPath[sel.path] = attrs
		}
		v := values[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		attrs[sel.column] = v
	}

	root := h.materialize(h.q.model, byPath[""])
	if _, ok := h.rootSeen[root]; !ok {
		h.rootSeen[root] = struct{}{}
		h.roots = append(h.roots, root)
	}

	loaded := map[string]*record.Record{"": root}
	for _, j := range h.q.joins {
		parent := loaded[j.parent]
		if parent == nil || !j.selects {
			continue
		}
		attrs := byPath[j.path]
		var child *record.Record
		if !allNil(primaryKey(j.model, attrs)) {
			child = h.materialize(j.model, attrs)
		}
		loaded[j.path] = child
		h.attach(parent, j.relation, child)
	}
}

func (h *hydrator) materialize(model *schema.Model, attrs map[string]any) *record.Record {
	key := recordKey{model: model.Name, pk: record.Key(primaryKey(model, attrs))}
	rec, existed := identitymap.GetOrAdd(h.identity, key, func() *record.Record {
		return record.New(model, attrs)
	})
	if existed {
		for name, v := range attrs {
			if _, ok := rec.Attribute(name); !ok {
				rec.SetAttribute(name, v)
			}
		}
	}
	return rec
}

// attach stores child under the relation. An absent singular relation is nil, an absent
// plural one an empty slice; plural children appear once per parent.
func (h *hydrator) attach(parent *record.Record, rel schema.Relation, child *record.Record) {
	if rel.Kind.IsSingular() {
		if child != nil || !parent.HasRelated(rel.Name) {
			parent.SetRelated(rel.Name, child)
		}
		return
	}

	current, _ := parent.Related(rel.Name)
	children, _ := current.([]*record.Record)
	if children == nil {
		children = []*record.Record{}
	}
	if child != nil {
		a := attachment{parent: parent, relation: rel.Name, child: child}
		if _, ok := h.attached[a]; !ok {
			h.attached[a] = struct{}{}
			children = append(children, child)
		}
	}
	parent.SetRelated(rel.Name, children)
}

func primaryKey(model *schema.Model, attrs map[string]any) []any {
	pk := make([]any, len(model.PrimaryKey))
	for i, col := range model.PrimaryKey {
		pk[i] = attrs[col]
	}
	return pk
}

func allNil(values []any) bool {
	for _, v := range values {
		if v != nil {
			return false
		}
	}
	return true
}
