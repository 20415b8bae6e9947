package search

import (
	"github.com/rs/zerolog"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/criteria"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/dialect"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/provider"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/relation"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
)

// Scenario is the owner scenario in which virtual attributes hold search values.
const Scenario = "search"

// Owner is the record a Behavior is attached to.
type Owner interface {
	Model() *schema.Model
	Scenario() string
	IsAttributeSafe(name string) bool
	Attribute(name string) (any, bool)

	// Value follows a dotted path through the owner's attributes and loaded relations
	Value(path string) (any, bool)
}

// ScopedOwner accumulates scope conditions in a live criteria until the next query.
type ScopedOwner interface {
	Owner
	DbCriteria() *criteria.Criteria
	ApplyScopes(c *criteria.Criteria)
}

// State holds the submitted search values keyed by lowercased attribute name.
type State map[string]any

// Behavior translates searches and sorts on the owner's logical attributes into joins and
// alias-qualified column references.
type Behavior struct {
	owner    Owner
	finder   provider.Finder
	resolver *relation.Resolver
	dialect  dialect.Dialect
	config   provider.Config
	logger   zerolog.Logger
	state    State
}

type Option func(*Behavior)

func WithDialect(d dialect.Dialect) Option {
	return func(b *Behavior) {
		b.dialect = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(b *Behavior) {
		b.logger = logger
	}
}

// WithConfig sets the provider defaults: page size and request parameter names.
func WithConfig(config provider.Config) Option {
	return func(b *Behavior) {
		b.config = config
	}
}

func NewBehavior(owner Owner, registry *schema.Registry, finder provider.Finder, opts ...Option) *Behavior {
	b := &Behavior{
		owner:   owner,
		finder:  finder,
		dialect: dialect.Postgres,
		config:  provider.DefaultConfig(),
		logger:  zerolog.Nop(),
		state:   State{},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.resolver = relation.NewResolver(registry, owner.Model(), b.dialect)
	return b
}

func (b *Behavior) Owner() Owner {
	return b.owner
}

func (b *Behavior) Resolver() *relation.Resolver {
	return b.resolver
}

// SearchState returns a copy of the submitted search values.
func (b *Behavior) SearchState() State {
	state := make(State, len(b.state))
	for k, v := range b.state {
		state[k] = v
	}
	return state
}

func (b *Behavior) isSearch() bool {
	return b.owner.Scenario() == Scenario
}

func (b *Behavior) model() *schema.Model {
	return b.owner.Model()
}
