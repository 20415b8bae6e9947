package sql

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/session"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/signals"
)

// Session runs queries through database/sql with the session's context.
type Session struct {
	ctx            context.Context
	db             DbQuerier
	onQueryStarted *signals.Emitter[session.QueryStartedEvent]
	onQueryEnded   *signals.Emitter[session.QueryEndedEvent]
}

func NewSession(ctx context.Context, db DbQuerier) *Session {
	return &Session{
		ctx:            ctx,
		db:             db,
		onQueryStarted: signals.NewSignal[session.QueryStartedEvent](),
		onQueryEnded:   signals.NewSignal[session.QueryEndedEvent](),
	}
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) Connection() session.DbConnection {
	return session.ObserveConnection(&connection{ctx: s.ctx, db: s.db}, s, s.onQueryStarted, s.onQueryEnded)
}

func (s *Session) OnQueryStarted() signals.Signal[session.QueryStartedEvent] {
	return s.onQueryStarted
}

func (s *Session) OnQueryEnded() signals.Signal[session.QueryEndedEvent] {
	return s.onQueryEnded
}

// DbQuerier is satisfied by *sql.DB, *sql.Conn and *sql.Tx
type DbQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type connection struct {
	ctx context.Context
	db  DbQuerier
}

func (c *connection) Query(query string, args ...any) (session.Rows, error) {
	rows, err := c.db.QueryContext(c.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *connection) QueryRow(query string, args ...any) session.Row {
	return c.db.QueryRowContext(c.ctx, query, args...)
}

type SessionPool struct {
	db     *sql.DB
	logger zerolog.Logger
}

type Option func(*SessionPool)

func WithLogger(logger zerolog.Logger) Option {
	return func(p *SessionPool) {
		p.logger = logger
	}
}

func NewSessionPool(db *sql.DB, opts ...Option) *SessionPool {
	p := &SessionPool{db: db, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *SessionPool) Session(ctx context.Context, callback session.SessionPoolCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sess := NewSession(ctx, p.db)
	defer session.LogQueries(sess, p.logger).Dispose()
	return callback(sess)
}
