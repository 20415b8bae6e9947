package pgx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/session"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/signals"
)

// Session runs queries on one pooled connection. Searches are read-only, so there is no
// transaction handling.
type Session struct {
	ctx            context.Context
	conn           querier
	onQueryStarted *signals.Emitter[session.QueryStartedEvent]
	onQueryEnded   *signals.Emitter[session.QueryEndedEvent]
}

func NewSession(ctx context.Context, conn *pgxpool.Conn) *Session {
	return newSession(ctx, conn)
}

func newSession(ctx context.Context, conn querier) *Session {
	return &Session{
		ctx:            ctx,
		conn:           conn,
		onQueryStarted: signals.NewSignal[session.QueryStartedEvent](),
		onQueryEnded:   signals.NewSignal[session.QueryEndedEvent](),
	}
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) Connection() session.DbConnection {
	return session.ObserveConnection(&connection{ctx: s.ctx, exec: s.conn}, s, s.onQueryStarted, s.onQueryEnded)
}

func (s *Session) OnQueryStarted() signals.Signal[session.QueryStartedEvent] {
	return s.onQueryStarted
}

func (s *Session) OnQueryEnded() signals.Signal[session.QueryEndedEvent] {
	return s.onQueryEnded
}

// querier is satisfied by *pgxpool.Conn, *pgxpool.Pool and pgx.Tx
type querier interface {
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

// connection implements session.DbConnection
type connection struct {
	ctx  context.Context
	exec querier
}

func (c *connection) Query(query string, args ...any) (session.Rows, error) {
	rows, err := c.exec.Query(c.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &rowsAdapter{rows: rows}, nil
}

func (c *connection) QueryRow(query string, args ...any) session.Row {
	return c.exec.QueryRow(c.ctx, query, args...)
}

// rowsAdapter gives pgx.Rows the error-returning Close of session.Rows
type rowsAdapter struct {
	rows pgx.Rows
}

func (r *rowsAdapter) Close() error {
	r.rows.Close()
	return nil
}

func (r *rowsAdapter) Err() error {
	return r.rows.Err()
}

func (r *rowsAdapter) Next() bool {
	return r.rows.Next()
}

func (r *rowsAdapter) Scan(dest ...any) error {
	return r.rows.Scan(dest...)
}
