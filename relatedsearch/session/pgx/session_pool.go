package pgx

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/session"
)

type SessionPool struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

type Option func(*SessionPool)

// WithLogger logs every query of the pool's sessions.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *SessionPool) {
		p.logger = logger
	}
}

func NewSessionPool(pool *pgxpool.Pool, opts ...Option) *SessionPool {
	p := &SessionPool{pool: pool, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect opens a pool for dsn.
func Connect(ctx context.Context, dsn string, opts ...Option) (*SessionPool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewSessionPool(pool, opts...), nil
}

func (p *SessionPool) Session(ctx context.Context, callback session.SessionPoolCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	sess := NewSession(ctx, conn)
	defer session.LogQueries(sess, p.logger).Dispose()

	return callback(sess)
}

func (p *SessionPool) Close() {
	p.pool.Close()
}
