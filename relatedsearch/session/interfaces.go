package session

import (
	"context"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/signals"
)

// Rows is a forward-only cursor over a result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type Row interface {
	Scan(dest ...any) error
}

// DbConnection is read-only: searches never write.
type DbConnection interface {
	Query(query string, args ...any) (Rows, error)
	QueryRow(query string, args ...any) Row
}

// DbSession binds a connection to the context of one unit of work.
type DbSession interface {
	Context() context.Context
	Connection() DbConnection
}

type SessionPoolCallback func(DbSession) error

// SessionPool lends a session for the duration of callback.
type SessionPool interface {
	Session(context.Context, SessionPoolCallback) error
}

// EventfulSession announces every query it runs.
type EventfulSession interface {
	DbSession
	OnQueryStarted() signals.Signal[QueryStartedEvent]
	OnQueryEnded() signals.Signal[QueryEndedEvent]
}
