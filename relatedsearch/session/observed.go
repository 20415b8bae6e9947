package session

import (
	"time"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/signals"
)

// ObserveConnection wraps conn so that every query is announced through started and ended.
func ObserveConnection(
	conn DbConnection,
	s DbSession,
	started signals.Signal[QueryStartedEvent],
	ended signals.Signal[QueryEndedEvent],
) DbConnection {
	return &observedConnection{conn: conn, session: s, started: started, ended: ended}
}

type observedConnection struct {
	conn    DbConnection
	session DbSession
	started signals.Signal[QueryStartedEvent]
	ended   signals.Signal[QueryEndedEvent]
}

func (c *observedConnection) Query(query string, args ...any) (Rows, error) {
	stmt := Statement{Query: query, Params: args, Session: c.session}
	c.started.Notify(QueryStartedEvent{Statement: stmt})
	start := time.Now()
	rows, err := c.conn.Query(query, args...)
	c.ended.Notify(QueryEndedEvent{Statement: stmt, ResponseTime: time.Since(start), Err: err})
	return rows, err
}

func (c *observedConnection) QueryRow(query string, args ...any) Row {
	stmt := Statement{Query: query, Params: args, Session: c.session}
	c.started.Notify(QueryStartedEvent{Statement: stmt})
	start := time.Now()
	row := c.conn.QueryRow(query, args...)
	c.ended.Notify(QueryEndedEvent{Statement: stmt, ResponseTime: time.Since(start)})
	return row
}
