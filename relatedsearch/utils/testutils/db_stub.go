package testutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/session"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/signals"
)

// ExecutedQuery is one query the stub received.
type ExecutedQuery struct {
	SQL    string
	Params []any
}

// NewDbSessionStub answers the n-th query with the n-th result set; queries past the
// scripted ones get an empty result set.
func NewDbSessionStub(results ...*RowsStub) *DbSessionStub {
	stub := &DbSessionStub{
		Results:        results,
		onQueryStarted: signals.NewSignal[session.QueryStartedEvent](),
		onQueryEnded:   signals.NewSignal[session.QueryEndedEvent](),
	}
	stub.conn = &connectionStub{owner: stub}
	return stub
}

type DbSessionStub struct {
	Results []*RowsStub

	// Errors maps a query index to the error returned for it
	Errors map[int]error

	Queries        []ExecutedQuery
	conn           *connectionStub
	onQueryStarted *signals.Emitter[session.QueryStartedEvent]
	onQueryEnded   *signals.Emitter[session.QueryEndedEvent]
}

func (s *DbSessionStub) Context() context.Context {
	return context.Background()
}

func (s *DbSessionStub) Connection() session.DbConnection {
	return session.ObserveConnection(s.conn, s, s.onQueryStarted, s.onQueryEnded)
}

func (s *DbSessionStub) OnQueryStarted() signals.Signal[session.QueryStartedEvent] {
	return s.onQueryStarted
}

func (s *DbSessionStub) OnQueryEnded() signals.Signal[session.QueryEndedEvent] {
	return s.onQueryEnded
}

// ActualQuery is the last query received.
func (s *DbSessionStub) ActualQuery() string {
	if len(s.Queries) == 0 {
		return ""
	}
	return s.Queries[len(s.Queries)-1].SQL
}

// ActualParams are the parameters of the last query received.
func (s *DbSessionStub) ActualParams() []any {
	if len(s.Queries) == 0 {
		return nil
	}
	return s.Queries[len(s.Queries)-1].Params
}

func (s *DbSessionStub) next(query string, args []any) (*RowsStub, error) {
	idx := len(s.Queries)
	s.Queries = append(s.Queries, ExecutedQuery{SQL: query, Params: args})
	if err, ok := s.Errors[idx]; ok {
		return nil, err
	}
	if idx < len(s.Results) {
		return s.Results[idx], nil
	}
	return NewRowsStub(), nil
}

// connectionStub routes every query of the stub session to its next scripted result.
type connectionStub struct {
	owner *DbSessionStub
}

func (c *connectionStub) Query(query string, args ...any) (session.Rows, error) {
	rows, err := c.owner.next(query, args)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *connectionStub) QueryRow(query string, args ...any) session.Row {
	rows, err := c.owner.next(query, args)
	return rowStub{rows: rows, err: err}
}

// NewRowsStub scripts a result set; each row holds one value per selected column.
func NewRowsStub(rows ...[]any) *RowsStub {
	return &RowsStub{data: rows, cursor: -1}
}

type RowsStub struct {
	data   [][]any
	cursor int
	Closed bool

	// ScanErr is returned by every Scan when set
	ScanErr error

	// CloseErr is returned by Close when set
	CloseErr error
}

func (r *RowsStub) Next() bool {
	if r.cursor < len(r.data) {
		r.cursor++
	}
	return r.cursor < len(r.data)
}

// Scan converts each column value to its destination the way database/sql would for
// driver values: nil zeroes the destination and numeric kinds convert into each other.
func (r *RowsStub) Scan(dest ...any) error {
	if r.ScanErr != nil {
		return r.ScanErr
	}
	if r.cursor < 0 || r.cursor >= len(r.data) {
		return errors.New("rows stub: Scan called without a current row")
	}
	row := r.data[r.cursor]
	if len(row) != len(dest) {
		return fmt.Errorf("rows stub: %d columns scanned into %d destinations", len(row), len(dest))
	}
	for i := range row {
		if err := assign(dest[i], row[i]); err != nil {
			return fmt.Errorf("rows stub: column %d: %w", i, err)
		}
	}
	return nil
}

func (r *RowsStub) Err() error { return nil }

func (r *RowsStub) Close() error {
	r.Closed = true
	return r.CloseErr
}

func assign(dest, value any) error {
	if scanner, ok := dest.(sql.Scanner); ok {
		return scanner.Scan(value)
	}
	ptr := reflect.ValueOf(dest)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("destination %T is not a pointer", dest)
	}
	target := ptr.Elem()
	if value == nil {
		target.SetZero()
		return nil
	}
	v := reflect.ValueOf(value)
	if !v.Type().ConvertibleTo(target.Type()) {
		return fmt.Errorf("cannot store %T into %T", value, dest)
	}
	target.Set(v.Convert(target.Type()))
	return nil
}

type rowStub struct {
	rows *RowsStub
	err  error
}

func (r rowStub) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if !r.rows.Next() {
		return sql.ErrNoRows
	}
	return r.rows.Scan(dest...)
}
