package sql_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/session"
	sqlsession "github.com/krew-solutions/relatedsearch-go/relatedsearch/session/sql"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/utils/testutils"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		lines = append(lines, entry)
	}
	return lines
}

func TestSessionPool_LogsQueries(t *testing.T) {
	db := testutils.NewSQLiteDB(t, testutils.CarSchema...)
	var buf bytes.Buffer
	pool := sqlsession.NewSessionPool(db, sqlsession.WithLogger(zerolog.New(&buf)))

	var name string
	err := pool.Session(context.Background(), func(s session.DbSession) error {
		return s.Connection().QueryRow(`SELECT name FROM cars WHERE id = ?`, 2).Scan(&name)
	})
	require.NoError(t, err)
	assert.Equal(t, "blue hauler", name)

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "SELECT name FROM cars WHERE id = ?", lines[0]["sql"])
	assert.Equal(t, []any{float64(2)}, lines[0]["params"])
}

func TestSessionPool_LogsFailedQueriesAsErrors(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	var buf bytes.Buffer
	pool := sqlsession.NewSessionPool(db, sqlsession.WithLogger(zerolog.New(&buf)))

	err := pool.Session(context.Background(), func(s session.DbSession) error {
		_, err := s.Connection().Query(`SELECT * FROM boats`)
		return err
	})
	require.Error(t, err)

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "error", lines[0]["level"])
	assert.Contains(t, lines[0]["error"], "no such table")
}

func TestSessionPool_StopsLoggingAfterSession(t *testing.T) {
	db := testutils.NewSQLiteDB(t, testutils.CarSchema...)
	var buf bytes.Buffer
	pool := sqlsession.NewSessionPool(db, sqlsession.WithLogger(zerolog.New(&buf)))

	var leaked session.DbSession
	require.NoError(t, pool.Session(context.Background(), func(s session.DbSession) error {
		leaked = s
		return nil
	}))
	rows, err := leaked.Connection().Query(`SELECT id FROM cars`)
	require.NoError(t, err)
	require.NoError(t, rows.Close())
	assert.Empty(t, buf.String())
}

func TestSessionPool_CancelledContext(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	pool := sqlsession.NewSessionPool(db)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := pool.Session(ctx, func(session.DbSession) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestSession_AnnouncesQueries(t *testing.T) {
	db := testutils.NewSQLiteDB(t, testutils.CarSchema...)
	s := sqlsession.NewSession(context.Background(), db)

	var started []session.QueryStartedEvent
	var ended []session.QueryEndedEvent
	s.OnQueryStarted().Attach(func(e session.QueryStartedEvent) { started = append(started, e) })
	s.OnQueryEnded().Attach(func(e session.QueryEndedEvent) { ended = append(ended, e) })

	rows, err := s.Connection().Query(`SELECT id FROM cars WHERE qty = ? ORDER BY id`, 5)
	require.NoError(t, err)
	var ids []int64
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Equal(t, []int64{1, 3}, ids)

	require.Len(t, started, 1)
	require.Len(t, ended, 1)
	assert.Equal(t, started[0].Statement, ended[0].Statement)
	assert.Equal(t, []any{5}, ended[0].Params)
	assert.Same(t, s, ended[0].Session)
	assert.NoError(t, ended[0].Err)
}
