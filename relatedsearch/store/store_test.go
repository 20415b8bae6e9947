package store

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/criteria"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/dialect"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/record"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/utils/testutils"
)

func newStore(t *testing.T) (*Store, *schema.Model) {
	registry := testutils.NewCarRegistry()
	car, ok := registry.Model("Car")
	require.True(t, ok)
	return New(registry), car
}

func TestSQL_RootOnly(t *testing.T) {
	s, car := newStore(t)
	c := criteria.New()
	c.AddCondition(`"t"."qty"=?`, "AND", 5)
	c.Order = `"t"."name"`
	c.Limit = 10
	c.Offset = 20

	sql, args, err := s.SQL(car, c)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "t"."id", "t"."name", "t"."qty", "t"."vehicle_id" FROM "cars" "t" `+
			`WHERE "t"."qty"=$1 ORDER BY "t"."name" LIMIT 10 OFFSET 20`,
		sql)
	assert.Equal(t, []any{5}, args)
}

func TestSQL_SelectAddsPrimaryKey(t *testing.T) {
	s, car := newStore(t)
	c := criteria.New()
	c.Select = []string{"name"}

	sql, _, err := s.SQL(car, c)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "t"."id", "t"."name" FROM "cars" "t"`, sql)
}

func TestSQL_Joins(t *testing.T) {
	s, car := newStore(t)
	c := criteria.New()
	c.Distinct = true
	c.With.Ensure("vehicle.manufacturer", criteria.JoinOptions{Columns: criteria.NoColumns()})
	c.With.Ensure("comments", criteria.JoinOptions{Columns: []string{"body"}, Order: `"comments"."id"`})
	c.With.Ensure("tags", criteria.JoinOptions{Columns: criteria.NoColumns(), On: `"tags"."name" <> ''`})
	c.With.Ensure("registration", criteria.JoinOptions{Columns: criteria.NoColumns(), JoinType: "INNER JOIN"})
	c.AddCondition(`"vehicle_manufacturer"."name" ILIKE ?`, "AND", "%Acme%")

	sql, args, err := s.SQL(car, c)
	require.NoError(t, err)
	assert.Contains(t, sql, `SELECT DISTINCT "t"."id"`)
	assert.Contains(t, sql, `LEFT JOIN "vehicles" "vehicle" ON "vehicle"."id" = "t"."vehicle_id"`)
	assert.Contains(t, sql,
		`LEFT JOIN "manufacturers" "vehicle_manufacturer" ON "vehicle_manufacturer"."id" = "vehicle"."manufacturer_id"`)
	assert.Contains(t, sql, `LEFT JOIN "comments" "comments" ON "comments"."car_id" = "t"."id"`)
	assert.Contains(t, sql, `"comments"."id" AS "comments.id", "comments"."body" AS "comments.body"`)
	assert.Contains(t, sql,
		`LEFT JOIN "car_tags" "tags_car_tags" ON "tags_car_tags"."car_id" = "t"."id" `+
			`LEFT JOIN "tags" "tags" ON "tags"."id" = "tags_car_tags"."tag_id" AND ("tags"."name" <> '')`)
	assert.Contains(t, sql, `INNER JOIN "registrations" "registration" ON "registration"."car_id" = "t"."id"`)
	assert.Contains(t, sql, `WHERE "vehicle_manufacturer"."name" ILIKE $1`)
	assert.Contains(t, sql, `ORDER BY "comments"."id"`)
	assert.NotContains(t, sql, `"vehicle"."name"`)
	assert.Equal(t, []any{"%Acme%"}, args)
}

func TestSQL_DistinctOrderedOutsideSelectList(t *testing.T) {
	s, car := newStore(t)
	c := criteria.New()
	c.Distinct = true
	c.With.Ensure("vehicle.manufacturer", criteria.JoinOptions{Columns: criteria.NoColumns()})
	c.With.Ensure("comments", criteria.JoinOptions{Columns: criteria.NoColumns()})
	c.Order = `"vehicle_manufacturer"."name" DESC NULLS LAST, t.qty, "comments"."body"`
	c.Limit = 10

	sql, _, err := s.SQL(car, c)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "t"."id", "t"."name", "t"."qty", "t"."vehicle_id" FROM "cars" "t" `+
			`LEFT JOIN "vehicles" "vehicle" ON "vehicle"."id" = "t"."vehicle_id" `+
			`LEFT JOIN "manufacturers" "vehicle_manufacturer" ON "vehicle_manufacturer"."id" = "vehicle"."manufacturer_id" `+
			`LEFT JOIN "comments" "comments" ON "comments"."car_id" = "t"."id" `+
			`GROUP BY "t"."id", "t"."name", "t"."qty", "t"."vehicle_id" `+
			`ORDER BY MAX("vehicle_manufacturer"."name") DESC NULLS LAST, t.qty, MIN("comments"."body") LIMIT 10`,
		sql)

	count, _, err := s.CountSQL(car, c)
	require.NoError(t, err)
	assert.Contains(t, count, `SELECT COUNT(*) FROM (SELECT DISTINCT "t"."id" FROM "cars" "t" `)
}

func TestSQL_DistinctOrderedBySelectedColumns(t *testing.T) {
	s, car := newStore(t)
	c := criteria.New()
	c.Distinct = true
	c.With.Ensure("vehicle", criteria.JoinOptions{Columns: []string{"name"}})
	c.Order = `"vehicle"."name" DESC, "t"."id"`

	sql, _, err := s.SQL(car, c)
	require.NoError(t, err)
	assert.Contains(t, sql, `SELECT DISTINCT "t"."id"`)
	assert.Contains(t, sql, `ORDER BY "vehicle"."name" DESC, "t"."id"`)
	assert.NotContains(t, sql, "GROUP BY")
}

func TestSQL_UndeclaredRelation(t *testing.T) {
	s, car := newStore(t)
	c := criteria.New()
	c.With.Ensure("garage", criteria.JoinOptions{})

	_, _, err := s.SQL(car, c)
	assert.True(t, errors.Is(err, schema.ErrConfiguration))
}

func TestSQL_SQLiteDialect(t *testing.T) {
	s, car := newStore(t)
	c := criteria.New()
	c.Dialect = dialect.SQLite
	c.AddCondition(`"t"."name" LIKE ? ESCAPE '\'`, "AND", "%red%")

	sql, args, err := s.SQL(car, c)
	require.NoError(t, err)
	assert.Contains(t, sql, `WHERE "t"."name" LIKE ? ESCAPE '\'`)
	assert.Equal(t, []any{"%red%"}, args)
}

func TestCountSQL(t *testing.T) {
	s, car := newStore(t)
	c := criteria.New()
	c.With.Ensure("vehicle", criteria.JoinOptions{})
	c.AddCondition(`"vehicle"."name"=?`, "AND", "Roadster")
	c.Order = `"t"."name"`
	c.Limit = 10

	sql, args, err := s.CountSQL(car, c)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT COUNT(*) FROM (SELECT DISTINCT "t"."id" FROM "cars" "t" `+
			`LEFT JOIN "vehicles" "vehicle" ON "vehicle"."id" = "t"."vehicle_id" `+
			`WHERE "vehicle"."name"=$1) AS c`,
		sql)
	assert.Equal(t, []any{"Roadster"}, args)
}

func TestCountSQL_Grouped(t *testing.T) {
	s, car := newStore(t)
	c := criteria.New()
	c.Group = `"t"."qty"`

	sql, _, err := s.CountSQL(car, c)
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM (SELECT "t"."qty" FROM "cars" "t" GROUP BY "t"."qty") AS c`, sql)
}

func TestFindAll_HydratesPluralRelation(t *testing.T) {
	s, car := newStore(t)
	c := criteria.New()
	c.With.Ensure("comments", criteria.JoinOptions{})
	c.With.Ensure("vehicle", criteria.JoinOptions{Columns: criteria.NoColumns()})

	rows := testutils.NewRowsStub(
		[]any{int64(1), "red roadster", int64(5), int64(10), int64(101), int64(1), "fast"},
		[]any{int64(1), "red roadster", int64(5), int64(10), int64(102), int64(1), "loud"},
		[]any{int64(1), "red roadster", int64(5), int64(10), int64(101), int64(1), "fast"},
		[]any{int64(2), []byte("blue hauler"), int64(3), int64(11), nil, nil, nil},
	)
	sess := testutils.NewDbSessionStub(rows)

	records, err := s.FindAll(sess, car, c)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, rows.Closed)
	assert.Len(t, sess.Queries, 1)

	first := records[0]
	assert.Equal(t, "Car[1]", first.String())
	comments := first.RelatedRecords("comments")
	require.Len(t, comments, 2)
	assert.Equal(t, "fast", mustAttribute(t, comments[0], "body"))
	assert.Equal(t, "loud", mustAttribute(t, comments[1], "body"))
	assert.False(t, first.HasRelated("vehicle"))

	second := records[1]
	assert.Equal(t, "blue hauler", mustAttribute(t, second, "name"))
	related, ok := second.Related("comments")
	require.True(t, ok)
	assert.Equal(t, []*record.Record{}, related)
}

func TestFindAll_HydratesNestedSingularRelation(t *testing.T) {
	s, car := newStore(t)
	c := criteria.New()
	c.Select = []string{"id"}
	c.With.Ensure("vehicle.manufacturer", criteria.JoinOptions{Columns: []string{"name"}})
	c.With.Find("vehicle").Columns = []string{"name"}

	rows := testutils.NewRowsStub(
		[]any{int64(1), int64(10), "Roadster", int64(1), "Acme"},
		[]any{int64(4), int64(10), "Roadster", int64(1), "Acme"},
		[]any{int64(5), nil, nil, nil, nil},
	)
	records, err := s.FindAll(testutils.NewDbSessionStub(rows), car, c)
	require.NoError(t, err)
	require.Len(t, records, 3)

	v1, ok := records[0].Value("vehicle.manufacturer.name")
	require.True(t, ok)
	assert.Equal(t, "Acme", v1)

	vehicle1, _ := records[0].Related("vehicle")
	vehicle4, _ := records[1].Related("vehicle")
	assert.Same(t, vehicle1, vehicle4)

	vehicle5, ok := records[2].Related("vehicle")
	require.True(t, ok)
	assert.Nil(t, vehicle5)
}

func TestFindAll_QueryErrorIsReturnedUnchanged(t *testing.T) {
	s, car := newStore(t)
	boom := errors.New("connection reset")
	sess := testutils.NewDbSessionStub()
	sess.Errors = map[int]error{0: boom}

	_, err := s.FindAll(sess, car, criteria.New())
	assert.Equal(t, boom, err)
}

func TestFindAll_ScanAndCloseErrorsAreCombined(t *testing.T) {
	s, car := newStore(t)
	scanErr := errors.New("bad value")
	closeErr := errors.New("close failed")
	rows := testutils.NewRowsStub([]any{int64(1), "x", int64(1), int64(1)})
	rows.ScanErr = scanErr
	rows.CloseErr = closeErr

	_, err := s.FindAll(testutils.NewDbSessionStub(rows), car, criteria.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, scanErr))
	assert.True(t, errors.Is(err, closeErr))
}

func TestCount(t *testing.T) {
	s, car := newStore(t)
	sess := testutils.NewDbSessionStub(testutils.NewRowsStub([]any{int64(42)}))

	n, err := s.Count(sess, car, criteria.New())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.Contains(t, sess.ActualQuery(), "SELECT COUNT(*)")
}

func mustAttribute(t *testing.T, r *record.Record, name string) any {
	t.Helper()
	v, ok := r.Attribute(name)
	require.True(t, ok, name)
	return v
}
