package provider

import (
	"net/url"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syreclabs.com/go/faker"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/criteria"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/record"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/sort"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/store"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/utils/testutils"
)

func newCarProvider(t *testing.T, c *criteria.Criteria, opts ...Option) *KeenDataProvider {
	t.Helper()
	registry := testutils.NewCarRegistry()
	car, ok := registry.Model("Car")
	require.True(t, ok)
	p, err := NewKeenDataProvider(car, store.New(registry), c, opts...)
	require.NoError(t, err)
	return p
}

// fakeCarRows returns n rows of the Car columns (id, name, qty, vehicle_id).
func fakeCarRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{
			int64(i + 1),
			faker.Commerce().ProductName(),
			int64(faker.RandomInt(1, 9)),
			int64(faker.RandomInt(10, 12)),
		}
	}
	return rows
}

func TestSetWithKeenLoading(t *testing.T) {
	cases := []struct {
		name   string
		value  any
		groups [][]string
	}{
		{"comma separated string", "comments, tags,,", [][]string{{"comments", "tags"}}},
		{"names", []string{"comments"}, [][]string{{"comments"}}},
		{"options map", map[string]criteria.JoinOptions{"tags": {}, "comments": {Order: "id"}}, [][]string{{"comments", "tags"}}},
		{"nested names", [][]string{{"comments"}, {"tags"}}, [][]string{{"comments"}, {"tags"}}},
		{"groups", []KeenGroup{{{Name: "comments"}}, {{Name: "tags"}}}, [][]string{{"comments"}, {"tags"}}},
		{"mixed", []any{"registration", []string{"comments"}, []any{"tags", "comments"}}, [][]string{{"comments"}, {"tags", "comments"}, {"registration"}}},
		{"nil clears", nil, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := newCarProvider(t, nil, WithKeenLoading("vehicle"))
			require.NoError(t, p.SetWithKeenLoading(c.value))
			var groups [][]string
			for _, g := range p.KeenGroups() {
				groups = append(groups, g.names())
			}
			assert.Equal(t, c.groups, groups)
		})
	}
}

func TestSetWithKeenLoading_RejectsUnsupportedValues(t *testing.T) {
	p := newCarProvider(t, nil)
	err := p.SetWithKeenLoading(42)
	assert.True(t, errors.Is(err, schema.ErrConfiguration))

	err = p.SetWithKeenLoading([]any{[]any{1}})
	assert.True(t, errors.Is(err, schema.ErrConfiguration))
}

func TestKeenLoading_OneQueryPerGroup(t *testing.T) {
	page := fakeCarRows(7)
	keen := testutils.NewRowsStub(
		[]any{int64(1), int64(101), int64(1), "fast"},
		[]any{int64(1), int64(102), int64(1), "loud"},
		[]any{int64(3), int64(103), int64(3), faker.Lorem().Sentence(3)},
		[]any{int64(5), nil, nil, nil},
	)
	sess := testutils.NewDbSessionStub(testutils.NewRowsStub(page...), keen)
	p := newCarProvider(t, nil, WithPageSize(0), WithKeenLoading("comments"))

	data, err := p.Data(sess, false)
	require.NoError(t, err)

	require.Len(t, sess.Queries, 2)
	batch := sess.Queries[1]
	assert.Contains(t, batch.SQL, `WHERE "t"."id" IN ($1, $2, $3, $4, $5, $6, $7)`)
	assert.Contains(t, batch.SQL, `LEFT JOIN "comments" "comments"`)
	assert.Equal(t, []any{int64(1), int64(2), int64(3), int64(4), int64(5), int64(6), int64(7)}, batch.Params)

	require.Len(t, data, len(page))
	for i, r := range data {
		assert.Equal(t, page[i][0], r.PrimaryKey()[0])
	}
	assert.Len(t, data[0].RelatedRecords("comments"), 2)
	assert.Len(t, data[2].RelatedRecords("comments"), 1)
	assert.True(t, data[4].HasRelated("comments"))
	assert.Empty(t, data[4].RelatedRecords("comments"))
	assert.False(t, data[1].HasRelated("comments"))
}

func TestKeenLoading_EmptyPageSkipsBatches(t *testing.T) {
	sess := testutils.NewDbSessionStub()
	p := newCarProvider(t, nil, WithPageSize(0), WithKeenLoading("comments"))

	data, err := p.Data(sess, false)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Len(t, sess.Queries, 1)
}

func TestKeenLoading_IndependentGroups(t *testing.T) {
	sess := testutils.NewDbSessionStub(testutils.NewRowsStub(fakeCarRows(3)...))
	p := newCarProvider(t, nil, WithPageSize(0), WithKeenLoading([][]string{{"comments"}, {"tags"}}))

	_, err := p.Data(sess, false)
	require.NoError(t, err)
	require.Len(t, sess.Queries, 3)
	assert.Contains(t, sess.Queries[1].SQL, `"comments"`)
	assert.NotContains(t, sess.Queries[1].SQL, `"tags"`)
	assert.Contains(t, sess.Queries[2].SQL, `"tags"`)
	assert.NotContains(t, sess.Queries[2].SQL, `"comments"`)
}

func TestKeenLoading_GroupErrorSurfaces(t *testing.T) {
	boom := errors.New("relation query failed")
	sess := testutils.NewDbSessionStub(testutils.NewRowsStub(fakeCarRows(2)...))
	sess.Errors = map[int]error{1: boom}
	p := newCarProvider(t, nil, WithPageSize(0), WithKeenLoading([][]string{{"comments"}, {"tags"}}))

	_, err := p.Data(sess, false)
	assert.Equal(t, boom, err)
	assert.Len(t, sess.Queries, 2)
}

func TestPrepareKeenLoading(t *testing.T) {
	c := criteria.New()
	c.With.Ensure("vehicle", criteria.JoinOptions{})
	c.With.Ensure("registration", criteria.JoinOptions{Columns: criteria.NoColumns()})
	c.With.Ensure("comments", criteria.JoinOptions{})
	p := newCarProvider(t, c, WithKeenLoading("vehicle, registration, comments"))

	p.prepareKeenLoading()

	assert.Equal(t, []string{"registration", "comments"}, p.KeenGroups()[0].names())
	assert.True(t, c.With.Find("comments").SelectsNone())
	assert.False(t, c.With.Find("vehicle").SelectsNone())
	assert.True(t, c.Distinct)
}

func TestKeenLoading_ExtraKeys(t *testing.T) {
	sess := testutils.NewDbSessionStub(testutils.NewRowsStub(fakeCarRows(1)...))
	p := newCarProvider(t, nil, WithPageSize(0), WithKeenLoading("tags"), WithExtraKeys("qty"))

	_, err := p.Data(sess, false)
	require.NoError(t, err)
	require.Len(t, sess.Queries, 2)
	assert.Contains(t, sess.Queries[1].SQL, `SELECT "t"."id", "t"."qty", "tags"."id" AS "tags.id"`)
}

func TestDataProvider_PaginatesAndSorts(t *testing.T) {
	sess := testutils.NewDbSessionStub(
		testutils.NewRowsStub([]any{int64(25)}),
		testutils.NewRowsStub(fakeCarRows(10)...),
	)
	params := url.Values{"Car_page": {"2"}, "Car_sort": {"name.desc"}}
	p := newCarProvider(t, nil, WithParams(params))
	p.Sort().Attributes["name"] = sortAttribute(`"t"."name"`)

	data, err := p.Data(sess, false)
	require.NoError(t, err)
	assert.Len(t, data, 10)
	require.Len(t, sess.Queries, 2)
	assert.Contains(t, sess.Queries[0].SQL, "SELECT COUNT(*)")
	assert.Contains(t, sess.ActualQuery(), `ORDER BY "t"."name" DESC LIMIT 10 OFFSET 10`)

	summary, err := p.CountData(sess)
	require.NoError(t, err)
	assert.Equal(t, CountSummary{ItemCount: 10, TotalItemCount: 25, CurrentPage: 1, PageCount: 3, PageSize: 10}, summary)
	assert.Len(t, sess.Queries, 2)
}

func TestKeenLoading_CopiesOnlyLoadedRelations(t *testing.T) {
	p := newCarProvider(t, nil, WithPageSize(0), WithKeenLoading("registration"))
	page := record.New(p.Model(), map[string]any{"id": int64(1)})
	page.SetRelated("vehicle", (*record.Record)(nil))

	sess := testutils.NewDbSessionStub(testutils.NewRowsStub([]any{int64(1), int64(7), int64(1), "AC-001"}))
	data, err := p.afterFetch(sess, []*record.Record{page})
	require.NoError(t, err)

	registration := data[0].RelatedRecords("registration")
	require.Len(t, registration, 1)
	assert.Equal(t, "AC-001", mustAttribute(t, registration[0], "plate"))
	assert.True(t, data[0].HasRelated("vehicle"))
	assert.False(t, data[0].HasRelated("comments"))
}

func sortAttribute(column string) sort.Attribute {
	return sort.Attribute{Asc: column, Desc: column + " DESC"}
}

func mustAttribute(t *testing.T, r *record.Record, name string) any {
	t.Helper()
	v, ok := r.Attribute(name)
	require.True(t, ok, name)
	return v
}

func TestKeenDataProvider_PageCriteria(t *testing.T) {
	c := criteria.New()
	c.With.Ensure("comments", criteria.JoinOptions{})
	params := url.Values{"Car_page": {"3"}, "Car_sort": {"name"}}
	p := newCarProvider(t, c, WithParams(params), WithPageSize(5), WithKeenLoading("comments"))
	p.Sort().Attributes["name"] = sortAttribute(`"t"."name"`)

	page := p.PageCriteria()
	assert.Equal(t, 5, page.Limit)
	assert.Equal(t, 10, page.Offset)
	assert.Equal(t, `"t"."name"`, page.Order)
	assert.True(t, page.Distinct)
	assert.True(t, page.With.Find("comments").SelectsNone())

	assert.Empty(t, c.Order)
	assert.Equal(t, -1, c.Limit)
}
