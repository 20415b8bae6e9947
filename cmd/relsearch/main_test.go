package main

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/utils/testutils"
)

const catalog = "testdata/cars.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestExplain_RelatedSearch(t *testing.T) {
	out, err := execute(t, "explain",
		"--schema", catalog,
		"--model", "Car",
		"--set", "make=Acme",
		"--sort", "qty.desc",
		"--page", "2",
		"--keen", "comments",
	)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "explain_related", []byte(out))
}

func TestExplain_SettingsFromEnvironment(t *testing.T) {
	t.Setenv("RELSEARCH_DIALECT", "sqlite")
	t.Setenv("RELSEARCH_PAGE_SIZE", "0")
	t.Setenv("RELSEARCH_MODEL", "Car")

	out, err := execute(t, "explain",
		"--schema", catalog,
		"--set", "qty=1",
		"--set", "qty=5",
	)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "explain_list", []byte(out))
}

func TestExplain_Errors(t *testing.T) {
	_, err := execute(t, "explain", "--model", "Car")
	assert.EqualError(t, err, "--schema is required")

	_, err = execute(t, "explain", "--schema", catalog, "--model", "Boat")
	assert.ErrorContains(t, err, `model "Boat" is not declared`)

	_, err = execute(t, "explain", "--schema", catalog, "--model", "Car", "--set", "make")
	assert.ErrorContains(t, err, "expected name=value")

	_, err = execute(t, "explain", "--schema", catalog, "--model", "Car", "--set", "vehicle_id=10")
	assert.ErrorIs(t, err, schema.ErrInvalidOperation)
}

func TestQuery_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "cars.db")
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	for _, stmt := range testutils.CarSchema {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, db.Close())

	out, err := execute(t, "query",
		"--schema", catalog,
		"--model", "Car",
		"--dialect", "sqlite",
		"--dsn", dsn,
		"--page-size", "2",
		"--set", "make=acme",
		"--sort", "name",
		"--keen", "comments",
	)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"itemCount": 2,
		"totalItemCount": 3,
		"currentPage": 0,
		"pageCount": 2,
		"pageSize": 2,
		"data": [
			{"id": 3, "name": "green scooter", "qty": 5, "vehicle_id": 12,
				"comments": [{"id": 103, "car_id": 3, "body": "tiny"}]},
			{"id": 4, "name": "grey roadster", "qty": 1, "vehicle_id": 10, "comments": []}
		]
	}`, out)
}

func TestQuery_RequiresDSN(t *testing.T) {
	_, err := execute(t, "query", "--schema", catalog, "--model", "Car")
	assert.EqualError(t, err, "--dsn is required")
}
