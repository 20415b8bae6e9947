package main

import (
	"context"
	"database/sql"
	"io"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/session"
	pgxsession "github.com/krew-solutions/relatedsearch-go/relatedsearch/session/pgx"
	sqlsession "github.com/krew-solutions/relatedsearch-go/relatedsearch/session/sql"
)

func newQueryCommand(v *viper.Viper) *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a search and print the requested page as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(v, cmd.ErrOrStderr())
			run, err := prepareSearch(v, &f, logger)
			if err != nil {
				return err
			}
			pool, closePool, err := openPool(cmd.Context(), v, run)
			if err != nil {
				return err
			}
			defer closePool()
			return pool.Session(cmd.Context(), func(s session.DbSession) error {
				return writeJSON(cmd.OutOrStdout(), run, s)
			})
		},
	}
	f.register(cmd)
	return cmd
}

// openPool connects to the database of the search's dialect.
func openPool(ctx context.Context, v *viper.Viper, run *searchRun) (session.SessionPool, func(), error) {
	dsn := v.GetString("dsn")
	if dsn == "" {
		return nil, nil, errors.New("--dsn is required")
	}
	switch run.dialect.Name {
	case "postgres":
		pool, err := pgxsession.Connect(ctx, dsn, pgxsession.WithLogger(run.logger))
		if err != nil {
			return nil, nil, errors.Wrap(err, "unable to connect")
		}
		return pool, pool.Close, nil
	case "sqlite":
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, nil, errors.Wrap(err, "unable to open database")
		}
		return sqlsession.NewSessionPool(db, sqlsession.WithLogger(run.logger)), func() { _ = db.Close() }, nil
	default:
		return nil, nil, errors.Errorf("query does not support the %s dialect", run.dialect.Name)
	}
}

func writeJSON(w io.Writer, run *searchRun, s session.DbSession) error {
	data, err := run.provider.JSONData(s, false)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
