package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newExplainCommand(v *viper.Viper) *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Print the count and page queries of a search without running them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := prepareSearch(v, &f, newLogger(v, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			return explain(cmd.OutOrStdout(), run)
		},
	}
	f.register(cmd)
	return cmd
}

func explain(w io.Writer, run *searchRun) error {
	p := run.provider
	page := p.PageCriteria()

	count, countArgs, err := run.finder.CountSQL(run.model, p.Criteria())
	if err != nil {
		return err
	}
	query, args, err := run.finder.SQL(run.model, page)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "-- dialect: %s\n", run.dialect.Name)
	if p.Pagination() != nil {
		fmt.Fprintf(w, "-- count\n%s;\n-- args: %v\n", count, countArgs)
	}
	fmt.Fprintf(w, "-- page\n%s;\n-- args: %v\n", query, args)
	for i, group := range p.KeenGroups() {
		names := make([]string, len(group))
		for j, rel := range group {
			names[j] = rel.Name
		}
		fmt.Fprintf(w, "-- keen group %d: %s\n", i+1, strings.Join(names, ", "))
	}
	return nil
}
