package store

import (
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/criteria"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/dialect"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/relation"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
)

// selection is one column of the result set; path is the relation path, "" for the root.
type selection struct {
	path   string
	column string
}

// joined is one joined relation, listed parents first.
type joined struct {
	path     string
	parent   string
	relation schema.Relation
	model    *schema.Model
	selects  bool
}

type query struct {
	model      *schema.Model
	builder    sq.SelectBuilder
	selections []selection
	joins      []joined

	// expressions are the selected column references, without their result aliases
	expressions []string
}

type compileMode int

const (
	selectRows compileMode = iota
	countRows
)

func (s *Store) compile(model *schema.Model, c *criteria.Criteria, mode compileMode) (*query, error) {
	d := c.SQLDialect()
	root := model.TableAlias()
	q := &query{
		model:   model,
		builder: sq.Select().From(d.QuoteTableName(model.Table) + " " + d.QuoteSimpleName(root)),
	}

	switch {
	case mode == countRows && c.Group != "":
		q.builder = q.builder.Columns(c.Group)
	case mode == countRows:
		q.builder = q.builder.Distinct()
		for _, col := range model.PrimaryKey {
			q.builder = q.builder.Column(d.QuoteColumnName(root + "." + col))
		}
	default:
		columns, err := rootColumns(model, c.Select)
		if err != nil {
			return nil, err
		}
		for _, col := range columns {
			expr := d.QuoteColumnName(root + "." + col)
			q.builder = q.builder.Column(expr)
			q.selections = append(q.selections, selection{column: col})
			q.expressions = append(q.expressions, expr)
		}
	}

	var orders []string
	if err := s.joinAll(q, d, mode, "", model, root, c.With.Roots(), &orders); err != nil {
		return nil, err
	}

	if c.Condition != "" {
		q.builder = q.builder.Where(sq.Expr(c.Condition, c.Params...))
	}
	if c.Group != "" {
		q.builder = q.builder.GroupBy(c.Group)
	}
	if c.Having != "" {
		q.builder = q.builder.Having(c.Having)
	}
	if mode == countRows {
		return q, nil
	}

	if c.Order != "" {
		orders = append([]string{c.Order}, orders...)
	}
	if c.Distinct {
		grouped := false
		if c.Group == "" {
			orders, grouped = aggregateOrders(orders, q.expressions)
		}
		if grouped {
			q.builder = q.builder.GroupBy(q.expressions...)
		} else {
			q.builder = q.builder.Distinct()
		}
	}
	if len(orders) > 0 {
		q.builder = q.builder.OrderBy(orders...)
	}
	if c.Limit > 0 {
		q.builder = q.builder.Limit(uint64(c.Limit))
	}
	if c.Offset > 0 {
		q.builder = q.builder.Offset(uint64(c.Offset))
	}
	return q, nil
}

func (s *Store) joinAll(
	q *query, d dialect.Dialect, mode compileMode,
	parentPath string, parent *schema.Model, parentAlias string,
	nodes []*criteria.Join, orders *[]string,
) error {
	for _, node := range nodes {
		rel, ok := parent.Relation(node.Name)
		if !ok {
			return schema.NewConfigurationError(parent.Name, node.Name, "relation is not declared")
		}
		target, err := s.registry.Target(parent, rel)
		if err != nil {
			return err
		}
		path := node.Name
		if parentPath != "" {
			path = parentPath + "." + node.Name
		}

		clause, err := joinClause(d, node, rel, parent, parentAlias, target)
		if err != nil {
			return err
		}
		q.builder = q.builder.JoinClause(clause)

		alias := rel.TableAlias()
		j := joined{path: path, parent: parentPath, relation: rel, model: target}
		if mode == selectRows && !node.SelectsNone() {
			j.selects = true
			columns, err := rootColumns(target, node.Columns)
			if err != nil {
				return err
			}
			for _, col := range columns {
				expr := d.QuoteColumnName(alias + "." + col)
				q.builder = q.builder.Column(expr + " AS " + d.QuoteSimpleName(path+"."+col))
				q.selections = append(q.selections, selection{path: path, column: col})
				q.expressions = append(q.expressions, expr)
			}
		}
		q.joins = append(q.joins, j)
		if node.Order != "" {
			*orders = append(*orders, node.Order)
		}

		if err := s.joinAll(q, d, mode, path, target, alias, node.Children(), orders); err != nil {
			return err
		}
	}
	return nil
}

func joinClause(
	d dialect.Dialect, node *criteria.Join, rel schema.Relation,
	parent *schema.Model, parentAlias string, target *schema.Model,
) (string, error) {
	alias := rel.TableAlias()
	col := func(alias, column string) string {
		return d.QuoteColumnName(alias + "." + column)
	}
	table := func(t *schema.Model, alias string) string {
		return d.QuoteTableName(t.Table) + " " + d.QuoteSimpleName(alias)
	}
	if len(target.PrimaryKey) == 0 || len(parent.PrimaryKey) == 0 {
		return "", schema.NewConfigurationError(parent.Name, rel.Name, "joined models need a primary key")
	}

	var b strings.Builder
	b.WriteString(node.Type())
	b.WriteString(" ")
	switch rel.Kind {
	case schema.BelongsTo:
		b.WriteString(table(target, alias))
		b.WriteString(" ON " + col(alias, target.PrimaryKey[0]) + " = " + col(parentAlias, rel.ForeignKey))
	case schema.HasOne, schema.HasMany:
		b.WriteString(table(target, alias))
		b.WriteString(" ON " + col(alias, rel.ForeignKey) + " = " + col(parentAlias, parent.PrimaryKey[0]))
	case schema.ManyMany:
		junction := alias + "_" + rel.Through
		b.WriteString(d.QuoteTableName(rel.Through) + " " + d.QuoteSimpleName(junction))
		b.WriteString(" ON " + col(junction, rel.ForeignKey) + " = " + col(parentAlias, parent.PrimaryKey[0]))
		b.WriteString(" " + node.Type() + " " + table(target, alias))
		b.WriteString(" ON " + col(alias, target.PrimaryKey[0]) + " = " + col(junction, rel.ThroughKey))
	default:
		return "", schema.NewConfigurationError(parent.Name, rel.Name, "unsupported relation kind %s", rel.Kind)
	}
	if node.On != "" {
		b.WriteString(" AND (" + node.On + ")")
	}
	return b.String(), nil
}

var (
	orderDirection = regexp.MustCompile(`(?is)^(.*?)\s+(asc|desc)((?:\s+nulls\s+(?:first|last))?)\s*$`)
	orderNulls     = regexp.MustCompile(`(?is)^(.*?)(\s+nulls\s+(?:first|last))\s*$`)
)

// aggregateOrders prepares a distinct query whose order refers to columns outside the
// select list, which DISTINCT cannot sort on. Such terms become MIN (MAX when descending)
// over the rows of each distinct result row, and the query is grouped by its select list
// instead. It reports whether any term was rewritten.
func aggregateOrders(orders, selected []string) ([]string, bool) {
	known := make(map[string]struct{}, len(selected))
	for _, expr := range selected {
		known[normalizeExpr(expr)] = struct{}{}
	}

	rewritten := false
	var terms []string
	for _, order := range orders {
		for _, term := range relation.SplitClause(order) {
			expr, direction, nulls := splitOrderTerm(term.String())
			if _, ok := known[normalizeExpr(expr)]; ok {
				terms = append(terms, term.String())
				continue
			}
			fn := "MIN"
			if strings.EqualFold(direction, "DESC") {
				fn = "MAX"
			}
			t := fn + "(" + expr + ")"
			if direction != "" {
				t += " " + direction
			}
			terms = append(terms, t+nulls)
			rewritten = true
		}
	}
	if !rewritten {
		return orders, false
	}
	return terms, true
}

func splitOrderTerm(term string) (expr, direction, nulls string) {
	if m := orderDirection.FindStringSubmatch(term); m != nil {
		return m[1], m[2], m[3]
	}
	if m := orderNulls.FindStringSubmatch(term); m != nil {
		return m[1], "", m[2]
	}
	return term, "", ""
}

var exprNoise = strings.NewReplacer(`"`, "", "`", "", " ", "")

func normalizeExpr(expr string) string {
	return strings.ToLower(exprNoise.Replace(expr))
}

// rootColumns returns the selected columns of model, primary key first when not selected.
func rootColumns(model *schema.Model, selected []string) ([]string, error) {
	columns := selected
	if columns == nil {
		columns = model.Columns
	}
	if len(columns) == 0 {
		return nil, schema.NewConfigurationError(model.Name, "columns", "no columns to select")
	}
	var result []string
	for _, pk := range model.PrimaryKey {
		if !containsColumn(columns, pk) {
			result = append(result, pk)
		}
	}
	return append(result, columns...), nil
}

func containsColumn(columns []string, column string) bool {
	for _, c := range columns {
		if c == column {
			return true
		}
	}
	return false
}
