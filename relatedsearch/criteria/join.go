package criteria

import "strings"

const LeftJoin = "LEFT JOIN"

// JoinOptions configures how one relation is joined.
type JoinOptions struct {
	// Columns lists the related columns to select: nil selects all of them, an empty
	// non-nil slice selects none (the join only serves conditions and ordering)
	Columns []string

	// JoinType defaults to LEFT JOIN
	JoinType string

	// On is an additional raw condition ANDed into the join's ON clause
	On string

	// Order is appended to the query's ORDER BY when the relation is joined
	Order string
}

// NoColumns is the column selection of a join that loads nothing.
func NoColumns() []string {
	return []string{}
}

// Join is one node of the relation join forest.
type Join struct {
	Name string
	JoinOptions
	children []*Join
}

func (j *Join) Children() []*Join {
	return j.children
}

// SelectsNone reports whether the join loads no related columns.
func (j *Join) SelectsNone() bool {
	return j.Columns != nil && len(j.Columns) == 0
}

func (j *Join) Type() string {
	if j.JoinType == "" {
		return LeftJoin
	}
	return j.JoinType
}

func (j *Join) child(name string) *Join {
	for _, c := range j.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (j *Join) merge(other *Join) {
	j.Columns = mergeColumns(j.Columns, other.Columns)
	if j.JoinType == "" {
		j.JoinType = other.JoinType
	}
	if j.On == "" {
		j.On = other.On
	}
	if j.Order == "" {
		j.Order = other.Order
	}
	for _, oc := range other.children {
		if c := j.child(oc.Name); c != nil {
			c.merge(oc)
		} else {
			j.children = append(j.children, oc.clone())
		}
	}
}

func (j *Join) clone() *Join {
	c := &Join{Name: j.Name, JoinOptions: j.JoinOptions}
	if j.Columns != nil {
		c.Columns = append([]string{}, j.Columns...)
	}
	for _, ch := range j.children {
		c.children = append(c.children, ch.clone())
	}
	return c
}

// With is an ordered forest of relation joins keyed by relation path. Paths sharing a
// prefix share the prefix nodes.
type With struct {
	roots []*Join
}

// Ensure makes sure the dotted relation path is present. The final node gets opts (merged
// into it when already present); intermediate nodes created on the way select nothing when
// opts selects nothing and everything otherwise.
func (w *With) Ensure(path string, opts JoinOptions) *Join {
	segments := strings.Split(path, ".")
	var parent *Join
	var node *Join
	for i, seg := range segments {
		last := i == len(segments)-1
		if parent == nil {
			node = w.root(seg)
		} else {
			node = parent.child(seg)
		}
		if node == nil {
			node = &Join{Name: seg}
			switch {
			case last:
				node.JoinOptions = opts
				if opts.Columns != nil {
					node.Columns = append([]string{}, opts.Columns...)
				}
			case opts.Columns != nil && len(opts.Columns) == 0:
				node.Columns = NoColumns()
			}
			if parent == nil {
				w.roots = append(w.roots, node)
			} else {
				parent.children = append(parent.children, node)
			}
		} else if last {
			node.merge(&Join{Name: seg, JoinOptions: opts})
		}
		parent = node
	}
	return node
}

// Find returns the node at the dotted relation path.
func (w *With) Find(path string) *Join {
	var node *Join
	for i, seg := range strings.Split(path, ".") {
		if i == 0 {
			node = w.root(seg)
		} else {
			node = node.child(seg)
		}
		if node == nil {
			return nil
		}
	}
	return node
}

// Merge merges other into w by relation path.
func (w *With) Merge(other With) {
	for _, oj := range other.roots {
		if j := w.root(oj.Name); j != nil {
			j.merge(oj)
		} else {
			w.roots = append(w.roots, oj.clone())
		}
	}
}

func (w *With) Roots() []*Join {
	return w.roots
}

func (w *With) IsEmpty() bool {
	return len(w.roots) == 0
}

// Paths lists every node as a dotted path, parents before children.
func (w *With) Paths() []string {
	var paths []string
	var walk func(prefix string, nodes []*Join)
	walk = func(prefix string, nodes []*Join) {
		for _, n := range nodes {
			p := n.Name
			if prefix != "" {
				p = prefix + "." + n.Name
			}
			paths = append(paths, p)
			walk(p, n.children)
		}
	}
	walk("", w.roots)
	return paths
}

func (w With) Clone() With {
	var c With
	for _, r := range w.roots {
		c.roots = append(c.roots, r.clone())
	}
	return c
}

func (w *With) root(name string) *Join {
	for _, r := range w.roots {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// mergeColumns keeps the broader selection: all beats a list, lists are unioned.
func mergeColumns(a, b []string) []string {
	if a == nil || b == nil {
		return nil
	}
	result := append([]string{}, a...)
	for _, col := range b {
		if !contains(result, col) {
			result = append(result, col)
		}
	}
	return result
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
