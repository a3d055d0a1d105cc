package repositories

import "strings"

// QueryKind names the read a Query belongs to, so that hooks and filters can
// tell a children listing from a subtree fetch.
type QueryKind string

const (
	QueryGet         QueryKind = "get"
	QueryChildren    QueryKind = "children"
	QueryLevel       QueryKind = "level"
	QueryIDs         QueryKind = "ids"
	QueryRoots       QueryKind = "roots"
	QueryCount       QueryKind = "count"
	QueryDescendants QueryKind = "descendants"
	QueryAncestors   QueryKind = "ancestors"
)

// Query is the WHERE / ORDER BY part of a node read. Node columns are
// addressed through the alias "n" (for example "n.archived_at IS NULL").
// Arguments use "?" placeholders; each backend rebinds them.
type Query struct {
	kind  QueryKind
	conds []string
	args  []any
	order []string
}

// NewQuery starts an empty query of the given kind.
func NewQuery(kind QueryKind) *Query {
	return &Query{kind: kind}
}

func (q *Query) Kind() QueryKind { return q.kind }

// Where adds a condition. Conditions are joined with AND.
func (q *Query) Where(cond string, args ...any) *Query {
	q.conds = append(q.conds, "("+cond+")")
	q.args = append(q.args, args...)
	return q
}

// OrderBy replaces the ordering columns.
func (q *Query) OrderBy(cols ...string) *Query {
	q.order = append([]string(nil), cols...)
	return q
}

// Build renders the query as " WHERE ..." and " ORDER BY ..." fragments. Both
// are empty when there is nothing to render. The arguments follow the
// placeholders of the WHERE fragment in order.
func (q *Query) Build() (where, orderBy string, args []any) {
	if len(q.conds) > 0 {
		where = " WHERE " + strings.Join(q.conds, " AND ")
	}
	if len(q.order) > 0 {
		orderBy = " ORDER BY " + strings.Join(q.order, ", ")
	}
	return where, orderBy, q.args
}

// Filter narrows node reads, for example to hide archived nodes.
type Filter interface {
	Apply(q *Query)
}

// FilterFunc adapts a plain function to Filter.
type FilterFunc func(q *Query)

func (f FilterFunc) Apply(q *Query) { f(q) }

// ExcludeArchived hides nodes with a non-null archived_at.
var ExcludeArchived Filter = FilterFunc(func(q *Query) {
	q.Where("n.archived_at IS NULL")
})

// ReadOptions controls how a node read is narrowed.
type ReadOptions struct {
	Filter Filter
	// SkipFilter disables Filter. Structural maintenance reads set it so that
	// hidden nodes still take part in level shifts and deletes.
	SkipFilter bool
	// BeforeQuery sees the query after the filter is applied and may narrow
	// it further. An error aborts the read.
	BeforeQuery func(q *Query) error
}

// Unfiltered is the option set for structural reads.
var Unfiltered = ReadOptions{SkipFilter: true}

// Prepare applies the filter and the BeforeQuery callback to q.
func (o ReadOptions) Prepare(q *Query) error {
	if !o.SkipFilter && o.Filter != nil {
		o.Filter.Apply(q)
	}
	if o.BeforeQuery != nil {
		return o.BeforeQuery(q)
	}
	return nil
}
