// Package metrics exposes tree operation counters to Prometheus. Counters
// are fed by hook listeners, so they only move when a mutation reaches its
// After* point; a rolled back transaction may still have been counted if a
// later listener fails.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"sortabletree/internal/service/tree"
)

// TreeMetrics holds the tree counters
type TreeMetrics struct {
	operations   *prometheus.CounterVec
	deletedNodes prometheus.Counter
	treeQueries  prometheus.Counter
}

// NewTreeMetrics creates the counters and registers them with reg
func NewTreeMetrics(reg prometheus.Registerer) *TreeMetrics {
	m := &TreeMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sortabletree",
			Name:      "operations_total",
			Help:      "Completed tree mutations by operation.",
		}, []string{"operation"}),
		deletedNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sortabletree",
			Name:      "deleted_nodes_total",
			Help:      "Nodes removed by recursive deletes.",
		}),
		treeQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sortabletree",
			Name:      "tree_queries_total",
			Help:      "Subtree and ancestor reads issued.",
		}),
	}
	reg.MustRegister(m.operations, m.deletedNodes, m.treeQueries)
	return m
}

// Attach registers the counting listeners on hooks
func (m *TreeMetrics) Attach(hooks *tree.Hooks) {
	hooks.On(tree.AfterAdd, func(ctx context.Context, e *tree.Event) error {
		m.operations.WithLabelValues("add").Inc()
		return nil
	})
	hooks.On(tree.AfterMove, func(ctx context.Context, e *tree.Event) error {
		m.operations.WithLabelValues("move").Inc()
		return nil
	})
	hooks.On(tree.AfterDelete, func(ctx context.Context, e *tree.Event) error {
		m.operations.WithLabelValues("delete").Inc()
		m.deletedNodes.Add(float64(e.Deleted))
		return nil
	})
	hooks.On(tree.BeforeTreeQuery, func(ctx context.Context, e *tree.Event) error {
		m.treeQueries.Inc()
		return nil
	})
}
