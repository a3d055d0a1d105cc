package tree

import (
	"context"
	"fmt"
	"sync"

	"sortabletree/internal/domain/models"
	"sortabletree/internal/domain/repositories"
)

// HookPoint names a moment in a tree operation where listeners run
type HookPoint string

const (
	AfterAdd        HookPoint = "tree.after_add"
	BeforeMove      HookPoint = "tree.before_move"
	AfterMove       HookPoint = "tree.after_move"
	BeforeDelete    HookPoint = "tree.before_delete"
	AfterDelete     HookPoint = "tree.after_delete"
	BeforeTreeQuery HookPoint = "tree.before_tree_query"
)

// Event is passed to listeners. Which fields are set depends on Point:
//
//   - AfterAdd: Node (as stored), Tx
//   - BeforeMove: Node (old placement), NewParentID, TargetID, Position, Tx
//   - AfterMove: Node (new placement), PreviousParentID, Tx
//   - BeforeDelete: Node (subtree root), IDs, Tx. A listener may replace IDs.
//   - AfterDelete: Node, IDs, Deleted, Tx
//   - BeforeTreeQuery: Query. A listener may narrow it.
type Event struct {
	Point            HookPoint
	Node             *models.Node
	NewParentID      int64
	PreviousParentID int64
	TargetID         *int64
	Position         models.Position
	IDs              []int64
	Deleted          int
	Query            *repositories.Query
	Tx               repositories.Tx
}

// Listener reacts to an event. A non-nil error aborts the operation and
// rolls back its transaction.
type Listener func(ctx context.Context, e *Event) error

// Hooks is an ordered listener registry. The zero value is not usable; a nil
// *Hooks fires nothing.
type Hooks struct {
	mu        sync.RWMutex
	listeners map[HookPoint][]Listener
}

// NewHooks creates an empty registry
func NewHooks() *Hooks {
	return &Hooks{listeners: make(map[HookPoint][]Listener)}
}

// On appends a listener for point. Listeners run in registration order.
func (h *Hooks) On(point HookPoint, l Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[point] = append(h.listeners[point], l)
}

// Fire runs the listeners of e.Point synchronously and stops at the first error
func (h *Hooks) Fire(ctx context.Context, e *Event) error {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	listeners := h.listeners[e.Point]
	h.mu.RUnlock()

	for _, l := range listeners {
		if err := l(ctx, e); err != nil {
			return fmt.Errorf("%s: %w", e.Point, err)
		}
	}
	return nil
}
