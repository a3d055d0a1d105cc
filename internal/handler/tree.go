package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"sortabletree/internal/config"
	"sortabletree/internal/domain"
	treeSvc "sortabletree/internal/domain/services/tree"
	"sortabletree/internal/httputil"
)

// TreeHandler handles HTTP requests for tree operations
type TreeHandler struct {
	treeService treeSvc.TreeService
	logger      *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(treeService treeSvc.TreeService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{
		treeService: treeService,
		logger:      logger,
	}
}

// RegisterRoutes mounts the tree API on mux
func (h *TreeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/nodes", h.AddItem)
	mux.HandleFunc("GET /api/nodes/{id}", h.GetItem)
	mux.HandleFunc("PATCH /api/nodes/{id}", h.UpdateItem)
	mux.HandleFunc("DELETE /api/nodes/{id}", h.DeleteItem)
	mux.HandleFunc("POST /api/nodes/{id}/move", h.MoveItem)
	mux.HandleFunc("GET /api/nodes/{id}/children", h.ChildrenInfo)
	mux.HandleFunc("GET /api/nodes/{id}/descendants", h.Descendants)
	mux.HandleFunc("GET /api/nodes/{id}/ancestors", h.Ancestors)
	mux.HandleFunc("GET /api/roots", h.Roots)
	mux.HandleFunc("GET /api/levels/{level}", h.ItemsByLevel)
	mux.HandleFunc("GET /api/trees", h.Forest)
}

// AddItem creates a node
// POST /api/nodes
func (h *TreeHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req treeSvc.AddItemRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.treeService.AddItem(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

// GetItem returns one visible node
// GET /api/nodes/{id}
func (h *TreeHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	node, err := h.treeService.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// UpdateItem changes title, data or archived state
// PATCH /api/nodes/{id}
func (h *TreeHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req treeSvc.UpdateAttributesRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.treeService.UpdateAttributes(r.Context(), id, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteItem removes a node and its subtree
// DELETE /api/nodes/{id}
func (h *TreeHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	deleted, err := h.treeService.DeleteRecursive(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// MoveItem reparents a node with its subtree
// POST /api/nodes/{id}/move
func (h *TreeHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req treeSvc.MoveRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ID = id

	node, err := h.treeService.MoveTo(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

type childrenInfo struct {
	ID          int64 `json:"id"`
	Level       int   `json:"level"`
	Count       int   `json:"count"`
	HasChildren bool  `json:"has_children"`
}

// ChildrenInfo reports level and visible child count of a node
// GET /api/nodes/{id}/children
func (h *TreeHandler) ChildrenInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	level, err := h.treeService.LevelOf(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	count, err := h.treeService.CountChildren(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, childrenInfo{
		ID:          id,
		Level:       level,
		Count:       count,
		HasChildren: count > 0,
	})
}

// Descendants returns the subtree of a node, flat or nested
// GET /api/nodes/{id}/descendants?depth=&nested=
func (h *TreeHandler) Descendants(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	depth, err := depthParam(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if httputil.QueryBool(r, "nested") {
		tree, err := h.treeService.DescendingTree(r.Context(), id, depth)
		if err != nil {
			handleError(w, r, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, tree)
		return
	}

	nodes, err := h.treeService.FlattenDescending(r.Context(), id, depth)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, nodes)
}

// Ancestors returns the path from the top-level node down to id
// GET /api/nodes/{id}/ancestors?nested=
func (h *TreeHandler) Ancestors(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if httputil.QueryBool(r, "nested") {
		chain, err := h.treeService.AscendingTree(r.Context(), id)
		if err != nil {
			handleError(w, r, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, chain)
		return
	}

	nodes, err := h.treeService.FlattenAscending(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, nodes)
}

// Roots lists visible top-level ids
// GET /api/roots
func (h *TreeHandler) Roots(w http.ResponseWriter, r *http.Request) {
	ids, err := h.treeService.Roots(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ids)
}

// ItemsByLevel lists nodes on one level
// GET /api/levels/{level}?parent=
func (h *TreeHandler) ItemsByLevel(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(r.PathValue("level"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "level must be an integer")
		return
	}
	parent, err := httputil.QueryInt64(r, "parent")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	nodes, err := h.treeService.ItemsByLevel(r.Context(), level, parent)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, nodes)
}

// Forest returns every visible tree
// GET /api/trees?depth=&nested=
func (h *TreeHandler) Forest(w http.ResponseWriter, r *http.Request) {
	depth, err := depthParam(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if httputil.QueryBool(r, "nested") {
		forest, err := h.treeService.NestedForest(r.Context(), depth)
		if err != nil {
			handleError(w, r, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, forest)
		return
	}

	forest, err := h.treeService.DescendingForest(r.Context(), depth)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, forest)
}

func (h *TreeHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		handleError(w, r, h.logger, &domain.ValidationError{Message: err.Error()})
		return 0, false
	}
	return id, true
}

// depthParam reads ?depth=, capped at config.MaxDepthParam
func depthParam(r *http.Request) (*int, error) {
	depth, err := httputil.QueryInt(r, "depth")
	if err != nil {
		return nil, err
	}
	if depth != nil && *depth > config.MaxDepthParam {
		return nil, fmt.Errorf("depth must be at most %d", config.MaxDepthParam)
	}
	return depth, nil
}
