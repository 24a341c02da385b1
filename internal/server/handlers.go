package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alexanderramin/siteledger/internal/contract"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/go-chi/chi/v5"
)

type handler struct {
	deps Dependencies
}

func newHandler(deps Dependencies) *handler {
	return &handler{deps: deps}
}

// project resolves the {project} URL parameter, a code or an id.
func (h *handler) project(r *http.Request) (*domain.Project, error) {
	return h.deps.Projects.Resolve(r.Context(), chi.URLParam(r, "project"))
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decoding body: %v", errBadRequest, err)
	}
	return nil
}

func (h *handler) Overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.deps.Dashboard.Overview(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, o)
}

func (h *handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("all") == "true"
	projects, err := h.deps.Projects.List(r.Context(), all)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response := make([]contract.CostsView, 0, len(projects))
	for _, p := range projects {
		response = append(response, contract.StoredCosts(p))
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *handler) ProjectCosts(w http.ResponseWriter, r *http.Request) {
	p, err := h.project(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	costs, err := h.deps.Projects.Costs(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, costs)
}

func (h *handler) ProjectDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := h.project(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.deps.Dashboard.Project(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

func (h *handler) Recompute(w http.ResponseWriter, r *http.Request) {
	p, err := h.project(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	costs, err := h.deps.Projects.Recompute(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, costs)
}

func (h *handler) BOQSnapshot(w http.ResponseWriter, r *http.Request) {
	h.snapshot(w, r, func(ctx context.Context, projectID, root string) (string, map[string]float64, error) {
		if root != "" {
			item, err := h.deps.BOQ.Get(ctx, projectID, root)
			if err != nil {
				return "", nil, err
			}
			root = item.ID
		}
		values, err := h.deps.BOQ.Snapshot(ctx, projectID, root)
		return root, values, err
	})
}

func (h *handler) TaskSnapshot(w http.ResponseWriter, r *http.Request) {
	h.snapshot(w, r, func(ctx context.Context, projectID, root string) (string, map[string]float64, error) {
		if root != "" {
			t, err := h.deps.Tasks.Get(ctx, projectID, root)
			if err != nil {
				return "", nil, err
			}
			root = t.ID
		}
		values, err := h.deps.Tasks.Snapshot(ctx, projectID, root)
		return root, values, err
	})
}

type snapshotFunc func(ctx context.Context, projectID, root string) (string, map[string]float64, error)

func (h *handler) snapshot(w http.ResponseWriter, r *http.Request, fn snapshotFunc) {
	p, err := h.project(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	root, values, err := fn(r.Context(), p.ID, r.URL.Query().Get("root"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if values == nil {
		values = map[string]float64{}
	}
	writeJSON(w, r, http.StatusOK, contract.SnapshotView{ProjectID: p.ID, Root: root, Values: values})
}

func (h *handler) ListBOQ(w http.ResponseWriter, r *http.Request) {
	p, err := h.project(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.deps.BOQ.List(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response := make([]contract.BOQItemView, 0, len(items))
	for _, b := range items {
		response = append(response, boqViewOf(b))
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	p, err := h.project(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tasks, err := h.deps.Tasks.List(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response := make([]contract.TaskView, 0, len(tasks))
	for _, t := range tasks {
		response = append(response, taskViewOf(t))
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *handler) SetBOQLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req contract.SetLineRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Quantity == nil || req.UnitPrice == nil {
		writeError(w, r, fmt.Errorf("%w: quantity and unit_price are required", errBadRequest))
		return
	}
	p, err := h.project(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.deps.BOQ.Get(ctx, p.ID, chi.URLParam(r, "item"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.BOQ.SetLine(ctx, p.ID, item.ID, *req.Quantity, *req.UnitPrice); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCosts(w, r, p.ID)
}

func (h *handler) SetTaskProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req contract.SetProgressRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Progress == nil {
		writeError(w, r, fmt.Errorf("%w: progress is required", errBadRequest))
		return
	}
	p, err := h.project(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.deps.Tasks.Get(ctx, p.ID, chi.URLParam(r, "task"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.Tasks.SetProgress(ctx, p.ID, t.ID, *req.Progress); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCosts(w, r, p.ID)
}

func (h *handler) SetBOQParent(w http.ResponseWriter, r *http.Request) {
	h.setParent(w, r, "item",
		func(ctx context.Context, projectID, ref string) (string, error) {
			item, err := h.deps.BOQ.Get(ctx, projectID, ref)
			if err != nil {
				return "", err
			}
			return item.ID, nil
		},
		h.deps.BOQ.Move)
}

func (h *handler) SetTaskParent(w http.ResponseWriter, r *http.Request) {
	h.setParent(w, r, "task",
		func(ctx context.Context, projectID, ref string) (string, error) {
			t, err := h.deps.Tasks.Get(ctx, projectID, ref)
			if err != nil {
				return "", err
			}
			return t.ID, nil
		},
		h.deps.Tasks.Move)
}

type resolveFunc func(ctx context.Context, projectID, ref string) (string, error)

type moveFunc func(ctx context.Context, projectID, id, parentID string) error

func (h *handler) setParent(w http.ResponseWriter, r *http.Request, param string, resolve resolveFunc, move moveFunc) {
	ctx := r.Context()
	var req contract.SetParentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.project(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := resolve(ctx, p.ID, chi.URLParam(r, param))
	if err != nil {
		writeError(w, r, err)
		return
	}
	parentID := ""
	if req.Parent != "" {
		if parentID, err = resolve(ctx, p.ID, req.Parent); err != nil {
			writeError(w, r, fmt.Errorf("parent: %w", err))
			return
		}
	}
	if err := move(ctx, p.ID, id, parentID); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCosts(w, r, p.ID)
}

// writeCosts answers a mutation with the project figures after it.
func (h *handler) writeCosts(w http.ResponseWriter, r *http.Request, projectID string) {
	costs, err := h.deps.Projects.Costs(r.Context(), projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, costs)
}

func boqViewOf(b *domain.BOQItem) contract.BOQItemView {
	v := contract.BOQItemView{
		ID:         b.ID,
		Seq:        b.Seq,
		Code:       b.Code,
		Name:       b.Name,
		Unit:       b.Unit,
		Quantity:   b.Quantity,
		UnitPrice:  b.UnitPrice,
		TotalPrice: b.TotalPrice,
	}
	if b.ParentID != nil {
		v.ParentID = *b.ParentID
	}
	return v
}

func taskViewOf(t *domain.Task) contract.TaskView {
	v := contract.TaskView{
		ID:              t.ID,
		Seq:             t.Seq,
		Name:            t.Name,
		Status:          string(t.Status),
		LeafProgress:    t.LeafProgress,
		ProgressPercent: t.ProgressPercent,
	}
	if t.ParentID != nil {
		v.ParentID = *t.ParentID
	}
	return v
}
