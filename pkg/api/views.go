package api

import (
	"sort"
	"sync"
	"time"

	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/errors"
	"github.com/r3d91ll/attngraph/pkg/view"
)

// View is one live view instance. All engine access goes through Do, so
// the engine only ever runs one handler at a time.
type View struct {
	ID        string    `json:"id"`
	Dataset   string    `json:"dataset"`
	CreatedAt time.Time `json:"createdAt"`

	mu       sync.Mutex
	engine   *view.Engine
	attached bool
}

// Do runs f with exclusive access to the engine.
func (v *View) Do(f func(e *view.Engine)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f(v.engine)
}

// Attached reports whether a client currently drives the view.
func (v *View) Attached() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.attached
}

// attach claims the view for one connection. It fails if another
// connection holds it.
func (v *View) attach() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.attached {
		return false
	}
	v.attached = true
	return true
}

func (v *View) detach() {
	v.mu.Lock()
	v.attached = false
	v.mu.Unlock()
}

// ViewInfo is the JSON summary of a view.
type ViewInfo struct {
	ID        string    `json:"id"`
	Dataset   string    `json:"dataset"`
	CreatedAt time.Time `json:"createdAt"`
	Attached  bool      `json:"attached"`
}

// ViewRegistry holds the view instances created by the server.
type ViewRegistry struct {
	mu    sync.RWMutex
	views map[string]*View
	opts  view.Options
}

// NewViewRegistry creates a registry whose engines are built with opts.
// opts.ID is ignored; every view gets a fresh id.
func NewViewRegistry(opts view.Options) *ViewRegistry {
	opts.ID = ""
	return &ViewRegistry{views: make(map[string]*View), opts: opts}
}

// Create builds a view of d and registers it.
func (r *ViewRegistry) Create(name string, d *dataset.Dataset) (*View, error) {
	e, err := view.New(d, r.opts)
	if err != nil {
		return nil, err
	}
	v := &View{ID: e.ID(), Dataset: name, CreatedAt: time.Now().UTC(), engine: e}

	r.mu.Lock()
	r.views[v.ID] = v
	r.mu.Unlock()
	return v, nil
}

// Get looks up a view by id.
func (r *ViewRegistry) Get(id string) (*View, error) {
	r.mu.RLock()
	v, ok := r.views[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Validation(errors.ErrViewNotFound, "view not found").WithContext("view", id)
	}
	return v, nil
}

// Remove drops a view. Removing an unknown id is a no-op.
func (r *ViewRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.views, id)
	r.mu.Unlock()
}

// List returns the views ordered by creation time.
func (r *ViewRegistry) List() []ViewInfo {
	r.mu.RLock()
	views := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		views = append(views, v)
	}
	r.mu.RUnlock()

	out := make([]ViewInfo, len(views))
	for i, v := range views {
		out[i] = ViewInfo{ID: v.ID, Dataset: v.Dataset, CreatedAt: v.CreatedAt, Attached: v.Attached()}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of views.
func (r *ViewRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}
