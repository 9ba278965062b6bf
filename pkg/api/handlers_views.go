package api

import (
	"bytes"
	"net/http"

	"github.com/r3d91ll/attngraph/pkg/markup"
	"github.com/r3d91ll/attngraph/pkg/view"
)

// ViewHandler creates view instances and serves their artifacts.
type ViewHandler struct {
	catalog *Catalog
	views   *ViewRegistry
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(catalog *Catalog, views *ViewRegistry) *ViewHandler {
	return &ViewHandler{catalog: catalog, views: views}
}

// RegisterRoutes registers the view routes on the router.
func (h *ViewHandler) RegisterRoutes(router *Router) {
	router.GET("/view/:dataset", h.CreateView)
	router.GET("/api/views", h.ListViews)
	router.GET("/api/views/:id/state", h.GetState)
	router.DELETE("/api/views/:id", h.DeleteView)
}

// CreateView builds a new engine for the dataset and writes its HTML
// artifact, wired to /ws/:id. With ?format=svg the static SVG snapshot is
// written instead and no view is kept.
func (h *ViewHandler) CreateView(w http.ResponseWriter, r *http.Request) {
	name := PathParam(r, "dataset")
	d, err := h.catalog.Dataset(name)
	if err != nil {
		WriteGraphError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "svg" {
		e, err := view.New(d, h.views.opts)
		if err != nil {
			WriteGraphError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		markup.NewSVGBuilder(e.Scene(), e.Geometry(), nil).WriteTo(w)
		return
	}

	v, err := h.views.Create(name, d)
	if err != nil {
		WriteGraphError(w, err)
		return
	}

	var (
		buf  bytes.Buffer
		werr error
	)
	v.Do(func(e *view.Engine) {
		werr = markup.WritePage(&buf, e.Scene(), e.Geometry(), markup.PageOptions{
			Title:          name,
			WebSocketURL:   socketURL(r, v.ID),
			ViewportHeight: e.Settings().ViewportHeight,
		})
	})
	if werr != nil {
		h.views.Remove(v.ID)
		WriteGraphError(w, werr)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-View-ID", v.ID)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// socketURL is the ws(s) URL of the view's live session on the host the
// request came in on.
func socketURL(r *http.Request, id string) string {
	scheme := "ws"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "wss"
	}
	return scheme + "://" + r.Host + "/ws/" + id
}

// ListViews returns the registered views.
func (h *ViewHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"views": h.views.List(),
	})
}

// GetState returns the view state of one instance.
func (h *ViewHandler) GetState(w http.ResponseWriter, r *http.Request) {
	v, err := h.views.Get(PathParam(r, "id"))
	if err != nil {
		WriteGraphError(w, err)
		return
	}
	var st view.State
	v.Do(func(e *view.Engine) { st = e.State() })
	WriteJSON(w, http.StatusOK, st)
}

// DeleteView drops a view instance. A connected client keeps its session
// until it disconnects.
func (h *ViewHandler) DeleteView(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "id")
	if _, err := h.views.Get(id); err != nil {
		WriteGraphError(w, err)
		return
	}
	h.views.Remove(id)
	WriteJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
