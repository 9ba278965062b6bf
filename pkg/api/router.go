package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/r3d91ll/attngraph/pkg/errors"
)

// HandlerFunc is the function signature for API handlers.
type HandlerFunc func(w http.ResponseWriter, r *http.Request)

// route is a registered pattern split into segments. Segments starting with
// ':' capture the matching path segment.
type route struct {
	method   string
	segments []string
	handler  HandlerFunc
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

// match returns the captured parameters if path fits the route.
func (rt route) match(parts []string) (map[string]string, bool) {
	if len(parts) != len(rt.segments) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range rt.segments {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			if params == nil {
				params = make(map[string]string, 2)
			}
			params[name] = parts[i]
			continue
		}
		if seg != parts[i] {
			return nil, false
		}
	}
	return params, true
}

// Router dispatches on method and :param path patterns in registration
// order.
type Router struct {
	mu     sync.RWMutex
	routes []route

	// NotFound handles paths no route matches.
	NotFound http.Handler
}

// NewRouter creates a Router whose NotFound writes a NOT_FOUND envelope.
func NewRouter() *Router {
	return &Router{
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "The requested resource was not found")
		}),
	}
}

// Handle registers handler for method and pattern, e.g.
// /api/datasets/:name/header.
func (rt *Router) Handle(method, pattern string, handler HandlerFunc) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.routes = append(rt.routes, route{method: method, segments: splitPath(pattern), handler: handler})
}

func (rt *Router) GET(pattern string, handler HandlerFunc)    { rt.Handle(http.MethodGet, pattern, handler) }
func (rt *Router) POST(pattern string, handler HandlerFunc)   { rt.Handle(http.MethodPost, pattern, handler) }
func (rt *Router) DELETE(pattern string, handler HandlerFunc) { rt.Handle(http.MethodDelete, pattern, handler) }

// ServeHTTP runs the first route matching method and path. A path that
// only matches under other methods gets 405 with an Allow header.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)

	rt.mu.RLock()
	var allowed []string
	for _, entry := range rt.routes {
		params, ok := entry.match(parts)
		if !ok {
			continue
		}
		if entry.method != r.Method {
			allowed = append(allowed, entry.method)
			continue
		}
		rt.mu.RUnlock()
		if params != nil {
			r = r.WithContext(context.WithValue(r.Context(), pathParamsKey, params))
		}
		entry.handler(w, r)
		return
	}
	rt.mu.RUnlock()

	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method "+r.Method+" is not allowed here")
		return
	}
	rt.NotFound.ServeHTTP(w, r)
}

type contextKey string

const pathParamsKey contextKey = "pathParams"

// PathParam returns the named path parameter, or "".
func PathParam(r *http.Request, name string) string {
	params, _ := r.Context().Value(pathParamsKey).(map[string]string)
	return params[name]
}

// IntParam parses a path parameter as a non-negative integer.
func IntParam(r *http.Request, name string) (int, error) {
	raw := PathParam(r, name)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.Validationf(errors.ErrInvalidValue, "%s must be a non-negative integer", name).
			WithContext(name, raw)
	}
	return v, nil
}

// -----------------------------------------------------------------------------
// Envelope
// -----------------------------------------------------------------------------

// APIResponse wraps every JSON body.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError is the error part of an envelope.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Context map[string]string `json:"context,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are out; an encode failure has nowhere to go.
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON writes data in a success envelope when status is 2xx.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, APIResponse{Success: status >= 200 && status < 300, Data: data})
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeEnvelope(w, status, APIResponse{Error: &APIError{Code: code, Message: message}})
}

// WriteGraphError writes err with a status derived from its code and
// category. Errors that are not *errors.GraphError are reported as internal.
func WriteGraphError(w http.ResponseWriter, err error) {
	ge, ok := errors.AsGraphError(err)
	if !ok {
		WriteError(w, http.StatusInternalServerError, errors.ErrInternal, err.Error())
		return
	}
	writeEnvelope(w, StatusFor(ge), APIResponse{
		Error: &APIError{Code: ge.Code, Message: ge.Message, Context: ge.Context},
	})
}

// StatusFor maps a GraphError to an HTTP status code.
func StatusFor(ge *errors.GraphError) int {
	switch ge.Code {
	case errors.ErrDatasetNotFound, errors.ErrViewNotFound, errors.ErrIOFileNotFound:
		return http.StatusNotFound
	}
	switch ge.Category {
	case errors.CategoryShape, errors.CategoryFormat, errors.CategoryValidation, errors.CategoryCommand:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ReadJSON decodes the request body into target.
func ReadJSON(r *http.Request, target interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
