package api

import (
	"net/http"
	"strconv"

	"github.com/r3d91ll/attngraph/pkg/attnbin"
	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/edges"
	"github.com/r3d91ll/attngraph/pkg/errors"
	"github.com/r3d91ll/attngraph/pkg/export"
)

// DataHandler serves datasets, their slices and exports.
type DataHandler struct {
	catalog *Catalog
}

// NewDataHandler creates a new DataHandler.
func NewDataHandler(catalog *Catalog) *DataHandler {
	return &DataHandler{catalog: catalog}
}

// RegisterRoutes registers the data API routes on the router.
func (h *DataHandler) RegisterRoutes(router *Router) {
	router.GET("/api/datasets", h.ListDatasets)
	router.GET("/api/datasets/:name/header", h.GetHeader)
	router.GET("/api/datasets/:name/bounds", h.GetBounds)
	router.GET("/api/datasets/:name/slices/:layer/:batch/:head", h.GetSlice)
	router.GET("/api/datasets/:name/edges/:layer/:batch/:head", h.GetEdges)
	router.POST("/api/export/subset", h.ExportSubset)
	router.GET("/api/estimate", h.Estimate)
}

// -----------------------------------------------------------------------------
// API Types
// -----------------------------------------------------------------------------

// DatasetInfo names a dataset and its dimensions.
type DatasetInfo struct {
	Name  string       `json:"name"`
	Dims  dataset.Dims `json:"dims"`
	Dtype string       `json:"dtype"`
}

// SubsetRequest is the body of POST /api/export/subset.
type SubsetRequest struct {
	Dataset string `json:"dataset"`
	Batches []int  `json:"batches"`
	FP16    bool   `json:"fp16"`
}

// EstimateResponse is the result of GET /api/estimate.
type EstimateResponse struct {
	Bytes int64   `json:"bytes"`
	MB    float64 `json:"mb"`
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// ListDatasets returns every catalog entry with its dimensions.
func (h *DataHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	names := h.catalog.Names()
	infos := make([]DatasetInfo, 0, len(names))
	for _, name := range names {
		hdr, err := h.catalog.Header(name)
		if err != nil {
			WriteGraphError(w, err)
			return
		}
		infos = append(infos, DatasetInfo{Name: name, Dims: hdr.Dims(), Dtype: string(hdr.Dtype.Normalize())})
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"datasets": infos,
	})
}

// GetHeader returns the decoded attnbin header.
func (h *DataHandler) GetHeader(w http.ResponseWriter, r *http.Request) {
	hdr, err := h.catalog.Header(PathParam(r, "name"))
	if err != nil {
		WriteGraphError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, hdr)
}

// GetBounds writes the raw float32 bounds block.
func (h *DataHandler) GetBounds(w http.ResponseWriter, r *http.Request) {
	f, err := h.catalog.Open(PathParam(r, "name"))
	if err != nil {
		WriteGraphError(w, err)
		return
	}
	defer f.Close()

	raw, err := f.RawBounds()
	if err != nil {
		WriteGraphError(w, err)
		return
	}
	writeBinary(w, raw, string(attnbin.Float32), f.Header().N)
}

// GetSlice writes one (batch, head) matrix as stored, reading only that
// slice from the file.
func (h *DataHandler) GetSlice(w http.ResponseWriter, r *http.Request) {
	layer, batch, head, err := sliceParams(r)
	if err != nil {
		WriteGraphError(w, err)
		return
	}

	f, err := h.catalog.Open(PathParam(r, "name"))
	if err != nil {
		WriteGraphError(w, err)
		return
	}
	defer f.Close()

	raw, err := f.RawSlice(layer, batch, head)
	if err != nil {
		WriteGraphError(w, err)
		return
	}
	sliceBytesServed.Add(float64(len(raw)))
	writeBinary(w, raw, string(f.Header().Dtype.Normalize()), f.Header().N)
}

// GetEdges writes the visible edges of one (layer, batch, head) as CSV.
// The slider position comes from ?s= and defaults to the stock threshold.
func (h *DataHandler) GetEdges(w http.ResponseWriter, r *http.Request) {
	layer, batch, head, err := sliceParams(r)
	if err != nil {
		WriteGraphError(w, err)
		return
	}
	s := edges.DefaultSlider
	if raw := r.URL.Query().Get("s"); raw != "" {
		if s, err = strconv.Atoi(raw); err != nil {
			WriteGraphError(w, errors.Validation(errors.ErrInvalidValue, "s must be an integer").WithContext("s", raw))
			return
		}
	}

	d, err := h.catalog.Dataset(PathParam(r, "name"))
	if err != nil {
		WriteGraphError(w, err)
		return
	}
	rows, err := export.EdgeRows(d, layer, head, batch, s)
	if err != nil {
		WriteGraphError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	cw := export.NewCSVWriter(w, nil)
	cw.WriteHeader()
	cw.WriteAll(rows)
	cw.Flush()
}

// ExportSubset encodes the chosen batches of a dataset and returns the
// attnbin bytes.
func (h *DataHandler) ExportSubset(w http.ResponseWriter, r *http.Request) {
	var req SubsetRequest
	if err := ReadJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, errors.ErrInvalidValue, "Invalid JSON body: "+err.Error())
		return
	}
	if len(req.Batches) == 0 {
		WriteError(w, http.StatusBadRequest, errors.ErrInvalidValue, "batches must not be empty")
		return
	}

	d, err := h.catalog.Dataset(req.Dataset)
	if err != nil {
		WriteGraphError(w, err)
		return
	}
	data, err := export.Subset(d, req.Batches, req.FP16)
	if err != nil {
		WriteGraphError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+req.Dataset+`_subset.attnbin"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Estimate returns the encoded size of a dataset with the given dimensions.
func (h *DataHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dims := make(map[string]int, 4)
	for _, name := range []string{"n", "b", "h", "l"} {
		v, err := strconv.Atoi(q.Get(name))
		if err != nil || v < 0 {
			WriteGraphError(w, errors.Validationf(errors.ErrInvalidValue, "%s must be a non-negative integer", name).
				WithContext(name, q.Get(name)))
			return
		}
		dims[name] = v
	}
	fp16 := q.Get("fp16") == "true" || q.Get("fp16") == "1"

	n := export.EstimateSize(dims["n"], dims["b"], dims["h"], dims["l"], fp16)
	WriteJSON(w, http.StatusOK, EstimateResponse{Bytes: n, MB: float64(n) / 1e6})
}

func sliceParams(r *http.Request) (layer, batch, head int, err error) {
	if layer, err = IntParam(r, "layer"); err != nil {
		return
	}
	if batch, err = IntParam(r, "batch"); err != nil {
		return
	}
	head, err = IntParam(r, "head")
	return
}

func writeBinary(w http.ResponseWriter, data []byte, dtype string, n int) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Attn-Dtype", dtype)
	w.Header().Set("X-Attn-N", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
