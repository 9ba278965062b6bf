// Package attnbin implements the attnbin_v1 binary layout for attention
// datasets.
//
//	[uint32 LE header length][JSON header][bounds B*N float32][layer 0]...[layer L-1]
//
// Each layer block holds B*H*N*N elements, batch-major then head, row and
// column, stored as float32 or float16 according to the header dtype. Bounds
// are always float32.
package attnbin

import (
	"bytes"
	"encoding/json"

	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/errors"
)

// Format is the header format tag.
const Format = "attnbin_v1"

// prefixLen is the size of the header length field.
const prefixLen = 4

// Dtype is the element type of the layer blocks.
type Dtype string

const (
	Float32 Dtype = "float32"
	Float16 Dtype = "float16"
)

// Width returns the element width in bytes. An empty dtype is float32.
func (d Dtype) Width() int {
	if d == Float16 {
		return 2
	}
	return 4
}

// Normalize maps the empty dtype to Float32.
func (d Dtype) Normalize() Dtype {
	if d == "" {
		return Float32
	}
	return d
}

// Header is the JSON header of an attnbin file.
type Header struct {
	Format      string   `json:"format"`
	N           int      `json:"N"`
	B           int      `json:"B"`
	H           int      `json:"H"`
	L           int      `json:"L"`
	Dtype       Dtype    `json:"dtype,omitempty"`
	ReactionIDs []string `json:"reaction_ids"`
	FullNames   []string `json:"full_names"`
}

// HeaderFor builds the header describing d. Float32 headers omit dtype.
func HeaderFor(d *dataset.Dataset, dtype Dtype) Header {
	dims := d.Dims()
	h := Header{
		Format:      Format,
		N:           dims.N,
		B:           dims.B,
		H:           dims.H,
		L:           dims.L,
		ReactionIDs: d.IDs(),
		FullNames:   d.FullNames(),
	}
	if dtype.Normalize() == Float16 {
		h.Dtype = Float16
	}
	return h
}

// Dims returns the header dimensions.
func (h *Header) Dims() dataset.Dims {
	return dataset.Dims{N: h.N, B: h.B, H: h.H, L: h.L}
}

// Validate checks the header fields against each other.
func (h *Header) Validate() error {
	if h.Format != Format {
		return errors.Malformed("format tag %q, want %q", h.Format, Format).
			WithContext("format", h.Format)
	}
	switch h.Dtype {
	case "", Float32, Float16:
	default:
		return errors.New(errors.ErrUnsupportedDtype, errors.CategoryFormat, "unsupported dtype "+string(h.Dtype)).
			WithContext("dtype", string(h.Dtype)).
			WithSuggestion("Supported dtypes are float32 and float16")
	}
	if h.N < 0 || h.B < 0 || h.H < 0 || h.L < 0 {
		return errors.Malformed("negative dimension in header N=%d B=%d H=%d L=%d", h.N, h.B, h.H, h.L)
	}
	if len(h.ReactionIDs) != h.N {
		return errors.Malformed("reaction_ids has %d entries, header N=%d", len(h.ReactionIDs), h.N)
	}
	if len(h.FullNames) != h.N {
		return errors.Malformed("full_names has %d entries, header N=%d", len(h.FullNames), h.N)
	}
	return nil
}

// marshal encodes the header compactly without HTML escaping.
func (h *Header) marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(h); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, errors.CategoryInternal, "encode header")
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func parseHeader(raw []byte) (*Header, error) {
	var h Header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, errors.MalformedWrap(err, "header is not valid JSON")
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}
