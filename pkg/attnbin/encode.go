package attnbin

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/x448/float16"

	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/errors"
)

// EncodeOptions controls Encode.
type EncodeOptions struct {
	Dtype Dtype
}

// Option configures an encode.
type Option func(*EncodeOptions)

// WithDtype selects the layer element type.
func WithDtype(d Dtype) Option {
	return func(o *EncodeOptions) { o.Dtype = d.Normalize() }
}

// WithFloat16 stores layer elements as IEEE half precision. Encoding fails
// with HALF_OVERFLOW if any value would round to infinity.
func WithFloat16() Option {
	return WithDtype(Float16)
}

func buildOptions(opts []Option) EncodeOptions {
	o := EncodeOptions{Dtype: Float32}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Encode serializes d into a new buffer.
func Encode(d *dataset.Dataset, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)
	if o.Dtype == Float16 {
		if err := checkHalfRange(d); err != nil {
			return nil, err
		}
	}
	h := HeaderFor(d, o.Dtype)
	raw, err := h.marshal()
	if err != nil {
		return nil, err
	}
	lay := NewLayout(&h, len(raw))
	out := make([]byte, lay.Total())

	binary.LittleEndian.PutUint32(out, uint32(len(raw)))
	copy(out[prefixLen:], raw)
	putFloat32s(out[lay.BoundsOffset():], d.Bounds().Data)
	for l := 0; l < h.L; l++ {
		dst := out[lay.LayerOffset(l) : lay.LayerOffset(l)+lay.LayerBytes]
		if o.Dtype == Float16 {
			putFloat16s(dst, d.Layer(l).Data)
		} else {
			putFloat32s(dst, d.Layer(l).Data)
		}
	}
	return out, nil
}

// EncodeSpec validates spec as a dataset and encodes it. Shape errors
// identify the offending layer with expected and actual shapes.
func EncodeSpec(spec dataset.Spec, opts ...Option) ([]byte, error) {
	d, err := dataset.New(spec)
	if err != nil {
		return nil, err
	}
	return Encode(d, opts...)
}

// WriteTo encodes d and writes it to w, returning the layout written.
func WriteTo(w io.Writer, d *dataset.Dataset, opts ...Option) (Layout, error) {
	buf, err := Encode(d, opts...)
	if err != nil {
		return Layout{}, err
	}
	if _, err := w.Write(buf); err != nil {
		return Layout{}, errors.IOWrap(err, errors.ErrIOWriteFailed, "write attnbin")
	}
	hdrLen := binary.LittleEndian.Uint32(buf)
	h := HeaderFor(d, buildOptions(opts).Dtype)
	return NewLayout(&h, int(hdrLen)), nil
}

func putFloat32s(dst []byte, src []float32) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// checkHalfRange finds the first layer value whose float16 form is infinite.
func checkHalfRange(d *dataset.Dataset) error {
	for l := 0; l < d.Dims().L; l++ {
		for i, v := range d.Layer(l).Data {
			if h := float16.Fromfloat32(v).Float32(); math.IsInf(float64(h), 0) {
				return errors.HalfOverflow(l, i, v)
			}
		}
	}
	return nil
}

func putFloat16s(dst []byte, src []float32) {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[i*2:], float16.Fromfloat32(v).Bits())
	}
}

func readFloat32s(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
}

func readFloat16s(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = float16.Frombits(binary.LittleEndian.Uint16(src[i*2:])).Float32()
	}
}

func readElements(dst []float32, src []byte, dtype Dtype) {
	if dtype.Width() == 2 {
		readFloat16s(dst, src)
		return
	}
	readFloat32s(dst, src)
}
