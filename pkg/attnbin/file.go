package attnbin

import (
	"encoding/binary"
	"io"
	"os"
	"strconv"

	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/errors"
)

// File gives random access to the sections of an attnbin file. Only the
// length prefix and header are read at Open; bounds and slices are read on
// demand at their computed offsets. A File is safe for concurrent reads when
// the underlying ReaderAt is.
type File struct {
	r      io.ReaderAt
	size   int64
	header *Header
	layout Layout
	closer io.Closer
}

// Open reads the header of an attnbin file of the given size.
func Open(r io.ReaderAt, size int64) (*File, error) {
	var prefix [prefixLen]byte
	if size < prefixLen {
		return nil, errors.Malformed("file is %d bytes, too short for the header length", size)
	}
	if err := readFull(r, prefix[:], 0); err != nil {
		return nil, errors.MalformedWrap(err, "read header length")
	}
	n := int64(binary.LittleEndian.Uint32(prefix[:]))
	if n > size-prefixLen {
		return nil, errors.Malformed("header length %d exceeds remaining %d bytes", n, size-prefixLen).
			WithContext("header_length", itoa(n))
	}
	raw := make([]byte, n)
	if err := readFull(r, raw, prefixLen); err != nil {
		return nil, errors.MalformedWrap(err, "read header")
	}
	h, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}
	if avail := size - prefixLen - n; !fits(h, avail) {
		return nil, errors.Malformed("declared shapes N=%d B=%d H=%d L=%d need more than the %d bytes after the header",
			h.N, h.B, h.H, h.L, avail).
			WithContext("actual_bytes", itoa(size))
	}
	lay := NewLayout(h, int(n))
	if lay.Total() > size {
		return nil, errors.Malformed("file is %d bytes, declared shapes need %d", size, lay.Total()).
			WithContext("expected_bytes", itoa(lay.Total())).
			WithContext("actual_bytes", itoa(size))
	}
	return &File{r: r, size: size, header: h, layout: lay}, nil
}

// OpenFile opens path for random access. Close releases it.
func OpenFile(path string) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.IOWrap(err, errors.ErrIOFileNotFound, "open "+path).WithContext("path", path)
		}
		return nil, errors.IOWrap(err, errors.ErrIOReadFailed, "open "+path).WithContext("path", path)
	}
	st, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, errors.IOWrap(err, errors.ErrIOReadFailed, "stat "+path)
	}
	f, err := Open(fd, st.Size())
	if err != nil {
		fd.Close()
		if ge, ok := errors.AsGraphError(err); ok {
			ge.WithContext("path", path)
		}
		return nil, err
	}
	f.closer = fd
	return f, nil
}

// Close closes the underlying file if this File owns one.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// Header returns the parsed header.
func (f *File) Header() *Header { return f.header }

// Layout returns the section layout.
func (f *File) Layout() Layout { return f.layout }

// Size returns the file size in bytes.
func (f *File) Size() int64 { return f.size }

func (f *File) checkSlice(layer, batch, head int) error {
	switch {
	case layer < 0 || layer >= f.header.L:
		return errors.OutOfRange("layer", layer, f.header.L)
	case batch < 0 || batch >= f.header.B:
		return errors.OutOfRange("batch", batch, f.header.B)
	case head < 0 || head >= f.header.H:
		return errors.OutOfRange("head", head, f.header.H)
	}
	return nil
}

func (f *File) readAt(off, n int64) ([]byte, error) {
	buf := make([]byte, n)
	if err := readFull(f.r, buf, off); err != nil {
		return nil, errors.MalformedWrap(err, "read "+itoa(n)+" bytes at offset "+itoa(off))
	}
	return buf, nil
}

// RawBounds returns the little-endian float32 bounds block.
func (f *File) RawBounds() ([]byte, error) {
	return f.readAt(f.layout.BoundsOffset(), f.layout.BoundsBytes)
}

// Bounds reads the bounds block.
func (f *File) Bounds() (dataset.Bounds, error) {
	raw, err := f.RawBounds()
	if err != nil {
		return dataset.Bounds{}, err
	}
	b := dataset.NewBounds(f.header.B, f.header.N)
	readFloat32s(b.Data, raw)
	return b, nil
}

// RawSlice returns the stored bytes of one (batch, head) matrix without
// widening.
func (f *File) RawSlice(layer, batch, head int) ([]byte, error) {
	if err := f.checkSlice(layer, batch, head); err != nil {
		return nil, err
	}
	return f.readAt(f.layout.SliceOffset(layer, batch, head), f.layout.SliceBytes)
}

// Slice reads one (batch, head) matrix of layer, widened to float32.
func (f *File) Slice(layer, batch, head int) (dataset.Matrix, error) {
	raw, err := f.RawSlice(layer, batch, head)
	if err != nil {
		return dataset.Matrix{}, err
	}
	m := dataset.Matrix{N: f.header.N, Data: make([]float32, f.header.N*f.header.N)}
	readElements(m.Data, raw, f.header.Dtype)
	return m, nil
}

// Dataset reads every section and builds the in-memory dataset.
func (f *File) Dataset() (*dataset.Dataset, error) {
	bounds, err := f.Bounds()
	if err != nil {
		return nil, err
	}
	h := f.header
	layers := make([]dataset.Tensor4, h.L)
	for l := range layers {
		raw, err := f.readAt(f.layout.LayerOffset(l), f.layout.LayerBytes)
		if err != nil {
			return nil, err
		}
		t := dataset.NewTensor4(h.B, h.H, h.N)
		readElements(t.Data, raw, h.Dtype)
		layers[l] = t
	}
	return dataset.New(dataset.Spec{
		IDs:       h.ReactionIDs,
		FullNames: h.FullNames,
		Bounds:    bounds,
		Layers:    layers,
		Heads:     h.H,
	})
}

// readFull fills buf from off. io.EOF alongside a full read is not an error.
func readFull(r io.ReaderAt, buf []byte, off int64) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
