package export

import (
	"log"
	"os"
	"path/filepath"

	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/errors"
)

// Logger receives export progress lines.
type Logger interface {
	Printf(format string, v ...interface{})
}

// ProgressFunc is called after each chunk is written.
type ProgressFunc func(done, total int)

// Writer writes exports to a directory.
type Writer struct {
	dir      string
	logger   Logger
	progress ProgressFunc
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l Logger) WriterOption {
	return func(w *Writer) { w.logger = l }
}

// WithProgress sets a progress callback for chunked exports.
func WithProgress(f ProgressFunc) WriterOption {
	return func(w *Writer) { w.progress = f }
}

// NewWriter creates a Writer for dir. The directory is created on first
// write.
func NewWriter(dir string, opts ...WriterOption) *Writer {
	w := &Writer{dir: dir, logger: log.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// WriteFile writes data as name under the output directory and logs the
// export summary. It returns the written path.
func (w *Writer) WriteFile(name string, data []byte) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to create output directory").WithContext("path", w.dir)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to write export").WithContext("path", path)
	}
	if summary, err := Summary(data); err == nil {
		w.logger.Printf("[export] %s\n  Written to: %s", summary, path)
	}
	return path, nil
}

// Export writes d to name at full or reduced precision.
func (w *Writer) Export(name string, d *dataset.Dataset, fp16 bool) (string, error) {
	encode := Full
	if fp16 {
		encode = ReducedPrecision
	}
	data, err := encode(d)
	if err != nil {
		return "", err
	}
	return w.WriteFile(name, data)
}

// ExportSubset writes the chosen batches of d to name.
func (w *Writer) ExportSubset(name string, d *dataset.Dataset, batches []int, fp16 bool) (string, error) {
	data, err := Subset(d, batches, fp16)
	if err != nil {
		return "", err
	}
	return w.WriteFile(name, data)
}

// ExportChunked writes chunk_<i>.attnbin files and a manifest.json.
func (w *Writer) ExportChunked(d *dataset.Dataset, chunkSize int, fp16 bool) (*Manifest, error) {
	blobs, err := Chunked(d, chunkSize, fp16)
	if err != nil {
		return nil, err
	}
	for i, b := range blobs {
		w.logger.Printf("[export] chunk %d: batches [%d, %d)", i, b.First, b.End)
		if _, err := w.WriteFile(b.Name+".attnbin", b.Data); err != nil {
			return nil, err
		}
		if w.progress != nil {
			w.progress(i+1, len(blobs))
		}
	}

	m := NewManifest(d.Dims(), chunkSize, fp16, blobs)
	data, err := m.ToJSON()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(w.dir, ManifestName)
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to create output directory").WithContext("path", w.dir)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to write manifest").WithContext("path", path)
	}
	w.logger.Printf("[export] exported %d chunks to %s (manifest %s)", len(blobs), w.dir, m.ShortHash())
	return m, nil
}
