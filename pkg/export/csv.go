package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/edges"
	"github.com/r3d91ll/attngraph/pkg/errors"
)

// CSVDialect specifies the CSV format variant.
type CSVDialect string

const (
	// DialectStandard uses RFC 4180 CSV.
	DialectStandard CSVDialect = "standard"

	// DialectTSV uses tab-separated values.
	DialectTSV CSVDialect = "tsv"
)

// CSVConfig specifies options for edge CSV export.
type CSVConfig struct {
	Dialect CSVDialect

	// IncludeHeader writes column headers as the first row.
	IncludeHeader bool

	// Precision is the number of significant digits for values. Negative
	// means the shortest exact representation.
	Precision int
}

// DefaultCSVConfig returns RFC 4180 output with a header row and exact
// values.
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{
		Dialect:       DialectStandard,
		IncludeHeader: true,
		Precision:     -1,
	}
}

// EdgeRow is one selected edge with its entity ids resolved.
type EdgeRow struct {
	Layer   int
	Head    int
	Batch   int
	RowID   string
	ColID   string
	Value   float32
	Opacity float64
}

var edgeHeaders = []string{"layer", "head", "batch", "row_id", "col_id", "value", "opacity"}

// EdgeRows selects the edges of (layer, head, batch) at slider position s
// and resolves their ids. Rows are in selection order.
func EdgeRows(d *dataset.Dataset, layer, head, batch, s int) ([]EdgeRow, error) {
	dims := d.Dims()
	switch {
	case layer < 0 || layer >= dims.L:
		return nil, errors.OutOfRange("layer", layer, dims.L)
	case head < 0 || head >= dims.H:
		return nil, errors.OutOfRange("head", head, dims.H)
	case batch < 0 || batch >= dims.B:
		return nil, errors.OutOfRange("batch", batch, dims.B)
	}

	sel := edges.Select(d.Matrix(layer, batch, head), s, edges.MaxEdges)
	rows := make([]EdgeRow, len(sel.Edges))
	for i, e := range sel.Edges {
		rows[i] = EdgeRow{
			Layer:   layer,
			Head:    head,
			Batch:   batch,
			RowID:   d.ID(e.Row),
			ColID:   d.ID(e.Col),
			Value:   e.Value,
			Opacity: e.Opacity,
		}
	}
	return rows, nil
}

// CSVWriter writes edge rows.
type CSVWriter struct {
	config      *CSVConfig
	writer      *csv.Writer
	headerDone  bool
	rowsWritten int
}

// NewCSVWriter creates a CSVWriter on w. If config is nil,
// DefaultCSVConfig() is used.
func NewCSVWriter(w io.Writer, config *CSVConfig) *CSVWriter {
	if config == nil {
		config = DefaultCSVConfig()
	}
	cw := csv.NewWriter(w)
	if config.Dialect == DialectTSV {
		cw.Comma = '\t'
	}
	return &CSVWriter{config: config, writer: cw}
}

// WriteHeader writes the header row once.
func (cw *CSVWriter) WriteHeader() error {
	if cw.headerDone {
		return nil
	}
	if err := cw.writer.Write(edgeHeaders); err != nil {
		return errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to write CSV header")
	}
	cw.headerDone = true
	return nil
}

// Write writes one row, preceded by the header on first use when
// IncludeHeader is set.
func (cw *CSVWriter) Write(r EdgeRow) error {
	if cw.config.IncludeHeader && !cw.headerDone {
		if err := cw.WriteHeader(); err != nil {
			return err
		}
	}
	record := []string{
		strconv.Itoa(r.Layer),
		strconv.Itoa(r.Head),
		strconv.Itoa(r.Batch),
		r.RowID,
		r.ColID,
		strconv.FormatFloat(float64(r.Value), 'g', cw.config.Precision, 32),
		strconv.FormatFloat(r.Opacity, 'g', cw.config.Precision, 64),
	}
	if err := cw.writer.Write(record); err != nil {
		return errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to write CSV row")
	}
	cw.rowsWritten++
	return nil
}

// WriteAll writes rows in order.
func (cw *CSVWriter) WriteAll(rows []EdgeRow) error {
	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes buffered data to the underlying writer.
func (cw *CSVWriter) Flush() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to flush CSV writer")
	}
	return nil
}

// RowsWritten returns the number of data rows written, excluding the header.
func (cw *CSVWriter) RowsWritten() int {
	return cw.rowsWritten
}

// ExportEdgesToCSV writes the selection of (layer, head, batch) at slider s
// to w. An empty selection still writes the header.
func ExportEdgesToCSV(w io.Writer, d *dataset.Dataset, layer, head, batch, s int, config *CSVConfig) (int, error) {
	rows, err := EdgeRows(d, layer, head, batch, s)
	if err != nil {
		return 0, err
	}
	cw := NewCSVWriter(w, config)
	if cw.config.IncludeHeader {
		if err := cw.WriteHeader(); err != nil {
			return 0, err
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		return cw.RowsWritten(), err
	}
	return cw.RowsWritten(), cw.Flush()
}
