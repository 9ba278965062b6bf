// Package export writes datasets to attnbin files: full and reduced
// precision exports, batch subsets, chunked exports with a manifest, size
// estimates for capacity planning, and CSV dumps of selected edges.
package export

import (
	"github.com/samber/lo"

	"github.com/r3d91ll/attngraph/pkg/attnbin"
	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/errors"
)

// DefaultChunkSize is the number of batches per chunk.
const DefaultChunkSize = 50

// Full encodes d at float32 precision.
func Full(d *dataset.Dataset) ([]byte, error) {
	return attnbin.Encode(d)
}

// ReducedPrecision encodes d with float16 layer values. Bounds stay float32.
func ReducedPrecision(d *dataset.Dataset) ([]byte, error) {
	return attnbin.Encode(d, attnbin.WithFloat16())
}

// Subset encodes the batches of d named by batches, in the order given.
func Subset(d *dataset.Dataset, batches []int, fp16 bool) ([]byte, error) {
	sub, err := d.Subset(batches)
	if err != nil {
		return nil, err
	}
	return attnbin.Encode(sub, dtypeOption(fp16))
}

// Blob is one named export artifact.
type Blob struct {
	Name string
	// First and End delimit the source batches as [First, End).
	First int
	End   int
	Data  []byte
}

// Chunked partitions the batches of d into consecutive runs of chunkSize
// and encodes each run. Blobs are named chunk_0, chunk_1, ... in batch order;
// the last may be short. A dataset with no batches yields no blobs.
func Chunked(d *dataset.Dataset, chunkSize int, fp16 bool) ([]Blob, error) {
	if chunkSize <= 0 {
		return nil, errors.Validationf(errors.ErrInvalidValue, "chunk size must be positive, got %d", chunkSize)
	}

	runs := lo.Chunk(lo.Range(d.Dims().B), chunkSize)
	blobs := make([]Blob, 0, len(runs))
	for i, run := range runs {
		data, err := Subset(d, run, fp16)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, Blob{
			Name:  ChunkName(i),
			First: run[0],
			End:   run[len(run)-1] + 1,
			Data:  data,
		})
	}
	return blobs, nil
}

// ChunkName is the blob name of chunk i.
func ChunkName(i int) string {
	return "chunk_" + itoa(i)
}

// Summary returns the export summary of an encoded file.
func Summary(data []byte) (string, error) {
	h, hdrLen, err := attnbin.DecodeHeader(data)
	if err != nil {
		return "", err
	}
	return attnbin.NewLayout(h, hdrLen).Summary(), nil
}

func dtypeOption(fp16 bool) attnbin.Option {
	if fp16 {
		return attnbin.WithFloat16()
	}
	return attnbin.WithDtype(attnbin.Float32)
}
