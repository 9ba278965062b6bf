package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/r3d91ll/attngraph/pkg/attnbin"
	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/errors"
)

// HashAlgorithm identifies the hashing algorithm used for chunk digests.
const HashAlgorithm = "SHA-256"

// ManifestName is the file name of the manifest in a chunk directory.
const ManifestName = "manifest.json"

// ChunkEntry describes one chunk file.
type ChunkEntry struct {
	Name   string `json:"name"`
	File   string `json:"file"`
	First  int    `json:"first_batch"`
	End    int    `json:"end_batch"`
	Bytes  int64  `json:"bytes"`
	SHA256 string `json:"sha256"`
}

// Manifest lists the chunks of a chunked export.
type Manifest struct {
	Format    string       `json:"format"`
	Dtype     string       `json:"dtype"`
	Dims      dataset.Dims `json:"dims"`
	ChunkSize int          `json:"chunk_size"`
	Algorithm string       `json:"algorithm"`
	CreatedAt time.Time    `json:"created_at"`
	Chunks    []ChunkEntry `json:"chunks"`

	// Hash covers the fields above except CreatedAt.
	Hash string `json:"hash"`
}

// NewManifest builds the manifest of blobs exported from a dataset of dims.
func NewManifest(dims dataset.Dims, chunkSize int, fp16 bool, blobs []Blob) *Manifest {
	dtype := attnbin.Float32
	if fp16 {
		dtype = attnbin.Float16
	}
	m := &Manifest{
		Format:    attnbin.Format,
		Dtype:     string(dtype),
		Dims:      dims,
		ChunkSize: chunkSize,
		Algorithm: HashAlgorithm,
		CreatedAt: time.Now().UTC(),
		Chunks:    make([]ChunkEntry, len(blobs)),
	}
	for i, b := range blobs {
		m.Chunks[i] = ChunkEntry{
			Name:   b.Name,
			File:   b.Name + ".attnbin",
			First:  b.First,
			End:    b.End,
			Bytes:  int64(len(b.Data)),
			SHA256: digest(b.Data),
		}
	}
	m.Hash = m.computeHash()
	return m
}

// computeHash hashes a canonical rendering of the manifest. Field order is
// fixed.
func (m *Manifest) computeHash() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "format:%s|dtype:%s|dims:%d,%d,%d,%d|chunk:%d|",
		m.Format, m.Dtype, m.Dims.N, m.Dims.B, m.Dims.H, m.Dims.L, m.ChunkSize)
	for _, c := range m.Chunks {
		fmt.Fprintf(&sb, "%s=%d:%d:%d:%s|", c.File, c.First, c.End, c.Bytes, c.SHA256)
	}
	return digest([]byte(sb.String()))
}

// ShortHash returns the first 8 characters of the manifest hash.
func (m *Manifest) ShortHash() string {
	if len(m.Hash) >= 8 {
		return m.Hash[:8]
	}
	return m.Hash
}

// Verify recomputes the manifest hash and checks it matches.
func (m *Manifest) Verify() bool {
	return m.Hash != "" && m.computeHash() == m.Hash
}

// ToJSON returns the manifest as indented JSON.
func (m *Manifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, errors.CategoryInternal, "failed to marshal manifest")
	}
	return data, nil
}

// ReadManifest loads the manifest of a chunk directory.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.IOWrap(err, errors.ErrIOFileNotFound, "manifest not found").WithContext("path", path)
		}
		return nil, errors.IOWrap(err, errors.ErrIOReadFailed, "failed to read manifest").WithContext("path", path)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.MalformedWrap(err, "manifest is not valid JSON").WithContext("path", path)
	}
	return &m, nil
}

// VerifyDir checks the manifest hash and every chunk digest in dir.
func VerifyDir(dir string) (*Manifest, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	if !m.Verify() {
		return m, errors.Malformed("manifest hash does not match its contents").WithContext("path", dir)
	}
	for _, c := range m.Chunks {
		path := filepath.Join(dir, c.File)
		data, err := os.ReadFile(path)
		if err != nil {
			return m, errors.IOWrap(err, errors.ErrIOReadFailed, "failed to read chunk").WithContext("path", path)
		}
		if int64(len(data)) != c.Bytes || digest(data) != c.SHA256 {
			return m, errors.Malformed("chunk digest mismatch").WithContext("chunk", c.Name)
		}
	}
	return m, nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
