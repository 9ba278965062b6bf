package api

import (
	"bytes"
	"sort"
	"sync"

	"github.com/r3d91ll/attngraph/pkg/attnbin"
	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/errors"
)

// Catalog names the datasets the server can show. Entries are either
// attnbin files on disk or datasets already in memory. Decoded datasets are
// cached; slice reads go to the file.
type Catalog struct {
	mu       sync.Mutex
	paths    map[string]string
	encoded  map[string][]byte
	datasets map[string]*dataset.Dataset
}

// NewCatalog creates a catalog of the attnbin files in paths (name → path).
func NewCatalog(paths map[string]string) *Catalog {
	c := &Catalog{
		paths:    make(map[string]string, len(paths)),
		encoded:  make(map[string][]byte),
		datasets: make(map[string]*dataset.Dataset),
	}
	for name, path := range paths {
		c.paths[name] = path
	}
	return c
}

// AddFile registers an attnbin file under name.
func (c *Catalog) AddFile(name, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths[name] = path
	delete(c.datasets, name)
	delete(c.encoded, name)
}

// AddDataset registers an in-memory dataset under name.
func (c *Catalog) AddDataset(name string, d *dataset.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.paths, name)
	delete(c.encoded, name)
	c.datasets[name] = d
}

// Names returns the registered names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]struct{}, len(c.paths)+len(c.datasets))
	for name := range c.paths {
		seen[name] = struct{}{}
	}
	for name := range c.datasets {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func notFound(name string) error {
	return errors.Validation(errors.ErrDatasetNotFound, "dataset not found").WithContext("dataset", name)
}

// Open returns a random-access reader over the encoded dataset. The caller
// closes it.
func (c *Catalog) Open(name string) (*attnbin.File, error) {
	c.mu.Lock()
	path, onDisk := c.paths[name]
	d, inMemory := c.datasets[name]
	data := c.encoded[name]
	c.mu.Unlock()

	if onDisk {
		return attnbin.OpenFile(path)
	}
	if !inMemory {
		return nil, notFound(name)
	}
	if data == nil {
		encoded, err := attnbin.Encode(d)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.encoded[name] = encoded
		c.mu.Unlock()
		data = encoded
	}
	return attnbin.Open(bytes.NewReader(data), int64(len(data)))
}

// Dataset returns the decoded dataset, decoding the file on first use.
func (c *Catalog) Dataset(name string) (*dataset.Dataset, error) {
	c.mu.Lock()
	if d, ok := c.datasets[name]; ok {
		c.mu.Unlock()
		return d, nil
	}
	_, ok := c.paths[name]
	c.mu.Unlock()
	if !ok {
		return nil, notFound(name)
	}

	f, err := c.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := f.Dataset()
	if err != nil {
		return nil, err
	}
	datasetDecodesTotal.Inc()

	c.mu.Lock()
	c.datasets[name] = d
	c.mu.Unlock()
	return d, nil
}

// Header returns the header of a dataset without decoding its layers.
func (c *Catalog) Header(name string) (*attnbin.Header, error) {
	f, err := c.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Header(), nil
}
