// Package config handles attngraph configuration loading.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/r3d91ll/attngraph/pkg/edges"
	"github.com/r3d91ll/attngraph/pkg/errors"
	"github.com/r3d91ll/attngraph/pkg/layout"
	"github.com/r3d91ll/attngraph/pkg/view"
)

// Config is the root configuration structure.
type Config struct {
	Layout   layout.Config     `yaml:"layout"`
	View     view.Settings     `yaml:"view"`
	Server   ServerConfig      `yaml:"server"`
	Export   ExportConfig      `yaml:"export"`
	Datasets map[string]string `yaml:"datasets"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	CORSOrigins   []string      `yaml:"cors_origins"`
	EnableLogging bool          `yaml:"enable_logging"`
	EnableMetrics bool          `yaml:"enable_metrics"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	ChunkSize int    `yaml:"chunk_size"`
	FP16      bool   `yaml:"fp16"`
	OutputDir string `yaml:"output_dir"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Layout: layout.DefaultConfig(),
		View:   view.DefaultSettings(),
		Server: ServerConfig{
			Host:          "localhost",
			Port:          8081,
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  15 * time.Second,
			IdleTimeout:   60 * time.Second,
			CORSOrigins:   []string{"http://localhost:8081"},
			EnableLogging: true,
			EnableMetrics: true,
		},
		Export: ExportConfig{
			ChunkSize: 50,
			FP16:      true,
			OutputDir: "./chunks",
		},
		Datasets: map[string]string{},
	}
}

// Load loads configuration from a file and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigWrap(err, errors.ErrConfigNotFound, "configuration file not found").
				WithContext("path", path).
				WithSuggestion("Pass --init to create " + path)
		}
		return nil, errors.IOWrap(err, errors.ErrIOReadFailed, "failed to read config").WithContext("path", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, parseError(err, path)
	}
	if err := cfg.Validate(); err != nil {
		if ge, ok := errors.AsGraphError(err); ok {
			ge.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// parseError converts a yaml error into CONFIG_PARSE_FAILED with location
// context.
func parseError(err error, path string) error {
	ge := errors.ConfigWrap(err, errors.ErrConfigParseFailed, "failed to parse config").WithContext("path", path)
	msg := err.Error()
	if line, col := extractYAMLErrorLocation(msg); line > 0 {
		ge.WithContext("line", strconv.Itoa(line))
		if col > 0 {
			ge.WithContext("column", strconv.Itoa(col))
		}
	}
	if typ := extractExpectedType(msg); typ != "" {
		ge.WithContext("expected_type", typ)
	}
	return ge
}

var (
	yamlLineCol = regexp.MustCompile(`line (\d+)(?::(\d+))?:`)
	yamlType    = regexp.MustCompile(`into \*?([A-Za-z0-9_.\[\]]+)`)
)

// extractYAMLErrorLocation returns the line and column named in a yaml
// error message, or zero.
func extractYAMLErrorLocation(msg string) (line, col int) {
	m := yamlLineCol.FindStringSubmatch(msg)
	if m == nil {
		return 0, 0
	}
	line, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		col, _ = strconv.Atoi(m[2])
	}
	return line, col
}

// extractExpectedType returns the Go type a yaml unmarshal error wanted.
func extractExpectedType(msg string) string {
	m := yamlType.FindStringSubmatch(msg)
	if m == nil {
		return ""
	}
	return m[1]
}

func isValidOption(v string, options []string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

func invalid(field, value, message string) *errors.GraphError {
	return errors.Config(errors.ErrConfigInvalid, message).
		WithContext("field", field).
		WithContext("value", value)
}

// Validate checks value ranges. It returns CONFIG_INVALID naming the first
// offending field.
func (c *Config) Validate() error {
	positive := []struct {
		field string
		value float64
	}{
		{"layout.node_height", c.Layout.NodeHeight},
		{"layout.column_spacing", c.Layout.ColumnSpacing},
		{"layout.name_block_width", c.Layout.NameBlockWidth},
		{"layout.node_width", c.Layout.NodeWidth},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return invalid(p.field, strconv.FormatFloat(p.value, 'g', -1, 64), p.field+" must be positive")
		}
	}
	if c.Layout.RowGap < 0 {
		return invalid("layout.row_gap", strconv.FormatFloat(c.Layout.RowGap, 'g', -1, 64), "layout.row_gap must not be negative")
	}

	if t := c.View.DefaultThreshold; t < 0 || t > edges.SliderMax {
		return invalid("view.default_threshold", strconv.Itoa(t),
			"view.default_threshold must be within [0, "+strconv.Itoa(edges.SliderMax)+"]")
	}
	if m := c.View.MaxEdges; m < 0 || m > edges.MaxEdges {
		return invalid("view.max_edges", strconv.Itoa(m),
			"view.max_edges must be within [0, "+strconv.Itoa(edges.MaxEdges)+"]")
	}
	if c.View.SearchLimit < 0 {
		return invalid("view.search_limit", strconv.Itoa(c.View.SearchLimit), "view.search_limit must not be negative")
	}

	if p := c.Server.Port; p < 0 || p > 65535 {
		return invalid("server.port", strconv.Itoa(p), "server.port must be within [0, 65535]")
	}
	if c.Export.ChunkSize < 0 {
		return invalid("export.chunk_size", strconv.Itoa(c.Export.ChunkSize), "export.chunk_size must not be negative")
	}

	for _, name := range c.DatasetNames() {
		path := c.Datasets[name]
		if strings.TrimSpace(path) == "" {
			return invalid("datasets."+name, path, "dataset "+name+" has no path")
		}
		if ext := filepath.Ext(path); !isValidOption(ext, []string{".attnbin", ".bin"}) {
			return invalid("datasets."+name, path, "dataset "+name+" must point to an .attnbin file").
				WithContext("valid_options", ".attnbin, .bin")
		}
	}
	return nil
}

// DatasetNames returns the configured dataset names in sorted order.
func (c *Config) DatasetNames() []string {
	names := make([]string, 0, len(c.Datasets))
	for name := range c.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadOrDefault loads config from path, or returns default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.ConfigWrap(err, errors.ErrConfigWriteFailed, "failed to create config directory").WithContext("path", dir)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.ConfigWrap(err, errors.ErrConfigWriteFailed, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.ConfigWrap(err, errors.ErrConfigWriteFailed, "failed to write config file").WithContext("path", path)
	}
	return nil
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	if _, err := os.Stat("attngraph.yaml"); err == nil {
		return "attngraph.yaml"
	}
	if _, err := os.Stat("config/attngraph.yaml"); err == nil {
		return "config/attngraph.yaml"
	}
	return "attngraph.yaml"
}

// InitConfig creates a default config file if it doesn't exist.
func InitConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // Already exists
	}

	cfg := Default()
	return cfg.Save(path)
}

// DatasetPath resolves a dataset name to its file path.
func (c *Config) DatasetPath(name string) (string, error) {
	path, ok := c.Datasets[name]
	if !ok {
		return "", errors.Validation(errors.ErrDatasetNotFound, "dataset not configured").
			WithContext("dataset", name).
			WithContext("valid_options", strings.Join(c.DatasetNames(), ", "))
	}
	return path, nil
}
