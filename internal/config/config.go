package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"ssilint/internal/resolver"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "ssilint.yaml"

// File access backends.
const (
	BackendLocal = "local"
	BackendAFS   = "afs"
)

type Config struct {
	Project struct {
		Root    string `yaml:"root"`
		Backend string `yaml:"backend"` // local or afs
	} `yaml:"project"`
	Resolution struct {
		SourceDir   string   `yaml:"source_dir"`
		IncludesDir string   `yaml:"includes_dir"`
		Extensions  []string `yaml:"extensions"`
	} `yaml:"resolution"`
	Analysis struct {
		MaxDepth     int `yaml:"max_depth"`
		Workers      int `yaml:"workers"`
		CacheEntries int `yaml:"cache_entries"`
	} `yaml:"analysis"`
	Crawl struct {
		Ignore []string `yaml:"ignore"`
	} `yaml:"crawl"`
	Storage struct {
		DB string `yaml:"db"`
	} `yaml:"storage"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Project.Backend = BackendLocal
	cfg.Resolution.SourceDir = "src"
	cfg.Resolution.IncludesDir = "includes"
	cfg.Resolution.Extensions = append([]string(nil), resolver.DefaultExtensions...)
	cfg.Analysis.MaxDepth = 50
	cfg.Analysis.Workers = 4
	cfg.Analysis.CacheEntries = 512
	cfg.Crawl.Ignore = []string{".git", "node_modules", "vendor", "dist"}
	cfg.Storage.DB = ".ssilint/reports.db"
	return &cfg
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := validate(file); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//go:embed config.schema.json
var schemaText string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	const url = "ssilint://config.schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(schemaText)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
})

// validate checks raw YAML against the config schema: unknown keys and
// out-of-range values are rejected before decoding.
func validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	// Round-trip through JSON so the validator sees plain JSON values.
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SSILINT_ROOT"); v != "" {
		c.Project.Root = v
	}
	if v := os.Getenv("SSILINT_BACKEND"); v != "" {
		c.Project.Backend = v
	}
	if v := os.Getenv("SSILINT_SOURCE_DIR"); v != "" {
		c.Resolution.SourceDir = v
	}
	if v := os.Getenv("SSILINT_INCLUDES_DIR"); v != "" {
		c.Resolution.IncludesDir = v
	}
	if v := os.Getenv("SSILINT_EXTENSIONS"); v != "" {
		c.Resolution.Extensions = strings.Split(v, ",")
	}
	if v := os.Getenv("SSILINT_MAX_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SSILINT_MAX_DEPTH: %w", err)
		}
		c.Analysis.MaxDepth = n
	}
	if v := os.Getenv("SSILINT_DB"); v != "" {
		c.Storage.DB = v
	}
	switch c.Project.Backend {
	case "", BackendLocal, BackendAFS:
	default:
		return fmt.Errorf("unknown backend %q", c.Project.Backend)
	}
	return nil
}

// Settings returns the resolution settings the engine consumes.
func (c *Config) Settings() resolver.Settings {
	return resolver.Settings{
		SourceDirectory:     c.Resolution.SourceDir,
		IncludesDirectory:   c.Resolution.IncludesDir,
		CandidateExtensions: c.Resolution.Extensions,
	}.Normalized()
}

// RootDir returns the absolute project root.
func (c *Config) RootDir() (string, error) {
	root := c.Project.Root
	if root == "" {
		root = "."
	}
	return filepath.Abs(root)
}
