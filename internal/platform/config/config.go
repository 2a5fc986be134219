package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "mapdirect/internal/platform/errors"
)

const ProfilePlaceholder = "{profile}"

type Coordinate struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

type Config struct {
	DataDir        string        `yaml:"-"`
	ServiceURL     string        `yaml:"service_url"`
	Center         Coordinate    `yaml:"center"`
	Zoom           int           `yaml:"zoom"`
	MinZoom        int           `yaml:"min_zoom"`
	MaxZoom        int           `yaml:"max_zoom"`
	DragInterval   time.Duration `yaml:"drag_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Alternatives   bool          `yaml:"alternatives"`
	DBPath         string        `yaml:"db_path"`
	LogLevel       string        `yaml:"log_level"`
	LogFile        string        `yaml:"log_file"`
}

// New returns the built-in defaults rooted at dataDir.
func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	return Config{
		DataDir:      dataDir,
		ServiceURL:   "https://routing.openstreetmap.de/" + ProfilePlaceholder + "/route/v1",
		Center:       Coordinate{Lat: 21.028511, Lng: 105.804817},
		Zoom:         13,
		MinZoom:      3,
		MaxZoom:      18,
		DragInterval: 200 * time.Millisecond,
		Alternatives: true,
		DBPath:       filepath.Join(dataDir, ".mapdirect", "mapdirect.db"),
		LogLevel:     "info",
		LogFile:      filepath.Join(dataDir, ".mapdirect", "mapdirect.log"),
	}, nil
}

// Load applies the YAML file at path (if any) over the defaults.
func Load(dataDir, path string) (Config, error) {
	cfg, err := New(dataDir)
	if err != nil {
		return Config{}, err
	}
	if path == "" {
		return cfg, cfg.Validate()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if !strings.Contains(c.ServiceURL, ProfilePlaceholder) {
		return fmt.Errorf("%w: service_url must contain %s", apperrors.ErrInvalidInput, ProfilePlaceholder)
	}
	if c.MinZoom < 0 || c.MaxZoom < c.MinZoom {
		return fmt.Errorf("%w: zoom range %d..%d", apperrors.ErrInvalidInput, c.MinZoom, c.MaxZoom)
	}
	if c.Zoom < c.MinZoom || c.Zoom > c.MaxZoom {
		return fmt.Errorf("%w: zoom %d outside %d..%d", apperrors.ErrInvalidInput, c.Zoom, c.MinZoom, c.MaxZoom)
	}
	if c.DragInterval < 0 || c.RequestTimeout < 0 {
		return fmt.Errorf("%w: durations must be non-negative", apperrors.ErrInvalidInput)
	}
	return nil
}

// ServiceURLFor expands the service template for a routing service path.
func (c Config) ServiceURLFor(servicePath string) string {
	return strings.ReplaceAll(c.ServiceURL, ProfilePlaceholder, servicePath)
}
