package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Driver names the task storage backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config is the persisted TOML configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Chart    ChartConfig    `toml:"chart"`
	Seed     SeedConfig     `toml:"seed"`
	Server   ServerConfig   `toml:"server"`
	Keys     KeyConfig      `toml:"keys"`
}

type DatabaseConfig struct {
	Driver      Driver `toml:"driver"`
	Path        string `toml:"path"`
	PostgresDSN string `toml:"postgres_dsn"`
}

type LoggingConfig struct {
	Level string            `toml:"level"`
	File  LoggingFileConfig `toml:"file"`
}

// LoggingFileConfig controls the rotating log file sink.
// A blank Dir means the platform log dir, or .gantt/log under the workspace root in dev mode.
type LoggingFileConfig struct {
	Enabled    bool   `toml:"enabled"`
	Dir        string `toml:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

type ChartConfig struct {
	Title           string  `toml:"title"`
	DefaultZoom     float64 `toml:"default_zoom"`
	DayAlignedStart bool    `toml:"day_aligned_start"`
	ShowToday       bool    `toml:"show_today"`
	ShowMinimap     bool    `toml:"show_minimap"`
	// Year pins the chart year; 0 follows the current date.
	Year int `toml:"year"`
}

type SeedConfig struct {
	OnStartup bool   `toml:"on_startup"`
	Fixture   string `toml:"fixture"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// KeyConfig rebinds chart actions; blank entries keep the built-in key.
type KeyConfig struct {
	Search          string `toml:"search"`
	AddTask         string `toml:"add_task"`
	EditTask        string `toml:"edit_task"`
	ToggleCompleted string `toml:"toggle_completed"`
	DeleteTask      string `toml:"delete_task"`
	CopyTask        string `toml:"copy_task"`
	EditTitle       string `toml:"edit_title"`
}

// Default returns the built-in configuration rooted at dbPath.
func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			File: LoggingFileConfig{
				Enabled:    true,
				Dir:        "",
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 14,
			},
		},
		Chart: ChartConfig{
			Title:           "Project roadmap",
			DefaultZoom:     1,
			DayAlignedStart: false,
			ShowToday:       true,
			ShowMinimap:     true,
		},
		Seed: SeedConfig{
			OnStartup: true,
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Keys: KeyConfig{
			Search:          "/",
			AddTask:         "n",
			EditTask:        "e",
			ToggleCompleted: "c",
			DeleteTask:      "d",
			CopyTask:        "y",
			EditTitle:       "t",
		},
	}
}

// Load overlays the TOML file at path onto defaults. A missing or empty file yields defaults.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Database.Driver = Driver(strings.ToLower(strings.TrimSpace(string(c.Database.Driver))))
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	c.Database.PostgresDSN = strings.TrimSpace(c.Database.PostgresDSN)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Chart.Title = strings.TrimSpace(c.Chart.Title)
	c.Seed.Fixture = strings.TrimSpace(c.Seed.Fixture)
	c.Server.HTTPBind = strings.TrimSpace(c.Server.HTTPBind)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, "":
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("database path is required")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Database.PostgresDSN) == "" {
			return errors.New("database.postgres_dsn is required when driver is postgres")
		}
	default:
		return fmt.Errorf("invalid database.driver: %q", c.Database.Driver)
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.File.MaxSizeMB < 0 || c.Logging.File.MaxBackups < 0 || c.Logging.File.MaxAgeDays < 0 {
		return errors.New("logging.file rotation limits must be >= 0")
	}

	if c.Chart.DefaultZoom < 0.5 || c.Chart.DefaultZoom > 3 {
		return fmt.Errorf("chart.default_zoom must be within [0.5, 3], got %v", c.Chart.DefaultZoom)
	}
	if c.Chart.Year < 0 || c.Chart.Year > 9999 {
		return fmt.Errorf("invalid chart.year: %d", c.Chart.Year)
	}

	if strings.TrimSpace(c.Server.HTTPBind) == "" {
		return errors.New("server.http_bind is required")
	}
	for name, endpoint := range map[string]string{
		"server.api_endpoint": c.Server.APIEndpoint,
		"server.mcp_endpoint": c.Server.MCPEndpoint,
	} {
		if !strings.HasPrefix(strings.TrimSpace(endpoint), "/") {
			return fmt.Errorf("%s must start with /: %q", name, endpoint)
		}
	}
	return nil
}

// EnsureConfigDir creates the parent directory of path.
func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
