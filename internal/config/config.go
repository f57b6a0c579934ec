package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/abelbrown/vocabfilter/internal/controller"
	"github.com/abelbrown/vocabfilter/internal/model"
)

// Environment overrides, applied after the file is read.
const (
	EnvDB    = "VOCABFILTER_DB"
	EnvTrace = "VOCABFILTER_TRACE"
)

// Level bounds accepted in [filter].
const (
	MaxJLPTLevel = 5
	MaxWKLevel   = 60
)

// Config is the persistent application configuration
type Config struct {
	Data   DataConfig   `toml:"data"`
	Filter FilterConfig `toml:"filter"`
	UI     UIConfig     `toml:"ui"`
	Log    LogConfig    `toml:"log"`
}

// DataConfig locates the files the app reads and writes
type DataConfig struct {
	DBPath   string `toml:"db_path"`
	EventLog string `toml:"event_log"` // JSONL trace; empty disables
	LogDir   string `toml:"log_dir"`
}

// FilterConfig holds the criteria a session starts with
type FilterConfig struct {
	Reading           string `toml:"reading"`
	Meaning           string `toml:"meaning"`
	Category          string `toml:"category"` // short name or label
	JLPT              int    `toml:"jlpt"`     // 0 = any, otherwise N-level 1..5
	WK                int    `toml:"wk"`       // 0 = any, otherwise 1..60
	CommonFirst       bool   `toml:"common_first"`
	ShortReadingFirst bool   `toml:"short_reading_first"`
}

// UIConfig holds UI preferences
type UIConfig struct {
	Limit            int     `toml:"limit"`             // results shown per refresh
	QueriesPerSecond float64 `toml:"queries_per_second"` // refresh throttle
	Trace            bool    `toml:"trace"`             // show the debug overlay and trace events
}

// LogConfig configures the file logger
type LogConfig struct {
	Level string `toml:"level"`
}

// Dir returns the application directory (~/.vocabfilter).
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vocabfilter")
}

// Path returns the path to the config file
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		Data: DataConfig{
			DBPath:   filepath.Join(dir, "vocab.db"),
			EventLog: filepath.Join(dir, "events.jsonl"),
			LogDir:   filepath.Join(dir, "logs"),
		},
		Filter: FilterConfig{
			CommonFirst: true,
		},
		UI: UIConfig{
			Limit:            200,
			QueriesPerSecond: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the config file, or returns defaults if it does not exist.
// Environment overrides are applied in both cases.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads config from path. Keys missing from the file keep their
// default values.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// applyEnv overrides file values from the environment.
func (c *Config) applyEnv() {
	if db := os.Getenv(EnvDB); db != "" {
		c.Data.DBPath = db
	}
	if v := os.Getenv(EnvTrace); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.UI.Trace = on
		}
	}
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.UI.Limit <= 0 {
		c.UI.Limit = def.UI.Limit
	}
	if c.UI.QueriesPerSecond <= 0 {
		c.UI.QueriesPerSecond = def.UI.QueriesPerSecond
	}
	if c.Filter.JLPT < 0 || c.Filter.JLPT > MaxJLPTLevel {
		c.Filter.JLPT = controller.LevelAny
	}
	if c.Filter.WK < 0 || c.Filter.WK > MaxWKLevel {
		c.Filter.WK = controller.LevelAny
	}
	c.Data.DBPath = expandHome(c.Data.DBPath)
	c.Data.EventLog = expandHome(c.Data.EventLog)
	c.Data.LogDir = expandHome(c.Data.LogDir)
}

// Save writes config to Path().
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes config to path as TOML, creating the directory if needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

// CategoryResolver looks up category tokens by name. *store.Store
// implements it.
type CategoryResolver interface {
	CategoryByName(ctx context.Context, name string) (*model.Category, error)
}

// Criteria builds the initial filter criteria from [filter]. If the
// configured category cannot be resolved, the returned criteria leave the
// category unconstrained and the lookup error is returned alongside.
func (c *Config) Criteria(ctx context.Context, r CategoryResolver) (controller.Criteria, error) {
	crit := controller.Criteria{
		ReadingText:       c.Filter.Reading,
		MeaningText:       c.Filter.Meaning,
		JLPTLevel:         c.Filter.JLPT,
		WKLevel:           c.Filter.WK,
		CommonFirst:       c.Filter.CommonFirst,
		ShortReadingFirst: c.Filter.ShortReadingFirst,
	}

	name := strings.TrimSpace(c.Filter.Category)
	if name == "" || r == nil {
		return crit, nil
	}
	cat, err := r.CategoryByName(ctx, name)
	if err != nil {
		return crit, fmt.Errorf("default category: %w", err)
	}
	crit.Category = cat
	return crit, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
