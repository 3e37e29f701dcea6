package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"taskorbit/internal/api"
	"taskorbit/internal/i18n"
	"taskorbit/internal/view"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultStateDBName    = "state.db"
	DefaultLogName        = "taskorbit.log"
	AppDirName            = "taskorbit"
)

type Keymap struct {
	Quit       string `toml:"quit"`
	Up         string `toml:"up"`
	Down       string `toml:"down"`
	NextView   string `toml:"next_view"`
	Complete   string `toml:"complete"`
	Wait       string `toml:"wait"`
	Activate   string `toml:"activate"`
	Delete     string `toml:"delete"`
	New        string `toml:"new"`
	Edit       string `toml:"edit"`
	Logs       string `toml:"logs"`
	Reload     string `toml:"reload"`
	Undo       string `toml:"undo"`
	Redo       string `toml:"redo"`
	Filter     string `toml:"filter"`
	DateRange  string `toml:"date_range"`
	Sort       string `toml:"sort"`
	Toggle     string `toml:"toggle"`
	SelectAll  string `toml:"select_all"`
	ClearAll   string `toml:"clear_all"`
	Confirm    string `toml:"confirm"`
	Cancel     string `toml:"cancel"`
	Logout     string `toml:"logout"`
	SwitchAuth string `toml:"switch_auth"`
}

type Config struct {
	APIBaseURL     string `toml:"api_base_url"`
	StateDBPath    string `toml:"state_db_path"`
	LogPath        string `toml:"log_path"`
	LogLevel       string `toml:"log_level"`
	Language       string `toml:"language"`
	DefaultView    string `toml:"default_view"`
	RequestTimeout string `toml:"request_timeout"`
	Keys           Keymap `toml:"keys"`
}

// ResolveConfigPath returns $TASKORBIT_CONFIG, or config.toml in the
// user's config directory.
func ResolveConfigPath() string {
	if p := os.Getenv("TASKORBIT_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, AppDirName, DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults there first
// if the file does not exist. A .env file in the working directory and the
// TASKORBIT_* variables override what the file says.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	cfg.APIBaseURL = getEnv("TASKORBIT_API_URL", cfg.APIBaseURL)
	cfg.Language = getEnv("TASKORBIT_LANG", cfg.Language)
	cfg.LogLevel = getEnv("TASKORBIT_LOG_LEVEL", cfg.LogLevel)

	cfg.fillDefaults(filepath.Dir(path))
	return cfg, cfg.Validate()
}

// Timeout parses RequestTimeout. Empty means no bound.
func (c Config) Timeout() (time.Duration, error) {
	if strings.TrimSpace(c.RequestTimeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("request_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("request_timeout: %s is negative", d)
	}
	return d, nil
}

func (c Config) Validate() error {
	if _, err := view.ParseID(c.DefaultView); err != nil {
		return fmt.Errorf("default_view: %w", err)
	}
	if c.Language != i18n.LanguageEn && c.Language != i18n.LanguageKo {
		return fmt.Errorf("language: %q is not one of en, ko", c.Language)
	}
	_, err := c.Timeout()
	return err
}

// fillDefaults restores emptied fields and anchors relative paths at dir.
func (c *Config) fillDefaults(dir string) {
	def := defaultConfig()
	if c.APIBaseURL == "" {
		c.APIBaseURL = def.APIBaseURL
	}
	if c.StateDBPath == "" {
		c.StateDBPath = def.StateDBPath
	}
	if c.LogPath == "" {
		c.LogPath = def.LogPath
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Language == "" {
		c.Language = def.Language
	}
	if c.DefaultView == "" {
		c.DefaultView = def.DefaultView
	}
	if c.Keys == (Keymap{}) {
		c.Keys = def.Keys
	}
	if !filepath.IsAbs(c.StateDBPath) && !strings.HasPrefix(c.StateDBPath, "file:") {
		c.StateDBPath = filepath.Join(dir, c.StateDBPath)
	}
	if !filepath.IsAbs(c.LogPath) {
		c.LogPath = filepath.Join(dir, c.LogPath)
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		APIBaseURL:  api.DefaultBaseURL,
		StateDBPath: DefaultStateDBName,
		LogPath:     DefaultLogName,
		LogLevel:    "info",
		Language:    i18n.LanguageEn,
		DefaultView: string(view.Today),
		Keys:        DefaultKeymap(),
	}
}

// DefaultKeymap is the binding set written to a fresh config file.
func DefaultKeymap() Keymap {
	return Keymap{
		Quit:       "q",
		Up:         "k",
		Down:       "j",
		NextView:   "tab",
		Complete:   "c",
		Wait:       "w",
		Activate:   "a",
		Delete:     "d",
		New:        "n",
		Edit:       "e",
		Logs:       "l",
		Reload:     "r",
		Undo:       "u",
		Redo:       "U",
		Filter:     "f",
		DateRange:  "t",
		Sort:       "s",
		Toggle:     " ",
		SelectAll:  "A",
		ClearAll:   "x",
		Confirm:    "y",
		Cancel:     "esc",
		Logout:     "L",
		SwitchAuth: "ctrl+r",
	}
}
