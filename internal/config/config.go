package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pders01/rmql/internal/validation"
)

type Config struct {
	API      APIConfig      `mapstructure:"api" toml:"api"`
	Search   SearchConfig   `mapstructure:"search" toml:"search"`
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	UI       UIConfig       `mapstructure:"ui" toml:"ui"`
	Media    MediaConfig    `mapstructure:"media" toml:"media"`
	Keys     KeyConfig      `mapstructure:"keys" toml:"keys"`
	Log      LogConfig      `mapstructure:"log" toml:"log"`
}

type APIConfig struct {
	Endpoint      string        `mapstructure:"endpoint" toml:"endpoint"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout" toml:"http_timeout"`
	UserAgent     string        `mapstructure:"user_agent" toml:"user_agent"`
	RateLimit     float64       `mapstructure:"rate_limit" toml:"rate_limit"`
	RateBurst     int           `mapstructure:"rate_burst" toml:"rate_burst"`
	AllowInsecure bool          `mapstructure:"allow_insecure" toml:"allow_insecure"`
}

type SearchConfig struct {
	Debounce          time.Duration `mapstructure:"debounce" toml:"debounce"`
	PrefetchThreshold int           `mapstructure:"prefetch_threshold" toml:"prefetch_threshold"`
	HistorySize       int           `mapstructure:"history_size" toml:"history_size"`
	RecentLimit       int           `mapstructure:"recent_limit" toml:"recent_limit"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path" toml:"path"`
	Timeout     time.Duration `mapstructure:"timeout" toml:"timeout"`
	SearchIndex string        `mapstructure:"search_index" toml:"search_index"`
}

type UIConfig struct {
	Colors UIColors     `mapstructure:"colors" toml:"colors"`
	Detail DetailConfig `mapstructure:"detail" toml:"detail"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary" toml:"primary"`
	Secondary  string `mapstructure:"secondary" toml:"secondary"`
	Accent     string `mapstructure:"accent" toml:"accent"`
	Background string `mapstructure:"background" toml:"background"`
	Surface    string `mapstructure:"surface" toml:"surface"`
	Text       string `mapstructure:"text" toml:"text"`
	Muted      string `mapstructure:"muted" toml:"muted"`
	Error      string `mapstructure:"error" toml:"error"`
	Success    string `mapstructure:"success" toml:"success"`
}

type DetailConfig struct {
	WordWrapMaxWidth int    `mapstructure:"word_wrap_max_width" toml:"word_wrap_max_width"`
	WordWrapMinWidth int    `mapstructure:"word_wrap_min_width" toml:"word_wrap_min_width"`
	GlamourStyle     string `mapstructure:"glamour_style" toml:"glamour_style"`
}

type MediaConfig struct {
	Darwin        MediaPlayers `mapstructure:"darwin" toml:"darwin"`
	Linux         MediaPlayers `mapstructure:"linux" toml:"linux"`
	Windows       MediaPlayers `mapstructure:"windows" toml:"windows"`
	DefaultOpener string       `mapstructure:"default_opener" toml:"default_opener"`
}

type MediaPlayers struct {
	Image []string `mapstructure:"image" toml:"image"`
	Web   []string `mapstructure:"web" toml:"web"`
}

// ForPlatform returns the viewer candidates for goos.
func (m MediaConfig) ForPlatform(goos string) MediaPlayers {
	switch goos {
	case "linux":
		return m.Linux
	case "windows":
		return m.Windows
	default:
		return m.Darwin
	}
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier" toml:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings" toml:"bindings"`
}

type KeyBindings struct {
	Quit        string `mapstructure:"quit" toml:"quit"`
	Search      string `mapstructure:"search" toml:"search"`
	Refresh     string `mapstructure:"refresh" toml:"refresh"`
	Retry       string `mapstructure:"retry" toml:"retry"`
	SwitchTab   string `mapstructure:"switch_tab" toml:"switch_tab"`
	Recent      string `mapstructure:"recent" toml:"recent"`
	ClearRecent string `mapstructure:"clear_recent" toml:"clear_recent"`
	OpenImage   string `mapstructure:"open_image" toml:"open_image"`
	Back        string `mapstructure:"back" toml:"back"`
	Help        string `mapstructure:"help" toml:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
	File  string `mapstructure:"file" toml:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		API: APIConfig{
			Endpoint:    "https://rickandmortyapi.com/graphql",
			HTTPTimeout: 30 * time.Second,
			UserAgent:   "rmql/1.0 (https://github.com/pders01/rmql)",
			RateLimit:   4,
			RateBurst:   2,
		},
		Search: SearchConfig{
			Debounce:          300 * time.Millisecond,
			PrefetchThreshold: 3,
			HistorySize:       20,
			RecentLimit:       100,
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(homeDir, ".rmql.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(homeDir, ".rmql", "index.bleve"),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#97CE4C",
				Secondary:  "#44B5D0",
				Accent:     "#F0E14A",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Detail: DetailConfig{
				WordWrapMaxWidth: 100,
				WordWrapMinWidth: 40,
				GlamourStyle:     "dark",
			},
		},
		Media: MediaConfig{
			Darwin: MediaPlayers{
				Image: []string{"qlmanage", "open"},
				Web:   []string{"open"},
			},
			Linux: MediaPlayers{
				Image: []string{"sxiv", "feh", "eog", "xdg-open"},
				Web:   []string{"xdg-open"},
			},
			Windows: MediaPlayers{
				Image: []string{"start"},
				Web:   []string{"start"},
			},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:        "q",
				Search:      "s",
				Refresh:     "r",
				Retry:       "t",
				SwitchTab:   "tab",
				Recent:      "e",
				ClearRecent: "x",
				OpenImage:   "o",
				Back:        "esc",
				Help:        "?",
			},
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".rmql", "rmql.log"),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "rmql", "config.toml")
}

// Load reads the TOML config at configPath, or the default locations when
// empty. A .env file in the working directory is loaded first so RMQL_*
// variables can live there.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("RMQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults registers scalar sections key by key so AutomaticEnv can
// override them; the nested UI, media and key tables are set whole.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.endpoint", cfg.API.Endpoint)
	v.SetDefault("api.http_timeout", cfg.API.HTTPTimeout)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("api.rate_limit", cfg.API.RateLimit)
	v.SetDefault("api.rate_burst", cfg.API.RateBurst)
	v.SetDefault("api.allow_insecure", cfg.API.AllowInsecure)

	v.SetDefault("search.debounce", cfg.Search.Debounce)
	v.SetDefault("search.prefetch_threshold", cfg.Search.PrefetchThreshold)
	v.SetDefault("search.history_size", cfg.Search.HistorySize)
	v.SetDefault("search.recent_limit", cfg.Search.RecentLimit)

	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("database.search_index", cfg.Database.SearchIndex)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)

	v.SetDefault("ui", cfg.UI)
	v.SetDefault("media", cfg.Media)
	v.SetDefault("keys", cfg.Keys)
}

// normalize validates the endpoint and expands and checks every path.
func (c *Config) normalize() error {
	endpoint, err := validation.NewEndpointValidator(c.API.AllowInsecure).ValidateAndNormalize(c.API.Endpoint)
	if err != nil {
		return fmt.Errorf("api.endpoint: %w", err)
	}
	c.API.Endpoint = endpoint

	if c.Search.Debounce < 0 {
		return fmt.Errorf("search.debounce must not be negative")
	}
	if c.Search.PrefetchThreshold < 0 {
		c.Search.PrefetchThreshold = 0
	}

	pv := validation.NewPathValidator()
	paths := []struct {
		key string
		p   *string
	}{
		{"database.path", &c.Database.Path},
		{"database.search_index", &c.Database.SearchIndex},
		{"log.file", &c.Log.File},
	}
	for _, entry := range paths {
		if *entry.p == "" {
			continue
		}
		clean, err := pv.ValidateAndSanitize(*entry.p)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.key, err)
		}
		*entry.p = clean
	}
	return nil
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	v.Set("api", map[string]interface{}{
		"endpoint":       config.API.Endpoint,
		"http_timeout":   config.API.HTTPTimeout.String(),
		"user_agent":     config.API.UserAgent,
		"rate_limit":     config.API.RateLimit,
		"rate_burst":     config.API.RateBurst,
		"allow_insecure": config.API.AllowInsecure,
	})
	v.Set("search", map[string]interface{}{
		"debounce":           config.Search.Debounce.String(),
		"prefetch_threshold": config.Search.PrefetchThreshold,
		"history_size":       config.Search.HistorySize,
		"recent_limit":       config.Search.RecentLimit,
	})
	v.Set("database", map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	})
	v.Set("log", map[string]interface{}{
		"level": config.Log.Level,
		"file":  config.Log.File,
	})
	v.Set("ui", config.UI)
	v.Set("media", config.Media)
	v.Set("keys", config.Keys)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
