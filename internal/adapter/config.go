package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the client configuration, read from config.yaml and VIDTUBE_*
// environment variables
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Paging  PagingConfig  `mapstructure:"paging"`
	Player  PlayerConfig  `mapstructure:"player"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// APIConfig configures the HTTP client
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`    // extra attempts for GETs
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	UserAgent string        `mapstructure:"user_agent"`
}

// CacheConfig locates the persisted session store
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// PagingConfig sets page sizes for paginated lists
type PagingConfig struct {
	CommentsLimit int `mapstructure:"comments_limit"`
	VideosLimit   int `mapstructure:"videos_limit"`
}

// PlayerConfig selects the external video player. An empty command tries
// known players and then the system default.
type PlayerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// LoggingConfig picks the log destination and level. File "-" means stderr.
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// DefaultConfig targets a local API server
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8000/api/v1",
			Timeout:   30 * time.Second,
			Retries:   2,
			UserAgent: "vidtube/1.0",
		},
		Cache: CacheConfig{Dir: defaultCachePath()},
		Paging: PagingConfig{
			CommentsLimit: 10,
			VideosLimit:   20,
		},
		Player: PlayerConfig{Args: []string{}},
		Logging: LoggingConfig{File: defaultLogPath(), Level: "INFO"},
	}
}

// userDir resolves a per-user vidtube directory. On Windows everything
// lives under %APPDATA% or %LOCALAPPDATA%; elsewhere the XDG-style
// dotfile layout is used.
func userDir(winEnv string, unix ...string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv(winEnv), "vidtube")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(append([]string{home}, unix...)...)
}

func defaultLogPath() string {
	return filepath.Join(userDir("APPDATA", ".local", "share", "vidtube"), "vidtube.log")
}

func defaultCachePath() string {
	return filepath.Join(userDir("LOCALAPPDATA", ".local", "share", "vidtube"), "cache")
}

// DefaultConfigDir is where config.yaml is looked up and written
func DefaultConfigDir() string {
	return userDir("APPDATA", ".config", "vidtube")
}

// newViper registers every key with its default so that environment
// variables such as VIDTUBE_API_BASE_URL override nested keys.
func newViper(defaults *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("VIDTUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setAll(v, defaults, v.SetDefault)
	return v
}

// setAll writes cfg under snake_case keys through set
func setAll(v *viper.Viper, cfg *Config, set func(string, any)) {
	set("api.base_url", cfg.API.BaseURL)
	set("api.timeout", cfg.API.Timeout.String())
	set("api.retries", cfg.API.Retries)
	set("api.rate_limit", cfg.API.RateLimit)
	set("api.user_agent", cfg.API.UserAgent)
	set("cache.dir", cfg.Cache.Dir)
	set("paging.comments_limit", cfg.Paging.CommentsLimit)
	set("paging.videos_limit", cfg.Paging.VideosLimit)
	set("player.command", cfg.Player.Command)
	set("player.args", cfg.Player.Args)
	set("logging.file", cfg.Logging.File)
	set("logging.level", cfg.Logging.Level)
	set("metrics.addr", cfg.Metrics.Addr)
}

// LoadConfig loads configuration from file and environment. An empty path
// searches the default config directory and the working directory; a
// missing file there is not an error. An explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	v := newViper(DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Cache.Dir = ExpandHome(cfg.Cache.Dir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must be set")
	}
	if c.API.Retries < 0 {
		return fmt.Errorf("api.retries must not be negative, got %d", c.API.Retries)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative, got %v", c.API.RateLimit)
	}
	if c.Paging.CommentsLimit <= 0 || c.Paging.VideosLimit <= 0 {
		return errors.New("paging limits must be positive")
	}
	return nil
}

// SaveConfig writes cfg to path, or to config.yaml in the default config
// directory when path is empty.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = filepath.Join(DefaultConfigDir(), "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}

	v := viper.New()
	setAll(v, cfg, v.Set)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// ClearCache removes the persisted session store for every server
func ClearCache(cfg *Config) error {
	if err := os.RemoveAll(cfg.Cache.Dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear cache %s: %w", cfg.Cache.Dir, err)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && rest[0] != '/') {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
