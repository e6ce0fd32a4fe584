package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix = "LOOKDATA"
	dirName   = ".lookdata"
)

// Global configuration structure.
type Global struct {
	ListenAddr        string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB       int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	CacheEntries      int    `mapstructure:"cache_entries" yaml:"cache_entries"`
	SessionTTLMinutes int    `mapstructure:"session_ttl_minutes" yaml:"session_ttl_minutes"`

	// Chart rendering
	ChartWidth    int `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight   int `mapstructure:"chart_height" yaml:"chart_height"`
	HistogramBins int `mapstructure:"histogram_bins" yaml:"histogram_bins"`

	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// MaxUploadBytes is the request body limit for uploads.
func (c *Global) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// SessionTTL is the idle time after which a session is dropped.
func (c *Global) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Keys lists the settable keys in display order.
func Keys() []string {
	return []string{
		"listen_addr", "max_upload_mb", "cache_entries", "session_ttl_minutes",
		"chart_width", "chart_height", "histogram_bins", "allowed_origins",
		"log_level", "log_format",
	}
}

// Get renders one key for display.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "listen_addr":
		return c.ListenAddr, nil
	case "max_upload_mb":
		return strconv.Itoa(c.MaxUploadMB), nil
	case "cache_entries":
		return strconv.Itoa(c.CacheEntries), nil
	case "session_ttl_minutes":
		return strconv.Itoa(c.SessionTTLMinutes), nil
	case "chart_width":
		return strconv.Itoa(c.ChartWidth), nil
	case "chart_height":
		return strconv.Itoa(c.ChartHeight), nil
	case "histogram_bins":
		return strconv.Itoa(c.HistogramBins), nil
	case "allowed_origins":
		return strings.Join(c.AllowedOrigins, ","), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", errors.Errorf("unknown key: %s", key)
}

// Set parses and assigns one key.
func (c *Global) Set(key, val string) error {
	positive := func(name string, dst *int, allowZero bool) error {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 || (i == 0 && !allowZero) {
			return errors.Errorf("invalid int for %s: %v", name, val)
		}
		*dst = i
		return nil
	}
	switch key {
	case "listen_addr":
		c.ListenAddr = val
	case "max_upload_mb":
		return positive(key, &c.MaxUploadMB, false)
	case "cache_entries":
		return positive(key, &c.CacheEntries, false)
	case "session_ttl_minutes":
		return positive(key, &c.SessionTTLMinutes, true)
	case "chart_width":
		return positive(key, &c.ChartWidth, false)
	case "chart_height":
		return positive(key, &c.ChartHeight, false)
	case "histogram_bins":
		return positive(key, &c.HistogramBins, true)
	case "allowed_origins":
		var origins []string
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	case "log_level":
		switch strings.ToLower(val) {
		case "trace", "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return errors.Errorf("invalid log_level: %s (use trace, debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "console", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return errors.Errorf("invalid log_format: %s (use console or json)", val)
		}
	default:
		return errors.Errorf("unknown key: %s", key)
	}
	return nil
}

func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home dir")
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.lookdata/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "mkdir config dir")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal yaml")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(err, "write config")
	}
	return nil
}

// Defaults is the configuration used when no file or env value is set.
func Defaults() *Global {
	return &Global{
		ListenAddr:        ":8501",
		MaxUploadMB:       200,
		CacheEntries:      32,
		SessionTTLMinutes: 60,
		ChartWidth:        800,
		ChartHeight:       400,
		AllowedOrigins:    []string{"*"},
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("max_upload_mb", d.MaxUploadMB)
	v.SetDefault("cache_entries", d.CacheEntries)
	v.SetDefault("session_ttl_minutes", d.SessionTTLMinutes)
	v.SetDefault("chart_width", d.ChartWidth)
	v.SetDefault("chart_height", d.ChartHeight)
	v.SetDefault("histogram_bins", d.HistogramBins)
	v.SetDefault("allowed_origins", d.AllowedOrigins)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolve home dir")
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a broken one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &c, nil
}
