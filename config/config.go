// Package config loads engine settings from YAML and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"bestplay/bots"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Depth     int           `yaml:"depth"`
	TimeLimit time.Duration `yaml:"time_limit"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"`
	LogFile   string        `yaml:"log_file"`
	StoreDir  string        `yaml:"store_dir"`
	MaxPlies  int           `yaml:"max_plies"`
	Seed      uint64        `yaml:"seed"`
}

// Default searches four plies with no time limit, as the engine always has.
func Default() Config {
	return Config{
		Depth:     4,
		LogLevel:  "info",
		LogFormat: "console",
		MaxPlies:  300,
		Seed:      1,
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, cfg.Validate()
}

// RegisterFlags binds flags that override cfg when the flag set is parsed.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Depth, "depth", c.Depth, "search depth in plies")
	fs.DurationVar(&c.TimeLimit, "time", c.TimeLimit, "time limit per search, 0 for none")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "console or json")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "append logs to this file instead of stderr")
	fs.StringVar(&c.StoreDir, "store", c.StoreDir, "directory of the analysis store, empty to disable")
	fs.IntVar(&c.MaxPlies, "max-plies", c.MaxPlies, "ply limit for matches")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "seed for the random bot")
}

func (c Config) Validate() error {
	if c.Depth < 0 || c.Depth > bots.MaxDepth {
		return fmt.Errorf("%w: depth %d outside 0..%d", ErrInvalidConfig, c.Depth, bots.MaxDepth)
	}
	if c.TimeLimit < 0 {
		return fmt.Errorf("%w: negative time limit %s", ErrInvalidConfig, c.TimeLimit)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.MaxPlies <= 0 {
		return fmt.Errorf("%w: max plies %d", ErrInvalidConfig, c.MaxPlies)
	}
	return nil
}

// Logger builds the root logger described by c. Logs go to stderr, or
// to LogFile when set; the returned close func releases the file.
func (c Config) Logger() (zerolog.Logger, func() error, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	closeFn := func() error { return nil }
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), closeFn, fmt.Errorf("open log file: %w", err)
		}
		out, closeFn = f, f.Close
	}

	var logger zerolog.Logger
	switch {
	case c.LogFormat == "json":
		logger = zerolog.New(out)
	case c.LogFile != "":
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.DateTime})
	default:
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly})
	}
	return logger.Level(level).With().Timestamp().Logger(), closeFn, nil
}
