// Package config resolves mintdraw settings from defaults, the project config
// file, MINTDRAW_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/eykd/mintdraw/internal/logging"
)

// FileName is the config file looked up inside the project directory.
const FileName = "config.yaml"

// Keys understood by Load.
const (
	KeyLogLevel    = "log.level"
	KeyLogFormat   = "log.format"
	KeyLockWait    = "lock.wait"
	KeyMetricsFile = "metrics.file"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"log-level":    KeyLogLevel,
	"log-format":   KeyLogFormat,
	"lock-wait":    KeyLockWait,
	"metrics-file": KeyMetricsFile,
}

// Config holds resolved settings.
type Config struct {
	Log         logging.Config
	LockWait    time.Duration
	MetricsFile string
}

// Load resolves settings. path names an explicit config file; when empty the
// project directory's config.yaml is used if it exists. flags may be nil.
func Load(projectDir, path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, string(logging.FormatConsole))
	v.SetDefault(KeyLockWait, time.Duration(0))
	v.SetDefault(KeyMetricsFile, "")

	v.SetEnvPrefix("MINTDRAW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit && projectDir != "" {
		path = filepath.Join(projectDir, FileName)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Log: logging.Config{
			Level:  v.GetString(KeyLogLevel),
			Format: logging.Format(v.GetString(KeyLogFormat)),
		},
		LockWait:    v.GetDuration(KeyLockWait),
		MetricsFile: v.GetString(KeyMetricsFile),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that viper cannot type-check.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}
	if c.LockWait < 0 {
		return fmt.Errorf("lock wait must not be negative: %s", c.LockWait)
	}
	return nil
}
