// Package config loads CLI settings from a config file, a .env file and
// CYPHERBUILD_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "CYPHERBUILD"

// Defaults used when no source sets a key.
var (
	DefaultStore         = filepath.Join(".cypherbuild", "builds.db")
	DefaultWatchDebounce = 500 * time.Millisecond
)

// Config keys.
const (
	KeyFormat        = "format"
	KeyStore         = "store"
	KeyPrefix        = "prefix"
	KeyVerbose       = "verbose"
	KeyWatchDebounce = "watch_debounce"
)

// Config holds the CLI configuration.
type Config struct {
	Format        string
	Store         string
	Prefix        string
	Verbose       bool
	WatchDebounce time.Duration

	// File is the config file that was read, empty if none.
	File string
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit config path. Empty searches the working
	// directory, the home directory and ~/.config/cypherbuild.
	ConfigFile string

	// Fs is the filesystem to read from. Nil uses the OS filesystem.
	Fs afero.Fs
}

// Load resolves the configuration. Precedence, highest first:
// environment, .env in the working directory, config file, defaults.
func Load(opts Options) (*Config, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	v := viper.New()
	v.SetFs(fs)

	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyStore, DefaultStore)
	v.SetDefault(KeyPrefix, "")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyWatchDebounce, DefaultWatchDebounce.String())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName(".cypherbuild")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "cypherbuild"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if err := applyDotEnv(v, fs, ".env"); err != nil {
		return nil, err
	}

	debounce, err := time.ParseDuration(v.GetString(KeyWatchDebounce))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyWatchDebounce, err)
	}

	cfg := &Config{
		Format:        strings.ToLower(v.GetString(KeyFormat)),
		Store:         v.GetString(KeyStore),
		Prefix:        v.GetString(KeyPrefix),
		Verbose:       v.GetBool(KeyVerbose),
		WatchDebounce: debounce,
		File:          v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%s: unknown format %q (want text or json)", KeyFormat, c.Format)
	}
	if c.Store == "" {
		return fmt.Errorf("%s: path is required", KeyStore)
	}
	if c.WatchDebounce <= 0 {
		return fmt.Errorf("%s: must be positive, got %s", KeyWatchDebounce, c.WatchDebounce)
	}
	return nil
}

// applyDotEnv reads CYPHERBUILD_ variables from a .env file. Variables
// already set in the process environment win.
func applyDotEnv(v *viper.Viper, fs afero.Fs, path string) error {
	f, err := fs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for name, value := range vars {
		key, ok := strings.CutPrefix(name, EnvPrefix+"_")
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		v.Set(strings.ToLower(key), value)
	}
	return nil
}
