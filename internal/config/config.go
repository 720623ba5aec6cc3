// Package config resolves stalker settings from flags, STALKER_* environment
// variables and the optional config.yaml inside the instance directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/example/stalker/internal/adapters/shell"
)

// Keys double as flag names and, upper-cased with dashes replaced, as env suffixes.
const (
	KeyHome      = "home"
	KeyDebounce  = "debounce"
	KeyShell     = "shell"
	KeyRecursive = "recursive"
	KeyLogLevel  = "log-level"
	KeyLogFormat = "log-format"
	KeyNoColor   = "no-color"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "STALKER"

// FileName is the settings file looked up inside the instance directory.
const FileName = "config.yaml"

// DefaultHome is the instance directory used when none is configured.
const DefaultHome = "~/.stalker"

// DefaultDebounce is the change-coalescing window.
const DefaultDebounce = 5 * time.Second

// Settings is the effective configuration of one invocation.
type Settings struct {
	Home      string        `yaml:"home" validate:"required"`
	Debounce  time.Duration `yaml:"-" validate:"gt=0"`
	Shell     string        `yaml:"shell" validate:"required"`
	Recursive bool          `yaml:"recursive"`
	LogLevel  string        `yaml:"log-level" validate:"oneof=debug info warn error"`
	LogFormat string        `yaml:"log-format" validate:"oneof=text logfmt json"`
	NoColor   bool          `yaml:"no-color"`

	// File is the config file that was read, empty when none was found.
	File string `yaml:"-"`
}

// Load resolves settings. Precedence: changed flags, environment, config file,
// defaults. The home directory itself cannot be set from the config file.
func Load(flagSets ...*pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyHome, DefaultHome)
	v.SetDefault(KeyDebounce, DefaultDebounce.String())
	v.SetDefault(KeyShell, shell.DefaultShell())
	v.SetDefault(KeyRecursive, false)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyNoColor, false)

	for _, flags := range flagSets {
		if flags == nil {
			continue
		}
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	home, err := homedir.Expand(v.GetString(KeyHome))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home %q: %w", v.GetString(KeyHome), err)
	}
	home = filepath.Clean(home)

	file := filepath.Join(home, FileName)
	v.SetConfigFile(file)
	found, err := readConfigFile(v)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	if !found {
		file = ""
	}

	s := &Settings{
		Home:      home,
		Debounce:  v.GetDuration(KeyDebounce),
		Shell:     strings.TrimSpace(v.GetString(KeyShell)),
		Recursive: v.GetBool(KeyRecursive),
		LogLevel:  strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat: strings.ToLower(v.GetString(KeyLogFormat)),
		NoColor:   v.GetBool(KeyNoColor),
		File:      file,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks field constraints.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// YAML renders the settings the way config.yaml spells them.
func (s *Settings) YAML() ([]byte, error) {
	view := struct {
		Settings `yaml:",inline"`
		Debounce string `yaml:"debounce"`
	}{Settings: *s, Debounce: s.Debounce.String()}
	return yaml.Marshal(view)
}

// readConfigFile tolerates a missing file; anything else is an error.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
