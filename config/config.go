package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"proxy-switch/manager"
)

const (
	DefaultConfigFile = "/etc/proxy-switch/config.yaml"
	DefaultDataFile   = "/var/lib/proxy-switch/state.db"
	DefaultService    = "docker"
	DefaultProbeURL   = "https://github.com"

	envPrefix = "PROXY_SWITCH"
)

const (
	KeyNoProxy  = "no-proxy"
	KeyData     = "data"
	KeyRoot     = "root"
	KeyService  = "service"
	KeyProbeURL = "probe-url"
)

type Config struct {
	NoProxy  []string `mapstructure:"no-proxy" validate:"dive,required"`
	Data     string   `mapstructure:"data"`
	Root     string   `mapstructure:"root"`
	Service  string   `mapstructure:"service" validate:"required"`
	ProbeURL string   `mapstructure:"probe-url" validate:"required,url"`
}

var validate = validator.New()

// New returns a viper instance with defaults and environment overrides
// (PROXY_SWITCH_NO_PROXY, PROXY_SWITCH_SERVICE, ...).
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyNoProxy, manager.DefaultNoProxy)
	v.SetDefault(KeyData, DefaultDataFile)
	v.SetDefault(KeyRoot, "")
	v.SetDefault(KeyService, DefaultService)
	v.SetDefault(KeyProbeURL, DefaultProbeURL)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags lets the command line flags of the same name win over the config
// file and the environment, but only when they were set explicitly.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{KeyNoProxy, KeyData, KeyRoot, KeyService, KeyProbeURL} {
		f := flags.Lookup(key)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", key, err)
		}
	}
	return nil
}

// Load reads configFile, or DefaultConfigFile when it exists, and decodes
// the merged settings. An explicit configFile that does not exist is an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	file := configFile
	if file == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			file = DefaultConfigFile
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found", file)
			}
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.NoProxy = splitList(cfg.NoProxy)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// splitList flattens entries that still carry commas, as happens when the
// list comes from a single environment variable.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
