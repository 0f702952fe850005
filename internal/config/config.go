// Package config loads packscore settings from defaults, an optional config
// file, PACKSCORE_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key: count.variant is read from
// PACKSCORE_COUNT_VARIANT.
const EnvPrefix = "PACKSCORE"

type Config struct {
	Input     string          `mapstructure:"input"`
	Schema    string          `mapstructure:"schema"`
	Count     CountConfig     `mapstructure:"count"`
	Correlate CorrelateConfig `mapstructure:"correlate"`
	Plot      PlotConfig      `mapstructure:"plot"`
	Generate  GenerateConfig  `mapstructure:"generate"`
	Log       LogConfig       `mapstructure:"log"`
	S3        S3Config        `mapstructure:"s3"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
}

type CountConfig struct {
	Variant   string `mapstructure:"variant"`
	Predicate string `mapstructure:"predicate"`
	Value     string `mapstructure:"value"`
}

type CorrelateConfig struct {
	Column string `mapstructure:"column"`
}

type PlotConfig struct {
	Out    string `mapstructure:"out"`
	Viewer string `mapstructure:"viewer"`
	Width  string `mapstructure:"width"`
	Height string `mapstructure:"height"`
	Skip   bool   `mapstructure:"skip"`
}

type GenerateConfig struct {
	Output  string `mapstructure:"output"`
	Trials  int    `mapstructure:"trials"`
	Seed    int64  `mapstructure:"seed"`
	Workers int    `mapstructure:"workers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type S3Config struct {
	Region string `mapstructure:"region"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Secure    bool   `mapstructure:"secure"`
}

type defaultConfig struct {
	Key string
	Val any
}

func defaults() []defaultConfig {
	return []defaultConfig{
		{"input", "out.csv"},
		{"schema", "auto"},
		{"count.variant", "below"},
		{"count.predicate", ""},
		{"count.value", ""},
		{"correlate.column", "spread_score"},
		{"plot.out", ""},
		{"plot.viewer", ""},
		{"plot.width", "6in"},
		{"plot.height", "4in"},
		{"plot.skip", false},
		{"generate.output", "out.csv"},
		{"generate.trials", 10_000_000},
		{"generate.seed", int64(0)},
		{"generate.workers", runtime.NumCPU()},
		{"log.level", "info"},
		{"log.format", "console"},
		{"s3.region", ""},
		{"minio.endpoint", ""},
		{"minio.access_key", ""},
		{"minio.secret_key", ""},
		{"minio.secure", true},
	}
}

// New returns a viper instance with every default registered and the
// environment bound.
func New() *viper.Viper {
	v := viper.New()
	for _, d := range defaults() {
		v.SetDefault(d.Key, d.Val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds each flag in fs that is named in keys to its config key,
// so an explicitly set flag overrides file and environment values.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := fs.Lookup(flag)
		if f == nil {
			return fmt.Errorf("bind %s: no flag --%s", key, flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Load reads file when it is not empty and decodes the merged settings.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks the settings shared by every command.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return fmt.Errorf("%w: input must not be empty", ErrInvalid)
	}
	return nil
}

// Validate checks the generator settings; only the generate command calls it.
func (g GenerateConfig) Validate() error {
	if strings.TrimSpace(g.Output) == "" {
		return fmt.Errorf("%w: generate.output must not be empty", ErrInvalid)
	}
	if g.Trials <= 0 {
		return fmt.Errorf("%w: generate.trials must be positive, got %d", ErrInvalid, g.Trials)
	}
	if g.Workers <= 0 {
		return fmt.Errorf("%w: generate.workers must be positive, got %d", ErrInvalid, g.Workers)
	}
	return nil
}
