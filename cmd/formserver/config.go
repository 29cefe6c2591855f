package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dmitrymomot/formtree/pkg/definitions"
	"github.com/dmitrymomot/formtree/pkg/logger"
	"github.com/dmitrymomot/formtree/pkg/upload"
)

const envPrefix = "FORMTREE"

var errNoSource = errors.New("formserver: set forms.dir or forms.s3.bucket")

// S3Settings are the connection settings shared by the definitions source
// and the upload store.
type S3Settings struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	PathStyle bool   `mapstructure:"path_style"`
}

// Config is the formserver configuration.
type Config struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Sentry struct {
		DSN         string `mapstructure:"dsn"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"sentry"`

	Forms struct {
		Dir            string        `mapstructure:"dir"`
		S3             S3Settings    `mapstructure:"s3"`
		Prefix         string        `mapstructure:"prefix"`
		Revalidate     bool          `mapstructure:"revalidate"`
		RecheckEvery   time.Duration `mapstructure:"recheck_interval"`
		CacheTTL       time.Duration `mapstructure:"cache_ttl"`
		InstanceTTL    time.Duration `mapstructure:"instance_ttl"`
		MaxInstances   int           `mapstructure:"max_instances"`
		MaxMemory      int64         `mapstructure:"max_memory"`
		AllowedOrigins []string      `mapstructure:"allowed_origins"`
	} `mapstructure:"forms"`

	I18n struct {
		Dir             string `mapstructure:"dir"`
		DefaultLanguage string `mapstructure:"default_language"`
	} `mapstructure:"i18n"`

	Uploads struct {
		S3 S3Settings `mapstructure:"s3"`
	} `mapstructure:"uploads"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("shutdown_timeout", 30*time.Second)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("forms.prefix", "/forms")
	v.SetDefault("forms.revalidate", true)
	v.SetDefault("forms.cache_ttl", time.Hour)
	v.SetDefault("forms.instance_ttl", 30*time.Minute)
	v.SetDefault("forms.max_instances", 10000)
	v.SetDefault("forms.max_memory", 32<<20)
	v.SetDefault("i18n.default_language", "en")
}

// newViper reads FORMTREE_* variables, with dots in keys mapped to
// underscores, and the optional config file.
func newViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	return v, nil
}

// loadConfig binds flags over v and decodes the result.
func loadConfig(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}
	// Unmarshal only sees keys viper knows about.
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	for key := range flagKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// flagKeys maps config keys to command-line flags.
var flagKeys = map[string]string{
	"addr":                   "addr",
	"forms.dir":              "forms-dir",
	"forms.prefix":           "prefix",
	"log.level":              "log-level",
	"i18n.dir":               "i18n-dir",
	"forms.allowed_origins":  "allowed-origins",
	"forms.revalidate":       "revalidate",
	"forms.recheck_interval": "recheck-interval",
}

var envOnlyKeys = []string{
	"sentry.dsn", "sentry.environment",
	"forms.s3.bucket", "forms.s3.prefix", "forms.s3.region", "forms.s3.endpoint",
	"forms.s3.access_key", "forms.s3.secret_key", "forms.s3.path_style",
	"uploads.s3.bucket", "uploads.s3.prefix", "uploads.s3.region", "uploads.s3.endpoint",
	"uploads.s3.access_key", "uploads.s3.secret_key", "uploads.s3.path_style",
	"log.format",
}

func (c *Config) logger() *slog.Logger {
	opts := []logger.Option{
		logger.WithLevel(logger.ParseLevel(c.Log.Level)),
		logger.WithFormat(logger.Format(c.Log.Format)),
		logger.WithExtractors(logExtractors()...),
	}
	return logger.NewWithSentry(logger.SentryConfig{
		DSN:         c.Sentry.DSN,
		Environment: c.Sentry.Environment,
	}, opts...).With("component", "formserver")
}

func (c *Config) source() (definitions.Source, error) {
	switch {
	case c.Forms.S3.Bucket != "":
		s := c.Forms.S3
		return definitions.NewS3Source(definitions.S3Config{
			Bucket:    s.Bucket,
			Prefix:    s.Prefix,
			Region:    s.Region,
			Endpoint:  s.Endpoint,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			PathStyle: s.PathStyle,
		})
	case c.Forms.Dir != "":
		return definitions.NewDirSource(c.Forms.Dir), nil
	}
	return nil, errNoSource
}

// uploadStore returns nil when uploads are not persisted.
func (c *Config) uploadStore() (*upload.S3Store, error) {
	s := c.Uploads.S3
	if s.Bucket == "" {
		return nil, nil
	}
	return upload.NewS3Store(upload.S3Config{
		Bucket:    s.Bucket,
		Region:    s.Region,
		Endpoint:  s.Endpoint,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
		PathStyle: s.PathStyle,
	})
}
