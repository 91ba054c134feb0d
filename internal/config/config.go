// Package config loads tabscrape settings from flags, environment and the
// optional .tabscrape.yaml file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/tabscrape/internal/output"
	"github.com/jmylchreest/tabscrape/pkg/fetcher"
)

// EnvPrefix prefixes every environment variable, e.g. TABSCRAPE_TIMEOUT.
const EnvPrefix = "TABSCRAPE"

// FileName is the config file name looked up in $HOME and the working
// directory, without extension.
const FileName = ".tabscrape"

// Config holds every setting of the CLI and server.
type Config struct {
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent   string        `mapstructure:"user_agent" validate:"required"`
	FetchMode   string        `mapstructure:"fetch_mode" validate:"oneof=static dynamic auto"`
	Format      string        `mapstructure:"format" validate:"oneof=preview xlsx csv json jsonl yaml"`
	PreviewRows int           `mapstructure:"preview_rows" validate:"gt=0"`
	Server      Server        `mapstructure:"server"`
}

// Server holds the settings of `tabscrape serve`.
type Server struct {
	Addr      string        `mapstructure:"addr" validate:"required"`
	ExportTTL time.Duration `mapstructure:"export_ttl" validate:"gt=0"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		Timeout:     fetcher.DefaultTimeout,
		UserAgent:   fetcher.DefaultUserAgent,
		FetchMode:   string(fetcher.ModeStatic),
		Format:      string(output.FormatPreview),
		PreviewRows: output.DefaultPreviewRows,
		Server: Server{
			Addr:      ":8080",
			ExportTTL: 15 * time.Minute,
		},
	}
}

// Setup registers defaults and environment lookup on v. Nested keys map to
// underscores: server.addr is read from TABSCRAPE_SERVER_ADDR.
func Setup(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("fetch_mode", d.FetchMode)
	v.SetDefault("format", d.Format)
	v.SetDefault("preview_rows", d.PreviewRows)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.export_ttl", d.Server.ExportTTL)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// ReadFile reads path, or .tabscrape.yaml from $HOME or the working
// directory when path is empty. A missing default file is not an error.
func ReadFile(v *viper.Viper, path string, home string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home != "" {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", e.Namespace(), formatValidationError(e)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(e.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
