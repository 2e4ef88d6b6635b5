package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Config holds all runtime configuration. Values merge flags, STUDIEPLUS_*
// environment variables, and defaults (set up by the cobra command in
// cmd/studieplus-mcp).
type Config struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	School   string `validate:"required"`
	BaseURL  string `validate:"omitempty,url"`

	// CaptureDB enables raw-response archiving when set to a SQLite path.
	CaptureDB string
	// CaptureRetentionDays bounds how long archived responses are kept.
	CaptureRetentionDays int

	DownloadDir string
	LogLevel    string
	// KeepRepeatedFlags leaves note flags on every block of a double lesson.
	KeepRepeatedFlags bool
}

// Load reads configuration from viper.
func Load() Config {
	return Config{
		Username:             viper.GetString("username"),
		Password:             viper.GetString("password"),
		School:               viper.GetString("school"),
		BaseURL:              viper.GetString("base_url"),
		CaptureDB:            viper.GetString("capture_db"),
		CaptureRetentionDays: viper.GetInt("capture_retention_days"),
		DownloadDir:          viper.GetString("download_dir"),
		LogLevel:             viper.GetString("log_level"),
		KeepRepeatedFlags:    viper.GetBool("keep_repeated_flags"),
	}
}

// Validate reports missing or malformed settings in one readable error.
func (c Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var fields []string
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fmt.Errorf("invalid configuration: check %s", strings.Join(fields, ", "))
}
