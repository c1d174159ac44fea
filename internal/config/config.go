// Package config loads runtime configuration via viper: defaults set in
// code, overridden by environment variables, with no config file
// required for the common case.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved set of knobs the batch run needs.
type Config struct {
	// Concurrency is the maximum number of movies processed at once. Zero
	// means "derive from CPU count" (avio.ConcurrencyFromCPUs).
	Concurrency int
	// LogLevel is a zerolog level name: trace, debug, info, warn, error.
	LogLevel string
	// LogJSON switches the logger from console formatting to
	// newline-delimited JSON, for piping into a log aggregator.
	LogJSON bool
	// TempDir is the scratch directory for per-movie intermediate files.
	// Empty means os.MkdirTemp's default (the OS temp directory).
	TempDir string
}

// Load reads defaults, then DEINTERLACE_* environment overrides.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("deinterlace")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("concurrency", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("temp_dir", "")

	return Config{
		Concurrency: v.GetInt("concurrency"),
		LogLevel:    v.GetString("log_level"),
		LogJSON:     v.GetBool("log_json"),
		TempDir:     v.GetString("temp_dir"),
	}
}
