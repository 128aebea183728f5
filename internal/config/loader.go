package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const configName = "toolgate"

// InitViper initializes Viper with the configuration file and environment variables.
// If configFile is empty, it searches for toolgate.yaml/.yml in standard locations.
// The search requires an explicit YAML extension so the toolgate binary
// itself is never picked up as a config file.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// Name/type without search paths: ReadInConfig returns
		// ConfigFileNotFoundError, which LoadConfig tolerates.
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	// Environment variable support: TOOLGATE_AUDIT_OUTPUT
	viper.SetEnvPrefix("TOOLGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindEnvKeys()
}

// findConfigFile searches standard locations for toolgate.yaml or .yml.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".toolgate"),
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, "toolgate"))
		}
	} else {
		paths = append(paths, "/etc/toolgate")
	}
	return findConfigFileInPaths(paths)
}

// findConfigFileInPaths searches the given directories for toolgate.yaml or .yml.
// Returns the full path of the first match, or empty string if none found.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, configName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindEnvKeys binds every scalar key so Unmarshal sees TOOLGATE_* values
// even when the key is absent from the file.
// Example: TOOLGATE_AUDIT_MAX_FILE_SIZE_MB overrides audit.max_file_size_mb
func bindEnvKeys() {
	_ = viper.BindEnv("service")
	_ = viper.BindEnv("command")
	_ = viper.BindEnv("policy")
	_ = viper.BindEnv("policy_watch")
	_ = viper.BindEnv("log_level")

	_ = viper.BindEnv("audit.output")
	_ = viper.BindEnv("audit.max_file_size_mb")
	_ = viper.BindEnv("audit.max_backups")

	_ = viper.BindEnv("metrics_addr")
	_ = viper.BindEnv("trace_output")
	_ = viper.BindEnv("shutdown_timeout")

	// classifier.extra_keywords is a map, config file only.
}

// LoadConfig reads the configuration file, applies environment and bound
// flag overrides, sets defaults, and validates. A missing config file is
// not an error.
func LoadConfig() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was loaded.
// Returns an empty string if no config file was found (env vars only mode).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
