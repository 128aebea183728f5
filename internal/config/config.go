// Package config provides configuration types for toolgate.
//
// Configuration is layered: toolgate.yaml, then TOOLGATE_* environment
// variables, then command-line flags. Only the policy source is required to
// check tool names; running the proxy also needs a backend command.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/Sentinel-Gate/toolgate/internal/domain/operation"
)

// Defaults applied by SetDefaults.
const (
	DefaultLogLevel        = "info"
	DefaultAuditOutput     = "stderr"
	DefaultMaxFileSizeMB   = 100
	DefaultMaxBackups      = 5
	DefaultShutdownTimeout = 5 * time.Second
)

var (
	// ErrMissingCommand is returned when no backend command is configured.
	ErrMissingCommand = errors.New("backend command is required (--command or arguments after --)")
	// ErrMissingPolicy is returned when no policy source is configured.
	ErrMissingPolicy = errors.New("policy source is required (--policy)")
)

// Config is the top-level configuration for toolgate.
type Config struct {
	// Service names the backend for policy lookup. When empty the service
	// is derived from each tool name's prefix.
	Service string `yaml:"service" mapstructure:"service"`

	// Command is the backend command line, split on whitespace.
	Command string `yaml:"command" mapstructure:"command"`

	// Args is an explicit backend argv given after "--". It takes
	// precedence over Command.
	Args []string `yaml:"-" mapstructure:"-"`

	// Policy is the path to the policy source (YAML or JSON).
	Policy string `yaml:"policy" mapstructure:"policy"`

	// PolicyWatch reloads the policy when the file changes.
	PolicyWatch bool `yaml:"policy_watch" mapstructure:"policy_watch"`

	// LogLevel is the diagnostic log level.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"oneof=debug info warn error"`

	// Audit configures where audit events go.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// MetricsAddr enables the /metrics and /health listener when set.
	MetricsAddr string `yaml:"metrics_addr" mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`

	// TraceOutput enables span export: "stderr" or a file path.
	TraceOutput string `yaml:"trace_output" mapstructure:"trace_output" validate:"omitempty,trace_output"`

	// ShutdownTimeout bounds the wait for the backend after a relayed
	// termination signal.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gt=0"`

	// Classifier extends the built-in keyword lexicon.
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
}

// AuditConfig configures audit output.
type AuditConfig struct {
	// Output is "stderr" or "file:///absolute/path.jsonl". The diagnostic
	// audit line is always written to stderr; a file output adds JSONL.
	Output string `yaml:"output" mapstructure:"output" validate:"audit_output"`

	// MaxFileSizeMB is the rotation threshold for file output.
	MaxFileSizeMB int `yaml:"max_file_size_mb" mapstructure:"max_file_size_mb" validate:"gte=1"`

	// MaxBackups is how many rotated files are kept. Unset means
	// DefaultMaxBackups; 0 deletes rotated files right away.
	MaxBackups *int `yaml:"max_backups" mapstructure:"max_backups" validate:"omitempty,gte=0"`
}

// Backups returns MaxBackups, or DefaultMaxBackups when unset.
func (a AuditConfig) Backups() int {
	if a.MaxBackups == nil {
		return DefaultMaxBackups
	}
	return *a.MaxBackups
}

// ClassifierConfig configures operation classification.
type ClassifierConfig struct {
	// ExtraKeywords maps a category name to keywords appended to it.
	ExtraKeywords map[string][]string `yaml:"extra_keywords" mapstructure:"extra_keywords" validate:"dive,keys,category,endkeys,dive,required"`
}

// SetDefaults applies default values to unset fields.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Audit.Output == "" {
		c.Audit.Output = DefaultAuditOutput
	}
	if c.Audit.MaxFileSizeMB == 0 {
		c.Audit.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if c.Audit.MaxBackups == nil {
		n := DefaultMaxBackups
		c.Audit.MaxBackups = &n
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Argv returns the backend argv: Args when given, else Command split on
// whitespace.
func (c *Config) Argv() []string {
	if len(c.Args) > 0 {
		return c.Args
	}
	return strings.Fields(c.Command)
}

// AuditFilePath returns the JSONL path for file output, or "" for stderr.
func (c *Config) AuditFilePath() string {
	if path, ok := fileOutputPath(c.Audit.Output); ok {
		return path
	}
	return ""
}

// ExtraKeywords returns the configured lexicon extension keyed by category.
func (c *Config) ExtraKeywords() map[operation.Category][]string {
	if len(c.Classifier.ExtraKeywords) == 0 {
		return nil
	}
	out := make(map[operation.Category][]string, len(c.Classifier.ExtraKeywords))
	for name, words := range c.Classifier.ExtraKeywords {
		category, err := operation.ParseCategory(name)
		if err != nil {
			continue
		}
		out[category] = append(out[category], words...)
	}
	return out
}
