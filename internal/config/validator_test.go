package config

import (
	"strings"
	"testing"
)

// minimalValidConfig returns a minimal valid Config for testing.
func minimalValidConfig() *Config {
	cfg := &Config{
		Command: "npx server /tmp",
		Policy:  "/etc/toolgate/policy.yaml",
	}
	cfg.SetDefaults()
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	if err := minimalValidConfig().Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_Fields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string // empty means valid
	}{
		{name: "audit stderr", mutate: func(c *Config) { c.Audit.Output = "stderr" }},
		{name: "audit absolute file", mutate: func(c *Config) { c.Audit.Output = "file:///var/log/audit.jsonl" }},
		{name: "audit relative file", mutate: func(c *Config) { c.Audit.Output = "file://audit.jsonl" }, wantErr: "Audit.Output must be"},
		{name: "audit stdout", mutate: func(c *Config) { c.Audit.Output = "stdout" }, wantErr: "'stderr' or 'file://<absolute-path>'"},
		{name: "audit empty file path", mutate: func(c *Config) { c.Audit.Output = "file://" }, wantErr: "Audit.Output"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: "must be one of: debug info warn error"},
		{name: "metrics addr", mutate: func(c *Config) { c.MetricsAddr = "127.0.0.1:9464" }},
		{name: "bad metrics addr", mutate: func(c *Config) { c.MetricsAddr = "nope" }, wantErr: "host:port"},
		{name: "trace to file", mutate: func(c *Config) { c.TraceOutput = "/tmp/spans.jsonl" }},
		{name: "trace to stderr", mutate: func(c *Config) { c.TraceOutput = "stderr" }},
		{name: "trace to stdout", mutate: func(c *Config) { c.TraceOutput = "stdout" }, wantErr: "never stdout"},
		{name: "negative shutdown timeout", mutate: func(c *Config) { c.ShutdownTimeout = -1 }, wantErr: "greater than 0"},
		{name: "zero file size", mutate: func(c *Config) { c.Audit.MaxFileSizeMB = -5 }, wantErr: "at least 1"},
		{name: "no backups", mutate: func(c *Config) { n := 0; c.Audit.MaxBackups = &n }},
		{name: "negative backups", mutate: func(c *Config) { n := -1; c.Audit.MaxBackups = &n }, wantErr: "at least 0"},
		{name: "extra keywords", mutate: func(c *Config) {
			c.Classifier.ExtraKeywords = map[string][]string{"delete": {"nuke"}}
		}},
		{name: "extra keywords unknown category", mutate: func(c *Config) {
			c.Classifier.ExtraKeywords = map[string][]string{"destroy": {"nuke"}}
		}, wantErr: "unknown category"},
		{name: "extra keywords empty word", mutate: func(c *Config) {
			c.Classifier.ExtraKeywords = map[string][]string{"read": {""}}
		}, wantErr: "is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := minimalValidConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_CommandNotRequired(t *testing.T) {
	t.Parallel()

	// check and classify run without a backend.
	cfg := &Config{}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() without command = %v, want nil", err)
	}
}
