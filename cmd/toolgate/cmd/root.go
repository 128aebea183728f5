// Package cmd provides the CLI commands for toolgate.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Sentinel-Gate/toolgate/internal/config"
	"github.com/Sentinel-Gate/toolgate/internal/domain/operation"
	"github.com/Sentinel-Gate/toolgate/internal/port/outbound"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "toolgate",
	Short: "toolgate - governance proxy for MCP tool calls",
	Long: `toolgate sits between an MCP client and a stdio MCP server.

Every tools/call is classified as admin, delete, execute, write or read,
looked up in a per-service policy, and either forwarded or answered with
a JSON-RPC error. Everything else passes through untouched.

Quick start:
  toolgate proxy --service github --policy policy.yaml -- npx github-mcp

Configuration:
  Config is loaded from toolgate.yaml in the current directory,
  $HOME/.toolgate/, or /etc/toolgate/.

  Environment variables override config values with the TOOLGATE_ prefix.
  Example: TOOLGATE_AUDIT_OUTPUT=file:///var/log/toolgate/audit.jsonl

Commands:
  proxy       Run a backend MCP server behind the policy
  classify    Show how tool names are classified
  check       Show the policy decision for tool names
  version     Print version information`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the proxy's status: the
// backend's exit code, or 1 for any other failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *outbound.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "toolgate:", err)
		}
		os.Exit(outbound.ExitCode(err))
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./toolgate.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}

// bindFlags binds the command's flags to config keys. Flag names use dashes
// where keys use underscores, and "audit-output" maps to "audit.output".
// Binding happens at run time because several commands share key names.
func bindFlags(flags *pflag.FlagSet) error {
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "help" {
			return
		}
		if err := viper.BindPFlag(flagKey(f.Name), f); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

func flagKey(name string) string {
	if rest, ok := strings.CutPrefix(name, "audit-"); ok {
		return "audit." + strings.ReplaceAll(rest, "-", "_")
	}
	return strings.ReplaceAll(name, "-", "_")
}

// loadConfig binds cmd's flags and loads the layered configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := bindFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	return config.LoadConfig()
}

// newLogger builds the diagnostic logger. It always writes to stderr:
// stdout carries the MCP stream.
func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLexicon returns the built-in lexicon extended with configured keywords.
func newLexicon(cfg *config.Config) *operation.Lexicon {
	lexicon := operation.DefaultLexicon()
	extra := cfg.ExtraKeywords()
	if len(extra) == 0 {
		return lexicon
	}
	return lexicon.Extend(lexicon.Version()+"+custom", extra)
}
