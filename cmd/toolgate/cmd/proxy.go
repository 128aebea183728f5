package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	diaghttp "github.com/Sentinel-Gate/toolgate/internal/adapter/inbound/http"
	"github.com/Sentinel-Gate/toolgate/internal/adapter/inbound/stdio"
	auditadapter "github.com/Sentinel-Gate/toolgate/internal/adapter/outbound/audit"
	mcpclient "github.com/Sentinel-Gate/toolgate/internal/adapter/outbound/mcp"
	"github.com/Sentinel-Gate/toolgate/internal/adapter/outbound/policyfile"
	"github.com/Sentinel-Gate/toolgate/internal/config"
	"github.com/Sentinel-Gate/toolgate/internal/domain/audit"
	"github.com/Sentinel-Gate/toolgate/internal/domain/policy"
	"github.com/Sentinel-Gate/toolgate/internal/domain/proxy"
	"github.com/Sentinel-Gate/toolgate/internal/service"
	"github.com/Sentinel-Gate/toolgate/internal/telemetry"
)

var proxyCmd = &cobra.Command{
	Use:   "proxy [flags] [-- command [args...]]",
	Short: "Run a backend MCP server behind the policy",
	Long: `Spawn a stdio MCP server and govern its tool calls.

The client talks to toolgate on stdin/stdout exactly as it would talk to the
backend. Denied tools/call requests are answered with a JSON-RPC error
(code -32001) and never reach the backend. toolgate exits with the
backend's exit status.

Examples:
  # Backend command as a flag (split on whitespace)
  toolgate proxy --service filesystem --command "npx server-filesystem /tmp" --policy policy.yaml

  # Backend argv after --
  toolgate proxy --policy policy.yaml -- npx @modelcontextprotocol/server-github

  # Reload the policy whenever the file changes
  toolgate proxy --policy policy.yaml --policy-watch -- ./server`,
	RunE: runProxy,
}

func init() {
	f := proxyCmd.Flags()
	f.String("service", "", "service name for policy lookup (default: derived from each tool name)")
	f.String("command", "", "backend command line, split on whitespace")
	f.String("policy", "", "policy file (YAML or JSON)")
	f.Bool("policy-watch", false, "reload the policy when the file changes")
	f.String("log-level", "", "log level: debug, info, warn, error")
	f.String("audit-output", "", "audit output: stderr or file:///absolute/path.jsonl")
	f.String("metrics-addr", "", "serve /metrics and /health on this address")
	f.String("trace-output", "", "write spans to stderr or a file")
	f.Duration("shutdown-timeout", 0, "how long to wait for the backend after a termination signal")
	rootCmd.AddCommand(proxyCmd)
}

func runProxy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Args = args
	}
	if err := cfg.RequireProxyTarget(); err != nil {
		_ = cmd.Usage()
		return err
	}

	logger := newLogger(cfg.LogLevel)
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	// Registered before the backend is spawned, so a signal that arrives
	// early is relayed rather than killing the proxy and orphaning the child.
	sigs := notifySignals()
	defer sigs.stop()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	reg := prometheus.NewRegistry()
	metrics := diaghttp.NewMetrics(reg)

	policies, err := service.NewPolicyService(
		func() (*policy.Table, error) { return policyfile.Load(cfg.Policy) },
		logger,
		service.WithReloadObserver(metrics),
	)
	if err != nil {
		return err
	}
	metrics.SetPolicyVersion(policies.Active().Version())

	recorder, closeAudit, err := newAuditRecorder(cfg, logger)
	if err != nil {
		return err
	}
	defer closeAudit()

	tracing, err := telemetry.NewProvider(cfg.TraceOutput, cfg.Service)
	if err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := tracing.Shutdown(sctx); err != nil {
			logger.Warn("trace shutdown failed", "error", err)
		}
	}()

	lexicon := newLexicon(cfg)
	logger.Debug("classifier ready", "lexicon_version", lexicon.Version(), "keywords", lexicon.Size())

	interceptor := proxy.NewEnforcementInterceptor(
		lexicon,
		policies,
		recorder,
		proxy.NewPassthroughInterceptor(),
		logger,
		proxy.WithService(cfg.Service),
		proxy.WithMetrics(metrics),
		proxy.WithTracer(tracing.Tracer()),
	)

	argv := cfg.Argv()
	client := mcpclient.NewStdioClient(argv)
	proxyService := service.NewProxyService(client, interceptor, logger,
		service.WithShutdownTimeout(cfg.ShutdownTimeout),
		service.WithExitObserver(metrics),
	)
	transport := stdio.NewStdioTransport(proxyService)

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	if cfg.MetricsAddr != "" {
		health := diaghttp.NewHealthChecker(policies, metrics, Version)
		srv := diaghttp.NewDiagnosticsServer(reg, health,
			diaghttp.WithAddr(cfg.MetricsAddr),
			diaghttp.WithLogger(logger),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				logger.Error("diagnostics server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	if cfg.PolicyWatch {
		watcher, err := policyfile.NewWatcher(cfg.Policy, logger)
		if err != nil {
			return fmt.Errorf("watch policy: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer watcher.Close()
			err := watcher.Run(ctx, func() { _ = policies.Reload(ctx) })
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("policy watcher stopped", "error", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		relaySignals(ctx, sigs, transport.Shutdown, policies.Reload, logger)
	}()

	logger.Info("starting proxy",
		"command", argv,
		"service", cfg.Service,
		"policy", cfg.Policy,
		"policy_version", policies.Active().Version(),
	)
	return transport.Start(ctx)
}

// signalSet holds the channels subscribed to termination and reload
// signals.
type signalSet struct {
	term   chan os.Signal
	reload chan os.Signal
}

// notifySignals subscribes to termination and reload signals. The
// subscription is in place when it returns.
func notifySignals() *signalSet {
	s := &signalSet{
		term:   make(chan os.Signal, 1),
		reload: make(chan os.Signal, 1),
	}
	signal.Notify(s.term, terminationSignals()...)
	// signal.Notify with no signals would subscribe to all of them.
	if sigs := reloadSignals(); len(sigs) > 0 {
		signal.Notify(s.reload, sigs...)
	}
	return s
}

func (s *signalSet) stop() {
	signal.Stop(s.term)
	signal.Stop(s.reload)
}

// relaySignals forwards termination signals to shutdown and calls reload on
// reload signals, until ctx is done.
func relaySignals(ctx context.Context, sigs *signalSet, shutdown func(os.Signal), reload func(context.Context) error, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs.term:
			logger.Info("relaying signal to backend", "signal", sig.String())
			shutdown(sig)
		case sig := <-sigs.reload:
			logger.Info("reloading policy", "signal", sig.String())
			_ = reload(ctx)
		}
	}
}

// newAuditRecorder builds the audit sinks: the diagnostic line on stderr,
// plus a rotated JSONL file when audit.output names one.
func newAuditRecorder(cfg *config.Config, logger *slog.Logger) (audit.Recorder, func(), error) {
	recorders := auditadapter.MultiRecorder{auditadapter.NewLogRecorder(os.Stderr)}

	path := cfg.AuditFilePath()
	if path == "" {
		return recorders, func() {}, nil
	}

	store, err := auditadapter.NewFileStore(auditadapter.FileConfig{
		Path:          path,
		MaxFileSizeMB: cfg.Audit.MaxFileSizeMB,
		MaxBackups:    cfg.Audit.Backups(),
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit file: %w", err)
	}
	closeStore := func() {
		fctx, fcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer fcancel()
		if err := store.Flush(fctx); err != nil {
			logger.Warn("flushing audit file failed", "error", err)
		}
		if err := store.Close(); err != nil {
			logger.Warn("closing audit file failed", "error", err)
		}
	}
	return append(recorders, store), closeStore, nil
}
