// Package http serves toolgate's diagnostics endpoints.
//
// The proxied MCP stream never travels over HTTP; this package only exposes
// operational state next to the stdio proxy when metrics_addr is set.
//
// # Endpoints
//
//	GET /metrics - Prometheus exposition (toolgate_* plus Go and process collectors)
//	GET /health  - JSON health report, 503 once the backend has exited
//
// # Usage
//
//	reg := prometheus.NewRegistry()
//	metrics := http.NewMetrics(reg)
//	health := http.NewHealthChecker(policyService, metrics, version)
//	srv := http.NewDiagnosticsServer(reg, health, http.WithAddr("127.0.0.1:9464"))
//	go srv.Run(ctx)
package http
