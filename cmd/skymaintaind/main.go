// Command skymaintaind runs the advisory compliance gate: the service that
// validates operational data ingestion, enforces the policy-stamp contract
// on AI advisories, and records human dispositions as an append-only audit
// log.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mosesonilede-crypto/skymaintain-core/pkg/api"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/audit"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/auth"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/config"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/decision"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/export"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/ingestion"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/observability"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/rules"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/store"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run dispatches subcommands. It exists separately from main so tests can
// drive the binary without a process boundary.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		return runServer(stderr)
	}
	switch args[1] {
	case "server", "serve":
		return runServer(stderr)
	case "export":
		return runExport(args[2:], stdout, stderr)
	case "health":
		return runHealth(stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "Usage: skymaintaind [server|export|health]\n")
		return 2
	}
}

func runServer(stderr io.Writer) int {
	cfg := config.Load()
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(ctx, observability.Config{
		ServiceName:  "skymaintain-core",
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     true,
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "tracing setup failed: %v\n", err)
		return 1
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	registry := ingestion.DefaultRegistry()
	if cfg.ContractBundle != "" {
		registry, err = ingestion.LoadBundle(cfg.ContractBundle)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "contract bundle load failed: %v\n", err)
			return 1
		}
		logger.Info("loaded contract bundle",
			"path", cfg.ContractBundle, "version", registry.Version())
	}

	// The store is constructed here and passed by handle everywhere;
	// nothing else in the process may create one.
	eventStore := store.NewEventStore()
	if cfg.EventLogPath != "" {
		eventLog, err := store.OpenSQLiteEventLog(cfg.EventLogPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "event log open failed: %v\n", err)
			return 1
		}
		defer func() { _ = eventLog.Close() }()
		if err := eventLog.LoadInto(ctx, eventStore); err != nil {
			_, _ = fmt.Fprintf(stderr, "event log replay failed: %v\n", err)
			return 1
		}
		logger.Info("replayed event log",
			"path", cfg.EventLogPath, "events", eventStore.Sequence())
		eventStore.OnAppend(func(entry store.ChainedEvent) {
			if err := eventLog.Persist(context.Background(), entry); err != nil {
				logger.Error("event log persist failed",
					"event", entry.Event.ID, "error", err)
			}
		})
	}

	auditLog := audit.NewLogger()
	validator := ingestion.NewValidator(registry, eventStore, auditLog)
	recorder := decision.NewRecorder(eventStore, rules.NewEngine(), auditLog)
	service := api.NewService(validator, recorder, eventStore)

	mux := http.NewServeMux()
	service.Routes(mux)

	handler := auth.NewValidator([]byte(cfg.AuthSecret)).Middleware(mux)
	if cfg.AuthSecret == "" {
		logger.Warn("AUTH_SECRET unset; acknowledger identity is not verified")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("advisory compliance gate listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_, _ = fmt.Fprintf(stderr, "server failed: %v\n", err)
		return 1
	}
	return 0
}

// runExport renders a persisted event log to stdout without starting the
// server. Useful for handing auditors a snapshot from a stopped instance.
func runExport(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	logPath := fs.String("log", "", "path to the sqlite event log")
	format := fs.String("format", "json", "export format: json, csv, or pdf")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *logPath == "" {
		_, _ = fmt.Fprintln(stderr, "export: -log is required")
		return 2
	}

	f, err := export.ParseFormat(*format)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "export: %v\n", err)
		return 2
	}

	eventLog, err := store.OpenSQLiteEventLog(*logPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "export: %v\n", err)
		return 1
	}
	defer func() { _ = eventLog.Close() }()

	eventStore := store.NewEventStore()
	if err := eventLog.LoadInto(context.Background(), eventStore); err != nil {
		_, _ = fmt.Fprintf(stderr, "export: %v\n", err)
		return 1
	}

	body, err := export.Render(f, "Decision Event Audit Report", eventStore.Decisions())
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "export: %v\n", err)
		return 1
	}
	_, _ = stdout.Write(body)
	return 0
}

func runHealth(stdout, stderr io.Writer) int {
	cfg := config.Load()
	resp, err := http.Get("http://localhost:" + cfg.Port + "/health")
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "health check failed: %v\n", err)
		return 1
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		_, _ = fmt.Fprintf(stderr, "health check returned %d\n", resp.StatusCode)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, "ok")
	return 0
}
