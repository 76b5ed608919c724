package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BaSui01/roundtable/config"
	"github.com/BaSui01/roundtable/groupchat"
	"github.com/BaSui01/roundtable/internal/metrics"
	"github.com/BaSui01/roundtable/internal/server"
	"github.com/BaSui01/roundtable/internal/telemetry"
	"github.com/BaSui01/roundtable/quick"
	"github.com/BaSui01/roundtable/sink"
	"github.com/BaSui01/roundtable/types"
)

// errInterrupted is the cancellation cause after a second interrupt.
var errInterrupted = errors.New("interrupted")

// =============================================================================
// 🗣️ run 命令
// =============================================================================

type runOptions struct {
	task   string
	stream bool
}

func runChat(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	task := fs.String("task", "", "Override the seed task")
	stream := fs.Bool("stream", false, "Consume the run as a stream")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return 1
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting RoundTable",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	interrupts := make(chan os.Signal, 2)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	res, err := chat(context.Background(), cfg, runOptions{task: *task, stream: *stream}, os.Stdout, logger, interrupts)
	return exitCode(res, err)
}

// exitCode maps a run outcome to the process status:
// 0 completed, 1 failed or rejected, 130 cancelled.
func exitCode(res *types.RunResult, err error) int {
	switch {
	case res == nil:
		return 1
	case res.StopReason == types.StopCancelled:
		return 130
	case err != nil:
		return 1
	default:
		return 0
	}
}

// chat wires telemetry, metrics and sinks around one run. The first value on
// interrupts stops the run after the current turn; the second cancels it.
func chat(ctx context.Context, cfg *config.Config, opts runOptions, out io.Writer, logger *zap.Logger, interrupts <-chan os.Signal) (*types.RunResult, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	names := make([]string, len(cfg.Chat.Participants))
	for i, p := range cfg.Chat.Participants {
		names[i] = p.Name
	}

	// OpenTelemetry
	providers, err := telemetry.Init(cfg.Telemetry, logger, attribute.StringSlice("roundtable.participants", names))
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer done()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	// Prometheus
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, logger)
		scfg := server.DefaultConfig()
		scfg.Addr = cfg.Metrics.Addr
		srv := server.NewManager(server.MetricsHandler(nil), scfg, logger)
		if err := srv.Start(); err != nil {
			logger.Warn("metrics server not started", zap.Error(err))
		} else {
			defer srv.Shutdown(context.WithoutCancel(ctx))
		}
	}

	console := sink.NewConsole(out, sink.WithColor(cfg.Chat.Color))
	fan, closers, err := quick.Sinks(ctx, cfg, logger, collector, console, sink.NewLogger(logger))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := closers.Close(); err != nil {
			logger.Warn("closing sinks failed", zap.Error(err))
		}
	}()

	qopts := []quick.Option{
		quick.WithLogger(logger),
		quick.WithTracer(providers.Tracer()),
		quick.WithMeter(providers.Meter()),
	}
	if collector != nil {
		qopts = append(qopts, quick.WithMetrics(collector))
	}
	if !opts.stream {
		qopts = append(qopts, quick.WithSinks(fan))
	}
	team, err := quick.New(cfg.Chat, qopts...)
	if err != nil {
		return nil, err
	}

	go watchInterrupts(ctx, interrupts, team, cancel, logger)

	task := opts.task
	if task == "" {
		task = cfg.Chat.Task
	}

	if opts.stream {
		return sink.ConsumeStream(ctx, team.RunStream(ctx, task), fan)
	}
	return team.Run(ctx, task)
}

func watchInterrupts(ctx context.Context, interrupts <-chan os.Signal, team *quick.Team, cancel context.CancelCauseFunc, logger *zap.Logger) {
	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-interrupts:
			if !ok {
				return
			}
			if n == 0 && team.State() == groupchat.StateRunning {
				logger.Warn("stopping after the current turn, interrupt again to cancel", zap.String("signal", sig.String()))
				team.Stop.Set()
				continue
			}
			logger.Warn("cancelling run", zap.String("signal", sig.String()))
			cancel(errInterrupted)
			return
		}
	}
}
