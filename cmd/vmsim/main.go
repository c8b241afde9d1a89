// Command vmsim runs a virtual memory simulation script: it builds a
// machine from the configured geometry, drives it through the trace and
// reports statistics. With --watch it re-runs the script on every change
// until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jins0704/OS-Simulator-VirtualMemory/config"
	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
	"github.com/jins0704/OS-Simulator-VirtualMemory/monitor"
	"github.com/jins0704/OS-Simulator-VirtualMemory/stats"
	"github.com/jins0704/OS-Simulator-VirtualMemory/trace"
	"github.com/jins0704/OS-Simulator-VirtualMemory/viz"
	"github.com/jins0704/OS-Simulator-VirtualMemory/vm"
)

// initialPID is the PID of the process every session starts with.
const initialPID = mm.PID(1)

// debounceDelay coalesces the bursts of write events editors emit when
// saving the watched trace.
const debounceDelay = 200 * time.Millisecond

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("vmsim", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "path to the JSON configuration file")
		tracePath  = fs.String("trace", "", "path to the trace script (required)")
		watch      = fs.Bool("watch", false, "re-run the trace on every change until interrupted")
	)

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *tracePath == "" {
		fmt.Fprintln(os.Stderr, "vmsim: --trace is required")
		fs.Usage()
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "vmsim: %v\n", err)
			return 1
		}
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vmsim: %v\n", err)
		return 1
	}
	defer closeLog()

	logger.Info("starting", "version", config.Version, "trace", *tracePath,
		"pages_per_table", cfg.PagesPerTable, "frames", cfg.Frames, "watch", *watch)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runOnce(cfg, logger, *tracePath); err != nil {
		logger.Error("run failed", "err", err)
		return 1
	}

	if !*watch {
		return 0
	}

	if err := watchLoop(ctx, cfg, logger, *tracePath); err != nil {
		logger.Error("watch failed", "err", err)
		return 1
	}

	return 0
}

// newLogger builds the slog logger from the config, duplicating output
// to the configured log file when one is set.
func newLogger(cfg config.Config) (*slog.Logger, func(), error) {
	out := io.Writer(os.Stderr)
	closeLog := func() {}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}

		out = io.MultiWriter(os.Stderr, f)
		closeLog = func() { f.Close() }
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level()})
	return slog.New(handler), closeLog, nil
}

// runOnce executes the whole trace against a fresh machine. Each run is
// an independent session: nothing carries over between watch iterations.
func runOnce(cfg config.Config, logger *slog.Logger, tracePath string) error {
	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}

	commands, err := trace.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	machine, err := vm.NewMachine(cfg.Geometry(), initialPID)
	if err != nil {
		return err
	}

	counters := stats.New(cfg.Geometry())

	if cfg.MonitorAddr != "" {
		srv := monitor.New(machine, counters, logger)
		if err = srv.Start(cfg.MonitorAddr); err != nil {
			return fmt.Errorf("start monitor: %w", err)
		}
		defer srv.Shutdown()
	}

	runner := trace.NewRunner(machine, counters, logger, os.Stdout)
	if err = runner.Run(commands); err != nil {
		return err
	}

	logger.Info("run complete", "summary", counters.Summarize().String())

	if cfg.Snapshot != "" {
		if err = viz.Render(machine.Snapshot(), counters, cfg.Snapshot); err != nil {
			return fmt.Errorf("render snapshot: %w", err)
		}
		logger.Info("snapshot written", "path", cfg.Snapshot)
	}

	return nil
}

// watchLoop re-runs the trace whenever the file changes, coalescing
// event bursts, until ctx is cancelled.
func watchLoop(ctx context.Context, cfg config.Config, logger *slog.Logger, tracePath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err = watcher.Add(tracePath); err != nil {
		return err
	}

	logger.Info("watching trace", "path", tracePath)

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				debounce.Reset(debounceDelay)
			}

			// Some editors replace the file on save; re-arm the watch.
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				watcher.Remove(tracePath)
				if err = watcher.Add(tracePath); err == nil {
					debounce.Reset(debounceDelay)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)

		case <-debounce.C:
			logger.Info("trace changed, re-running")
			if err := runOnce(cfg, logger, tracePath); err != nil {
				logger.Error("run failed", "err", err)
			}
		}
	}
}
