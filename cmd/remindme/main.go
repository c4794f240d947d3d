// Command remindme is an interactive reminder scheduler. Reminders open a
// link or launch a program at a given minute, with a desktop notification.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/notexe/remindme/internal/config"
	"github.com/notexe/remindme/internal/dispatch"
	"github.com/notexe/remindme/internal/reminder"
	"github.com/notexe/remindme/internal/repl"
	"github.com/notexe/remindme/internal/scheduler"
)

func main() {
	configPath := flag.String("config", config.GetDefaultConfigPath(), "Path to configuration file")
	storePath := flag.String("store", "", "Path to reminders.json (overrides config)")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	headless := flag.Bool("headless", false, "Run only the due-check loop, without the prompt")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Apply CLI flag overrides
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}
	if *noColor {
		cfg.UI.ColoredOutput = false
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logOut, closeLog, err := openLog(cfg.Log.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	logger := newLogger(logOut, cfg.Log.Level)

	store, err := reminder.Open(cfg.Store.Path, logger.WithPrefix("store"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening reminders: %v\n", err)
		os.Exit(1)
	}

	dispatcher := dispatch.New(
		buildNotifiers(cfg),
		dispatch.NewSystemLauncher(),
		cfg.Notify.Title,
		logger.WithPrefix("dispatch"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if *headless {
		sched := scheduler.New(store, dispatcher, cfg.CheckInterval(),
			scheduler.WithLogger(logger.WithPrefix("scheduler")),
			scheduler.WithDispatchTimeout(cfg.DispatchTimeout()))
		go func() {
			<-sigChan
			cancel()
		}()
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler stopped", "err", err)
			os.Exit(1)
		}
		return
	}

	var ui *repl.REPL
	sched := scheduler.New(store, dispatcher, cfg.CheckInterval(),
		scheduler.WithLogger(logger.WithPrefix("scheduler")),
		scheduler.WithDispatchTimeout(cfg.DispatchTimeout()),
		scheduler.WithObserver(func(fired []reminder.Reminder) {
			if ui != nil {
				ui.Fired(fired)
			}
		}))

	ui, err = repl.NewREPL(store, sched, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating prompt: %v\n", err)
		os.Exit(1)
	}

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler stopped", "err", err)
		}
	}()

	go func() {
		<-sigChan
		cancel()
		ui.Stop()
	}()

	if err := ui.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Let actions of a pass that just fired finish before exiting.
	cancel()
	<-schedDone
}

func buildNotifiers(cfg *config.Config) dispatch.Notifiers {
	var notifiers dispatch.Notifiers
	if cfg.Notify.Desktop {
		notifiers = append(notifiers, dispatch.DesktopNotifier{Icon: cfg.Notify.Icon})
	}
	if cfg.Notify.Telegram.Enabled() {
		notifiers = append(notifiers, dispatch.NewTelegramNotifier(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID))
	}
	return notifiers
}

// openLog opens the log file; "" or "-" selects stderr. The interactive
// prompt owns the terminal, so the default is a file.
func openLog(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stderr, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func newLogger(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
	})
}
