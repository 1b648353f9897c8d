// keyjournal - keystroke and click session journal
//
// keyjournal decodes raw keyboard and mouse hook events into typed text and
// closes a session record on every trigger click:
//
//	keyjournal replay <recording>   Replay a recorded event stream
//	keyjournal follow <recording>   Follow a live recording as it grows
//	keyjournal decode <vk>...       Decode virtual-key codes
//	keyjournal log                  Show recent session records
//	keyjournal export <file.csv>    Export all records as CSV
//	keyjournal config <action>      Create or show the configuration
//	keyjournal status               Show configuration, store and follower status
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"

	"keyjournal/internal/config"
	"keyjournal/internal/health"
	"keyjournal/internal/keystroke"
	"keyjournal/internal/logging"
	"keyjournal/internal/recording"
	"keyjournal/internal/sentinel"
	"keyjournal/internal/store"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "replay":
		err = cmdReplay(args)
	case "follow":
		err = cmdFollow(args)
	case "decode":
		err = cmdDecode(args)
	case "log":
		err = cmdLog(args)
	case "export":
		err = cmdExport(args)
	case "config":
		err = cmdConfig(args)
	case "status":
		err = cmdStatus(args)
	case "version":
		fmt.Println("keyjournal", version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`keyjournal - Keystroke and Click Session Journal

USAGE:
    keyjournal <command> [options]

COMMANDS:
    replay <recording>     Replay a recorded event stream into the journal
    follow <recording>     Follow a live recording as an adapter appends to it
    decode <vk>...         Decode virtual-key codes (decimal, 0x hex, or a letter)
    log                    Show recent session records
    export <file.csv>      Export all records as CSV ("-" for stdout)
    config init|show       Write a default configuration or print the current one
    status                 Show configuration, store and follower status
    version                Print the version
    help                   Show this help message

COMMON OPTIONS:
    -config <path>         Configuration file (default: platform config dir)

A recording is newline-delimited JSON: one header line followed by one line
per hook event. Every left or right click closes the current session and
stores what was typed since the previous click.`)
}

// newFlagSet returns a flag set carrying the shared -config flag.
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	path := fs.String("config", config.ConfigPath(), "configuration file")
	return fs, path
}

// setup loads the configuration and installs the configured logger as the
// default.
func setup(path string) (*config.Loader, *config.Config, *logging.Logger, error) {
	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LoggerConfig())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create logger: %w", err)
	}
	logging.SetDefault(logger)
	return loader, cfg, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func cmdReplay(args []string) error {
	fs, cfgPath := newFlagSet("replay")
	strict := fs.Bool("strict", false, "stop at the first malformed line")
	metricsPath := fs.String("metrics", "", "write Prometheus metrics to this file on exit")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: keyjournal replay [-strict] [-metrics file] <recording>")
	}
	path := fs.Arg(0)

	_, cfg, logger, err := setup(*cfgPath)
	if err != nil {
		return err
	}
	defer logger.Close()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	r, err := recording.NewReader(f)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	p, err := newPipeline(ctx, cfg, logger, filepath.Dir(path), *strict)
	if err != nil {
		return err
	}

	stats, playErr := p.player.Play(ctx, r)
	closeErr := p.Close()
	p.publishMetrics(*metricsPath)

	printSummary(p.summary(), stats)
	if playErr != nil && !errors.Is(playErr, context.Canceled) {
		return playErr
	}
	return closeErr
}

func cmdFollow(args []string) error {
	fs, cfgPath := newFlagSet("follow")
	strict := fs.Bool("strict", false, "stop at the first malformed line")
	metricsPath := fs.String("metrics", "", "write Prometheus metrics to this file on exit")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: keyjournal follow [-strict] [-metrics file] <recording>")
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		return err
	}

	loader, cfg, logger, err := setup(*cfgPath)
	if err != nil {
		return err
	}
	defer logger.Close()

	loader.OnChange(func(c *config.Config) {
		lvl, err := logging.ParseLevel(c.Logging.Level)
		if err != nil {
			return
		}
		logger.SetLevel(lvl)
		logger.Info("configuration reloaded", slog.String("level", logging.LevelString(lvl)))
	})
	if err := loader.Watch(); err != nil {
		logger.Warn("config watch unavailable", slog.Any("error", err))
	}
	defer loader.Close()

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		for {
			select {
			case err := <-loader.Errors():
				logger.Warn("config reload rejected", slog.Any("error", err))
			case <-ctx.Done():
				return
			}
		}
	}()

	p, err := newPipeline(ctx, cfg, logger, filepath.Dir(path), *strict)
	if err != nil {
		return err
	}

	daemon := sentinel.NewDaemonManager(config.DataDir())
	if err := daemon.Start(sentinel.DaemonState{
		StartedAt: time.Now(),
		Version:   version,
		SessionID: p.sessionID,
		Source:    path,
	}); err != nil {
		p.Close()
		return err
	}
	defer daemon.Cleanup()

	fmt.Printf("Following %s (session %s). Press Ctrl+C to stop.\n", path, p.sessionID)
	followErr := recording.Follow(ctx, path, p.applyLine)
	closeErr := p.Close()
	p.publishMetrics(*metricsPath)

	printSummary(p.summary(), recording.Stats{})
	if followErr != nil {
		return followErr
	}
	return closeErr
}

func printSummary(s sessionSummary, stats recording.Stats) {
	fmt.Println("=== Session Summary ===")
	fmt.Printf("Session:          %s\n", s.SessionID)
	if stats.Events > 0 || stats.Skipped > 0 {
		fmt.Printf("Events replayed:  %d\n", stats.Events)
		fmt.Printf("Lines skipped:    %d\n", stats.Skipped)
	}
	fmt.Printf("Events handled:   %d\n", s.Handled)
	fmt.Printf("Sessions closed:  %d\n", s.Flushes)
	if s.Audits > 0 {
		fmt.Printf("Keystroke audits: %d\n", s.Audits)
	}
	if s.SinkErrors > 0 {
		fmt.Printf("Sink errors:      %d\n", s.SinkErrors)
	}
	if s.CaptureFailures > 0 {
		fmt.Printf("Capture failures: %d\n", s.CaptureFailures)
	}
	if s.Faults > 0 {
		fmt.Printf("Handler faults:   %d\n", s.Faults)
	}
}

func cmdDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	shift := fs.Bool("shift", false, "Shift held")
	caps := fs.Bool("caps", false, "Caps Lock on")
	ctrl := fs.Bool("ctrl", false, "Ctrl held")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return errors.New("usage: keyjournal decode [-shift] [-caps] [-ctrl] <vk>...")
	}

	mods := keystroke.ModifierState{Shift: *shift, CapsLock: *caps, Ctrl: *ctrl}
	for _, arg := range fs.Args() {
		vk, err := keystroke.ParseVK(arg)
		if err != nil {
			return err
		}
		tok := keystroke.Decode(vk, mods)
		fmt.Printf("0x%02X  %-10s  %-9s  %s\n", uint8(vk), vk, tok.Kind, tok.Text())
	}
	return nil
}

func openStore(path string) (*store.Store, *config.Config, error) {
	cfg, err := config.NewLoader(path).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := store.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}

func cmdLog(args []string) error {
	fs, cfgPath := newFlagSet("log")
	n := fs.Int("n", 20, "number of records")
	fs.Parse(args)

	db, _, err := openStore(*cfgPath)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.Recent(context.Background(), *n)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No records.")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("[%d] %s  %s\n", rec.ID, rec.FormattedTimestamp(), rec.Kind)
		if rec.Trigger != "" {
			fmt.Printf("    Trigger: %s\n", rec.Trigger)
		}
		if rec.ActiveApplication != "" {
			fmt.Printf("    Window:  %s\n", rec.ActiveApplication)
		}
		fmt.Printf("    Visible: %s\n", rec.VisibleText)
		fmt.Printf("    Keys:    %s\n", rec.Transcript)
		if rec.ScreenshotPath != "" {
			fmt.Printf("    Shot:    %s\n", rec.ScreenshotPath)
		}
		fmt.Println()
	}
	return nil
}

func cmdExport(args []string) error {
	fs, cfgPath := newFlagSet("export")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: keyjournal export <file.csv>")
	}

	db, _, err := openStore(*cfgPath)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.All(context.Background())
	if err != nil {
		return err
	}

	out := fs.Arg(0)
	if out == "-" {
		return store.WriteCSV(os.Stdout, records)
	}

	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	if err := store.WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Exported %d records to %s\n", len(records), out)
	return nil
}

func cmdConfig(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: keyjournal config init|show [-config path]")
	}
	action := args[0]
	fs, cfgPath := newFlagSet("config " + action)
	force := fs.Bool("force", false, "overwrite an existing file")
	fs.Parse(args[1:])

	switch action {
	case "init":
		if _, err := os.Stat(*cfgPath); err == nil && !*force {
			return fmt.Errorf("%s already exists (use -force to overwrite)", *cfgPath)
		}
		if err := os.MkdirAll(filepath.Dir(*cfgPath), 0700); err != nil {
			return err
		}
		if err := config.SaveConfig(config.DefaultConfig(), *cfgPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", *cfgPath)
		return nil

	case "show":
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "\nWarning: %v\n", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown config action: %s", action)
	}
}

func cmdStatus(args []string) error {
	fs, cfgPath := newFlagSet("status")
	fs.Parse(args)

	fmt.Println("=== keyjournal Status ===")
	fmt.Println()
	fmt.Printf("Version:        %s\n", version)
	fmt.Printf("Config file:    %s\n", *cfgPath)
	fmt.Printf("Data directory: %s\n", config.DataDir())

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Printf("Config:         invalid (%v)\n", err)
		return nil
	}
	fmt.Printf("Sinks:          %s\n", strings.Join(cfg.Storage.Sinks, ", "))
	fmt.Printf("Triggers:       %s\n", strings.Join(cfg.Capture.TriggerButtons, ", "))

	checker := health.NewChecker()
	if cfg.SinkEnabled("sqlite") {
		checker.RegisterFunc("database", true, health.DatabaseCheck(cfg.Storage.DatabasePath))
	}
	if cfg.SinkEnabled("csv") {
		checker.RegisterFunc("csv", true, health.WritableDirCheck(filepath.Dir(cfg.Storage.CSVPath)))
	}
	if cfg.Capture.Screenshots {
		checker.RegisterFunc("screenshots", false, health.WritableDirCheck(cfg.Capture.ScreenshotDir))
	}
	if cfg.Logging.CrashDir != "" {
		checker.RegisterFunc("crash reports", false, health.WritableDirCheck(cfg.Logging.CrashDir))
	}

	if cfg.Logging.CrashDir != "" {
		reports, err := logging.NewCrashHandler(&logging.CrashHandlerConfig{CrashDir: cfg.Logging.CrashDir}).Reports()
		if err != nil {
			fmt.Printf("Crash reports:  unreadable (%v)\n", err)
		} else {
			fmt.Printf("Crash reports:  %s\n", crashSummary(reports))
		}
	}

	report := checker.Run(context.Background())
	fmt.Println()
	fmt.Printf("Health:         %s\n", report.Status)
	for _, r := range report.Results {
		line := r.Message
		if r.Error != "" {
			line += ": " + r.Error
		}
		fmt.Printf("  %-14s %-9s %s\n", r.Name, r.Status, line)
	}

	fmt.Println()
	st := sentinel.NewDaemonManager(config.DataDir()).Status()
	if st.Running {
		fmt.Printf("Follower:       running (pid %d, up %s)\n", st.PID, st.Uptime.Round(time.Second))
		fmt.Printf("Following:      %s\n", st.Source)
		fmt.Printf("Session:        %s\n", st.SessionID)
	} else {
		fmt.Println("Follower:       not running")
	}
	return nil
}
