// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command autolock locks the workstation a fixed interval after login or unlock.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/autolock/internal/api"
	"github.com/ManuGH/autolock/internal/config"
	"github.com/ManuGH/autolock/internal/countdown"
	"github.com/ManuGH/autolock/internal/daemon"
	"github.com/ManuGH/autolock/internal/health"
	"github.com/ManuGH/autolock/internal/indicator"
	"github.com/ManuGH/autolock/internal/instance"
	"github.com/ManuGH/autolock/internal/lockaction"
	xglog "github.com/ManuGH/autolock/internal/log"
	"github.com/ManuGH/autolock/internal/metrics"
	"github.com/ManuGH/autolock/internal/session"
	"github.com/ManuGH/autolock/internal/version"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "watch":
			os.Exit(runWatchCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	os.Exit(runDaemon(*configPath))
}

// resolveConfigPath picks the config file: explicit flag, then
// AUTOLOCK_CONFIG, then autolock.yaml next to the executable if present.
func resolveConfigPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(config.EnvConfigPath)); p != "" {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	auto := filepath.Join(filepath.Dir(exe), config.DefaultConfigFileName)
	if _, err := os.Stat(auto); err == nil {
		return auto
	}
	return ""
}

func runDaemon(explicitConfigPath string) int {
	runID := uuid.NewString()

	// Configure logger with safe defaults until config is loaded
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "autolock",
		Version: version.Version,
		RunID:   runID,
	})
	logger := xglog.WithComponent("main")

	guard, err := instance.Acquire("")
	if errors.Is(err, instance.ErrAlreadyRunning) {
		fmt.Fprintln(os.Stderr, instance.ErrAlreadyRunning.Error())
		return 1
	}
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "instance.guard_failed").Msg("failed to acquire single-instance guard")
		return 1
	}
	defer func() { _ = guard.Release() }()

	configPath := resolveConfigPath(explicitConfigPath)
	loader := config.NewLoader(configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str(xglog.FieldPath, configPath).
			Msg("failed to load configuration")
		return 1
	}

	logDir, err := xglog.ResolveDir(cfg.LogDirectory)
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "log.dir_invalid").Msg("failed to resolve log directory")
		return 1
	}

	if err := health.PerformStartupChecks(logger, cfg, logDir); err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "startup.check_failed").
			Msg("startup checks failed, verify configuration and permissions")
		return 1
	}

	daily, err := xglog.OpenDailyFile(logDir)
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "log.open_failed").Msg("failed to open log file")
		return 1
	}
	recent := xglog.NewRecent(xglog.DefaultRecentSize)

	// Re-configure logger with loaded configuration
	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Output:  zerolog.MultiLevelWriter(os.Stdout, xglog.FileFormat(daily), recent),
		Service: "autolock",
		Version: version.Version,
		RunID:   runID,
	})
	logger = xglog.WithComponent("main")

	source := "env+defaults"
	if configPath != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("config_source", source).
		Str(xglog.FieldPath, configPath).
		Str("log_file", daily.Path()).
		Dur(xglog.FieldTimeout, cfg.LockTimeout()).
		Msg("starting autolock")
	metrics.SetBuildInfo(version.Version, version.Commit)

	mgr, trigger, err := buildDaemon(cfg, daily, recent)
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "manager.creation.failed").Msg("failed to create daemon manager")
		_ = daily.Close()
		return 1
	}

	watcher := config.NewWatcher(cfg, loader)
	watcher.OnChange = recordConfigCheck

	app := daemon.NewApp(logger, mgr, watcher, trigger)
	if err := app.Run(context.Background()); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "manager.failed").Msg("daemon app failed")
		return 1
	}
	return 0
}

// buildDaemon wires the countdown, session bridge, indicator and status API.
func buildDaemon(cfg config.AppConfig, daily *xglog.DailyFile, recent *xglog.Recent) (daemon.Manager, *daemon.Trigger, error) {
	base := xglog.Base()

	locker, err := lockaction.NewPlatformLocker(base)
	if err != nil {
		base.Warn().Err(err).Str(xglog.FieldEvent, "lock.unavailable").Msg("no lock action available on this platform")
		locker = lockaction.Unavailable(err)
	}

	timer, err := countdown.New(countdown.Config{
		Timeout: cfg.LockTimeout(),
		Locker:  locker,
		Logger:  base,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create countdown: %w", err)
	}

	var src session.Source
	src, err = session.NewPlatformSource(base)
	if err != nil {
		base.Warn().Err(err).Str(xglog.FieldEvent, "session.unavailable").Msg("session notifications unavailable, using a manual source")
		src = session.NewManual()
	}
	bridge := session.NewBridge(timer, src, base)

	ind := indicator.New(indicator.Config{
		Countdown: timer,
		Language:  indicator.MatchLanguage(cfg.Language),
		Logger:    base,
	})

	hm := health.NewManager(version.Version)
	hm.RegisterChecker(health.NewFileChecker("log_file", daily.Path))
	hm.RegisterChecker(health.NewCountdownChecker(timer.Snapshot))
	hm.RegisterChecker(health.NewSessionChecker(bridge.Subscribed))

	trigger := daemon.NewTrigger()

	var handler http.Handler
	if cfg.Status.ListenAddr != "" {
		apiDeps := api.Deps{
			Countdown: timer,
			Indicator: ind,
			Logs:      recent,
			Health:    hm,
			Version:   version.Version,
			Metrics:   cfg.Status.Metrics,
		}
		if cfg.Status.ShutdownEnabled {
			apiDeps.Shutdown = func(reason string) { trigger.Fire(reason) }
		}
		handler = api.New(apiDeps)
	}

	mgr, err := daemon.NewManager(daemon.DefaultServerConfig(cfg.Status.ListenAddr), daemon.Deps{
		Logger:     base,
		Countdown:  timer,
		Bridge:     bridge,
		Indicator:  ind,
		LogSink:    daily,
		APIHandler: handler,
	})
	if err != nil {
		return nil, nil, err
	}
	return mgr, trigger, nil
}

func recordConfigCheck(summary config.ChangeSummary, err error) {
	switch {
	case err != nil:
		metrics.IncConfigCheck("invalid")
	case summary.RestartRequired:
		metrics.IncConfigCheck("restart_required")
	default:
		metrics.IncConfigCheck("unchanged")
	}
}
