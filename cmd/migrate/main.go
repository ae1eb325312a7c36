package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ogurasousui/planner-assistant/internal/platform/config"
	"github.com/ogurasousui/planner-assistant/internal/platform/db/migration"
	"github.com/ogurasousui/planner-assistant/internal/platform/logger"
)

func main() {
	var (
		configPath    = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		migrationsDir = flag.String("dir", "assets/migrations", "directory containing migration files")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [flags] up|down|drop|version|steps N\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	cfg, err := config.Load(effectiveConfigPath(*configPath))
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	log := logger.SetupDefault(os.Stderr, cfg.Log.Level)

	if cfg.Storage.Driver != config.StorageDriverPostgres {
		log.Error("migrations require the postgres storage driver", slog.String("driver", cfg.Storage.Driver))
		os.Exit(1)
	}

	if err := run(log, action, flag.Args(), *migrationsDir, cfg.Database.DSN()); err != nil {
		log.Error("migration failed", slog.String("action", action), slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("migration completed", slog.String("action", action))
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}

func run(log *slog.Logger, action string, args []string, dir, dsn string) error {
	runner, err := migration.New(dir, dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn("failed to close migration runner", slog.Any("error", err))
		}
	}()

	if action != "version" {
		var rest []string
		if len(args) > 1 {
			rest = args[1:]
		}
		return runner.Run(action, rest...)
	}

	status, err := runner.Status()
	if err != nil {
		return err
	}
	if !status.Applied {
		log.Info("no migration applied")
		return nil
	}
	log.Info("migration version", slog.Uint64("version", uint64(status.Version)), slog.Bool("dirty", status.Dirty))
	return nil
}
