package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-lesson-scheduler/pkg/config"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/database"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/logger"
)

var CLI struct {
	Migrate                 MigrateCmd                 `cmd:"" help:"Apply pending database migrations."`
	DeactivateExpiredGroups DeactivateExpiredGroupsCmd `cmd:"" name:"deactivate-expired-groups" help:"Deactivate groups whose lessons have all ended."`
	CheckGroup              CheckGroupCmd              `cmd:"" name:"check-group" help:"Report conflicts for a prospective group lesson without saving it."`
}

// runContext carries shared dependencies into every command.
type runContext struct {
	ctx    context.Context
	cfg    *config.Config
	db     *sqlx.DB
	logger *zap.Logger
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("schedulerctl"),
		kong.Description("Maintenance commands for the lesson scheduler"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	if err := run(kctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(kctx *kong.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer db.Close() //nolint:errcheck

	return kctx.Run(&runContext{ctx: ctx, cfg: cfg, db: db, logger: logr})
}
