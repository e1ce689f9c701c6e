package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cord/internal/attribution"
	attrmetrics "cord/internal/attribution/metrics"
	"cord/internal/chat"
	"cord/internal/chat/rest"
	"cord/internal/dispatch"
	dispatchmetrics "cord/internal/dispatch/metrics"
	"cord/internal/domain"
	"cord/internal/notify"
	"cord/internal/platform/config"
	"cord/internal/platform/health"
	"cord/internal/platform/logger"
	"cord/internal/platform/tracer"
	"cord/internal/topology"
	topometrics "cord/internal/topology/metrics"
	"cord/internal/topology/store"
	"cord/internal/transport/ops"
)

// main wires high-level dependencies and keeps the process lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("service failed", "error", err)
		os.Exit(1)
	}
	log.Info("service stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	targetGuild := domain.GuildID(cfg.Platform.TargetGuildID)
	loggingGuild := domain.GuildID(cfg.Platform.LoggingGuildID)

	client := rest.NewClient(cfg.Platform.APIBaseURL, cfg.Platform.Token)
	adapter := rest.NewAdapter(client)
	stream := rest.NewStream(cfg.Platform.APIBaseURL, cfg.Platform.Token, log)

	// A missing capability would fail silently at runtime (empty audit
	// pages, dropped messages), so it is the one startup check that is
	// allowed to kill the process.
	if err := verifyPermissions(ctx, adapter, targetGuild, loggingGuild); err != nil {
		return err
	}

	records, err := store.NewSQLite(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open topology store: %w", err)
	}
	defer records.Close()

	trc := tracer.NewOTel()

	reconciler, err := topology.New(adapter, records, loggingGuild, cfg.Topology.CategoryName,
		topology.WithLogger(log),
		topology.WithMetrics(topometrics.New()),
		topology.WithTracer(trc),
	)
	if err != nil {
		return fmt.Errorf("build reconciler: %w", err)
	}
	channels, err := reconciler.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile topology: %w", err)
	}
	log.Info("topology reconciled", "channels", len(channels))

	notifier, err := notify.New(adapter, channels,
		notify.WithLogger(log),
		notify.WithDryRun(cfg.Log.DryRun),
	)
	if err != nil {
		return fmt.Errorf("build notifier: %w", err)
	}

	attrM := attrmetrics.New()
	engine, err := attribution.NewEngine(adapter, targetGuild,
		attribution.Config{
			MessageDeleteDelay: cfg.Attribution.MessageDeleteDelay,
			VoiceMoveDelay:     cfg.Attribution.VoiceMoveDelay,
			ModerationDelay:    cfg.Attribution.ModerationDelay,
			MatchWindow:        cfg.Attribution.MatchWindow,
			PageSize:           cfg.Attribution.AuditPageSize,
			CacheTTL:           cfg.Attribution.CacheTTL,
		},
		attribution.WithLogger(log),
		attribution.WithMetrics(attrM),
		attribution.WithTracer(trc),
	)
	if err != nil {
		return fmt.Errorf("build attribution engine: %w", err)
	}
	moves := attribution.NewMoveTracker(engine)
	invites := attribution.NewInviteTracker(adapter, targetGuild, log, attrM)
	reactions := attribution.NewReactionDeduper(cfg.Attribution.CacheTTL, attrM)

	// A failed prime is not fatal: the tracker stays unprimed and the next
	// successful refresh establishes the baseline.
	if err := invites.Prime(ctx); err != nil {
		log.Warn("invite baseline prime failed", "error", err)
	}

	dispatcher, err := dispatch.New(engine, moves, invites, reactions, notifier, targetGuild,
		dispatch.WithLogger(log),
		dispatch.WithMetrics(dispatchmetrics.New()),
		dispatch.WithYoungAccountAge(cfg.Attribution.YoungAccountAge),
	)
	if err != nil {
		return fmt.Errorf("build dispatcher: %w", err)
	}

	healthHandler := health.New()
	healthHandler.RegisterCheck("topology_record", func() error {
		checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := records.Load(checkCtx)
		return err
	})
	healthHandler.RegisterCheck("dispatcher", func() error {
		if !dispatcher.Ready() {
			return errors.New("dispatcher not ready")
		}
		return nil
	})

	opsServer := ops.New(cfg.Ops.Addr, healthHandler, log)
	go func() {
		if err := opsServer.Start(); err != nil {
			log.Error("ops server error", "error", err)
		}
	}()

	dispatcher.SetReady()
	log.Info("service ready",
		"target_guild", targetGuild,
		"logging_guild", loggingGuild,
		"dry_run", cfg.Log.DryRun,
	)

	runErr := dispatcher.Run(ctx, stream)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Ops.ShutdownTimeout)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("ops server shutdown failed", "error", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func verifyPermissions(ctx context.Context, checker chat.PermissionChecker, guilds ...domain.GuildID) error {
	for _, guild := range guilds {
		missing, err := checker.CheckPermissions(ctx, guild, chat.RequiredPermissions)
		if err != nil {
			return fmt.Errorf("permission check for guild %s: %w", guild, err)
		}
		if len(missing) > 0 {
			return fmt.Errorf("guild %s is missing permissions: %s", guild, strings.Join(missing, ", "))
		}
	}
	return nil
}
