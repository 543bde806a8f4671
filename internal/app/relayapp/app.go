package relayapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/postrelay/internal/config"
	tginfra "github.com/ivankudzin/tgapp/postrelay/internal/infra/telegram"
	"github.com/ivankudzin/tgapp/postrelay/internal/jobs/cleanup"
	"github.com/ivankudzin/tgapp/postrelay/internal/jobs/delayed"
	pgrepo "github.com/ivankudzin/tgapp/postrelay/internal/repo/postgres"
	redrepo "github.com/ivankudzin/tgapp/postrelay/internal/repo/redis"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/admins"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/bans"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/premoderation"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/relay"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/tags"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/working"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	bot        *tginfra.Bot
	tg         messenger
	controller *relay.Controller
	registry   *tags.Registry
	directory  *admins.Directory
	bans       *bans.Service
	flags      working.FlagStore
	scheduler  *delayed.Scheduler
	cleanupJob *cleanup.Job
	ops        *http.Server

	inputMu     sync.Mutex
	inputByChat map[int64]tginfra.State
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for relay app: %w", err)
	}
	if err := pgrepo.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var (
		redisClient *goredis.Client
		store       working.Store
		flags       working.FlagStore
	)
	switch cfg.Working.Backend {
	case config.WorkingBackendMemory:
		logger.Warn("working records kept in memory, pending reviews are lost on restart")
		store = working.NewMemoryStore()
		flags = working.NewMemoryFlags()
	default:
		redisClient, err = redrepo.NewClient(ctx, redrepo.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis for relay app: %w", err)
		}
		store = redrepo.NewWorkingRepo(redisClient, cfg.Working.TTL)
		flags = redrepo.NewFlagRepo(redisClient)
	}

	bot, err := tginfra.NewBot(cfg.Bot.Token, cfg.Bot.PollTimeout, logger.Named("telegram"))
	if err != nil {
		pool.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	registry := tags.NewRegistry(pgrepo.NewTagRepo(pool))
	directory := admins.NewDirectory(pgrepo.NewAdminRepo(pool), pgrepo.ErrAdminNotFound)
	banService := bans.NewService(pgrepo.NewBanRepo(pool), cfg.Premoderation.BanDays, logger.Named("bans"))
	scheduler := delayed.New(logger.Named("delayed"))

	chain := premoderation.NewDefaultChain(premoderation.Settings{
		Whitelist:    cfg.Relay.Whitelist,
		CaptionLimit: cfg.Premoderation.CaptionLimit,
		TextLimit:    cfg.Premoderation.TextLimit,
		EmojiLimit:   cfg.Premoderation.EmojiLimit,
		RulesURL:     cfg.Relay.RulesURL,
	}, banService, premoderation.WithLogger(logger.Named("premoderation")))

	controller := relay.NewController(relay.Deps{
		Transport: bot,
		Screener:  chain,
		Admins:    directory,
		Tags:      registry,
		Bans:      banService,
		Store:     store,
		Flags:     flags,
		Scheduler: scheduler,
	}, relay.Settings{
		GroupChatID:       cfg.Relay.GroupChatID,
		AckTTL:            cfg.Relay.AckTTL,
		DeclineNoticeTTL:  cfg.Relay.DeclineNoticeTTL,
		CopyAutoDelete:    cfg.Relay.CopyAutoDelete,
		FanoutConcurrency: cfg.Relay.FanoutConcurrency,
		RulesURL:          cfg.Relay.RulesURL,
		SponsoredURL:      cfg.Relay.SponsoredURL,
	}, logger.Named("relay"))

	app := &App{
		cfg:         cfg,
		logger:      logger,
		postgres:    pool,
		redis:       redisClient,
		bot:         bot,
		tg:          bot,
		controller:  controller,
		registry:    registry,
		directory:   directory,
		bans:        banService,
		flags:       flags,
		scheduler:   scheduler,
		cleanupJob:  cleanup.New(banService, logger.Named("cleanup")),
		inputByChat: make(map[int64]tginfra.State),
	}
	if cfg.HTTP.Addr != "" {
		app.ops = &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      NewOpsRouter(logger.Named("ops"), app.readinessChecks()),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}
	}

	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("relay app started",
		zap.String("bot", a.bot.Username()),
		zap.Int64("group_chat_id", a.cfg.Relay.GroupChatID),
		zap.String("working_backend", a.cfg.Working.Backend),
	)

	if err := a.cleanupJob.Start(ctx, a.cfg.Jobs.BanCleanupSpec); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	if a.ops != nil {
		go func() {
			if err := a.ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("ops server: %w", err)
			}
		}()
	}
	go func() {
		errCh <- a.bot.Listen(ctx, tginfra.Handlers{
			OnGroupPost:      a.handleGroupPost,
			OnCommand:        a.handleCommand,
			OnText:           a.handleText,
			OnContact:        a.handleContact,
			OnPrivateMessage: a.handlePrivateMessage,
			OnCallback:       a.handleCallback,
		})
	}()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("relay app stopped")
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			return err
		}
	}
}

func (a *App) Close() {
	if a.ops != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.WriteTimeout)
		defer cancel()
		if err := a.ops.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("shutdown ops server", zap.Error(err))
		}
	}

	a.scheduler.Stop()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	a.postgres.Close()
}

func (a *App) readinessChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"postgres": a.postgres.Ping,
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}
	}
	return checks
}
