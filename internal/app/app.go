package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Joaobneto1/Redirect-Offer/internal/classify"
	"github.com/Joaobneto1/Redirect-Offer/internal/config"
	"github.com/Joaobneto1/Redirect-Offer/internal/health"
	"github.com/Joaobneto1/Redirect-Offer/internal/httpserver"
	"github.com/Joaobneto1/Redirect-Offer/internal/httpserver/deps"
	"github.com/Joaobneto1/Redirect-Offer/internal/logger"
	"github.com/Joaobneto1/Redirect-Offer/internal/notify"
	"github.com/Joaobneto1/Redirect-Offer/internal/probe"
	"github.com/Joaobneto1/Redirect-Offer/internal/redis"
	"github.com/Joaobneto1/Redirect-Offer/internal/resolver"
	"github.com/Joaobneto1/Redirect-Offer/internal/scheduler"
	"github.com/Joaobneto1/Redirect-Offer/internal/sources/seedfile"
	"github.com/Joaobneto1/Redirect-Offer/internal/store"
	memorystore "github.com/Joaobneto1/Redirect-Offer/internal/store/memory"
	postgresstore "github.com/Joaobneto1/Redirect-Offer/internal/store/postgres"
	redisstore "github.com/Joaobneto1/Redirect-Offer/internal/store/redis"
	"github.com/Joaobneto1/Redirect-Offer/internal/version"
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	server  *httpserver.Server
	store   store.Store
	checker *scheduler.AutoChecker
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	st := buildStore(cfg, loggerClient)

	rules := classify.DefaultRules()
	if cfg.RulesFile != "" {
		loaded, err := classify.LoadRules(cfg.RulesFile)
		if err != nil {
			loggerClient.Errorf("Failed to load classifier rules from %s: %v", cfg.RulesFile, err)
			os.Exit(1)
		}
		rules = loaded
		loggerClient.Info("classifier rules loaded",
			logger.String("file", cfg.RulesFile))
	}

	prober := probe.New(probe.Config{
		Timeout:         cfg.ProbeTimeout,
		AllowedStatuses: cfg.AllowedStatuses,
		AllowPrivate:    cfg.AllowPrivate,
	}, rules)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		notifier = notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, cfg.TelegramAPIBase, loggerClient)
		loggerClient.Info("telegram notifications enabled")
	} else {
		loggerClient.Info("telegram not configured, notifications disabled")
	}

	recorder := health.NewRecorder(st, notifier, loggerClient, cfg.FailureThreshold)
	res := resolver.New(st, prober, recorder, notifier, loggerClient)

	var checker *scheduler.AutoChecker
	if cfg.AutoCheckEnabled {
		checker = scheduler.NewAutoChecker(st, prober, recorder, notifier, loggerClient, cfg.AutoCheckPoll)
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		AllowedHosts:     cfg.AllowedHosts,
		AllowedCIDRS:     cfg.AllowedCIDRS,
		TrustProxy:       cfg.TrustProxy,
		Store:            st,
		Resolver:         res,
		Prober:           prober,
		Recorder:         recorder,
		Notifier:         notifier,
		StoreBackend:     cfg.StoreBackend,
		AutoCheckEnabled: cfg.AutoCheckEnabled,
		AutoCheckPoll:    cfg.AutoCheckPoll,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:     cfg,
		logger:  loggerClient,
		server:  server,
		store:   st,
		checker: checker,
	}
}

// buildStore selects and initializes the configured backend. Exits the
// process when the backend is unreachable: serving traffic without a store
// would turn every resolution into NoOffer.
func buildStore(cfg *config.Config, log logger.Logger) store.Store {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		log.Info("connecting to postgres")
		pg, err := postgresstore.New(context.Background(), cfg.PostgresDSN)
		if err != nil {
			log.Errorf("Failed to connect to postgres: %v", err)
			os.Exit(1)
		}
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Errorf("Failed to ensure postgres schema: %v", err)
			os.Exit(1)
		}
		log.Info("postgres initialized successfully")
		return pg

	case config.BackendRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			log.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		log.Info("Redis initialized successfully")
		return redisstore.NewStore(client)

	default:
		mem := memorystore.New()
		if cfg.SeedFile == "" {
			log.Warn("memory backend with no seed file, store starts empty")
			return mem
		}

		seedConfig, err := seedfile.NewLoader(cfg.SeedFile).Load()
		if err != nil {
			log.Errorf("Failed to load seed file: %v", err)
			os.Exit(1)
		}
		campaigns, endpoints, links, err := seedfile.NewMapper().Map(seedConfig)
		if err != nil {
			log.Errorf("Invalid seed file: %v", err)
			os.Exit(1)
		}
		mem.Seed(campaigns, endpoints, links)
		log.Info("seed file loaded",
			logger.String("file", cfg.SeedFile),
			logger.Int("campaigns", len(campaigns)),
			logger.Int("endpoints", len(endpoints)),
			logger.Int("links", len(links)))
		return mem
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Smartlink v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Smartlink %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)
	a.logger.Info("configuration",
		logger.String("store_backend", a.cfg.StoreBackend),
		logger.Bool("auto_check", a.cfg.AutoCheckEnabled),
		logger.Duration("probe_timeout", a.cfg.ProbeTimeout),
		logger.Int("failure_threshold", a.cfg.FailureThreshold))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.checker != nil {
		if err := a.checker.Start(ctx); err != nil {
			return fmt.Errorf("failed to start auto-checker: %w", err)
		}
		a.logger.Info("auto-checker started",
			logger.Duration("poll", a.cfg.AutoCheckPoll))
	} else {
		a.logger.Info("auto-checker disabled")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.checker != nil {
		a.checker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.store.Close()
	a.logger.Info("✅ Smartlink stopped cleanly")
	return nil
}
