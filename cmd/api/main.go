// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/ea-marketplace/internal/admin"
	"github.com/carterperez-dev/ea-marketplace/internal/auth"
	"github.com/carterperez-dev/ea-marketplace/internal/config"
	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/events"
	"github.com/carterperez-dev/ea-marketplace/internal/gateway"
	"github.com/carterperez-dev/ea-marketplace/internal/health"
	"github.com/carterperez-dev/ea-marketplace/internal/license"
	"github.com/carterperez-dev/ea-marketplace/internal/middleware"
	"github.com/carterperez-dev/ea-marketplace/internal/notify"
	"github.com/carterperez-dev/ea-marketplace/internal/order"
	"github.com/carterperez-dev/ea-marketplace/internal/payment"
	"github.com/carterperez-dev/ea-marketplace/internal/product"
	"github.com/carterperez-dev/ea-marketplace/internal/server"
	"github.com/carterperez-dev/ea-marketplace/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"store", cfg.Store.Driver,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App,
			attribute.String("store.driver", cfg.Store.Driver),
			attribute.Bool("payment.mock_mode", cfg.Payment.MockMode),
		)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	go st.run(ctx)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}

	userSvc := user.NewService(st.users)
	authSvc := auth.NewService(jwtManager, userSvc, logger)
	if err := authSvc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Warn("admin bootstrap skipped", "error", err)
	}

	productSvc := product.NewService(st.products)
	catalog := product.NewCatalog(st.products, st.ready, logger)

	gw := newGateway(cfg.Payment, logger)
	tg, notifier := newNotifier(cfg.Telegram, logger)

	publisher, err := newPublisher(cfg.Events, logger)
	if err != nil {
		return err
	}

	paymentSvc := payment.NewService(payment.Deps{
		Orders:    st.orders,
		Licenses:  st.licenses,
		Products:  catalog,
		Users:     userSvc,
		Gateway:   gw,
		Notifier:  notifier,
		Publisher: publisher,
		Deduper:   payment.NewRedisDeduper(redis.Client, cfg.Payment.DedupeTTL),
		Logger:    logger,
	})
	go paymentSvc.RunSweeper(ctx, cfg.Payment.PendingTTL, cfg.Payment.SweepInterval)

	healthHandler := health.NewHandler(
		health.Info{
			Name:        cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
		},
		health.Check{Name: st.name, Checker: st, Optional: st.degradable},
		health.Check{Name: redis.Name(), Checker: redis, Optional: true},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Users:      userSvc,
		Products:   productSvc,
		Orders:     st.orders,
		StoreName:  st.name,
		StorePing:  st.ping,
		DBStats:    st.dbStats,
		RedisStats: redis.PoolStats,
		RedisPing:  redis.Ping,
	})

	authHandler := auth.NewHandler(authSvc)
	userHandler := user.NewHandler(userSvc)
	dashboardHandler := user.NewDashboardHandler(st.orders, st.licenses)
	productHandler := product.NewHandler(catalog, productSvc)
	orderHandler := order.NewHandler(st.orders)
	licenseHandler := license.NewHandler(st.licenses)
	paymentHandler := payment.NewHandler(paymentSvc, payment.CookieConfig{
		Name:   cfg.Payment.CookieName,
		TTL:    cfg.Payment.CookieTTL,
		Secure: cfg.IsProduction(),
	}, logger)
	telegramHandler := notify.NewHandler(tg, logger)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	apiLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerWindow(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Burst,
			cfg.RateLimit.Window,
		),
		Skip:     middleware.SkipPaths("/api/payments/notification", "/api/telegram/webhook"),
		FailOpen: true,
	})
	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerWindow(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
			cfg.RateLimit.Window,
		),
		KeyFunc: func(r *http.Request) string {
			return "auth:" + middleware.KeyByIP(r)
		},
		Message:  "Too many authentication attempts, please try again later.",
		FailOpen: true,
	})

	authenticator := middleware.Authenticator(jwtManager)

	router.Route("/api", func(r chi.Router) {
		r.Use(apiLimiter.Handler)

		healthHandler.RegisterAPIRoutes(r)
		authHandler.RegisterRoutes(r, authenticator, authLimiter.Handler)
		productHandler.RegisterRoutes(r)
		paymentHandler.RegisterRoutes(r)
		telegramHandler.RegisterRoutes(r)

		r.Route("/user", func(r chi.Router) {
			r.Use(authenticator)
			userHandler.RegisterRoutes(r)
			orderHandler.RegisterUserRoutes(r)
			licenseHandler.RegisterUserRoutes(r)
			dashboardHandler.RegisterRoutes(r)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticator, middleware.RequireAdmin)
			adminHandler.RegisterRoutes(r)
			productHandler.RegisterAdminRoutes(r)
			userHandler.RegisterAdminRoutes(r)
			orderHandler.RegisterAdminRoutes(r)
			paymentHandler.RegisterAdminRoutes(r)
			licenseHandler.RegisterAdminRoutes(r)
			telegramHandler.RegisterAdminRoutes(r)
		})
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := publisher.Close(); err != nil {
		logger.Error("event publisher close error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := st.close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func newGateway(cfg config.PaymentConfig, logger *slog.Logger) gateway.Gateway {
	if cfg.MockMode {
		logger.Warn("payment gateway running in mock mode")
		return gateway.NewMock(cfg.ServerKey, cfg.FrontendURL)
	}

	gw := gateway.NewMidtrans(cfg)
	logger.Info("payment gateway initialized", "mode", gw.Mode())
	return gw
}

// newNotifier returns a nil *notify.Telegram when the bot is not
// configured or unreachable; the telegram routes then answer 503.
func newNotifier(
	cfg config.TelegramConfig,
	logger *slog.Logger,
) (*notify.Telegram, notify.Notifier) {
	if cfg.BotToken == "" {
		logger.Warn("telegram bot token missing, notifications disabled")
		return nil, notify.NewNop(logger)
	}

	bot, err := notify.Connect(cfg.BotToken)
	if err != nil {
		logger.Error("telegram bot unavailable", "error", err)
		return nil, notify.NewNop(logger)
	}

	tg := notify.NewTelegram(bot, cfg.AdminChatID, logger)

	if cfg.WebhookURL != "" {
		if err := tg.SetWebhook(cfg.WebhookURL); err != nil {
			logger.Error("telegram webhook registration failed", "error", err)
		} else {
			logger.Info("telegram webhook registered", "url", cfg.WebhookURL)
		}
	}

	logger.Info("telegram bot connected", "username", bot.Self.UserName)
	return tg, tg
}

func newPublisher(cfg config.EventsConfig, logger *slog.Logger) (events.Publisher, error) {
	if !cfg.Enabled {
		return events.Nop{}, nil
	}

	pub, err := events.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, err
	}
	logger.Info("order events enabled", "topic", cfg.Topic, "brokers", cfg.Brokers)
	return pub, nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
