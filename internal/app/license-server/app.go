// Package licenseserver собирает основное приложение: хранилище, кеш,
// лимитер запросов, очередь событий и HTTP-сервер с маршрутами.
package licenseserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/myalgostack/license-server/internal/cache"
	"github.com/myalgostack/license-server/internal/config"
	"github.com/myalgostack/license-server/internal/lib/jwt"
	"github.com/myalgostack/license-server/internal/migrations"
	"github.com/myalgostack/license-server/internal/rabbitmq"
	"github.com/myalgostack/license-server/internal/ratelimit"
	"github.com/myalgostack/license-server/internal/services"
	"github.com/myalgostack/license-server/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	limiter := newLimiter(cfg, cacheRedis, logger)

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	validationCfg := ratelimit.Config{
		MaxRequests: cfg.RateLimits.Validation.MaxRequests,
		Window:      cfg.RateLimits.Validation.Window,
	}

	licenseService := services.NewLicenseService(db, limiter, validationCfg, cfg.License.GracePeriodHours, logger)
	authService := services.NewAuthService(db, jwtMaker, publisher, cfg.License.TrialDays, logger)
	accountService := services.NewAccountService(db, logger)
	eaService := services.NewEaService(db, cacheRedis, logger)
	tradeService := services.NewTradeService(db, limiter, validationCfg, publisher, logger)
	promoService := services.NewPromoService(db, logger)
	referralService := services.NewReferralService(db, logger)
	adminService := services.NewAdminService(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &RouteServices{
		License:  licenseService,
		Auth:     authService,
		Account:  accountService,
		Ea:       eaService,
		Trade:    tradeService,
		Promo:    promoService,
		Referral: referralService,
		Admin:    adminService,
	}, jwtMaker, cfg)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// newLimiter выбирает бэкенд лимитера по конфигурации: redis для
// нескольких инстансов, memory для единственного.
func newLimiter(cfg *config.Config, cacheRedis *cache.Cache, logger *slog.Logger) ratelimit.Limiter {
	if cfg.RateLimits.Backend == "redis" {
		return ratelimit.NewRedisLimiter(cacheRedis.Db, logger)
	}
	return ratelimit.NewMemoryLimiter()
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.ch.Close(); cerr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", cerr))
		}
		if cerr := a.conn.Close(); cerr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", cerr))
		}
		a.db.DB.Close()
		return err
	}
}
