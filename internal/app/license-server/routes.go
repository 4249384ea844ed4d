// Package licenseserver предоставляет маршруты для основного приложения.
package licenseserver

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/myalgostack/license-server/internal/config"
	accountcreate "github.com/myalgostack/license-server/internal/http/handlers/account/create"
	accountlist "github.com/myalgostack/license-server/internal/http/handlers/account/list"
	accountremove "github.com/myalgostack/license-server/internal/http/handlers/account/remove"
	"github.com/myalgostack/license-server/internal/http/handlers/admin/eacreate"
	"github.com/myalgostack/license-server/internal/http/handlers/admin/eaupdate"
	"github.com/myalgostack/license-server/internal/http/handlers/admin/grantea"
	adminlogs "github.com/myalgostack/license-server/internal/http/handlers/admin/logs"
	"github.com/myalgostack/license-server/internal/http/handlers/admin/promocreate"
	"github.com/myalgostack/license-server/internal/http/handlers/admin/promolist"
	"github.com/myalgostack/license-server/internal/http/handlers/admin/promoupdate"
	"github.com/myalgostack/license-server/internal/http/handlers/admin/revokeea"
	adminstats "github.com/myalgostack/license-server/internal/http/handlers/admin/stats"
	"github.com/myalgostack/license-server/internal/http/handlers/admin/userupdate"
	"github.com/myalgostack/license-server/internal/http/handlers/auth/login"
	"github.com/myalgostack/license-server/internal/http/handlers/auth/profile"
	"github.com/myalgostack/license-server/internal/http/handlers/auth/register"
	"github.com/myalgostack/license-server/internal/http/handlers/credentials/regenerate"
	eagrants "github.com/myalgostack/license-server/internal/http/handlers/ea/grants"
	ealist "github.com/myalgostack/license-server/internal/http/handlers/ea/list"
	eaversion "github.com/myalgostack/license-server/internal/http/handlers/ea/version"
	"github.com/myalgostack/license-server/internal/http/handlers/health"
	licensevalidate "github.com/myalgostack/license-server/internal/http/handlers/license/validate"
	promoredeem "github.com/myalgostack/license-server/internal/http/handlers/promo/redeem"
	referralstats "github.com/myalgostack/license-server/internal/http/handlers/referral/stats"
	tradelist "github.com/myalgostack/license-server/internal/http/handlers/trade/list"
	tradesubmit "github.com/myalgostack/license-server/internal/http/handlers/trade/submit"
	"github.com/myalgostack/license-server/internal/http/middlewarectx"
	"github.com/myalgostack/license-server/internal/lib/jwt"
	"github.com/myalgostack/license-server/internal/services"
)

// RouteServices объединяет сервисы, обслуживающие маршруты приложения.
type RouteServices struct {
	License  *services.LicenseService
	Auth     *services.AuthService
	Account  *services.AccountService
	Ea       *services.EaService
	Trade    *services.TradeService
	Promo    *services.PromoService
	Referral *services.ReferralService
	Admin    *services.AdminService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc *RouteServices, jwtMaker jwt.Maker, cfg *config.Config) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	authLimiter := rate.NewLimiter(
		rate.Every(cfg.RateLimits.Auth.Window/time.Duration(cfg.RateLimits.Auth.MaxRequests)),
		cfg.RateLimits.Auth.MaxRequests,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Проводные конечные точки советников, авторизация по X-API-Key
		r.Post("/validate", licensevalidate.New(logger, svc.License).ServeHTTP)
		r.Post("/trades", tradesubmit.New(logger, svc.Trade).ServeHTTP)
		r.Get("/eas/version", eaversion.New(logger, svc.Ea).ServeHTTP)

		r.Get("/health", health.New(logger).ServeHTTP)

		// Аутентификация с внутрипроцессным лимитером
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, authLimiter))
			r.Post("/auth/register", register.New(logger, svc.Auth).ServeHTTP)
			r.Post("/auth/login", login.New(logger, svc.Auth).ServeHTTP)
		})

		// Кабинет пользователя, JWT аутентификация
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Get("/me", profile.New(logger, svc.Auth).ServeHTTP)
			r.Post("/credentials/regenerate", regenerate.New(logger, svc.Auth).ServeHTTP)
			r.Post("/accounts", accountcreate.New(logger, svc.Account).ServeHTTP)
			r.Get("/accounts", accountlist.New(logger, svc.Account).ServeHTTP)
			r.Delete("/accounts/{id}", accountremove.New(logger, svc.Account).ServeHTTP)
			r.Get("/eas", ealist.New(logger, svc.Ea).ServeHTTP)
			r.Get("/eas/grants", eagrants.New(logger, svc.Ea).ServeHTTP)
			r.Get("/trades", tradelist.New(logger, svc.Trade).ServeHTTP)
			r.Post("/promo/redeem", promoredeem.New(logger, svc.Promo).ServeHTTP)
			r.Get("/referrals/stats", referralstats.New(logger, svc.Referral).ServeHTTP)
		})

		// Админ-панель, JWT аутентификация и роль ADMIN
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.AdminOnlyMiddleware(logger))
			r.Patch("/admin/users/{uid}", userupdate.New(logger, svc.Admin).ServeHTTP)
			r.Post("/admin/users/{uid}/grants", grantea.New(logger, svc.Ea).ServeHTTP)
			r.Delete("/admin/users/{uid}/grants/{ea_id}", revokeea.New(logger, svc.Ea).ServeHTTP)
			r.Post("/admin/eas", eacreate.New(logger, svc.Ea).ServeHTTP)
			r.Patch("/admin/eas/{id}", eaupdate.New(logger, svc.Ea).ServeHTTP)
			r.Post("/admin/promocodes", promocreate.New(logger, svc.Promo).ServeHTTP)
			r.Get("/admin/promocodes", promolist.New(logger, svc.Promo).ServeHTTP)
			r.Patch("/admin/promocodes/{id}", promoupdate.New(logger, svc.Promo).ServeHTTP)
			r.Get("/admin/validation-logs", adminlogs.New(logger, svc.Admin).ServeHTTP)
			r.Get("/admin/stats", adminstats.New(logger, svc.Admin).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
