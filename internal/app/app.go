package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/saas-starter/auth-service/internal/config"
	"github.com/saas-starter/auth-service/internal/handler"
	"github.com/saas-starter/auth-service/internal/repository"
	"github.com/saas-starter/auth-service/internal/service"
	"github.com/saas-starter/auth-service/internal/utils"
	"github.com/saas-starter/auth-service/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	db := repository.NewDatabase(infra.Postgres().DB)
	signer := utils.NewEmailTokenSigner(cfg.Auth.JWTSecret)

	var mailer service.Mailer
	if cfg.Mailer.ResendToken != "" {
		mailer = service.NewResendMailer(cfg.Mailer.ResendToken)
	} else {
		mailer = service.NewDevMailer(infra.Logger())
	}

	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authService := service.NewAuthService(db, mailer, signer, service.AuthOptions{
		ClientURL:            cfg.ClientURL,
		APIURL:               cfg.APIURL,
		MailFrom:             cfg.Mailer.From,
		BCryptCost:           cfg.Security.BCryptCost,
		SessionTTL:           cfg.Auth.SessionTTL.Duration,
		ConfirmationTokenTTL: cfg.Auth.ConfirmationTokenTTL.Duration,
		EmailChangeTokenTTL:  cfg.Auth.EmailChangeTokenTTL.Duration,
		ResetTokenTTL:        cfg.Auth.ResetTokenTTL.Duration,
	})

	authHandler := handler.NewAuthHandler(authService, handler.AuthHandlerOptions{
		CookieName: cfg.Auth.CookieName,
		ClientURL:  cfg.ClientURL,
		SessionTTL: cfg.Auth.SessionTTL.Duration,
		Production: cfg.IsProduction(),
	}, infra.Logger())

	router := gin.Default()
	router.Use(otelgin.Middleware("auth-service"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, authHandler, authService, rateLimiter, healthChecker, infra.MetricsHandler(), infra.Logger())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
	logger *zap.Logger,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	rateLimit := handler.RateLimitMiddleware(
		rateLimiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.IPBasedKey,
	)
	sessionGate := handler.AuthMiddleware(authService, cfg.Auth.CookieName, logger)
	confirmedGate := handler.RequireConfirmedEmail(logger)

	auth := router.Group("/api/auth")
	{
		auth.POST("/sign-in", rateLimit, authHandler.SignIn)
		auth.POST("/sign-up", rateLimit, authHandler.SignUp)
		auth.GET("/confirm-email-address", authHandler.ConfirmEmailAddress)
		auth.POST("/request-password-reset", rateLimit, authHandler.RequestPasswordReset)
		auth.POST("/reset-password", rateLimit, authHandler.ResetPassword)
		auth.GET("/confirm-email-change", authHandler.ConfirmEmailChange)

		auth.GET("/user", sessionGate, authHandler.GetUser)
		auth.POST("/sign-out", sessionGate, authHandler.SignOut)
		auth.POST("/resend-email-confirmation", sessionGate, rateLimit, authHandler.ResendConfirmationEmail)

		auth.POST("/request-email-change", sessionGate, confirmedGate, authHandler.RequestEmailChange)
		auth.POST("/change-password", sessionGate, confirmedGate, authHandler.ChangePassword)
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
