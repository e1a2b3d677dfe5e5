// Package app wires configuration, storage, domain services, and the HTTP
// server into a running application.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/sereneleaf/backend/internal/api"
	"github.com/sereneleaf/backend/internal/domain/auth"
	"github.com/sereneleaf/backend/internal/domain/order"
	"github.com/sereneleaf/backend/internal/domain/slug"
	"github.com/sereneleaf/backend/internal/mail"
	"github.com/sereneleaf/backend/internal/repository"
	"github.com/sereneleaf/backend/pkg/health"
	"github.com/sereneleaf/backend/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	userRepo := repository.NewUserRepository(pool)
	otpRepo := repository.NewOTPRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	postRepo := repository.NewPostRepository(pool)
	postCategoryRepo := repository.NewPostCategoryRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	contactRepo := repository.NewContactRepository(pool)

	// Domain services.
	tokens := auth.NewTokenIssuer([]byte(cfg.JWT.Secret), cfg.JWT.TTL)

	var mailer auth.Mailer = mail.LogMailer{}
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTP(mail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		lg.Warn("SMTP host not configured, OTP codes go to the log")
	}

	authSvc := auth.NewService(userRepo, otpRepo, tokens, mailer)
	orderSvc := order.NewService(cartRepo, productRepo, orderRepo)

	// HTTP handlers.
	router := api.NewRouter(api.Handlers{
		Auth:           api.NewAuthHandler(authSvc),
		Users:          api.NewUserHandler(userRepo, authSvc),
		Products:       api.NewProductHandler(productRepo, slug.NewResolver(productRepo)),
		Categories:     api.NewCategoryHandler(categoryRepo, slug.NewResolver(categoryRepo)),
		Posts:          api.NewPostHandler(postRepo, slug.NewResolver(postRepo)),
		PostCategories: api.NewPostCategoryHandler(postCategoryRepo, slug.NewResolver(postCategoryRepo)),
		Comments:       api.NewCommentHandler(commentRepo),
		Cart:           api.NewCartHandler(cartRepo, productRepo),
		Orders:         api.NewOrderHandler(orderSvc, orderRepo),
		Marketing:      api.NewMarketingHandler(subscriptionRepo, contactRepo),
	}, tokens)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", otelhttp.NewHandler(router, "serene-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
