package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ABFerraz00/mandacafe/config"
	"github.com/ABFerraz00/mandacafe/routes"
	"github.com/ABFerraz00/mandacafe/services"
	"github.com/ABFerraz00/mandacafe/telemetry"
	"github.com/ABFerraz00/mandacafe/utils"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const shutdownGrace = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		return serve(cmd.Context(), cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracer := func(context.Context) error { return nil }
	if cfg.TracingEnabled {
		fn, err := telemetry.InitTracer(serviceName, cfg.Env, logger)
		if err != nil {
			return errors.Wrap(err, "failed to initialize tracing")
		}
		shutdownTracer = fn
	}

	metrics := services.NewMetricsAggregator(logger)

	db, err := config.OpenDB(cfg.DatabaseURL, services.NewMetricsPlugin(metrics))
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	menu := services.NewMenuService(db)

	if cfg.SeedOnStart {
		seeded, err := services.SeedMenu(ctx, db, menu)
		if err != nil {
			return err
		}
		if seeded {
			logger.Info("starter menu loaded")
		}
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		// development or static strategy: tokens only need to live as long as the process
		random, err := utils.GenerateRandomToken(32)
		if err != nil {
			return err
		}
		secret = []byte(random)
	}
	auth, err := services.NewAuthService(secret, cfg.JWTExpiresIn, cfg.AdminPassword, cfg.ManagerPassword)
	if err != nil {
		return errors.Wrap(err, "failed to prepare accounts")
	}

	var authn services.Authenticator
	switch cfg.AuthStrategy {
	case config.AuthStrategyStatic:
		authn = services.NewStaticTokenAuthenticator(cfg.StaticAPIKey)
	default:
		authn = services.NewJWTAuthenticator(secret)
	}

	var images services.ImageStore
	if cfg.S3Bucket != "" {
		baseURL := cfg.ImageBaseURL
		var opts []func(*s3.Options)
		if cfg.S3Endpoint != "" {
			opts = append(opts, services.WithS3Endpoint(cfg.S3Endpoint))
			if baseURL == "" {
				baseURL = strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
			}
		}
		store, err := services.NewS3ImageStore(ctx, cfg.S3Region, cfg.S3Bucket, baseURL, opts...)
		if err != nil {
			return errors.Wrap(err, "failed to configure image storage")
		}
		images = store
	}

	router := routes.SetupRouter(routes.Dependencies{
		Logger:         logger,
		Menu:           menu,
		Auth:           auth,
		Authenticator:  authn,
		Metrics:        metrics,
		Hub:            services.NewMenuHub(logger),
		Images:         images,
		AuthStrategy:   cfg.AuthStrategy,
		CORSOrigin:     cfg.CORSOrigin,
		TrustedProxies: cfg.TrustedProxyList(),
		Environment:    cfg.Env,
		Development:    cfg.IsDevelopment(),
	})

	var handler http.Handler = router
	if cfg.TracingEnabled {
		handler = otelhttp.NewHandler(router, serviceName)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.Int("port", cfg.Port),
			zap.String("environment", cfg.Env),
			zap.String("auth_strategy", cfg.AuthStrategy),
			zap.String("database", config.Driver(cfg.DatabaseURL)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var serveErr error
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err, ok := <-errCh:
		if ok {
			serveErr = errors.Wrap(err, "server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer shutdown", zap.Error(err))
	}
	if err := config.Close(db); err != nil {
		logger.Error("database close", zap.Error(err))
	}

	logger.Info("server stopped")
	return serveErr
}
