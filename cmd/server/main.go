package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/devmahmoudi/formgen/config"
	formrepo "github.com/devmahmoudi/formgen/internal/repositories/form"
	responserepo "github.com/devmahmoudi/formgen/internal/repositories/formresponse"
	"github.com/devmahmoudi/formgen/pkg/cache"
	"github.com/devmahmoudi/formgen/pkg/database"
	"github.com/devmahmoudi/formgen/pkg/events"
	"github.com/devmahmoudi/formgen/pkg/kafka"
	"github.com/devmahmoudi/formgen/pkg/middleware"
	"github.com/devmahmoudi/formgen/pkg/relation"
	formroutes "github.com/devmahmoudi/formgen/pkg/routes/form"
	"github.com/devmahmoudi/formgen/pkg/routes/health"
	relationroutes "github.com/devmahmoudi/formgen/pkg/routes/relation"
	responseroutes "github.com/devmahmoudi/formgen/pkg/routes/response"
	"github.com/devmahmoudi/formgen/pkg/tracing"
	"github.com/devmahmoudi/formgen/pkg/tracing/exporters"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.PrettyLogs)
	logger.WithField("app", cfg.AppName).Info("Starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := tracing.Init(ctx, cfg.AppName, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
		})
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	db, err := database.Connect(database.Config{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var redisClient *cache.Client
	var baseFormRepo formrepo.FormRepository = formrepo.NewRepository(db, logger)
	activeFormRepo := baseFormRepo
	if cfg.CacheEnabled {
		redisClient, err = cache.NewClient(cache.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		formCache := cache.NewFormCache(redisClient, cfg.CacheFormTTL, logger)
		activeFormRepo = formrepo.NewCachedRepository(baseFormRepo, formCache)
	}

	responseRepo := responserepo.NewRepository(db, logger)
	resolver := relation.NewResolver(activeFormRepo, responseRepo)

	var producer *kafka.Producer
	if cfg.EventsEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
	}
	emitter := events.NewEmitter(producer, logger)

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return fmt.Errorf("failed to create DI container: %w", err)
	}
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[formrepo.FormRepository](container, activeFormRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[responserepo.ResponseRepository](container, responseRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*relation.Resolver](container, resolver); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*events.Emitter](container, emitter); err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	if cfg.TracingEnabled {
		e.Use(otelecho.Middleware(cfg.AppName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	var redisPinger health.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}
	checker := health.NewChecker(health.PingerFunc(db.PingContext), redisPinger, cfg.Version)
	checker.RegisterRoutes(e)

	if cfg.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	forms := e.Group("/api/v1/forms")
	formroutes.Register(forms)
	responseroutes.Register(forms)
	relationroutes.Register(forms)

	startErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			startErr <- err
		}
	}()
	checker.SetReady(true)

	select {
	case err := <-startErr:
		checker.SetReady(false)
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newLogger builds a JSON stdout logger. Pretty logs indent each message for
// local development.
func newLogger(pretty bool) ectologger.Logger {
	encode := json.Marshal
	if pretty {
		encode = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	return ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		b, err := encode(msg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to encode log message:", err)
			return
		}
		fmt.Fprintln(os.Stdout, string(b))
	})
}
