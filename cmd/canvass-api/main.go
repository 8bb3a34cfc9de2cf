package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/turnoutcrew/canvass/config"
	"github.com/turnoutcrew/canvass/internal/database"
	"github.com/turnoutcrew/canvass/internal/middleware"
	addressrepo "github.com/turnoutcrew/canvass/internal/repositories/address"
	campaignrepo "github.com/turnoutcrew/canvass/internal/repositories/campaign"
	campaignvoterrepo "github.com/turnoutcrew/canvass/internal/repositories/campaignvoter"
	partyrepo "github.com/turnoutcrew/canvass/internal/repositories/party"
	voterrepo "github.com/turnoutcrew/canvass/internal/repositories/voter"
	votercontactrepo "github.com/turnoutcrew/canvass/internal/repositories/votercontact"
	voterlistrepo "github.com/turnoutcrew/canvass/internal/repositories/voterlist"
	"github.com/turnoutcrew/canvass/internal/tracing"
	"github.com/turnoutcrew/canvass/internal/tracing/exporters"
	"github.com/turnoutcrew/canvass/pkg/events"
	"github.com/turnoutcrew/canvass/pkg/ingest"
	"github.com/turnoutcrew/canvass/pkg/kafka"
	healthroutes "github.com/turnoutcrew/canvass/pkg/routes/health"
	voterroutes "github.com/turnoutcrew/canvass/pkg/routes/voter"
	votercontactroutes "github.com/turnoutcrew/canvass/pkg/routes/votercontact"
	voterlistroutes "github.com/turnoutcrew/canvass/pkg/routes/voterlist"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	ctx := context.Background()

	if cfg.TracingEnabled {
		shutdown, err := tracing.Setup(ctx, cfg.AppName, cfg.Environment, exporters.OTLPConfig{
			Endpoint: cfg.TracingOTLPEndpoint,
			Protocol: cfg.TracingOTLPProtocol,
			Insecure: true,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			logger.WithError(err).Error("Failed to set up tracing")
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shut down tracing")
			}
		}()
	}

	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, postgresDSN(cfg))
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer sqlxDB.Close()
	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	if err := runMigrations(cfg, logger, sqlxDB); err != nil {
		logger.WithError(err).Error("Failed to apply migrations")
		os.Exit(1)
	}

	db := database.NewDatabaseInstance(sqlxDB, logger)

	addresses := addressrepo.NewRepository(db, logger)
	parties := partyrepo.NewRepository(db, logger)
	campaigns := campaignrepo.NewRepository(db, logger)
	voters := voterrepo.NewRepository(db, logger)
	voterLists := voterlistrepo.NewRepository(db, logger)
	campaignVoters := campaignvoterrepo.NewRepository(db, logger)
	voterContacts := votercontactrepo.NewRepository(db, logger)

	var sink ingest.EventSink
	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		sink = events.NewEmitter(producer, logger)
	}

	pipeline := ingest.NewPipeline(logger, addresses, voters, campaignVoters, voterLists, campaigns, parties, db, sink)

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		logger.WithError(err).Error("Failed to create DI container")
		os.Exit(1)
	}
	registerInstance(logger, container, cfg)
	registerInstance(logger, container, addresses)
	registerInstance(logger, container, parties)
	registerInstance(logger, container, campaigns)
	registerInstance(logger, container, voters)
	registerInstance(logger, container, voterLists)
	registerInstance(logger, container, campaignVoters)
	registerInstance(logger, container, voterContacts)
	registerInstance(logger, container, pipeline)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)
	if cfg.TracingEnabled {
		e.Use(otelecho.Middleware(cfg.AppName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker := healthroutes.NewChecker(sqlxDB, version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	voterlistroutes.Register(api)
	voterroutes.Register(api)
	votercontactroutes.Register(api)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.WithField("port", cfg.Port).Infof("Starting %s on port %d", cfg.AppName, cfg.Port)
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server stopped unexpectedly")
			os.Exit(1)
		}
	}()
	checker.SetReady(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down server gracefully")
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapCfg := zap.NewProductionConfig()
		if level, parseErr := zap.ParseAtomicLevel(cfg.LogLevel); parseErr == nil {
			zapCfg.Level = level
		}
		zapLogger, err = zapCfg.Build()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func postgresDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseUserName,
		cfg.DatabasePassword,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)
}

func runMigrations(cfg *config.Config, logger ectologger.Logger, db *sqlx.DB) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return err
	}
	service := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
	})
	return service.Migrate(cfg.DatabaseName, driver)
}

func registerInstance[T any](logger ectologger.Logger, container ectocontainer.DIContainer, instance T) {
	if err := ectoinject.RegisterInstance[T](container, instance); err != nil {
		logger.WithError(err).Errorf("Failed to register %T", instance)
		os.Exit(1)
	}
}
