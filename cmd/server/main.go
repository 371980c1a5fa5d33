package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                    // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // request ids and panic recovery
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-showtime-scheduler/internal/config"   // Internal config loader
	"github.com/iliyamo/cinema-showtime-scheduler/internal/database" // MySQL connection and schema
	"github.com/iliyamo/cinema-showtime-scheduler/internal/handler"
	"github.com/iliyamo/cinema-showtime-scheduler/internal/logging"
	"github.com/iliyamo/cinema-showtime-scheduler/internal/middleware"
	"github.com/iliyamo/cinema-showtime-scheduler/internal/queue"
	"github.com/iliyamo/cinema-showtime-scheduler/internal/repository"
	"github.com/iliyamo/cinema-showtime-scheduler/internal/router" // Internal router setup
	"github.com/iliyamo/cinema-showtime-scheduler/internal/service"
)

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancel()
		log.WithError(err).Fatal("migrate")
	}
	cancel()

	opts := []service.Option{service.WithTimeout(cfg.StoreTimeout)}
	if cfg.EventsOn {
		opts = append(opts, service.WithEvents(queue.NewPublisher(cfg.AMQPURL, log)))
		consumer := &queue.AuditConsumer{
			URL:     cfg.AMQPURL,
			LogPath: "logs/showtime.log",
			Log:     log.WithField("component", "audit-consumer"),
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("audit consumer stopped")
			}
		}()
	}
	svc := service.NewShowtimeService(repository.NewShowtimeRepo(db), repository.NewMovieRepo(db), opts...)

	// Redis is optional; both middlewares pass requests through without it.
	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	router.RegisterRoutes(e, db) // Register application routes
	router.RegisterShowtimes(e,
		handler.NewShowtimeHandler(svc, log),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
		cfg.JWTSecret,
	)
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set; showtime mutations are unauthenticated")
	}

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
