package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/CL4275/sistema-troca-alimentos-estilizado/config"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/controllers"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/database"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/repository"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/server"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/services"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/session"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/views"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := newLogger(cfg)
	gin.SetMode(cfg.GinMode)

	db, err := database.ConnectToDB(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.WithError(err).Error("failed to close database connection")
		}
	}()

	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		log.Info("database schema migrated")
	}

	store := repository.New(db)

	// Bcrypt is CPU bound; the pool keeps it off the request goroutines.
	hasher := services.NewHasher(cfg.HasherWorkers, cfg.BcryptCost)
	defer hasher.Close()
	accounts := services.NewAccounts(store, hasher)

	backend, closeBackend := newSessionBackend(cfg, log)
	defer closeBackend()
	sessions := session.NewStore(backend, []byte(cfg.SessionSecret), cfg.SessionTTL, cfg.CookieSecure)

	h := controllers.NewHandler(store, accounts, sessions, log)
	router := controllers.NewRouter(h, views.New(gin.IsDebugging()), log)
	svr := server.New(router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr()).Info("server listening")
		errc <- svr.Run(cfg.Addr())
	}()

	select {
	case err := <-errc:
		if err != nil {
			log.WithError(err).Error("server stopped")
		}
	case <-ctx.Done():
		log.Info("shutting down...")
		if err := svr.Shutdown(shutdownTimeout); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
	}
	log.Info("server stopped")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func newSessionBackend(cfg *config.Config, log *logrus.Logger) (session.Backend, func()) {
	if cfg.SessionBackend != config.BackendRedis {
		return session.NewMemoryBackend(cfg.SessionTTL), func() {}
	}

	client, err := session.DialRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	log.Info("storing sessions in redis")
	return session.NewRedisBackend(client), func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Error("failed to close redis client")
		}
	}
}
