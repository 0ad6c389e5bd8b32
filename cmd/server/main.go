package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/kaku-api/internal/config"
	"github.com/iliyamo/kaku-api/internal/database"
	"github.com/iliyamo/kaku-api/internal/handler"
	"github.com/iliyamo/kaku-api/internal/identity"
	"github.com/iliyamo/kaku-api/internal/notify"
	"github.com/iliyamo/kaku-api/internal/queue"
	"github.com/iliyamo/kaku-api/internal/repository"
	"github.com/iliyamo/kaku-api/internal/router"
	"github.com/iliyamo/kaku-api/internal/service"
)

// drainer is a notifier whose in-flight sends can be awaited on shutdown.
type drainer interface {
	service.Notifier
	Wait()
}

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	events := repository.NewEventRepo(db)
	tasks := repository.NewTaskRepo(db)

	provider := identity.New(ctx, cfg.Firebase)
	mailer := notify.NewMailer(cfg.SMTP)
	dispatcher := notify.NewDispatcher(users, mailer, cfg.AppURL)

	var notifier drainer
	if cfg.AMQPURL != "" {
		notifier = queue.NewPublisher(cfg.AMQPURL, cfg.NotifyQueue)
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.NotifyQueue, dispatcher)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("consumer stopped: %v", err)
			}
		}()
		log.Printf("notifications via queue %q", cfg.NotifyQueue)
	} else {
		notifier = notify.NewInline(dispatcher)
		log.Printf("notifications inline (RABBITMQ_URL empty)")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))

	router.Register(e, router.Deps{
		DB:        db,
		JWTSecret: cfg.JWTSecret,
		Verifier:  provider,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Accounts:  users,
		Auth:      handler.NewAuthHandler(service.NewAuthService(users, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)),
		Users:     handler.NewUserHandler(service.NewUserService(users, provider)),
		Events:    handler.NewEventHandler(service.NewEventService(events, users, notifier)),
		Tasks:     handler.NewTaskHandler(service.NewTaskService(tasks, users, events, notifier)),
		Mail:      handler.NewMailHandler(service.NewMailService(mailer, provider)),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	notifier.Wait()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
