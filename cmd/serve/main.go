// Package classification Tally Service.
//
// Members of a group log point-bearing events against each other under house rules. The other
// members can veto an event during its review window, events surviving it are approved and their
// points are added to the leaderboard of the group.
//
// Terms Of Service:
//
// there are no TOS at this moment, use at your own risk we take no responsibility
//
//	Version: 0.1.0
//
//	Consumes:
//	  - application/json
//
//	Produces:
//	  - application/json
//	  - text/event-stream
//
//	SecurityDefinitions:
//	  oauth2:
//	    type: oauth2
//	    tokenUrl: /not-valid--tokens-are-issued-by-the-identity-provider
//	    flow: password
//
// swagger:meta
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tally-app/tally/internal/handler"
	"github.com/tally-app/tally/internal/log"
	"github.com/tally-app/tally/internal/middleware"
	"github.com/tally-app/tally/internal/server"
	"github.com/tally-app/tally/internal/tracing"
	"github.com/tally-app/tally/pkg/config"
	"github.com/tally-app/tally/pkg/event"
	"github.com/tally-app/tally/pkg/group"
	"github.com/tally-app/tally/pkg/lock"
	"github.com/tally-app/tally/pkg/notification"
	"github.com/tally-app/tally/pkg/rule"
	"github.com/tally-app/tally/pkg/storage"
	"github.com/tally-app/tally/pkg/user"

	"github.com/gin-gonic/gin"
)

const (
	serviceName      = "tally"
	sweepParallelism = 4
	shutdownTimeout  = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger := slog.New(log.New(log.NewPrettyJSONHandler(os.Stdout, &log.PrettyJSONHandlerOptions{
		HandlerOptions: slog.HandlerOptions{
			AddSource: true,
			Level:     cfg.LogLevel,
		},
		PrettyPrint: cfg.IsDevelopment(),
	})))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(serviceName, cfg.Jaeger.Endpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			logger.Error("Failed to shut down tracing", "error", err)
		}
	}()

	db, err := storage.NewDatabase(logger, cfg.Database)
	if err != nil {
		return err
	}

	locker, err := newLocker(logger, cfg)
	if err != nil {
		return err
	}

	broker := notification.NewBroker(logger)
	notifier := notification.Multi{broker}
	if cfg.RabbitMq != nil {
		publisher, closeConnection, err := notification.DialAMQP(logger, cfg.RabbitMq.GetUrl())
		if err != nil {
			return err
		}
		defer func() {
			if err := closeConnection(); err != nil {
				logger.Error("Failed to close RabbitMQ connection", "error", err)
			}
		}()
		notifier = append(notifier, publisher)
	}

	userService := user.NewService(user.NewRepository(db))
	groupService := group.NewService(logger, group.NewRepository(db))
	ruleService := rule.NewService(rule.NewRepository(db))
	eventService := event.NewService(logger, event.NewRepository(db), groupService, ruleService, locker, notifier)

	authentication := middleware.NewAuthentication(logger, cfg.JWTSecret, userService)

	err = handler.RegisterValidation()
	if err != nil {
		return err
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := server.GetEngine(logger, serviceName)
	api := engine.Group(cfg.BasePath)
	server.Docs(api, cfg.BasePath)
	user.Routes(api, authentication, user.NewHandler(userService))
	group.Routes(api, authentication, group.NewHandler(groupService))
	rule.Routes(api, authentication, rule.NewHandler(ruleService, groupService))
	event.Routes(api, authentication, event.NewHandler(eventService))
	notification.Routes(api, authentication, notification.NewHandler(logger, broker, groupService))

	sweeper := event.NewSweeper(logger, eventService, cfg.SweepInterval, sweepParallelism)
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Listening", "port", cfg.Port, "basePath", cfg.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLocker(logger *slog.Logger, cfg config.Config) (lock.Locker, error) {
	if cfg.Redis == nil {
		logger.Info("Redis not configured, sweeps are only serialized within this process")
		return lock.NewLocal(), nil
	}

	client, err := storage.NewRedis(*cfg.Redis)
	if err != nil {
		return nil, err
	}
	return lock.NewRedis(logger, client), nil
}
