package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flowmatic/actionsched/pkg/config"
	"github.com/flowmatic/actionsched/pkg/httpserver"
	"github.com/flowmatic/actionsched/pkg/logger"
	"github.com/flowmatic/actionsched/pkg/mongo"
	"github.com/flowmatic/actionsched/pkg/scheduler"
	"github.com/flowmatic/actionsched/pkg/scheduler/mongostore"
)

type serverConfig struct {
	Addr            string        `env:"SERVER_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"0"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func main() {
	var (
		srvCfg   serverConfig
		mongoCfg mongo.Config
		schedCfg scheduler.Config
	)
	config.MustLoad(&srvCfg)
	config.MustLoad(&mongoCfg)
	config.MustLoad(&schedCfg)

	logOpts := []logger.Option{
		logger.WithAttr(slog.String("service", "actionsched")),
	}
	if schedCfg.Debug {
		logOpts = append(logOpts, logger.WithDebug())
	}
	log := logger.New(logOpts...)
	slog.SetDefault(log)

	if err := run(srvCfg, mongoCfg, schedCfg, log); err != nil {
		log.Error("service failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(srvCfg serverConfig, mongoCfg mongo.Config, schedCfg scheduler.Config, log *slog.Logger) error {
	ctx := context.Background()

	db, err := mongo.NewDatabase(ctx, mongoCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			log.Error("failed to disconnect mongo", slog.String("error", err.Error()))
		}
	}()

	store := mongostore.New(db)

	svc, err := scheduler.New(store, schedCfg, scheduler.WithLogger(log))
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if schedCfg.Enabled {
		r.Mount("/api/scheduled-actions", scheduler.Router(svc))
	}

	srv := httpserver.New(
		httpserver.WithAddr(srvCfg.Addr),
		httpserver.WithReadTimeout(srvCfg.ReadTimeout),
		httpserver.WithWriteTimeout(srvCfg.WriteTimeout),
		httpserver.WithShutdownTimeout(srvCfg.ShutdownTimeout),
		httpserver.WithLogger(log),
	)

	return srv.Run(ctx, r)
}
