package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/equipment-maintenance/internal/config"
	"github.com/ukydev/equipment-maintenance/internal/db"
	"github.com/ukydev/equipment-maintenance/internal/events"
	"github.com/ukydev/equipment-maintenance/internal/handlers"
	"github.com/ukydev/equipment-maintenance/internal/metrics"
	"github.com/ukydev/equipment-maintenance/internal/middleware"
	"github.com/ukydev/equipment-maintenance/internal/service"
	"github.com/ukydev/equipment-maintenance/internal/validation"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the maintenance HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}
			if err := cfg.ConfigureLogging(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}()

	publisher, err := openPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	svc := service.NewMaintenanceService(store, engine, service.WithPublisher(publisher))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":  cfg.Port,
			"store": cfg.StoreBackend,
			"rules": engine.Rules(),
		}).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newEngine(cfg *config.Config) (*validation.Engine, error) {
	vocab, err := cfg.Vocabulary()
	if err != nil {
		return nil, err
	}
	return validation.NewEngine(
		validation.WithVocabulary(vocab),
		validation.WithLimits(cfg.Limits()),
		validation.WithObserver(func(rule string, res validation.Result) {
			metrics.ObserveRule(rule, len(res.Errors), len(res.Warnings))
		}),
	), nil
}

func openStore(ctx context.Context, cfg *config.Config) (db.MaintenanceStore, error) {
	switch cfg.StoreBackend {
	case "memory":
		return db.NewMemoryStore(), nil
	case "sqlite":
		return db.OpenSQLite(cfg.SQLitePath)
	case "mongo":
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		coll := &db.MongoMaintenanceCollection{
			Collection: client.Database(cfg.MongoDB).Collection("maintenance"),
		}
		if err := coll.EnsureIndexes(ctx); err != nil {
			client.Disconnect(ctx)
			return nil, err
		}
		log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
		return coll, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func openPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.MQTTBroker == "" {
		return events.NopPublisher{}, nil
	}
	p, err := events.NewMQTTPublisher(events.MQTTConfig{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
		Topic:    cfg.MQTTTopic,
		QoS:      1,
	})
	if err != nil {
		return nil, err
	}
	log.WithField("broker", cfg.MQTTBroker).Info("Publishing maintenance events over MQTT")
	return p, nil
}

func newRouter(svc handlers.MaintenanceService) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recover, middleware.RequestLogger)

	handlers.NewMaintenanceHandler(svc).RegisterRoutes(r)
	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}
