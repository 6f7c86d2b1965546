package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ShopDash/internal/config"
	"ShopDash/internal/dashboard"
	"ShopDash/pkg/kit"
)

func main() {
	service := "dashboard"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(os.Getenv("SHOPDASH_CONFIG"))
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("open local store", zap.Error(err))
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	metrics := dashboard.NewMetrics(reg)

	cache := dashboard.NewCache(dashboard.NewCatalogClient(cfg.CatalogURL), store, log, metrics)

	s := &dashboard.Server{
		Cache: cache,
		Store: store,
		Mut:   dashboard.NewCoordinator(cache, store, metrics),
		Log:   log,
	}

	h := dashboard.NewHandler(s, dashboard.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
		MutationLimit:  cfg.MutationLimit,
		MutationWindow: time.Duration(cfg.MutationWindowSec) * time.Second,
	})

	if err := kit.RunHTTPServer(cfg.ListenAddr, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openStore(cfg config.Config, log *zap.Logger) (dashboard.Store, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		return dashboard.NewMemStore(), func() {}, nil

	case "postgres":
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		store := dashboard.NewPostgresStore(db, log)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.InitSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil

	default: // bolt
		store, err := dashboard.OpenBoltStore(cfg.BoltPath, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
}
