package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/civicworks/sitelore-backend/internal/clients/redis"
	"github.com/civicworks/sitelore-backend/internal/db"
	internalhttp "github.com/civicworks/sitelore-backend/internal/http"
	"github.com/civicworks/sitelore-backend/internal/observability"
	"github.com/civicworks/sitelore-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *internalhttp.Server
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services

	cancel       context.CancelFunc
	shutdownOTel func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	observability.Init()
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "sitelore-backend",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	clientset, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(log, cfg, clientset, reposet)
	handlerset := wireHandlers(log, serviceset)
	server := wireServer(log, handlerset)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Clients:      clientset,
		Repos:        reposet,
		Services:     serviceset,
		shutdownOTel: shutdownOTel,
	}, nil
}

// Start launches the background vector-sync consumer. Safe to call once.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Clients.SyncBus != nil && a.Services.VectorSync != nil {
		err := a.Clients.SyncBus.StartForwarder(ctx, func(ev redis.SyncEvent) {
			a.Services.VectorSync.HandleEvent(ctx, ev)
		})
		if err != nil {
			a.Log.Error("Failed to start vector sync forwarder", "error", err)
		}
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Clients.SyncBus != nil {
		_ = a.Clients.SyncBus.Close()
	}
	if a.shutdownOTel != nil {
		_ = a.shutdownOTel(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
