// Package runtime wires the claims layer together and manages the HTTP
// server lifecycle.
package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"github.com/opencover/claims_layer/internal/app/dao"
	"github.com/opencover/claims_layer/internal/app/httpapi"
	"github.com/opencover/claims_layer/internal/app/metrics"
	"github.com/opencover/claims_layer/internal/app/services/journal"
	"github.com/opencover/claims_layer/internal/app/storage"
	memorystore "github.com/opencover/claims_layer/internal/app/storage/memory"
	"github.com/opencover/claims_layer/internal/app/storage/postgres"
	"github.com/opencover/claims_layer/internal/app/system"
	"github.com/opencover/claims_layer/internal/config"
	"github.com/opencover/claims_layer/internal/token"
	"github.com/opencover/claims_layer/pkg/logger"
)

// Application wires core dependencies and manages the server lifecycle.
type Application struct {
	cfg     *config.Config
	log     *logger.Logger
	pool    *dao.Pool
	manager *system.Manager
	server  *http.Server
	db      *sql.DB
}

// NewApplication constructs an application with default wiring. The asset
// collaborator may be nil, in which case an in-memory ledger is used; real
// deployments inject the adapter for the on-chain asset.
func NewApplication(asset token.Asset) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newApplication(cfg, asset)
}

func newApplication(cfg *config.Config, asset token.Asset) (*Application, error) {
	log := logger.New(cfg.Logging)

	if asset == nil {
		log.Warn("no asset collaborator injected; using in-memory token ledger")
		asset = token.NewLedger()
	}

	journalStore, archive, db, err := buildStores(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	poolCfg, err := poolConfig(cfg.Pool)
	if err != nil {
		return nil, err
	}

	pool := dao.New(poolCfg, asset, dao.WithLogger(log), dao.WithSink(metrics.Observer{}))

	projector := journal.New(pool, journalStore, archive, log)
	pool.AddSink(projector.Sink())

	if admin := cfg.Pool.BootstrapAdmin; admin != "" {
		if err := pool.Bootstrap(context.Background(), admin); err != nil {
			log.WithError(err).Warn("bootstrap admin")
		}
	}
	metrics.SetPremiumRate(pool.PremiumRate(context.Background()))

	manager := system.NewManager()
	if err := manager.Register(projector); err != nil {
		return nil, err
	}

	auth := httpapi.NewAuth(cfg.Auth.JWTSecret)
	if !auth.Enabled() {
		log.Warn("JWT secret not set; callers attributed via X-Caller header")
	}
	handler := httpapi.NewHandler(pool, journalStore, auth, log)
	if len(cfg.Server.AllowedOrigins) > 0 {
		handler = httpapi.CORS(cfg.Server.AllowedOrigins)(handler)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return &Application{
		cfg:     cfg,
		log:     log,
		pool:    pool,
		manager: manager,
		server:  server,
		db:      db,
	}, nil
}

// Pool exposes the DAO instance, mainly for embedding and tests.
func (a *Application) Pool() *dao.Pool { return a.pool }

// Run starts background services and the HTTP server, blocking until the
// context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.manager.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the server, background services and the
// database connection.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := a.manager.Stop(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("stopping background services")
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	return nil
}

func buildStores(cfg *config.Config, log *logger.Logger) (storage.EventStore, storage.ClaimArchive, *sql.DB, error) {
	if cfg.Database.DSN == "" {
		log.Warn("database DSN not configured; journal kept in memory")
		mem := memorystore.New()
		return mem, mem, nil, nil
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}

	store := postgres.New(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("migrate journal schema: %w", err)
	}
	return store, store, db, nil
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func poolConfig(cfg config.PoolConfig) (dao.Config, error) {
	minStake := dao.DefaultMinStake()
	if cfg.MinStake != "" {
		parsed, ok := new(big.Int).SetString(cfg.MinStake, 10)
		if !ok || parsed.Sign() <= 0 {
			return dao.Config{}, fmt.Errorf("invalid min_stake %q", cfg.MinStake)
		}
		minStake = parsed
	}
	return dao.Config{
		VotingPeriod:       time.Duration(cfg.VotingPeriodSeconds) * time.Second,
		ChallengePeriod:    time.Duration(cfg.ChallengePeriodSeconds) * time.Second,
		MinStake:           minStake,
		InitialPremiumRate: cfg.InitialPremiumRate,
		Treasury:           cfg.Treasury,
	}, nil
}
