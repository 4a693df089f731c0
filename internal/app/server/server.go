package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrify/internal/backend"
	"hrify/internal/domain/access"
	"hrify/internal/domain/auth"
	"hrify/internal/domain/draft"
	"hrify/internal/domain/wizard"
	"hrify/internal/platform/config"
	cryptoutil "hrify/internal/platform/crypto"
	"hrify/internal/platform/db"
	"hrify/internal/platform/jobs"
	"hrify/internal/platform/metrics"
	authhandler "hrify/internal/transport/http/handlers/auth"
	dashboardhandler "hrify/internal/transport/http/handlers/dashboard"
	proxyhandler "hrify/internal/transport/http/handlers/proxy"
	wizardhandler "hrify/internal/transport/http/handlers/wizard"
	"hrify/internal/transport/http/middleware"
)

const devJWTSecret = "hrify-dev-secret"

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Drafts  *draft.Service
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Router  http.Handler
}

// New wires every dependency from cfg. The caller owns Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET not set, using development secret")
		cfg.JWTSecret = devJWTSecret
	}

	app := &App{Config: cfg, Metrics: metrics.New()}

	sealer, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, err
	}

	var (
		store draft.Store
		idem  middleware.Idempotency
	)
	eventOpts := []draft.Option{draft.WithSealer(sealer)}
	switch cfg.DraftStore {
	case config.DraftStorePostgres:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		app.DB = pool
		if cfg.RunMigrations {
			if _, err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		store = draft.NewPGStore(pool)
		idem = middleware.NewIdempotencyStore(pool)
		eventOpts = append(eventOpts, draft.WithEventLog(draft.NewEventLog(pool)))
	default:
		slog.Warn("using in-memory draft store, drafts are lost on restart")
		store = draft.NewMemoryStore()
		idem = middleware.NewMemoryIdempotency()
	}
	app.Drafts = draft.NewService(store, eventOpts...)

	client, err := backend.New(cfg.BackendURL, cfg.BackendTimeout)
	if err != nil {
		app.Close()
		return nil, err
	}

	var provider auth.Provider = client
	if cfg.LocalUsersFile != "" {
		directory, err := auth.LoadDirectory(cfg.LocalUsersFile)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("local users: %w", err)
		}
		slog.Info("local user directory loaded", "users", directory.Len())
		provider = directory
	}

	app.Jobs = jobs.New(app.Drafts, jobs.Options{
		DraftTTL:      cfg.DraftTTL,
		PurgeInterval: cfg.DraftJanitorInterval,
	})

	router, err := NewRouter(Deps{
		Config:      cfg,
		Drafts:      app.Drafts,
		Provider:    provider,
		Backend:     client,
		Idempotency: idem,
		Metrics:     app.Metrics,
		Ready:       app.ready,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Router = router
	return app, nil
}

func (a *App) ready(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Ping(ctx)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// Deps is what the router needs; tests build it without a database.
type Deps struct {
	Config      config.Config
	Drafts      wizardhandler.Drafts
	Provider    auth.Provider
	Backend     *backend.Client
	Idempotency middleware.Idempotency
	Metrics     *metrics.Collector
	Ready       func(ctx context.Context) error
}

func NewRouter(d Deps) (http.Handler, error) {
	cfg := d.Config
	guard, err := access.NewGuard(cfg.Locales, cfg.DefaultLocale)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Tenant(cfg.BaseDomain, cfg.TrustProxy))
	router.Use(middleware.Auth(cfg.JWTSecret, cfg.SessionCookie))
	router.Use(middleware.Logger(d.Metrics))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute, cfg.TrustProxy))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if d.Ready != nil {
			if err := d.Ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Handle("/metrics", d.Metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		authHandler := authhandler.NewHandler(d.Provider, cfg.JWTSecret, cfg.SessionCookie, cfg.SessionTTL)
		authHandler.SecureCookie = cfg.IsProduction()
		authHandler.Locales = cfg.Locales
		authHandler.DefaultLocale = cfg.DefaultLocale
		authHandler.RegisterRoutes(r)

		wizardHandler := wizardhandler.NewHandler(d.Drafts, wizard.NewSubmitter(d.Backend), d.Idempotency, d.Metrics)
		wizardHandler.RegisterRoutes(r)

		dashboardHandler := dashboardhandler.NewHandler(d.Backend)
		dashboardHandler.RegisterRoutes(r)

		proxyHandler := proxyhandler.NewHandler(backend.NewProxy(d.Backend))
		proxyHandler.RegisterRoutes(r)
	})

	pages := chi.NewRouter()
	pages.Use(middleware.EdgeGuard(guard, d.Metrics))
	spa := spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"}
	for area, role := range map[string]auth.Role{"admin": auth.RoleAdmin, "employee": auth.RoleEmployee} {
		protected := pages.With(middleware.RoleProtected(cfg.DefaultLocale, d.Metrics, role))
		protected.Handle("/{locale}/dashboard/"+area, spa)
		protected.Handle("/{locale}/dashboard/"+area+"/*", spa)
	}
	pages.Handle("/*", spa)
	router.Mount("/", pages)

	return router, nil
}

func Run() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown failed", "err", err)
		}
	}()

	slog.Info("hrify server listening", "addr", cfg.Addr, "draftStore", cfg.DraftStore, "baseDomain", cfg.BaseDomain)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
	app.Jobs.Wait()
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if err == nil || os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
