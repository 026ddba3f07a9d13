package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loyalty/internal/config"
	"github.com/loyalty/internal/handler"
	"github.com/loyalty/internal/logger"
	"github.com/loyalty/internal/middleware"
	"github.com/loyalty/internal/model"
	"github.com/loyalty/internal/obs"
	"github.com/loyalty/internal/repository"
	"github.com/loyalty/internal/service"
	"github.com/loyalty/internal/startup"
	"github.com/loyalty/internal/storage"
	"github.com/loyalty/internal/storage/memory"
	"github.com/loyalty/internal/token"
	"github.com/loyalty/internal/ws"
	"github.com/loyalty/migrations"
)

func main() {
	logger.SetPrefix("api")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	dev := flag.Bool("dev", false, "start with embedded PostgreSQL and in-memory token store (no external services required)")
	flag.Parse()

	logger.Info("starting API service")
	cfg := config.Load()

	var embeddedDB *embeddedpostgres.EmbeddedPostgres
	if *dev {
		var err error
		embeddedDB, err = startEmbeddedPostgres(cfg)
		if err != nil {
			logger.Errorf("embedded postgres: %v", err)
			os.Exit(1)
		}
		defer func() {
			logger.Info("stopping embedded postgres...")
			if err := embeddedDB.Stop(); err != nil {
				logger.Errorf("embedded postgres stop: %v", err)
			}
		}()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		logger.Errorf("parse db config: %v", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxConnections())
	poolCfg.MinConns = 4

	pool := startup.ConnectDBWithRetry(poolCfg, 60*time.Second)
	defer pool.Close()

	runMigrations(pool)
	if *migrate && !*dev {
		return
	}
	logger.Info("database connected, migrations applied")

	var tokenStore storage.TokenStore
	if *dev || cfg.Redis.URL == "" {
		logger.Info("using in-memory token store")
		tokenStore = memory.New()
	} else {
		tokenStore = startup.ConnectRedisWithRetry(cfg.Redis.URL, 60*time.Second)
	}
	defer tokenStore.Close()

	if cfg.Auth.JWTSecret == "" {
		logger.Error("JWT_SECRET not set, using an insecure development secret")
		cfg.Auth.JWTSecret = "insecure-dev-secret"
	}
	issuer := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL)

	userRepo := repository.NewUserRepository(pool)
	rewardRepo := repository.NewRewardRepository(pool)
	promoRepo := repository.NewPromotionRepository(pool)
	purchaseRepo := repository.NewPurchaseRepository(pool)
	swapRepo := repository.NewSwapRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	authSvc := service.NewAuthService(userRepo, tokenStore, issuer, cfg.Auth.RefreshTokenTTL)

	if *dev {
		seedDemoUser(userRepo, authSvc)
	}

	hubCtx, hubCancel := context.WithCancel(context.Background())
	hub := ws.NewHub(0)

	var hubWg sync.WaitGroup
	hubWg.Add(1)
	go func() {
		defer hubWg.Done()
		hub.Run(hubCtx)
	}()

	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userRepo)
	catalogH := handler.NewCatalogHandler(rewardRepo, promoRepo, swapRepo, hub)
	historyH := handler.NewHistoryHandler(purchaseRepo, swapRepo, activityRepo, statsRepo)
	wsH := handler.NewWSHandler(hub, cfg.CORSAllowedOrigins)

	obs.Init()

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RecoverJSON)
	r.Use(middleware.RequestLog)
	r.Use(obs.Instrument)
	r.Use(middleware.RateLimitAPI)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSAllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); w.Write([]byte("ok")) })
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Post("/api/auth/login", authH.Login)
	r.Post("/api/auth/refresh", authH.Refresh)
	r.Post("/api/auth/logout", authH.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(issuer))
		r.Get("/api/me", userH.Me)
		r.Get("/api/rewards", catalogH.ListRewards)
		r.Post("/api/rewards/{id}/swap", catalogH.SwapReward)
		r.Get("/api/promotions", catalogH.ListPromotions)
		r.Get("/api/purchases", historyH.ListPurchases)
		r.Get("/api/purchases/{id}", historyH.GetPurchase)
		r.Get("/api/swaps", historyH.ListSwaps)
		r.Get("/api/activity", historyH.ListActivity)
		r.Get("/api/stats", historyH.GetStats)
		r.Get("/api/ws", wsH.ServeWS)
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var srvWg sync.WaitGroup
	errCh := make(chan error, 1)
	srvWg.Add(1)
	go func() {
		defer srvWg.Done()
		logger.Infof("server listening on %s", cfg.ServerAddr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	logger.Info("server stopped accepting connections")
	hubCancel()
	hubWg.Wait()
	logger.Info("hub stopped")
	srvWg.Wait()
	logger.Info("server goroutine exited")
}

func runMigrations(pool *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entries, err := migrations.Files.ReadDir(".")
	if err != nil {
		logger.Errorf("read migrations dir: %v", err)
		os.Exit(1)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.Files.ReadFile(name)
		if err != nil {
			logger.Errorf("read migration %s: %v", name, err)
			os.Exit(1)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			logger.Errorf("run migration %s: %v", name, err)
			os.Exit(1)
		}
	}
	logger.Info("migrations applied")
}

// seedDemoUser creates a login for local development. Idempotent.
func seedDemoUser(userRepo *repository.UserRepository, authSvc *service.AuthService) {
	const (
		email    = "demo@loyalty.dev"
		password = "demo1234"
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := userRepo.GetByEmail(ctx, email); err == nil {
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		logger.Errorf("seed demo user lookup: %v", err)
		return
	}

	hash, err := authSvc.HashPassword(password)
	if err != nil {
		logger.Errorf("seed demo user hash: %v", err)
		return
	}
	u := &model.User{
		Email:        email,
		FullName:     "Demo User",
		IsAdmin:      false,
		TotalPoints:  2500,
		PasswordHash: hash,
	}
	if err := userRepo.Create(ctx, u); err != nil {
		logger.Errorf("seed demo user create: %v", err)
		return
	}
	logger.Infof("seeded demo user %s (password %q)", email, password)
}

func startEmbeddedPostgres(cfg *config.Config) (*embeddedpostgres.EmbeddedPostgres, error) {
	const (
		port     = 5432
		user     = "loyalty"
		password = "loyalty_secret"
		database = "loyalty"
	)

	dataDir := filepath.Join(".", ".pgdata")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pgdata dir: %w", err)
	}

	db := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Username(user).
			Password(password).
			Database(database).
			DataPath(dataDir).
			RuntimePath(filepath.Join(os.TempDir(), "embedded-pg-runtime")),
	)

	logger.Info("starting embedded PostgreSQL...")
	if err := db.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	cfg.Database.URL = fmt.Sprintf(
		"postgres://%s:%s@localhost:%d/%s?sslmode=disable",
		user, password, port, database,
	)
	logger.Infof("embedded PostgreSQL running on port %d", port)
	return db, nil
}
