package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codewithme13/signai-server/internal/auth"
	"github.com/codewithme13/signai-server/internal/calls"
	"github.com/codewithme13/signai-server/internal/config"
	"github.com/codewithme13/signai-server/internal/gateway"
	"github.com/codewithme13/signai-server/internal/httpapi"
	"github.com/codewithme13/signai-server/internal/profile"
	sig "github.com/codewithme13/signai-server/internal/signal"
	"github.com/codewithme13/signai-server/internal/users"
	"github.com/codewithme13/signai-server/pkg/logger"
	"github.com/codewithme13/signai-server/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	var (
		userRepo users.Repository
		callRepo calls.Repository
		rdb      *redis.Client
	)

	switch cfg.Store.Backend {
	case config.BackendMemory:
		log.Warn("using in-memory store; nothing survives a restart")
		memUsers := users.NewMemoryRepo()
		memCalls := calls.NewMemoryRepo()
		memCalls.UsernameFor = func(userID string) string {
			u, err := memUsers.GetByID(context.Background(), userID)
			if err != nil {
				return ""
			}
			return u.Username
		}
		userRepo, callRepo = memUsers, memCalls

	default:
		db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		pgUsers := users.NewPostgresRepo(db)
		pgCalls := calls.NewPostgresRepo(db)
		if err := pgUsers.EnsureSchema(rootCtx); err != nil {
			log.Error("users schema init failed", "err", err)
			os.Exit(1)
		}
		if err := pgCalls.EnsureSchema(rootCtx); err != nil {
			log.Error("calls schema init failed", "err", err)
			os.Exit(1)
		}
		// Presence flags are transient; a restart means nobody is connected.
		if err := pgUsers.ResetPresence(rootCtx); err != nil {
			log.Error("presence reset failed", "err", err)
			os.Exit(1)
		}
		userRepo, callRepo = pgUsers, pgCalls

		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
	}

	photos, err := profile.NewStore(cfg.Upload.Dir, "/uploads/profiles", cfg.Upload.MaxBytes)
	if err != nil {
		log.Error("photo store init failed", "err", err)
		os.Exit(1)
	}

	router := sig.NewRouter(signalStore{users: userRepo, calls: callRepo}, log, sig.Options{
		RateMax:    cfg.Rate.SocketMax,
		RateWindow: cfg.Rate.SocketWindow,
		Photos:     photos,
	})
	gw := gateway.New(router, authManager, log)

	h := httpapi.Handlers{
		Auth:   authManager,
		Users:  users.NewService(userRepo),
		Calls:  calls.NewService(callRepo),
		Photos: photos,
		Router: router,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, cfg, h, gw, authManager, rdb, log)

	// No Read/WriteTimeout: signaling connections are long-lived WebSockets
	// and keepalive is handled by the gateway's ping/pong deadlines.
	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.App.Env, "backend", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
