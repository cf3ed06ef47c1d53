package main

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"applynest/internal/config"
	"applynest/internal/database"
	"applynest/internal/directory"
	"applynest/internal/engine/actors"
	"applynest/internal/handlers"
	"applynest/internal/middleware"
	"applynest/internal/models"
	"applynest/internal/session"
	"applynest/internal/utils"
	"applynest/internal/websocket"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	store, err := database.NewPostgresDB(cfg.Database.URI, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close(stdctx.Background())

	if err := store.InitializeTables(stdctx.Background()); err != nil {
		logger.Error("failed to initialize tables", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metrics := utils.NewMetricsCollector(registry)

	system := actor.NewActorSystem()
	mutatorProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewMutationSupervisor(store, logger)
	})
	mutatorPID := system.Root.Spawn(mutatorProps)

	hub := websocket.NewHub(logger)
	go hub.Run()

	sessions := session.NewProvider(store, cfg.JWTSecret, logger)
	sessions.OnAuthStateChange(func(user *models.User) {
		if user == nil {
			return
		}
		hub.SendEventToUser(user.ID, websocket.Event{
			Type:    websocket.EventAuthState,
			Payload: user,
		})
	})

	dir := directory.NewClient(cfg.DirectoryURL, logger)

	server := handlers.NewServer(system, system.Root, mutatorPID, store, sessions, dir, hub, metrics, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.HandleHealth())
	mux.HandleFunc("/user/register", server.HandleUserRegistration())
	mux.HandleFunc("/user/login", server.HandleUserLogin())
	mux.HandleFunc("/user/logout", middleware.RequireAuth(sessions, server.HandleUserLogout()))
	mux.HandleFunc("/user/me", middleware.OptionalAuth(sessions, server.HandleCurrentUser()))

	mux.HandleFunc("/forum/posts", middleware.OptionalAuth(sessions, server.HandlePosts()))
	mux.HandleFunc("/forum/post", middleware.OptionalAuth(sessions, server.HandlePostDetail()))
	mux.HandleFunc("/forum/post/like", middleware.RequireAuth(sessions, server.HandlePostLike()))
	mux.HandleFunc("/forum/comment", middleware.RequireAuth(sessions, server.HandleComment()))

	mux.HandleFunc("/tracker/universities", middleware.RequireAuth(sessions, server.HandleUniversities()))
	mux.HandleFunc("/universities/search", middleware.OptionalAuth(sessions, server.HandleUniversitySearch()))

	mux.HandleFunc("/ws", server.HandleWebSocket())

	if cfg.Server.MetricsEnabled {
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	cors := middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.AllowedOrigins))
	handler := cors(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
