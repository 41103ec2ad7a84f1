package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/Devraj-sh/Promptbattle/artifact"
	"github.com/Devraj-sh/Promptbattle/config"
	"github.com/Devraj-sh/Promptbattle/evaluator"
	"github.com/Devraj-sh/Promptbattle/game"
	"github.com/Devraj-sh/Promptbattle/logger"
	"github.com/Devraj-sh/Promptbattle/migrations"
	"github.com/Devraj-sh/Promptbattle/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func CreateServer(allowedOrigins []string, health gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware())
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", health)

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

// loadWords fills the bank from Postgres. Any failure leaves the built-in
// list in place.
func loadWords(ctx context.Context, pgurl string, bank *game.WordBank) {
	if err := migrations.Migrate(pgurl); err != nil {
		log.Error().Err(err).Msg("migrations failed, using built-in words")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	repo, err := storage.NewPostgresRepo(ctx, pgurl)
	if err != nil {
		log.Error().Err(err).Msg("postgres unreachable, using built-in words")
		return
	}
	defer repo.Close()

	words, err := repo.Words(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load words, using built-in words")
		return
	}
	bank.Replace(words)
	log.Info().Int("words", bank.Len()).Msg("word bank loaded from postgres")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Setup(false, true)
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Setup(cfg.Debug, cfg.LogPretty)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	words := game.NewWordBank(nil)
	if cfg.PostgresURL != "" {
		loadWords(ctx, cfg.PostgresURL, words)
	}

	generator := artifact.NewStability(cfg.StabilityAPIKey, cfg.StabilityEngine, "")
	if cfg.StabilityAPIKey == "" {
		log.Warn().Msg("no stability api key, artifacts will be placeholders")
	}

	var promptEvaluator game.PromptEvaluator = evaluator.NewHeuristic()
	if cfg.GroqAPIKey != "" {
		promptEvaluator = evaluator.NewLLM(cfg.GroqAPIKey, cfg.GroqModel)
	}

	hub := game.NewHub(nil)
	registry := game.NewRegistry(cfg.Game, cfg.MaxRooms, game.RegistryDeps{
		Words:     words,
		Generator: generator,
		Transport: hub,
	})
	coordinator := game.NewCoordinator(registry, hub, promptEvaluator)
	gameHandler := game.NewGameHandler(hub, registry, coordinator, promptEvaluator)

	registryStarted := make(chan struct{})
	go registry.Run(ctx, registryStarted)
	<-registryStarted

	keepAliveStarted := make(chan struct{})
	go hub.KeepAlive(ctx, keepAliveStarted)
	<-keepAliveStarted

	r := CreateServer(cfg.AllowedOrigins, gameHandler.HealthHandler)
	r.GET("/ws", gameHandler.WebsocketHandler)
	r.POST("/api/evaluate-prompt", gameHandler.EvaluatePromptHandler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Strs("origins", cfg.AllowedOrigins).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("SIGTERM or SIGINT received, closing rooms before shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	registry.CloseAll(shutdownCtx, game.ReasonServerShutdown)
	hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("shutting down now")
}
