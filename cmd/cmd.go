package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"twiin-backend/internal/config"
	"twiin-backend/internal/handlers"
	"twiin-backend/internal/middleware"
	"twiin-backend/internal/repository"
	"twiin-backend/internal/services"
	"twiin-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Connect to Redis (leaderboard cache); the server runs without it
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, leaderboard cache disabled")
			rdb = nil
		} else {
			log.Info().Msg("Redis connection established")
		}
	}

	// Object storage
	media, err := storage.NewMediaStore(context.Background(), cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media store")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	roundRepo := repository.NewRoundRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	reactionRepo := repository.NewReactionRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, cfg.JWT.Secret)
	profileService := services.NewProfileService(userRepo, media, cfg.AWS.AvatarBucket)
	roundService := services.NewRoundService(roundRepo)
	matchService := services.NewMatchService(matchRepo, userRepo)
	catalogService := services.NewCatalogService(challengeRepo, services.SelectionPolicy(cfg.Game.SelectionPolicy))
	voteService := services.NewVoteService(userRepo, challengeRepo, submissionRepo, roundService, matchService)
	leaderboardService := services.NewLeaderboardService(userRepo, rdb, cfg.Game.LeaderboardTTL)
	submissionService := services.NewSubmissionService(
		submissionRepo, challengeRepo, userRepo, matchService,
		media, cfg.AWS.SubmissionBucket, leaderboardService,
	)
	feedService := services.NewFeedService(submissionRepo, reactionRepo, submissionService)
	wsHub := services.NewWSHub()

	notifier, err := services.NewNotifier(cfg.APNs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create APNs notifier")
	}
	if notifier == nil {
		log.Info().Msg("APNs pushes disabled")
	}

	// Reaper for stale pending submissions
	reaper := services.NewReaper(submissionRepo, media, cfg.AWS.SubmissionBucket, cfg.Game.PendingTTL)
	if err := reaper.Start(cfg.Game.ReaperSchedule); err != nil {
		log.Fatal().Err(err).Msg("Failed to start submission reaper")
	}
	defer reaper.Stop()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, profileService)
	userHandler := handlers.NewUserHandler(profileService, submissionService)
	challengeHandler := handlers.NewChallengeHandler(roundService, catalogService, matchService, profileService)
	voteHandler := handlers.NewVoteHandler(voteService, profileService, wsHub, notifier)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, profileService, wsHub, notifier)
	feedHandler := handlers.NewFeedHandler(feedService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, authService, voteService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/signin", authHandler.Signin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(authService))
			r.Get("/session", authHandler.Session)
			r.Get("/users/me", userHandler.Me)
			r.Patch("/users/me", userHandler.UpdateMe)
			r.Post("/users/me/avatar", userHandler.UploadAvatar)
			r.Put("/users/me/push-token", userHandler.UpdatePushToken)
			r.Get("/rounds/current", challengeHandler.CurrentRound)
			r.Get("/rounds/current/challenges", challengeHandler.Challenges)
			r.Get("/rounds/current/match", challengeHandler.Match)
			r.Put("/challenges/selection", voteHandler.Select)
			r.Get("/challenges/agreement", voteHandler.Agreement)
			r.Post("/submissions", submissionHandler.Create)
			r.Get("/submissions/mine", userHandler.MySubmissions)
			r.Get("/feed", feedHandler.Feed)
			r.Put("/feed/{submission_id}/reaction", feedHandler.SetReaction)
			r.Get("/leaderboard", leaderboardHandler.Get)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if rdb != nil {
		rdb.Close()
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
