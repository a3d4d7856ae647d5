package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meditation-backend/internal/achievement"
	"meditation-backend/internal/cache"
	"meditation-backend/internal/config"
	"meditation-backend/internal/database"
	"meditation-backend/internal/handlers"
	"meditation-backend/internal/repository"
	"meditation-backend/internal/repository/memory"
	"meditation-backend/internal/services"
	"meditation-backend/internal/streak"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func Run() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open datastore")
	}
	defer closeStore()

	var topCache services.TopCache
	if cfg.Redis.Enabled {
		client, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer client.Close()
		topCache = cache.NewLeaderboardCache(client, cfg.Redis.TopTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Leaderboard cache enabled")
	}

	// Initialize services
	calculator := streak.NewCalculator(cfg.Streak.Location())
	wsHub := services.NewWSHub()
	userService := services.NewUserService(store, cfg.JWT.Secret, time.Duration(cfg.JWT.TTLDays)*24*time.Hour)
	sessionService := services.NewSessionService(store, calculator, achievement.NewEvaluator(), topCache, wsHub)
	leaderboardService := services.NewLeaderboardService(store, topCache)
	statsService := services.NewStatsService(store, calculator)
	friendService := services.NewFriendService(store, wsHub)

	jobs := []services.Job{}
	if cfg.Rebuild.Enabled {
		jobs = append(jobs, services.Job{
			Name:     "leaderboard_rebuild",
			Interval: cfg.Rebuild.Interval,
			Run:      leaderboardService.Rebuild,
		})
	}
	if cfg.Archive.Enabled {
		archiveService, err := services.NewArchiveService(ctx, leaderboardService, cfg.Archive)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create archive service")
		}
		jobs = append(jobs, services.Job{
			Name:     "leaderboard_archive",
			Interval: cfg.Archive.Interval,
			Run: func(ctx context.Context) error {
				_, err := archiveService.Archive(ctx)
				return err
			},
		})
	}
	scheduler := services.NewScheduler(jobs...)

	// Initialize handlers
	router := handlers.NewRouter(handlers.Router{
		Health:       handlers.Health(store),
		Auth:         userService,
		Users:        handlers.NewUserHandler(userService),
		Sessions:     handlers.NewSessionHandler(sessionService, cfg.Completion.MaxRetries, cfg.Completion.RetryBackoff),
		Stats:        handlers.NewStatsHandler(statsService),
		Achievements: handlers.NewAchievementHandler(sessionService),
		Leaderboard:  handlers.NewLeaderboardHandler(leaderboardService),
		Friends:      handlers.NewFriendHandler(friendService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, userService),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server exited")
}

// openStore builds the configured datastore and its cleanup
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn().Msg("Using in-memory datastore, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Msg("Database connection established")

	if cfg.Database.Migrate {
		if err := database.RunMigrations(db); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	return repository.NewPostgresStore(db), db.Close, nil
}

// setupLogger configures zerolog logger
func setupLogger(level, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

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
