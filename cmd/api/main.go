package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/nbatrivia/internal/auth"
	"github.com/BradenHooton/nbatrivia/internal/background"
	"github.com/BradenHooton/nbatrivia/internal/cache"
	"github.com/BradenHooton/nbatrivia/internal/config"
	"github.com/BradenHooton/nbatrivia/internal/database"
	"github.com/BradenHooton/nbatrivia/internal/email"
	"github.com/BradenHooton/nbatrivia/internal/handlers"
	"github.com/BradenHooton/nbatrivia/internal/lockout"
	middlewareCustom "github.com/BradenHooton/nbatrivia/internal/middleware"
	"github.com/BradenHooton/nbatrivia/internal/models"
	"github.com/BradenHooton/nbatrivia/internal/repositories"
	"github.com/BradenHooton/nbatrivia/internal/routes"
	"github.com/BradenHooton/nbatrivia/internal/services"
	pkghttp "github.com/BradenHooton/nbatrivia/pkg/http"
	pkglogger "github.com/BradenHooton/nbatrivia/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Authenticated and game endpoints share this per-user budget.
const userRequestsPerMinute = 120

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.NewConnection(connectCtx, &cfg.Database, logger)
	cancelConnect()
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.Migrate(ctx, db.Pool, database.MigrateUp)
		cancel()
		if err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	questionRepo := repositories.NewQuestionRepository(db)
	statsRepo := repositories.NewStatsRepository(db)

	// Optional Redis leaderboard cache. The interface values stay nil when
	// Redis is disabled so services and health checks skip it.
	var leaderboardCache services.LeaderboardCache
	var cacheHealth handlers.HealthChecker
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.NewRedisClient(ctx, &cfg.Redis, logger)
		cancel()
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer client.Close()

		lb := cache.NewLeaderboard(client, cfg.Redis.LeaderboardTTL)
		leaderboardCache = lb
		cacheHealth = lb
	}

	// Email delivery
	emailCtx, emailCancel := context.WithTimeout(context.Background(), 10*time.Second)
	sender, err := email.New(emailCtx, &cfg.Email, logger)
	emailCancel()
	if err != nil {
		logger.Error("failed to initialize email sender", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize security primitives
	auditLogger := pkglogger.NewAuditLogger(logger)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTokenExpiry)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingBaseDelayMs,
		RandomDelayMs: cfg.Auth.TimingRandomMs,
	})
	policy := lockout.Policy{
		MaxAttempts: cfg.Auth.MaxFailedAttempts,
		Duration:    cfg.Auth.LockoutDuration,
	}
	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenManager, timingDelay, policy, cfg.Auth.BcryptCost, logger, auditLogger)
	resetService := services.NewPasswordResetService(userRepo, resetRepo, sender, policy, services.PasswordResetConfig{
		TokenTTL:    cfg.Auth.ResetTokenTTL,
		FrontendURL: cfg.Email.FrontendURL,
		BcryptCost:  cfg.Auth.BcryptCost,
	}, logger, auditLogger)
	gameService := services.NewGameService(questionRepo, statsRepo, leaderboardCache, cfg.Server.Timezone, logger, auditLogger)
	questionService := services.NewQuestionService(questionRepo, logger, auditLogger)
	statsService := services.NewStatsService(userRepo, statsRepo, leaderboardCache, logger)

	// Bootstrap the admin role if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdmin(ctx, userRepo, cfg.Auth.AdminUsername, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	routes.RegisterRoutes(router, routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService, ipConfig),
		Reset:     handlers.NewPasswordResetHandler(resetService, ipConfig),
		Game:      handlers.NewGameHandler(gameService, tokenManager),
		Questions: handlers.NewQuestionHandler(questionService),
		Stats:     handlers.NewStatsHandler(statsService),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthChecker{
			"database": db,
			"cache":    cacheHealth,
		}),
	}, routes.Options{
		TokenManager: tokenManager,
		UserRepo:     userRepo,
		AuthRateLimit: middlewareCustom.RateLimitConfig{
			RequestsPerMinute: cfg.Server.AuthRateLimit,
			IPConfig:          ipConfig,
		},
		UserRateLimit: middlewareCustom.RateLimitConfig{
			RequestsPerMinute: userRequestsPerMinute,
			IPConfig:          ipConfig,
		},
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupManager := background.NewCleanupManager(resetRepo, logger, auditLogger, cfg.Cleanup.Interval)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		return
	}

	logger.Info("server stopped gracefully")
}

// ensureAdmin grants the admin role to ADMIN_USERNAME when it is set. The
// account must already be registered.
func ensureAdmin(ctx context.Context, userRepo *repositories.UserRepository, username string, logger *slog.Logger) error {
	if username == "" {
		logger.Info("no ADMIN_USERNAME set, skipping admin bootstrap")
		return nil
	}

	err := userRepo.UpdateRole(ctx, username, models.RoleAdmin)
	if errors.Is(err, models.ErrNotFound) {
		logger.Warn("admin user not registered yet", slog.String("username", username))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("admin role ensured", slog.String("username", username))
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
