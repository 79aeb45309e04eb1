package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/claim-management/api"
	"github.com/frahmantamala/claim-management/internal"
	"github.com/frahmantamala/claim-management/internal/auth"
	authPostgres "github.com/frahmantamala/claim-management/internal/auth/postgres"
	"github.com/frahmantamala/claim-management/internal/claim"
	claimPostgres "github.com/frahmantamala/claim-management/internal/claim/postgres"
	"github.com/frahmantamala/claim-management/internal/core/events"
	"github.com/frahmantamala/claim-management/internal/lookup"
	lookupPostgres "github.com/frahmantamala/claim-management/internal/lookup/postgres"
	"github.com/frahmantamala/claim-management/internal/storage"
	"github.com/frahmantamala/claim-management/internal/transport"
	"github.com/frahmantamala/claim-management/internal/transport/rest"
	"github.com/frahmantamala/claim-management/internal/user"
	userPostgres "github.com/frahmantamala/claim-management/internal/user/postgres"
	"github.com/frahmantamala/claim-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	ORM      *gorm.DB
	EventBus *events.EventBus
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		// let in-flight audit handlers finish before the pool goes away
		deps.EventBus.Wait()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger

	if _, err := api.Load(context.Background()); err != nil {
		return err
	}

	files, err := storage.NewLocalStorage(cfg.Claims.StorageDir)
	if err != nil {
		return fmt.Errorf("failed to prepare attachment storage: %w", err)
	}

	tokenGenerator := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(deps.ORM), tokenGenerator, cfg.Security.BCryptCost, lg)

	lookupService := lookup.NewService(lookupPostgres.NewLookupRepository(deps.DB), lg)
	userService := user.NewService(userPostgres.NewUserRepository(deps.ORM), lookupService, lg)

	claim.NewEventHandler(lg).RegisterEventHandlers(deps.EventBus)
	claimService := claim.NewService(
		claimPostgres.NewStore(deps.ORM),
		lookupService,
		files,
		deps.EventBus,
		lg,
		claim.Options{
			ReferenceMaxAttempts: cfg.Claims.ReferenceMaxAttempts,
			AttachmentMaxBytes:   cfg.Claims.AttachmentMaxBytes,
		},
	)

	rest.RegisterAllRoutes(deps.Router, rest.Routes{
		Health:         rest.NewHealthHandler(map[string]rest.Pinger{"postgres": deps.DB}),
		Auth:           auth.NewHandler(authService),
		User:           user.NewHandler(userService),
		Claim:          claim.NewHandler(claimService, cfg.Claims.AttachmentMaxBytes),
		Lookup:         lookup.NewHandler(transport.NewBaseHandler(lg), lookupService),
		OpenAPI:        api.Handler,
		AllowedOrigins: cfg.Server.Origins(),
		RequestTimeout: cfg.Server.WriteTimeout,
	}, lg)

	lg.Info("routes registered",
		"storage_dir", files.Dir(),
		"reference_max_attempts", cfg.Claims.ReferenceMaxAttempts,
		"attachment_max_bytes", cfg.Claims.AttachmentMaxBytes)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	orm, err := initORM(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	lg := logger.LoggerWrapper()
	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		ORM:      orm,
		EventBus: events.NewEventBus(lg),
		Router:   chi.NewRouter(),
	}, nil
}

// initDB opens the shared pgx pool; sqlx and gorm both run on it.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func initORM(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
}
