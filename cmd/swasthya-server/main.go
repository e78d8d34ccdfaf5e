package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/swasthya/swasthya/internal/config"
	"github.com/swasthya/swasthya/internal/domain/account"
	"github.com/swasthya/swasthya/internal/domain/appointment"
	"github.com/swasthya/swasthya/internal/domain/gamification"
	"github.com/swasthya/swasthya/internal/domain/hospital"
	"github.com/swasthya/swasthya/internal/domain/inbox"
	"github.com/swasthya/swasthya/internal/domain/outbreak"
	"github.com/swasthya/swasthya/internal/domain/record"
	"github.com/swasthya/swasthya/internal/platform/auth"
	"github.com/swasthya/swasthya/internal/platform/db"
	"github.com/swasthya/swasthya/internal/platform/middleware"
	"github.com/swasthya/swasthya/internal/platform/notification"
	"github.com/swasthya/swasthya/internal/platform/token"
	"github.com/swasthya/swasthya/internal/platform/websocket"
)

// registrationHooks fans a successful registration out to the inbox and the
// points ledger. Both are best-effort.
type registrationHooks struct {
	inbox  *inbox.Service
	points *gamification.Service
}

func (h *registrationHooks) ActorRegistered(ctx context.Context, a *account.Actor) {
	_ = h.inbox.Notify(ctx, a.ID, "welcome", "Welcome to Swasthya",
		fmt.Sprintf("Dear %s, your %s account has been created.", a.Name, a.ActorType))
	_ = h.points.Award(ctx, a.ID, "registration")
}

// logEmailSender writes outbound e-mail to the log. A real SMTP or provider
// sender plugs in behind the same interface.
type logEmailSender struct {
	logger zerolog.Logger
}

func (s *logEmailSender) SendEmail(_ context.Context, to, subject, _ string) error {
	s.logger.Info().Str("to", to).Str("subject", subject).Msg("email dispatched")
	return nil
}

type logSMSSender struct {
	logger zerolog.Logger
}

func (s *logSMSSender) SendSMS(_ context.Context, to, _ string) error {
	s.logger.Info().Str("to", to).Msg("sms dispatched")
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "swasthya-server",
		Short: "Swasthya healthcare platform API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new tenant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			dir, _ := cmd.Flags().GetString("dir")
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Printf("Creating tenant schema: tenant_%s\n", name)
			if err := db.CreateTenantSchema(ctx, pool, name, dir); err != nil {
				return err
			}
			fmt.Println("Tenant created successfully.")
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Tenant identifier (alphanumeric)")
	createCmd.Flags().String("dir", "./migrations", "Path to migrations directory")

	cmd.AddCommand(createCmd)
	return cmd
}

// adminCmd seeds admin accounts. The public register endpoint is closed for
// the admin type, so the first admin always enters through here.
func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if name == "" || email == "" || password == "" {
				return fmt.Errorf("--name, --email, and --password are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			issuer, err := buildIssuer(cfg)
			if err != nil {
				return err
			}
			svc := account.NewService(account.NewRepo(pool), issuer)

			a := &account.Actor{Name: name, Email: email}
			if _, err := svc.CreateByAdmin(ctx, account.TypeAdmin, a, password); err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Printf("Admin account created: %s (%s)\n", a.Name, a.ID)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Display name")
	createCmd.Flags().String("email", "", "Login e-mail")
	createCmd.Flags().String("password", "", "Initial password")

	cmd.AddCommand(createCmd)
	return cmd
}

func buildIssuer(cfg *config.Config) (*token.Issuer, error) {
	accessTTL, err := cfg.AccessTTL()
	if err != nil {
		return nil, err
	}
	refreshTTL, err := cfg.RefreshTTL()
	if err != nil {
		return nil, err
	}
	return token.NewIssuer([]byte(cfg.AccessSecret), []byte(cfg.RefreshSecret), accessTTL, refreshTTL), nil
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	issuer, err := buildIssuer(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid token configuration")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Tenant-ID"},
	}))
	e.Use(db.TenantMiddleware(pool, cfg.DefaultTenant))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		status := db.CheckHealth(c.Request().Context(), pool)
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, status)
	})

	api := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	// -- Platform services --

	hub := websocket.NewHub()
	wsHandler := websocket.NewHandler(hub)

	notifyMgr := notification.NewManager(
		&logEmailSender{logger: logger},
		&logSMSSender{logger: logger},
		notification.NewTemplateEngine(),
	)

	// -- Domain services --

	accountSvc := account.NewService(account.NewRepo(pool), issuer)

	gamSvc := gamification.NewService(gamification.NewRepo(pool), logger)

	inboxSvc := inbox.NewService(inbox.NewRepo(pool), logger)
	inboxSvc.SetEventPublisher(hub)
	inboxSvc.SetDispatcher(notifyMgr, accountSvc)

	accountSvc.SetRegistrationListener(&registrationHooks{inbox: inboxSvc, points: gamSvc})

	recordSvc := record.NewService(record.NewRepo(pool), record.NewConsentRepo(pool))
	recordSvc.SetPointsAwarder(gamSvc)

	apptSvc := appointment.NewService(appointment.NewRepo(pool), logger)
	apptSvc.SetNotifier(inboxSvc)
	apptSvc.SetPointsAwarder(gamSvc)

	hospSvc := hospital.NewService(hospital.NewRepo(pool), logger)
	hospSvc.SetEventPublisher(hub)
	hospSvc.SetPointsAwarder(gamSvc)

	outbreakSvc := outbreak.NewService(outbreak.NewRepo(pool), logger)
	outbreakSvc.SetEventPublisher(hub)

	// -- Routes --

	// The session middleware resolves actors through the account service, so
	// revoked or deactivated accounts lose API access immediately.
	protected := api.Group("", auth.SessionMiddleware(issuer, accountSvc))

	account.NewHandler(accountSvc).RegisterRoutes(api, protected)
	record.NewHandler(recordSvc).RegisterRoutes(protected)
	appointment.NewHandler(apptSvc).RegisterRoutes(protected)
	hospital.NewHandler(hospSvc).RegisterRoutes(protected)
	outbreak.NewHandler(outbreakSvc).RegisterRoutes(protected)
	inbox.NewHandler(inboxSvc).RegisterRoutes(protected)
	gamification.NewHandler(gamSvc).RegisterRoutes(protected)

	// Live feeds. Clients pass their actor id when connecting and may
	// subscribe to regional topics afterwards.
	wsHandler.RegisterRoutes(api)

	// Out-of-band delivery surface, admin only.
	notifGroup := protected.Group("", auth.RequireRole("admin"))
	notification.NewHandler(notifyMgr).RegisterRoutes(notifGroup)

	// -- Serve --

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server starting")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
