package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"staff-portal/internal/config"
	"staff-portal/internal/finance"
	"staff-portal/internal/identity"
	"staff-portal/internal/logging"
	"staff-portal/internal/metrics"
	"staff-portal/internal/middleware"
	"staff-portal/internal/models"
	"staff-portal/internal/planday"
	"staff-portal/internal/revenue"
	"staff-portal/internal/roster"
	"staff-portal/internal/store"
)

type shiftSource interface {
	ShiftsForDay(ctx context.Context, q roster.ShiftQuery) ([]models.NormalizedShift, error)
}

type revenueSource interface {
	ForDay(ctx context.Context, q revenue.Query) (models.RevenueSummary, error)
}

type kpiSource interface {
	Report(ctx context.Context) (models.KPIReport, error)
}

type profileStore interface {
	middleware.RoleStore
	ListProfiles(ctx context.Context) ([]*models.Profile, error)
	SetRole(ctx context.Context, id, email string, role models.Role) (*models.Profile, error)
	Ping(ctx context.Context) error
}

// app holds everything the handlers share.
type app struct {
	logger      *zap.Logger
	metrics     *metrics.Registry
	templateDir string
	statuses    []string
	authEnabled bool

	shifts   shiftSource
	revenue  revenueSource
	kpis     kpiSource
	profiles profileStore
	users    middleware.UserResolver
	auth     *middleware.Authenticator
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "portal-api",
		Short:         "Staff portal: shifts, revenue and finance KPIs",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}

	defaultPath := os.Getenv("PORTAL_CONFIG")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultPath, "path to the YAML config file")
	return cmd
}

// buildApp wires the upstream clients, services and stores from cfg.
// The returned cleanup closes the profile store.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg *metrics.Registry) (*app, func(), error) {
	tokens := planday.NewTokenCache(planday.TokenConfig{
		TokenURL:     cfg.Planday.TokenURL,
		ClientID:     cfg.Planday.ClientID,
		RefreshToken: cfg.Planday.RefreshToken,
		Metrics:      reg,
		Logger:       logger,
	})
	client := planday.NewClient(planday.ClientConfig{
		BaseURL:  cfg.Planday.BaseURL,
		ClientID: cfg.Planday.ClientID,
		Tokens:   tokens,
		Timeout:  config.Duration(cfg.Planday.Timeout, 15*time.Second),
		Metrics:  reg,
		Logger:   logger,
	})
	opts := roster.Options{
		PageSize:          cfg.Planday.PageSize,
		MaxPages:          cfg.Planday.MaxPages,
		LookupConcurrency: cfg.Planday.LookupConcurrency,
		Metrics:           reg,
		Logger:            logger,
	}

	profiles, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	users := identity.NewClient(cfg.Identity.URL, cfg.Identity.APIKey, config.Duration(cfg.Identity.Timeout, 5*time.Second), logger)

	a := &app{
		logger:      logger,
		metrics:     reg,
		templateDir: cfg.Server.TemplateDir,
		statuses:    cfg.Planday.DefaultStatuses,
		authEnabled: cfg.Auth.Enabled,
		shifts:      roster.NewEngine(client, opts),
		revenue:     revenue.NewService(client, opts),
		kpis:        finance.NewService(cfg.Finance.Workbook, cfg.Finance.Sheet, config.Duration(cfg.Finance.CacheTTL, 5*time.Minute), logger),
		profiles:    profiles,
		users:       users,
		auth:        middleware.NewAuthenticator(users, profiles, cfg.Auth.Enabled, logger),
	}
	return a, func() { profiles.Close() }, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	reg := metrics.NewRegistry()
	a, cleanup, err := buildApp(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      a.routes(),
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout, 10*time.Second),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout, 60*time.Second),
		IdleTimeout:  config.Duration(cfg.Server.IdleTimeout, 120*time.Second),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("portal listening", zap.String("addr", srv.Addr), zap.Bool("auth", cfg.Auth.Enabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	staff, manager, admin := models.RoleStaff, models.RoleManager, models.RoleAdmin

	mux.HandleFunc("POST /shifts-for-day", middleware.Instrument(a.metrics, "shifts_for_day", a.auth.API(staff, a.handleShiftsForDay)))
	mux.HandleFunc("POST /revenue-for-day", middleware.Instrument(a.metrics, "revenue_for_day", a.auth.API(manager, a.handleRevenueForDay)))
	mux.HandleFunc("GET /kpis", middleware.Instrument(a.metrics, "kpis", a.auth.API(manager, a.handleKPIs)))

	mux.HandleFunc("GET /{$}", middleware.Instrument(a.metrics, "dashboard", middleware.CSRF(a.auth.Page(staff, a.handleDashboard))))
	mux.HandleFunc("POST /dashboard/day", middleware.Instrument(a.metrics, "dashboard_day", middleware.CSRF(a.auth.API(staff, a.handleDashboardDay))))
	mux.HandleFunc("GET /admin/profiles", middleware.Instrument(a.metrics, "profiles", middleware.CSRF(a.auth.Page(admin, a.handleProfiles))))
	mux.HandleFunc("POST /admin/profiles", middleware.Instrument(a.metrics, "profiles_update", middleware.CSRF(a.auth.Page(admin, a.handleUpdateProfile))))

	mux.HandleFunc("GET /login", middleware.CSRF(a.handleLogin))
	mux.HandleFunc("POST /login", middleware.CSRF(a.handleLoginSubmit))
	mux.HandleFunc("POST /logout", middleware.CSRF(a.handleLogout))

	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.Handle("GET /metrics", a.metrics.Handler())

	return middleware.RequestID(a.logger, mux)
}
