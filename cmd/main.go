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

	"staffingauth/api/handler"
	apiMiddleware "staffingauth/api/middleware"
	"staffingauth/api/routes"
	"staffingauth/config"
	"staffingauth/internal/entity"
	"staffingauth/internal/metrics"
	"staffingauth/internal/repository"
	"staffingauth/internal/service"
	"staffingauth/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	root := &cobra.Command{
		Use:           "staffingauth",
		Short:         "Account, email verification and password reset service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), sweepCmd(), grantRoleCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds everything the commands share.
type app struct {
	cfg      config.Config
	logger   *logrus.Logger
	db       *gorm.DB
	registry *prometheus.Registry
	tokens   *service.TokenService
	auth     *service.AuthService
	jwt      *utils.JWTManager
	closers  []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := config.NewLogger(cfg.LogLevel)

	db, err := config.OpenDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, db: db, registry: prometheus.NewRegistry()}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	tokenRepo, err := a.tokenRepository(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	notifier, err := a.notifier()
	if err != nil {
		a.close()
		return nil, err
	}

	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	tokenMetrics := metrics.NewToken()
	if err := tokenMetrics.Register(a.registry); err != nil {
		a.close()
		return nil, err
	}

	clock := service.RealClock{}
	hasher := service.BcryptPasswordHasher{}
	policy := service.PasswordPolicy{MinLength: cfg.PasswordMinLength}
	userRepo := repository.NewUserRepository(db)
	identity := service.NewLocalIdentity(userRepo, hasher, clock)

	a.tokens = service.NewTokenService(
		tokenRepo,
		repository.NewTokenEventRepository(db),
		identity,
		notifier,
		clock,
		service.TokenConfig{
			VerificationTokenTTL: cfg.VerificationTokenTTL,
			ResetTokenTTL:        cfg.ResetTokenTTL,
			Retention:            cfg.TokenRetention,
			AppBaseURL:           cfg.AppBaseURL,
			IdentityTimeout:      cfg.IdentityTimeout,
			NotifierTimeout:      cfg.NotifierTimeout,
			ConsumeTimeout:       cfg.ConsumeTimeout,
			PasswordPolicy:       policy,
		},
		logger,
		tokenMetrics,
	)

	a.jwt = &utils.JWTManager{
		Secret:         []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: cfg.JWTAccessTTL,
	}
	roles := service.NewCachedRoleLookup(identity, cfg.RoleCacheTTL)
	a.auth = service.NewAuthService(userRepo, a.tokens, roles, hasher, a.jwt, policy)
	return a, nil
}

func (a *app) tokenRepository(ctx context.Context) (repository.TokenRepository, error) {
	if a.cfg.TokenStore != "redis" {
		return repository.NewTokenRepository(a.db), nil
	}
	client, err := config.OpenRedis(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	return repository.NewRedisTokenRepository(client, a.cfg.RedisPrefix, a.cfg.TokenRetention), nil
}

func (a *app) notifier() (service.Notifier, error) {
	switch a.cfg.Notifier {
	case "resend":
		notifier, err := service.NewResendNotifier(a.cfg.ResendAPIKey, a.cfg.MailFrom)
		if err != nil {
			return nil, err
		}
		return notifier, nil
	case "smtp":
		return service.NewSMTPNotifier(service.SMTPConfig{
			Host:    a.cfg.SMTPHost,
			Port:    a.cfg.SMTPPort,
			From:    a.cfg.MailFrom,
			User:    a.cfg.SMTPUser,
			Pass:    a.cfg.SMTPPass,
			TLSMode: a.cfg.SMTPTLSMode,
			Timeout: a.cfg.NotifierTimeout,
		}), nil
	default:
		a.logger.Warn("using log notifier, emails will not be delivered")
		return service.NewLogNotifier(a.logger), nil
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.WithError(err).Warn("close")
		}
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the token sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if migrate {
				if err := config.Migrate(a.db); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			validate := validator.New()
			e := echo.New()
			e.HidePort = true
			router := routes.NewRouter(
				e,
				handler.NewAuthHandler(a.auth, validate, a.logger),
				handler.NewTokenHandler(a.tokens, validate, a.logger),
				apiMiddleware.AuthMiddleware{JWT: a.jwt},
				a.registry,
				a.logger,
			)
			router.AllowedOrigins = a.cfg.AllowedOrigins
			router.RegisterRoutes()

			server := &http.Server{
				Addr:              a.cfg.HTTPAddr,
				ReadHeaderTimeout: 5 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.logger.WithField("addr", a.cfg.HTTPAddr).Info("server started")
				if err := e.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				return service.NewTokenSweeper(a.tokens, a.cfg.SweepInterval, a.logger).Run(gctx)
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				a.logger.Info("shutting down")
				return e.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run database migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			if err := config.Migrate(a.db); err != nil {
				return err
			}
			a.logger.Info("migrations applied")
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired and consumed tokens past retention",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			deleted, err := a.tokens.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.WithField("deleted", deleted).Info("token sweep")
			return nil
		},
	}
}

func grantRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant-role <user-id> <role>",
		Short: "Assign a role to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			role := entity.Role(args[1])
			switch role {
			case entity.RoleAdmin, entity.RoleRecruiter, entity.RoleCandidate, entity.RoleClient:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			return repository.NewUserRepository(a.db).AddRole(cmd.Context(), userID, role)
		},
	}
}
