package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/digkill/TivoaArt/internal/api"
	"github.com/digkill/TivoaArt/internal/auth"
	"github.com/digkill/TivoaArt/internal/bkash"
	"github.com/digkill/TivoaArt/internal/config"
	"github.com/digkill/TivoaArt/internal/database"
	"github.com/digkill/TivoaArt/internal/httpclient"
	"github.com/digkill/TivoaArt/internal/mailer"
	"github.com/digkill/TivoaArt/internal/repository"
	"github.com/digkill/TivoaArt/internal/runware"
	"github.com/digkill/TivoaArt/internal/service"
	"github.com/digkill/TivoaArt/internal/storage"
	"github.com/digkill/TivoaArt/pkg/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tivoa: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tivoa",
		Short:         "Tivoa Art API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, !skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply the schema on startup")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := database.Connect(ctx, cfg.MySQLDSN)
			if err != nil {
				return fmt.Errorf("database connect: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("database migrate: %w", err)
			}
			log.Info("schema applied")
			return nil
		},
	}
}

func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("logger init: %w", err)
	}
	return cfg, log, nil
}

func serve(ctx context.Context, migrate bool) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(ctx, cfg.MySQLDSN)
	if err != nil {
		return fmt.Errorf("database connect: %w", err)
	}
	defer db.Close()

	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("database migrate: %w", err)
		}
	}

	httpClient, err := httpclient.New(cfg.RequestTimeout, cfg.ProxyURL)
	if err != nil {
		return fmt.Errorf("http client: %w", err)
	}

	bkashClient := bkash.NewClient(cfg.BKashBaseURL, bkash.Credentials{
		Username:  cfg.BKashUsername,
		Password:  cfg.BKashPassword,
		AppKey:    cfg.BKashAppKey,
		AppSecret: cfg.BKashAppSecret,
	}, httpClient, log.Named("bkash"))
	runwareClient := runware.NewClient(cfg.RunwareBaseURL, cfg.RunwareAPIKey, cfg.RunwareModel, httpClient, log.Named("runware"))

	var mirror service.ImageMirror
	if cfg.MirrorEnabled() {
		uploader, err := storage.NewUploader(storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
			Prefix:        cfg.S3Prefix,
		}, httpClient)
		if err != nil {
			return fmt.Errorf("storage uploader: %w", err)
		}
		mirror = uploader
	}

	// A typed nil provider would make GoogleEnabled report true.
	var google service.GoogleAuthenticator
	if cfg.GoogleEnabled() {
		google = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL, httpClient)
	}

	mail := mailer.New(mailer.Config{
		Host:         cfg.SMTPHost,
		Port:         cfg.SMTPPort,
		Username:     cfg.SMTPUsername,
		Password:     cfg.SMTPPassword,
		From:         cfg.SMTPFrom,
		AppName:      cfg.AppName,
		SupportEmail: cfg.SupportEmail,
		CodeTTL:      cfg.OTPTTL,
	}, log.Named("mailer"))
	tokens := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	store := repository.NewStore(db)
	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	imageRepo := repository.NewImageRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	settingsService := service.NewSettingsService(settingsRepo, log)
	authService := service.NewAuthService(service.AuthDeps{
		Users:  userRepo,
		OTPs:   repository.NewOTPRepository(db),
		Tokens: repository.NewRefreshTokenRepository(db),
		Signup: settingsService,
		Mail:   mail,
		Google: google,
		JWT:    tokens,
		Config: service.AuthConfig{OTPTTL: cfg.OTPTTL, OTPMaxAttempts: cfg.OTPMaxAttempts},
		Log:    log.Named("auth"),
	})

	server := api.NewServer(api.Options{
		Addr:           cfg.ListenAddr,
		FrontendURL:    cfg.FrontendURL,
		AllowedOrigins: cfg.AllowedOrigins,
		CookieSecure:   cfg.CookieSecure,
		AccessTTL:      cfg.AccessTokenTTL,
		RefreshTTL:     cfg.RefreshTokenTTL,
	}, api.Services{
		Auth:       authService,
		Payments:   service.NewPaymentService(store, bkashClient, cfg.BKashCallbackURL, log.Named("payments")),
		Settings:   settingsService,
		Generation: service.NewGenerationService(store, imageRepo, runwareClient, mirror, log.Named("generation")),
		Content:    service.NewContentService(repository.NewContentRepository(db), log),
		Contact:    service.NewContactService(repository.NewContactRepository(db), log),
		Users:      service.NewUserService(userRepo, paymentRepo, imageRepo, log.Named("users")),
	}, tokens, db, log.Named("http"))

	return server.Run(ctx)
}
