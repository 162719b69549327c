package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/banrai-farm/duriantrack/backend/internal/auth"
	"github.com/banrai-farm/duriantrack/backend/internal/config"
	"github.com/banrai-farm/duriantrack/backend/internal/database"
	"github.com/banrai-farm/duriantrack/backend/internal/farm"
	"github.com/banrai-farm/duriantrack/backend/internal/logging"
	"github.com/banrai-farm/duriantrack/backend/internal/photos"
	"github.com/banrai-farm/duriantrack/backend/internal/server"
	"github.com/banrai-farm/duriantrack/backend/internal/yield"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "duriantrack-api",
		Short: "DurianTrack farm record backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("admin-username", defaults.GetString("auth.admin_username"), "Operator login name")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("auth.token_ttl_minutes"), "Access token TTL in minutes")
	cmd.PersistentFlags().String("redis-url", "", "Redis URL for the analytics cache (optional)")
	cmd.PersistentFlags().String("storage-endpoint", "", "Object storage endpoint for photos (optional)")
	cmd.PersistentFlags().String("storage-bucket", defaults.GetString("storage.bucket"), "Object storage bucket for photos")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.admin_username", "admin-username")
	bindFlag(cmd, "auth.token_ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "redis.url", "redis-url")
	bindFlag(cmd, "storage.endpoint", "storage-endpoint")
	bindFlag(cmd, "storage.bucket", "storage-bucket")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logging.Component(logger, "database"))
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	tokens := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "duriantrack-auth",
		Audience:      "duriantrack-api",
		TokenTTL:      appConfig.TokenTTL,
		AdminUsername: appConfig.AdminUsername,
		AdminPassword: appConfig.AdminPassword,
	})

	farmService, err := farm.NewService(farm.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: farm.NewUUIDProvider(),
		Logger:     logging.Component(logger, "farm"),
	})
	if err != nil {
		return err
	}

	var cache *yield.AnalyticsCache
	if appConfig.RedisURL != "" {
		redisClient, err := yield.NewRedisClient(ctx, appConfig.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		cache = yield.NewAnalyticsCache(redisClient, 0, logging.Component(logger, "yield-cache"))
		logger.Info("analytics cache enabled")
	}

	photoStore, err := photos.NewStore(ctx, appConfig.Storage, logging.Component(logger, "photos"))
	if err != nil {
		return err
	}
	if photoStore.Enabled() {
		logger.Info("photo storage enabled", zap.String("bucket", appConfig.Storage.Bucket))
	}

	extractor := yield.NewExtractor(yield.LocaleFromViper(viper.GetViper()))

	handler, err := server.NewHTTPHandler(server.Dependencies{
		FarmService: farmService,
		Tokens:      tokens,
		Extractor:   extractor,
		Cache:       cache,
		Photos:      photoStore,
		Events:      server.NewEventDispatcher(),
		Clock:       time.Now,
		Logger:      logging.Component(logger, "http"),
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
