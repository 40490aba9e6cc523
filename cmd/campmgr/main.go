package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/GaxiSz/camping-tent-manager/internal/auth"
	"github.com/GaxiSz/camping-tent-manager/internal/config"
	"github.com/GaxiSz/camping-tent-manager/internal/metrics"
	"github.com/GaxiSz/camping-tent-manager/internal/report"
	"github.com/GaxiSz/camping-tent-manager/internal/store/cloud"
	"github.com/GaxiSz/camping-tent-manager/internal/store/local"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("CAMPMGR_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	database, err := cloud.New(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer database.Close()

	tenantStore := database.Tenant(cfg.Tenant)
	logger.Info().Str("tenant", cfg.Tenant).Msg("cloud store ready")

	var rdb *redis.Client
	var localStore *local.Store
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		localStore = local.New(rdb, cfg.Redis.Key, cfg.Redis.StrictCorruption, &logger)
		logger.Info().Str("key", cfg.Redis.Key).Msg("local store ready")
	}

	if cfg.Auth.TokenURL != "" {
		gateway := auth.New(auth.Config{
			TokenURL:    cfg.Auth.TokenURL,
			RevokeURL:   cfg.Auth.RevokeURL,
			ClientID:    cfg.Auth.ClientID,
			SignInRate:  cfg.Auth.SignInRate,
			SignInBurst: cfg.Auth.SignInBurst,
		}, &logger)
		gateway.OnSessionChange(func(s *auth.Session) {
			if s == nil {
				logger.Info().Msg("session ended")
				return
			}
			logger.Info().Str("email", s.Email).Time("expiry", s.Expiry).Msg("session changed")
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if localStore != nil {
		if doc, err := localStore.Load(ctx); err != nil {
			logger.Error().Err(err).Msg("local document check failed")
		} else {
			logger.Info().Int("units", len(doc.Units)).Int("bookings", len(doc.Bookings)).Msg("local document loaded")
		}
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, database, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		go startBackupLoop(ctx, database, cfg, &logger)
	}

	if cfg.Report.Enabled {
		exporter := report.NewExporter(tenantStore, &logger)
		go startReportLoop(ctx, exporter, cfg.Report.Path, &logger)
	}

	logger.Info().Msg("campmgr started")
	<-ctx.Done()
	logger.Info().Msg("campmgr stopped")
}

func startBackupLoop(ctx context.Context, database *cloud.DB, cfg *config.Config, logger *zerolog.Logger) {
	if cfg.Backup.Path == "" {
		cfg.Backup.Path = "backups"
	}
	if err := os.MkdirAll(cfg.Backup.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create backup directory")
		return
	}

	retention := cfg.BackupRetention()

	// Run first backup after a short delay
	select {
	case <-time.After(1 * time.Minute):
		runBackupTask(database, cfg, retention, logger)
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(cfg.BackupInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runBackupTask(database, cfg, retention, logger)
		case <-ctx.Done():
			return
		}
	}
}

func runBackupTask(database *cloud.DB, cfg *config.Config, retention time.Duration, logger *zerolog.Logger) {
	timestamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(cfg.Backup.Path, fmt.Sprintf("campmgr_%s.db", timestamp))

	logger.Info().Str("path", dest).Msg("starting database backup")
	if err := database.Backup(dest); err != nil {
		logger.Error().Err(err).Msg("backup failed")
	} else {
		logger.Info().Msg("backup completed successfully")
	}

	deleted, err := database.CleanupBackups(cfg.Backup.Path, retention)
	if err != nil {
		logger.Error().Err(err).Msg("backup cleanup failed")
	} else if deleted > 0 {
		logger.Info().Int("deleted", deleted).Msg("cleaned up old backups")
	}
}

func startReportLoop(ctx context.Context, exporter *report.Exporter, dir string, logger *zerolog.Logger) {
	if dir == "" {
		dir = "reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create report directory")
		return
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		dest := filepath.Join(dir, report.Filename(time.Now()))
		if err := exporter.SaveToFile(ctx, dest); err != nil {
			logger.Error().Err(err).Msg("report generation failed")
		} else {
			logger.Info().Str("path", dest).Msg("occupancy report written")
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func startHealthServer(ctx context.Context, port int, database *cloud.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := database.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
