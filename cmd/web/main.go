package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/agendabr/agenda/cmd/mainconfig"
	appconfig "github.com/agendabr/agenda/internal/config"
	"github.com/agendabr/agenda/internal/contatos"
	"github.com/agendabr/agenda/internal/notify"
	"github.com/agendabr/agenda/internal/observability/metrics"
	"github.com/agendabr/agenda/internal/session"
	"github.com/agendabr/agenda/internal/view"
	"github.com/agendabr/agenda/internal/web"
	"github.com/agendabr/agenda/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting agenda server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	repo := contatos.NewDynamoRepository(dynamoClient, cfg.ContatosTable, logger)

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	flashStore := session.NewStore(redisClient, cfg.SessionTTL, logger)

	views, err := view.New(logger)
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	contatoMetrics := metrics.NewContatoMetrics(nil)
	service := contatos.NewService(repo, contatoMetrics, logger)

	var notifier contatos.Notifier
	if cfg.NotifyOnRegister {
		var sender notify.EmailSender
		switch cfg.EmailProvider {
		case "sendgrid":
			if sg := notify.NewSendGridSender(notify.SendGridConfig{
				APIKey:    cfg.SendGridAPIKey,
				FromEmail: cfg.NotifyFromEmail,
				FromName:  cfg.NotifyFromName,
			}, logger); sg != nil {
				sender = sg
			}
		case "stub":
			sender = notify.NewStubEmailSender(logger)
		default:
			sender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
				FromEmail: cfg.NotifyFromEmail,
				FromName:  cfg.NotifyFromName,
			}, logger)
		}
		if svc := notify.NewService(sender, cfg.NotifyToEmail, logger); svc != nil {
			notifier = svc
		} else {
			logger.Warn("register notifications enabled but not fully configured; disabling")
		}
	}

	handler := contatos.NewHandler(service, flashStore, views, notifier, logger)

	router := web.New(&web.Config{
		Logger:         logger,
		Contatos:       handler,
		MetricsHandler: promhttp.Handler(),
		RatePerSecond:  cfg.RateLimitPerSecond,
		RateBurst:      cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
