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
	_ "time/tzdata"

	"github.com/sirupsen/logrus"

	"fleetops/internal/accounts"
	"fleetops/internal/alerts"
	"fleetops/internal/config"
	"fleetops/internal/controllers"
	"fleetops/internal/fuec"
	"fleetops/internal/logger"
	"fleetops/internal/mailer"
	"fleetops/internal/middleware"
	"fleetops/internal/models"
	"fleetops/internal/routes"
	"fleetops/internal/session"
	"fleetops/internal/store"
	"fleetops/internal/verification"
)

func main() {
	cfg := config.Load()
	out := logger.Setup(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel})

	ctx := context.Background()

	st, err := openStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open the store")
	}

	sessions, err := openSessions(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer sessions.Close()

	mail, err := openMailer(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure the mailer")
	}

	tokens := middleware.NewTokens(cfg.JWTSecret, sessions)
	acc := accounts.NewService(
		st,
		verification.New(st.Codes(), cfg.VerificationCodeTTL),
		mailer.NewBreaker(mail, 3, time.Minute),
		mailer.Composer{Brand: cfg.DefaultTenantName, From: cfg.MailFrom, Support: cfg.SupportEmail},
		tokens,
		accounts.Options{
			DefaultTenant: models.Tenant{
				Name:    cfg.DefaultTenantName,
				TaxID:   cfg.DefaultTenantTaxID,
				Address: cfg.DefaultTenantAddress,
				Phone:   cfg.DefaultTenantPhone,
				Email:   cfg.DefaultTenantEmail,
			},
			SessionTTL: cfg.SessionTTL,
		},
	)
	if _, err := acc.EnsureDefaultTenant(ctx); err != nil {
		logrus.WithError(err).Fatal("Failed to provision the default company")
	}

	h := controllers.NewHandler(st, acc, alerts.NewEngine(st, cfg.Location()), fuec.NewGenerator(nil))
	r := routes.SetupRouter(routes.Options{
		Handler:     h,
		Tokens:      tokens,
		AccessLog:   out,
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("Server running at %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Forced shutdown")
	}
	logrus.Info("Server stopped")
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.StoreBackend == "memory" {
		logrus.Warn("Using the in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}
	db, err := config.InitDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	return store.NewGormStore(db), nil
}

func openSessions(ctx context.Context, cfg config.Config) (session.Store, error) {
	if cfg.RedisHost == "" {
		return session.NewMemoryStore(), nil
	}
	return session.NewRedisStore(ctx, session.RedisOptions{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func openMailer(cfg config.Config) (mailer.Mailer, error) {
	switch cfg.MailBackend {
	case "smtp":
		return mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}), nil
	case "ses":
		return mailer.NewSESMailer(cfg.AWSRegion)
	case "log", "":
		return mailer.LogMailer{}, nil
	}
	return nil, fmt.Errorf("unknown MAIL_BACKEND %q", cfg.MailBackend)
}
