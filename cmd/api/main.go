package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"pennywise.org/internal/auth"
	"pennywise.org/internal/config"
	"pennywise.org/internal/finance"
	"pennywise.org/internal/httpapi"
	"pennywise.org/internal/mail"
	"pennywise.org/internal/obs"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.SetBuildInfo(version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Without a DSN the service runs on in-memory stores. Useful for local
	// development, useless for anything else.
	var db *sql.DB
	var authStore auth.Store = auth.NewMemoryStore()
	var financeStore finance.Store = finance.NewMemoryStore()
	if cfg.DatabaseDSN != "" {
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		authStore = auth.NewPGStore(db)
		financeStore = finance.NewPGStore(db)
	}

	signer, err := auth.NewHMACSigner(cfg.AuthSecret, cfg.Issuer)
	if err != nil {
		log.Fatalf("signer: %v", err)
	}

	mailer := mail.NewClient(cfg.MailEndpoint, cfg.MailToken, cfg.MailFrom, cfg.BaseURL,
		mail.WithLinkTTL(cfg.ActivationTTL))
	if !mailer.Configured() {
		obs.Log("warn", "mail delivery not configured, activation links will not be sent", nil)
	}

	svc := auth.NewService(authStore, signer, mailer,
		auth.WithAccessTTL(cfg.AccessTokenTTL),
		auth.WithRefreshTTL(cfg.RefreshTokenTTL),
		auth.WithActivationTTL(cfg.ActivationTTL),
	)

	api := httpapi.New(svc, financeStore, httpapi.ReadyProbe{DB: db}, version,
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSecond),
		httpapi.WithSecureCookies(strings.HasPrefix(cfg.BaseURL, "https://")),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting pennywise-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
