package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"wanparadise/internal/app"
	"wanparadise/internal/config"
	"wanparadise/internal/petapi"
	"wanparadise/internal/server"
	"wanparadise/internal/servicetoken"
	"wanparadise/internal/session"
	"wanparadise/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	clientOpts := []petapi.Option{}
	if cfg.ServiceTokenSecret != "" {
		ttl, err := config.ParseServiceTokenTTL(cfg.ServiceTokenTTL)
		if err != nil {
			log.Fatalf("failed to parse service token TTL: %v", err)
		}
		signer, err := servicetoken.NewSigner(servicetoken.Options{
			Issuer: cfg.ServiceTokenIssuer,
			Secret: cfg.ServiceTokenSecret,
			TTL:    ttl,
		})
		if err != nil {
			log.Fatalf("failed to init service token signer: %v", err)
		}
		clientOpts = append(clientOpts, petapi.WithServiceToken(signer, cfg.ServiceTokenAudience))
	}
	api := petapi.NewClient(cfg.PetAPIBaseURL, clientOpts...)

	appCore, err := app.New(app.Config{
		API:       api,
		MapAPIKey: cfg.MapAPIKey,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App: appCore,
		API: api,
		Cookie: session.Options{
			Domain: cfg.CookieDomain,
			Secure: cfg.CookieSecure,
			MaxAge: time.Duration(cfg.CookieMaxAgeSeconds) * time.Second,
		},
		AllowedOrigin:              cfg.AllowedOrigin,
		RedisAddr:                  cfg.RedisAddr,
		RedisPassword:              cfg.RedisPassword,
		RegisterRateLimitPerMinute: cfg.RegisterRateLimitPerMinute,
		LoginRateLimitPerMinute:    cfg.LoginRateLimitPerMinute,
		ReviewRateLimitPerMinute:   cfg.ReviewRateLimitPerMinute,
		FavoriteRateLimitPerMinute: cfg.FavoriteRateLimitPerMinute,
		TrustedProxyCIDRs:          cfg.TrustedProxyCIDRs,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
