package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/adilzhan/auth-core/internal/auth"
	"github.com/adilzhan/auth-core/internal/config"
	api "github.com/adilzhan/auth-core/internal/http"
	"github.com/adilzhan/auth-core/internal/log"
	"github.com/adilzhan/auth-core/internal/metrics"
	"github.com/adilzhan/auth-core/internal/oauth"
	"github.com/adilzhan/auth-core/internal/queue"
	"github.com/adilzhan/auth-core/internal/repo"
	"github.com/adilzhan/auth-core/internal/security"
)

func main() {
	cfg := config.Load()

	logger, err := log.Init(cfg.IsProd())
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	defer log.Sync()

	metrics.MustRegister()

	if cfg.IsProd() {
		tracer.Start(tracer.WithService("auth-core"), tracer.WithEnv(cfg.Env))
		defer tracer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Fatal("mongo indexes", zap.Error(err))
	}

	rds := repo.NewRedis(cfg.RedisAddr)
	defer rds.Close()

	var keys *security.KeyManager
	if cfg.ActiveKeyPath != "" {
		keys, err = security.NewKeyManager(cfg.ActiveKid, cfg.ActiveKeyPath, cfg.NextKid, cfg.NextKeyPath)
		if err != nil {
			logger.Fatal("load signing keys", zap.Error(err))
		}
	}
	tokens := security.NewTokenService(cfg.JWTSecret, keys,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
	)

	redirect := func(p string) string {
		return cfg.OAuthRedirectBase + "/api/auth/oauth/" + p + "/callback"
	}
	var providers []oauth.Provider
	if cfg.Google.ClientID != "" {
		providers = append(providers, oauth.NewGoogle(cfg.Google.ClientID, cfg.Google.ClientSecret, redirect("google")))
	}
	if cfg.Facebook.ClientID != "" {
		providers = append(providers, oauth.NewFacebook(cfg.Facebook.ClientID, cfg.Facebook.ClientSecret, redirect("facebook")))
	}
	if cfg.Twitter.ClientID != "" {
		providers = append(providers, oauth.NewTwitter(cfg.Twitter.ClientID, cfg.Twitter.ClientSecret, redirect("twitter")))
	}
	flows := oauth.NewManager(repo.NewRedisStates(rds),
		time.Duration(cfg.StateTTLMin)*time.Minute, providers...)

	events := queue.NewNoop()
	if cfg.RabbitURL != "" {
		events, err = queue.NewRabbit(cfg.RabbitURL, queue.Exchange)
		if err != nil {
			logger.Fatal("rabbit connect", zap.Error(err))
		}
	}
	defer events.Close()

	svc := auth.NewService(
		repo.NewMongoUsers(store),
		repo.NewMongoSessions(store),
		repo.NewMongoOAuthAccounts(store),
		tokens, flows, events,
		auth.Policy{
			RequireVerifiedEmail: cfg.RequireVerifiedEmail,
			RotateRefresh:        cfg.RotateRefresh,
		},
	)

	limiter := repo.NewRateLimiter(rds, cfg.RateLimitPerMin)
	h := api.NewHandler(svc, tokens, keys, limiter, store, rds)
	r := api.NewRouter(h)

	srvErr := make(chan error, 1)
	go func() { srvErr <- r.Run(":" + cfg.Port) }()

	logger.Info("auth-core listening", zap.String("port", cfg.Port))

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		logger.Error("server error", zap.Error(err))
	}
}
