package apiapp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/maxjeon97/friender/internal/config"
	"github.com/maxjeon97/friender/internal/infra/httpclient"
	"github.com/maxjeon97/friender/internal/infra/s3"
	"github.com/maxjeon97/friender/internal/repo/postgres"
	redisrepo "github.com/maxjeon97/friender/internal/repo/redis"
	"github.com/maxjeon97/friender/internal/services/auth"
	"github.com/maxjeon97/friender/internal/services/friends"
	"github.com/maxjeon97/friender/internal/services/geo"
	"github.com/maxjeon97/friender/internal/services/match"
	"github.com/maxjeon97/friender/internal/services/media"
	"github.com/maxjeon97/friender/internal/services/messages"
	"github.com/maxjeon97/friender/internal/services/rate"
	"github.com/maxjeon97/friender/internal/services/users"
	"github.com/maxjeon97/friender/internal/transport/http/handlers"
)

// App owns the wired dependency graph and the HTTP server.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	pool        *pgxpool.Pool
	redisClient *goredis.Client

	server *http.Server
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redisrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	s3Client, err := s3.NewClient(s3.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("connect s3: %w", err)
	}

	userRepo := postgres.NewUserRepo(pool)
	viewRepo := postgres.NewViewRepo(pool)
	friendshipRepo := postgres.NewFriendshipRepo(pool)
	messageRepo := postgres.NewMessageRepo(pool)
	txRunner := postgres.NewTxRunner(pool)

	sessionRepo := redisrepo.NewSessionRepo(redisClient)
	rateRepo := redisrepo.NewRateRepo(redisClient)
	geoCacheRepo := redisrepo.NewGeoCacheRepo(redisClient)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := auth.NewService(auth.Dependencies{
		Sessions: sessionRepo,
		JWT:      jwtManager,
	}, auth.Config{
		AccessTTL:  cfg.Auth.JWTAccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})

	userService := users.NewService(users.Dependencies{
		Profiles:    userRepo,
		Views:       viewRepo,
		Friendships: friendshipRepo,
		Messages:    messageRepo,
		Sessions:    sessionRepo,
		Tx:          txRunner,
		Logger:      logger,
	}, users.Config{
		MaxRadiusMiles:     cfg.Limits.MaxRadiusMiles,
		DefaultRadiusMiles: cfg.Limits.DefaultRadiusMiles,
	})

	geoClient := geo.NewClient(
		httpclient.New(cfg.Geo.Timeout),
		geoCacheRepo,
		geo.Config{
			BaseURL:      cfg.Geo.BaseURL,
			APIKey:       cfg.Geo.APIKey,
			RetryMax:     cfg.Geo.RetryMax,
			RetryBackoff: cfg.Geo.RetryBackoff,
			CacheTTL:     cfg.Geo.CacheTTL,
		},
		logger,
	)

	limiter := rate.NewLimiter(rateRepo, rate.Config{
		DecisionsPerMinute: cfg.Limits.DecisionsPerMinute,
		DecisionsPer10Sec:  cfg.Limits.DecisionsPer10Sec,
	})

	matchService := match.NewService(match.Dependencies{
		Profiles:    userRepo,
		Candidates:  userRepo,
		Radius:      geoClient,
		Views:       viewRepo,
		Friendships: friendshipRepo,
		Limiter:     limiter,
		Tx:          txRunner,
		Logger:      logger,
	}, match.Config{
		MaxRadiusMiles: cfg.Limits.MaxRadiusMiles,
	})

	friendService := friends.NewService(friendshipRepo, userRepo)
	messageService := messages.NewService(messageRepo, userRepo)

	mediaService := media.NewService(
		media.NewS3Storage(s3Client, cfg.S3.Bucket, cfg.S3.Endpoint, cfg.S3.UseSSL),
		userService,
		logger,
	)

	router := newRouter(routerDeps{
		logger:    logger,
		validator: authService,
		auth:      handlers.NewAuthHandler(authService, userService, logger),
		users:     handlers.NewUserHandler(userService, logger),
		discover:  handlers.NewDiscoverHandler(matchService, logger),
		views:     handlers.NewViewHandler(matchService, logger),
		friends:   handlers.NewFriendHandler(friendService, logger),
		messages:  handlers.NewMessageHandler(messageService, logger),
		media:     handlers.NewMediaHandler(mediaService, logger),
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		redisClient: redisClient,
		server:      server,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server listening", zap.String("addr", a.cfg.HTTP.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return <-errCh
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("close redis client", zap.Error(err))
		}
	}
}
