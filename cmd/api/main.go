package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"streamhub/internal/config"
	"streamhub/internal/database"
	"streamhub/internal/media"
	"streamhub/internal/middleware"
	"streamhub/internal/modules/account"
	"streamhub/internal/modules/auth"
	"streamhub/internal/pkg/jwt"
	"streamhub/internal/pkg/password"
	"streamhub/internal/ratelimit"
	"streamhub/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.AppEnv == "prod" || cfg.AppEnv == "production" || cfg.AppEnv == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	var rdb redis.UniversalClient
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	} else {
		log.Println("REDIS_URL is empty, login throttling disabled")
	}

	storage, staticDir, err := newMediaStorage(ctx, cfg.Media)
	if err != nil {
		log.Fatalf("media: %v", err)
	}
	uploader := media.NewUploader(storage, cfg.Media.MaxUploadBytes)

	accountRepo := repository.NewAccountRepository(db)
	hasher := password.New(cfg.BcryptCost)
	tokens := jwt.New(
		jwt.Key{Secret: cfg.AccessTokenSecret, TTL: cfg.AccessTokenTTL},
		jwt.Key{Secret: cfg.RefreshTokenSecret, TTL: cfg.RefreshTokenTTL},
	)

	var limiter auth.LoginLimiter
	if rdb != nil {
		limiter = ratelimit.NewLoginLimiter(rdb, ratelimit.LoginConfig{
			MaxAttempts: cfg.LoginMaxAttempts,
			Window:      cfg.LoginWindow,
		})
	}

	authService := auth.NewService(accountRepo, hasher, tokens, limiter, cfg.RevokeOnPasswordChange)
	authHandler := auth.NewHandler(authService, cfg.CookieSecure, cfg.CookieSameSite, cfg.CookiePath)

	accountService := account.NewService(accountRepo, hasher, uploader)
	accountHandler := account.NewHandler(accountService)

	router := newRouter(routerDeps{
		db:             db,
		redis:          rdb,
		authHandler:    authHandler,
		accountHandler: accountHandler,
		authenticator:  middleware.NewAuthenticator(tokens, accountRepo),
		corsOrigins:    cfg.CORSAllowedOrigins,
		staticPrefix:   cfg.Media.LocalURLPrefix,
		staticDir:      staticDir,
		maxUpload:      cfg.Media.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("http_listen_start addr=%s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http_serve_failed error=%q", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutdown_requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http_shutdown_failed error=%q", err)
	}
}

// newMediaStorage returns the configured backend and, for local disk, the
// directory to serve under the static prefix.
func newMediaStorage(ctx context.Context, cfg config.MediaConfig) (media.Storage, string, error) {
	if cfg.Driver != "s3" {
		return media.NewLocalStorage(cfg.LocalDir, cfg.LocalURLPrefix), cfg.LocalDir, nil
	}

	s3cfg := media.S3Config{
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.S3PublicBaseURL,
	}
	client, err := media.NewS3Client(ctx, s3cfg)
	if err != nil {
		return nil, "", err
	}
	return media.NewS3Storage(client, s3cfg), "", nil
}
