package main

import (
	"context"
	"net/http"
	"time"

	"streamhub/internal/middleware"
	"streamhub/internal/modules/account"
	"streamhub/internal/modules/auth"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type routerDeps struct {
	db    *gorm.DB
	redis redis.UniversalClient

	authHandler    *auth.Handler
	accountHandler *account.Handler
	authenticator  *middleware.Authenticator

	corsOrigins []string
	// staticPrefix/staticDir are set when media is stored on local disk.
	staticPrefix string
	staticDir    string
	maxUpload    int64
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorLogger(), middleware.CORS(d.corsOrigins...))
	if d.maxUpload > 0 {
		r.MaxMultipartMemory = d.maxUpload
	}

	if d.staticDir != "" {
		r.Static(d.staticPrefix, d.staticDir)
	}

	r.GET("/healthz", healthz(d.db, d.redis))

	users := r.Group("/api/v1/users")
	{
		d.authHandler.RegisterPublicRoutes(users)
		d.accountHandler.RegisterPublicRoutes(users)

		protected := users.Group("")
		protected.Use(d.authenticator.RequireAuth())
		{
			d.authHandler.RegisterProtectedRoutes(protected)
			d.accountHandler.RegisterProtectedRoutes(protected)
		}
	}

	return r
}

func healthz(db *gorm.DB, rdb redis.UniversalClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"database": "ok"}
		healthy := true

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "unavailable"
			healthy = false
		}
		// The login throttle fails open, so redis being down is reported but
		// does not make the service unhealthy.
		if rdb != nil {
			status["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				status["redis"] = "unavailable"
			}
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"success": healthy, "data": status})
	}
}
