package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"lecture-qa/internal/bootstrap"
	mysqlClient "lecture-qa/internal/platform/mysql"
	"lecture-qa/internal/transport/http/handler"
	"lecture-qa/internal/transport/http/middleware"
)

// Handlers groups every endpoint handler the router mounts.
type Handlers struct {
	Health  *handler.HealthHandler
	Session *handler.SessionHandler
	Lecture *handler.LectureHandler
	Ask     *handler.AskHandler
	History *handler.HistoryHandler
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	checks := map[string]handler.DependencyCheck{
		"mysql": func(ctx context.Context) error { return mysqlClient.Ping(ctx, app.MySQL) },
		"redis": func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() },
		"rabbitmq": func(context.Context) error {
			if app.MQConn == nil || app.MQConn.IsClosed() {
				return errConnectionClosed
			}
			return nil
		},
	}

	svc := app.LectureService
	Register(router, Handlers{
		Health:  handler.NewHealthHandler(app.Config.App.Name, app.Config.App.Env, app.StartedAt, app.Index, checks),
		Session: handler.NewSessionHandler(svc),
		Lecture: handler.NewLectureHandler(svc, app.Config.Lectures.MaxUploadMB),
		Ask:     handler.NewAskHandler(svc),
		History: handler.NewHistoryHandler(svc),
	}, app.Config.Session.TokenSecret, middleware.NewClientLimiter(app.Config.RateLimit.AskPerSecond, app.Config.RateLimit.AskBurst))

	return router
}

// Register mounts the API routes on router.
func Register(router *gin.Engine, h Handlers, sessionSecret string, limiter *middleware.ClientLimiter) {
	router.GET("/healthz", h.Health.Check)

	v1 := router.Group("/api/v1")
	v1.POST("/sessions", h.Session.Create)

	lectures := v1.Group("/lectures")
	lectures.POST("", h.Lecture.Upload)
	lectures.GET("/status", middleware.OptionalSession(sessionSecret), h.Lecture.Status)

	v1.POST("/ask", middleware.RequireSession(sessionSecret), middleware.RateLimit(limiter), h.Ask.Ask)

	history := v1.Group("/history")
	history.Use(middleware.RequireSession(sessionSecret))
	history.GET("", h.History.List)
	history.DELETE("", h.History.Clear)
}

var errConnectionClosed = errors.New("connection closed")
