package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/project-delta/newsletter/internal/modules/newsletter"
	"github.com/project-delta/newsletter/internal/modules/subscribe"
	"github.com/project-delta/newsletter/internal/pkg/response"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var processStart = time.Now()

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	store := subscribe.NewMongoStore(a.db)
	subSvc := subscribe.NewService(store, a.sender, a.logger, a.cfg.BaseURL)
	subHandler := subscribe.NewHandler(subSvc, a.logger, a.cfg.ConfirmRedirectURL)

	nlSvc := newsletter.NewService(store, a.sender, a.logger, a.sender.From())
	nlHandler := newsletter.NewHandler(nlSvc, a.logger)

	r.GET("/ping", a.ping)

	// same surface on the bare paths (original clients) and under /api/v1
	for _, rg := range []*gin.RouterGroup{r.Group(""), r.Group("/api/v1")} {
		subHandler.RegisterRoutes(rg)
		nlHandler.RegisterRoutes(rg)
	}
}

func (a *App) ping(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := a.client.Ping(ctx, readpref.Primary()); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{
		"message": "pong",
		"uptime":  time.Since(processStart).Truncate(time.Second).String(),
	})
}
