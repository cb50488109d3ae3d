package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/project-delta/newsletter/internal/config"
	"github.com/project-delta/newsletter/internal/database"
	"github.com/project-delta/newsletter/internal/middleware"
	"github.com/project-delta/newsletter/internal/pkg/mail"
	pkgredis "github.com/project-delta/newsletter/internal/pkg/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	client *mongo.Client
	db     *mongo.Database
	rc     *pkgredis.Client
	sender *mail.Sender
	logger *zap.Logger
}

// New initializes the application: config → Mongo → Redis → mail → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	client, db, err := database.Connect(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	var rc *pkgredis.Client
	if cfg.RedisURL != "" {
		rc, err = pkgredis.Connect(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		logger.Warn("redis_url not configured, duplicate-request suppression disabled")
	}

	sender := mail.New(mail.Config{
		Enable:    cfg.Mail.Enable,
		Host:      cfg.Mail.Host,
		Port:      cfg.Mail.Port,
		User:      cfg.Mail.User,
		Pass:      cfg.Mail.Pass,
		From:      cfg.Mail.From,
		ReplyTo:   cfg.Mail.ReplyTo,
		UseResend: cfg.Mail.ResendKey != "",
		ResendKey: cfg.Mail.ResendKey,
	})
	if err := sender.Ping(); err != nil {
		logger.Warn("mail transport not reachable", zap.Error(err))
	} else if cfg.Mail.Enable {
		logger.Info("mail transport ready")
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-idempotence"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(cors.New(corsConfig))

	if rc != nil {
		router.Use(middleware.Idempotence(rc.Raw()))
	}

	app := &App{cfg: cfg, router: router, client: client, db: db, rc: rc, sender: sender, logger: logger}
	app.registerRoutes()

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown closes the store and cache connections.
func (a *App) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.client.Disconnect(ctx); err != nil {
		a.logger.Warn("mongo disconnect", zap.Error(err))
	}
	if a.rc != nil {
		if err := a.rc.Close(); err != nil {
			a.logger.Warn("redis close", zap.Error(err))
		}
	}
}
