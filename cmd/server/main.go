// Package main runs the CRM HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/relaycrm/backend/config"
	"github.com/relaycrm/backend/internal/accounts"
	"github.com/relaycrm/backend/internal/activities"
	"github.com/relaycrm/backend/internal/assignment"
	"github.com/relaycrm/backend/internal/auth"
	"github.com/relaycrm/backend/internal/contacts"
	"github.com/relaycrm/backend/internal/exports"
	"github.com/relaycrm/backend/internal/leads"
	"github.com/relaycrm/backend/internal/middleware"
	"github.com/relaycrm/backend/internal/models"
	"github.com/relaycrm/backend/internal/opportunities"
	"github.com/relaycrm/backend/internal/roles"
	"github.com/relaycrm/backend/internal/workflow"
	"github.com/relaycrm/backend/pkg/database"
	"github.com/relaycrm/backend/pkg/queue"
	"github.com/relaycrm/backend/pkg/redis"
	"github.com/relaycrm/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireMinutes)

	// Auth and provisioning
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Roles and permissions
	roleRepo := roles.NewRepository(pool)
	roleHandler := roles.NewHandler(roleRepo)

	// Assignment rules
	ruleRepo := assignment.NewRepository(pool)
	ruleHandler := assignment.NewHandler(ruleRepo)
	engine := assignment.NewEngine(ruleRepo)

	// Pipeline entities
	accountRepo := accounts.NewRepository(pool)
	contactRepo := contacts.NewRepository(pool)
	leadRepo := leads.NewRepository(pool)
	opportunityRepo := opportunities.NewRepository(pool)
	activityRepo := activities.NewRepository(pool)

	coordinator := workflow.NewCoordinator(pool, accountRepo, contactRepo, leadRepo, opportunityRepo, activityRepo, engine, logger)

	accountHandler := accounts.NewHandler(accountRepo, coordinator)
	contactHandler := contacts.NewHandler(contactRepo, coordinator)
	leadHandler := leads.NewHandler(leadRepo, coordinator)
	opportunityHandler := opportunities.NewHandler(opportunityRepo, coordinator)
	activityHandler := activities.NewHandler(activityRepo)

	// Exports
	statusTTL := time.Duration(cfg.Export.StatusTTLHours) * time.Hour
	jobQueue := queue.NewQueue(rdb.Client, statusTTL, logger)
	exportHandler := exports.NewHandler(jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required; permission checks per route)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/users", middleware.RequirePermission(models.PermUserRead), authHandler.List)
		api.POST("/users/:id/impersonate", middleware.RequirePermission(models.PermImpersonate), authHandler.Impersonate)

		api.GET("/permissions", middleware.RequirePermission(models.PermRoleRead), roleHandler.ListPermissions)
		api.GET("/roles", middleware.RequirePermission(models.PermRoleRead), roleHandler.List)
		api.POST("/roles", middleware.RequirePermission(models.PermRoleCreate), roleHandler.Create)
		api.PATCH("/roles/:id", middleware.RequirePermission(models.PermRoleUpdate), roleHandler.Update)
		api.DELETE("/roles/:id", middleware.RequirePermission(models.PermRoleDelete), roleHandler.Delete)

		api.GET("/assignment-rules", middleware.RequirePermission(models.PermRuleRead), ruleHandler.List)
		api.POST("/assignment-rules", middleware.RequirePermission(models.PermRuleCreate), ruleHandler.Create)
		api.DELETE("/assignment-rules/:id", middleware.RequirePermission(models.PermRuleDelete), ruleHandler.Delete)

		api.GET("/accounts", middleware.RequirePermission(models.PermAccountRead), accountHandler.List)
		api.POST("/accounts", middleware.RequirePermission(models.PermAccountCreate), accountHandler.Create)
		api.GET("/accounts/:id", middleware.RequirePermission(models.PermAccountRead), accountHandler.Get)
		api.PUT("/accounts/:id", middleware.RequirePermission(models.PermAccountUpdate), accountHandler.Update)
		api.DELETE("/accounts/:id", middleware.RequirePermission(models.PermAccountDelete), accountHandler.Delete)

		api.GET("/contacts", middleware.RequirePermission(models.PermContactRead), contactHandler.List)
		api.POST("/contacts", middleware.RequirePermission(models.PermContactCreate), contactHandler.Create)
		api.GET("/contacts/:id", middleware.RequirePermission(models.PermContactRead), contactHandler.Get)
		api.PUT("/contacts/:id", middleware.RequirePermission(models.PermContactUpdate), contactHandler.Update)
		api.DELETE("/contacts/:id", middleware.RequirePermission(models.PermContactDelete), contactHandler.Delete)

		api.GET("/leads", middleware.RequirePermission(models.PermLeadRead), leadHandler.List)
		api.POST("/leads", middleware.RequirePermission(models.PermLeadCreate), leadHandler.Create)
		api.GET("/leads/:id", middleware.RequirePermission(models.PermLeadRead), leadHandler.Get)
		api.PUT("/leads/:id", middleware.RequirePermission(models.PermLeadUpdate), leadHandler.Update)
		api.DELETE("/leads/:id", middleware.RequirePermission(models.PermLeadDelete), leadHandler.Delete)
		api.POST("/leads/:id/convert", middleware.RequirePermission(models.PermLeadConvert), leadHandler.Convert)

		api.GET("/opportunities", middleware.RequirePermission(models.PermOpportunityRead), opportunityHandler.List)
		api.POST("/opportunities", middleware.RequirePermission(models.PermOpportunityCreate), opportunityHandler.Create)
		api.GET("/opportunities/:id", middleware.RequirePermission(models.PermOpportunityRead), opportunityHandler.Get)
		api.PUT("/opportunities/:id", middleware.RequirePermission(models.PermOpportunityUpdate), opportunityHandler.Update)
		api.DELETE("/opportunities/:id", middleware.RequirePermission(models.PermOpportunityDelete), opportunityHandler.Delete)

		api.GET("/activities", middleware.RequirePermission(models.PermActivityRead), activityHandler.List)

		api.POST("/exports", middleware.RequirePermission(models.PermExportRun), exportHandler.Create)
		api.GET("/exports/:id", middleware.RequirePermission(models.PermExportRun), exportHandler.Get)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
