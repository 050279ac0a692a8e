package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	apirest "github.com/wome-online/server/api/rest"
	"github.com/wome-online/server/audit"
	"github.com/wome-online/server/cache"
	"github.com/wome-online/server/config"
	dbadapter "github.com/wome-online/server/db"
	"github.com/wome-online/server/game/account"
	"github.com/wome-online/server/game/character"
	"github.com/wome-online/server/game/exchange"
	"github.com/wome-online/server/game/inventory"
	"github.com/wome-online/server/game/market"
	mw "github.com/wome-online/server/middleware"
	"github.com/wome-online/server/model"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		log.Fatal("security.jwt_secret must be set")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Cache ----
	c, err := cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Services ----
	hasher := account.BcryptHasher{Cost: cfg.Security.BcryptCost}
	accountSvc := account.NewService(db, hasher, logger)
	reconciler := inventory.NewReconciler(logger)
	characterSvc := character.NewService(db, reconciler, logger)
	marketSvc := market.NewService(db, logger)
	coordinator := exchange.NewCoordinator(db, c, cfg.Security.ExchangeLockTTL, logger)

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	authH := apirest.NewAuthHandler(accountSvc, c, cfg.Security, auditSvc)
	charH := apirest.NewCharacterHandler(accountSvc, characterSvc, auditSvc)
	marketH := apirest.NewMarketHandler(accountSvc, marketSvc, coordinator, auditSvc)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)

		charG := api.Group("/character")
		charG.Use(mw.Auth(cfg.Security, c))
		charG.GET("", charH.Get)
		charG.POST("", charH.Create)
		charG.PUT("", charH.Update)

		marketG := api.Group("/market")
		marketG.Use(mw.Auth(cfg.Security, c))
		marketG.GET("/offers", marketH.ListOffers)
		marketG.POST("/offers", marketH.CreateOffer)
		marketG.POST("/offers/:id/exchange", marketH.Exchange)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
