package server

import (
	"github.com/assetstore/backend/internal/config"
	"github.com/assetstore/backend/internal/handlers"
	"github.com/assetstore/backend/internal/middleware"
	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/assetstore/backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RouterConfig struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *gorm.DB
	Validator    *jwt.Validator
	Counter      middleware.Counter // nil disables rate limiting
	AssetHandler *handlers.AssetHandler
	UserHandler  *handlers.UserHandler
}

func NewRouter(rc RouterConfig) *gin.Engine {
	cfg := rc.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.UploadMaxFileSize
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(rc.Logger))
	router.Use(middleware.CORS(cfg))
	if rc.Counter != nil {
		router.Use(middleware.RateLimiter(rc.Counter, cfg.RateLimitRequests, cfg.RateLimitDuration, rc.Logger))
	}

	// Health check outside API group (no /api/v1 prefix)
	router.GET("/health", handlers.Health(rc.DB))

	auth := middleware.Auth(rc.Validator, rc.Logger)
	uploads := func(c *gin.Context) { c.Next() }
	if rc.Counter != nil {
		uploads = middleware.UploadRateLimit(rc.Counter, cfg.UploadDailyLimit, rc.Logger)
	}

	api := router.Group("/api/v1")
	api.Use(auth)
	{
		users := api.Group("/users")
		{
			users.POST("", rc.UserHandler.CreateUser)
			users.GET("/me", rc.UserHandler.GetMe)
			users.GET("/me/roles", rc.UserHandler.GetMyRoles)
			users.PUT("/me", rc.UserHandler.UpdateMe)
			users.DELETE("/me", rc.UserHandler.DeleteMe)
			users.POST("/me/avatar", uploads, rc.UserHandler.SetAvatar)
			users.GET("/:uuid", rc.UserHandler.GetUser)
			users.POST("/:uuid/block", rc.UserHandler.BlockUser)
		}

		assets := api.Group("/assets")
		{
			assets.POST("/create/:userUUID", rc.AssetHandler.CreateAsset)
			assets.GET("/get", rc.AssetHandler.FindAssets)
			assets.GET("/:uuid", rc.AssetHandler.GetAsset)
			assets.DELETE("/:uuid", rc.AssetHandler.DeleteAsset)
			assets.DELETE("/:uuid/pictures/:picture", rc.AssetHandler.RemovePicture)

			// Upload routes with daily rate limiting
			assets.POST("/:uuid/file", uploads, rc.AssetHandler.SetFile)
			assets.POST("/:uuid/setPictures", uploads, rc.AssetHandler.SetPictures)
			assets.POST("/:uuid/pictures", uploads, rc.AssetHandler.AddPictures)
		}
	}

	return router
}
