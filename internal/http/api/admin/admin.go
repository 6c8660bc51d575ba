package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openstorelab/storefront/internal/config"
	"github.com/openstorelab/storefront/internal/http/api/admin/handlers"
	"github.com/openstorelab/storefront/internal/models"
	"github.com/openstorelab/storefront/internal/security"
	"github.com/openstorelab/storefront/internal/voucher"
)

// RegisterAdminRoutes registers admin authentication and management routes.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, service *voucher.Service) {
	if r == nil || db == nil {
		return
	}

	group := r.Group("/v0/admin")

	healthHandler := handlers.NewHealthHandler(db)
	group.GET("/healthz", healthHandler.Healthz)

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	group.POST("/login", authHandler.Login)

	authed := group.Group("")
	authed.Use(adminAuthMiddleware(db, jwtCfg))

	authed.POST("/totp/prepare", authHandler.PrepareTOTP)
	authed.POST("/totp/confirm", authHandler.ConfirmTOTP)
	authed.POST("/totp/disable", authHandler.DisableTOTP)

	adminHandler := handlers.NewAdminHandler(db)
	authed.GET("/admins", adminHandler.List)
	authed.POST("/admins", adminHandler.Create)
	authed.PUT("/admins/:id", adminHandler.Update)

	voucherHandler := handlers.NewVoucherHandler(service)
	authed.GET("/vouchers", voucherHandler.List)
	authed.POST("/vouchers", voucherHandler.Create)
	authed.GET("/vouchers/:id", voucherHandler.Get)
	authed.PUT("/vouchers/:id", voucherHandler.Update)
	authed.DELETE("/vouchers/:id", voucherHandler.Delete)

	productHandler := handlers.NewProductHandler(db)
	authed.GET("/products", productHandler.List)
	authed.POST("/products", productHandler.Create)
	authed.GET("/products/:id", productHandler.Get)
	authed.PUT("/products/:id", productHandler.Update)
	authed.DELETE("/products/:id", productHandler.Delete)
}

// adminAuthMiddleware validates admin JWTs and loads the admin into context.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&admin, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin disabled"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Next()
	}
}
