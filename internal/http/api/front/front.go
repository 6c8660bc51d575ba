package front

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openstorelab/storefront/internal/config"
	"github.com/openstorelab/storefront/internal/http/api/front/handlers"
	"github.com/openstorelab/storefront/internal/models"
	"github.com/openstorelab/storefront/internal/security"
	"github.com/openstorelab/storefront/internal/voucher"
)

// RegisterFrontRoutes registers public and authenticated storefront routes.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, service *voucher.Service) {
	if r == nil || db == nil {
		return
	}

	group := r.Group("/v0/front")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)

	productHandler := handlers.NewProductFrontHandler(db)
	group.GET("/products", productHandler.List)
	group.GET("/products/:slug", productHandler.Get)

	voucherHandler := handlers.NewVoucherFrontHandler(service)
	group.GET("/vouchers/auto-apply", voucherHandler.ListAutoApply)

	authed := group.Group("")
	authed.Use(userAuthMiddleware(db, jwtCfg))

	authed.PUT("/profile/password", authHandler.ChangePassword)

	authed.POST("/vouchers/preview", voucherHandler.Preview)

	checkoutHandler := handlers.NewCheckoutHandler(db, service)
	authed.POST("/checkout", checkoutHandler.Create)
	authed.GET("/orders", checkoutHandler.List)
	authed.GET("/orders/:order_no", checkoutHandler.Get)
	authed.POST("/orders/:order_no/confirm", checkoutHandler.Confirm)
	authed.POST("/orders/:order_no/cancel", checkoutHandler.Cancel)
}

// userAuthMiddleware validates user JWTs and loads the user into context.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
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

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if user.Disabled {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user disabled"})
			return
		}

		c.Set("userID", user.ID)
		c.Next()
	}
}
