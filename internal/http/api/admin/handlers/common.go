package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openstorelab/storefront/internal/voucher"
)

// getAdminID extracts the admin ID from gin context.
func getAdminID(c *gin.Context) uint64 {
	val, exists := c.Get("adminID")
	if !exists {
		return 0
	}
	if id, ok := val.(uint64); ok {
		return id
	}
	return 0
}

// respondVoucherError maps a voucher business failure onto an HTTP response.
func respondVoucherError(c *gin.Context, err error) {
	kind := voucher.KindOf(err)
	switch kind {
	case voucher.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "kind": kind})
	case voucher.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": kind})
	case voucher.KindIneligible:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": kind})
	case voucher.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": kind})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
