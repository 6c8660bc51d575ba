package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/openstorelab/storefront/internal/voucher"
)

// VoucherFrontHandler serves voucher preview and discovery for customers.
type VoucherFrontHandler struct {
	service *voucher.Service
}

// NewVoucherFrontHandler constructs a VoucherFrontHandler.
func NewVoucherFrontHandler(service *voucher.Service) *VoucherFrontHandler {
	return &VoucherFrontHandler{service: service}
}

// previewRequest defines the request body for a voucher preview.
type previewRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Preview evaluates a voucher against a cart subtotal without consuming
// any usage.
func (h *VoucherFrontHandler) Preview(c *gin.Context) {
	var body previewRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	userID := getUserID(c)
	var userRef *uint64
	if userID != 0 {
		userRef = &userID
	}

	result, errPreview := h.service.Preview(c.Request.Context(), body.Code, body.Subtotal, userRef)
	if errPreview != nil {
		respondVoucherError(c, errPreview)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":            result.Voucher.Code,
		"name":            result.Voucher.Name,
		"discount_type":   result.Voucher.DiscountType,
		"discount_value":  result.Voucher.DiscountValue,
		"status":          result.RuntimeStatus,
		"discount_amount": result.DiscountAmount,
		"payable":         body.Subtotal.Sub(result.DiscountAmount),
	})
}

// ListAutoApply returns vouchers that are applied automatically at checkout,
// best discount first.
func (h *VoucherFrontHandler) ListAutoApply(c *gin.Context) {
	rows, errList := h.service.ListAutoApply(c.Request.Context(), time.Now().UTC())
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list vouchers failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"code":               row.Code,
			"name":               row.Name,
			"description":        row.Description,
			"discount_type":      row.DiscountType,
			"discount_value":     row.DiscountValue,
			"max_discount_value": row.MaxDiscountValue,
			"min_order_value":    row.MinOrderValue,
			"end_date":           row.EndDate,
		})
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": out})
}
