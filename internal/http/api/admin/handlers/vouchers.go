package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/openstorelab/storefront/internal/models"
	"github.com/openstorelab/storefront/internal/voucher"
)

// VoucherHandler handles admin operations for vouchers.
type VoucherHandler struct {
	service *voucher.Service
}

// NewVoucherHandler constructs a VoucherHandler.
func NewVoucherHandler(service *voucher.Service) *VoucherHandler {
	return &VoucherHandler{service: service}
}

// voucherListQuery defines filters for the voucher list view.
type voucherListQuery struct {
	Page     int    `form:"page,default=1"`    // Page number.
	Limit    int    `form:"limit,default=20"`  // Page size.
	Search   string `form:"search"`            // Substring across code, name, description.
	Status   string `form:"status"`            // Status filter.
	IsActive string `form:"is_active"`         // "true" or "false", empty for all.
	Sort     string `form:"sort"`              // "usage" or empty for newest first.
}

// List returns vouchers with paging and filters.
func (h *VoucherHandler) List(c *gin.Context) {
	var q voucherListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	filter := voucher.ListFilter{
		Search: strings.TrimSpace(q.Search),
		Status: strings.TrimSpace(q.Status),
		Page:   q.Page,
		Limit:  q.Limit,
		Sort:   strings.TrimSpace(q.Sort),
	}
	switch strings.TrimSpace(q.IsActive) {
	case "true", "1":
		active := true
		filter.IsActive = &active
	case "false", "0":
		active := false
		filter.IsActive = &active
	}

	rows, pagination, errList := h.service.List(c.Request.Context(), filter)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list vouchers failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	now := time.Now().UTC()
	for _, row := range rows {
		out = append(out, formatVoucher(&row, now))
	}
	c.JSON(http.StatusOK, gin.H{
		"vouchers":   out,
		"pagination": pagination,
	})
}

// createVoucherRequest captures the payload for creating a voucher.
type createVoucherRequest struct {
	Code             string           `json:"code"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	DiscountType     string           `json:"discount_type"`
	DiscountValue    decimal.Decimal  `json:"discount_value"`
	MaxDiscountValue *decimal.Decimal `json:"max_discount_value"`
	MinOrderValue    decimal.Decimal  `json:"min_order_value"`
	StartDate        *time.Time       `json:"start_date"`
	EndDate          *time.Time       `json:"end_date"`
	UsageLimit       *int             `json:"usage_limit"`
	PerUserLimit     *int             `json:"per_user_limit"`
	Status           string           `json:"status"`
	IsActive         *bool            `json:"is_active"`
	AutoApply        bool             `json:"auto_apply"`
	Tags             []string         `json:"tags"`
}

// Create persists a new voucher.
func (h *VoucherHandler) Create(c *gin.Context) {
	var body createVoucherRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	adminID := getAdminID(c)
	input := voucher.CreateInput{
		Code:             body.Code,
		Name:             body.Name,
		Description:      body.Description,
		DiscountType:     body.DiscountType,
		DiscountValue:    body.DiscountValue,
		MaxDiscountValue: body.MaxDiscountValue,
		MinOrderValue:    body.MinOrderValue,
		StartDate:        body.StartDate,
		EndDate:          body.EndDate,
		UsageLimit:       body.UsageLimit,
		PerUserLimit:     body.PerUserLimit,
		Status:           strings.TrimSpace(body.Status),
		IsActive:         body.IsActive,
		AutoApply:        body.AutoApply,
		Tags:             body.Tags,
	}
	if adminID != 0 {
		input.CreatedBy = &adminID
	}

	created, errCreate := h.service.Create(c.Request.Context(), input)
	if errCreate != nil {
		respondVoucherError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, formatVoucher(created, time.Now().UTC()))
}

// Get fetches a single voucher by ID.
func (h *VoucherHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	v, errFind := h.service.FindByID(c.Request.Context(), id)
	if errFind != nil {
		respondVoucherError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, formatVoucher(v, time.Now().UTC()))
}

// updateVoucherRequest captures optional field changes for a voucher.
type updateVoucherRequest struct {
	Code             *string          `json:"code"`
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	DiscountType     *string          `json:"discount_type"`
	DiscountValue    *decimal.Decimal `json:"discount_value"`
	MaxDiscountValue *decimal.Decimal `json:"max_discount_value"`
	ClearMaxDiscount bool             `json:"clear_max_discount_value"`
	MinOrderValue    *decimal.Decimal `json:"min_order_value"`
	StartDate        *time.Time       `json:"start_date"`
	ClearStartDate   bool             `json:"clear_start_date"`
	EndDate          *time.Time       `json:"end_date"`
	ClearEndDate     bool             `json:"clear_end_date"`
	UsageLimit       *int             `json:"usage_limit"`
	ClearUsageLimit  bool             `json:"clear_usage_limit"`
	PerUserLimit     *int             `json:"per_user_limit"`
	ClearPerUser     bool             `json:"clear_per_user_limit"`
	Status           *string          `json:"status"`
	IsActive         *bool            `json:"is_active"`
	AutoApply        *bool            `json:"auto_apply"`
	Tags             []string         `json:"tags"`
}

// Update applies validated field changes to a voucher located by ID or code.
func (h *VoucherHandler) Update(c *gin.Context) {
	idOrCode := strings.TrimSpace(c.Param("id"))
	if idOrCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id"})
		return
	}
	var body updateVoucherRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	adminID := getAdminID(c)
	input := voucher.UpdateInput{
		Code:             body.Code,
		Name:             body.Name,
		Description:      body.Description,
		DiscountType:     body.DiscountType,
		DiscountValue:    body.DiscountValue,
		MaxDiscountValue: body.MaxDiscountValue,
		ClearMaxDiscount: body.ClearMaxDiscount,
		MinOrderValue:    body.MinOrderValue,
		StartDate:        body.StartDate,
		ClearStartDate:   body.ClearStartDate,
		EndDate:          body.EndDate,
		ClearEndDate:     body.ClearEndDate,
		UsageLimit:       body.UsageLimit,
		ClearUsageLimit:  body.ClearUsageLimit,
		PerUserLimit:     body.PerUserLimit,
		ClearPerUser:     body.ClearPerUser,
		Status:           body.Status,
		IsActive:         body.IsActive,
		AutoApply:        body.AutoApply,
		Tags:             body.Tags,
	}
	if adminID != 0 {
		input.UpdatedBy = &adminID
	}

	updated, errUpdate := h.service.Update(c.Request.Context(), idOrCode, input)
	if errUpdate != nil {
		respondVoucherError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, formatVoucher(updated, time.Now().UTC()))
}

// Delete hard-deletes a voucher and returns the removed record.
func (h *VoucherHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	removed, errRemove := h.service.Remove(c.Request.Context(), id)
	if errRemove != nil {
		respondVoucherError(c, errRemove)
		return
	}
	c.JSON(http.StatusOK, formatVoucher(removed, time.Now().UTC()))
}

// formatVoucher maps a voucher model into a response payload. The derived
// runtime status is included next to the stored administrative status.
func formatVoucher(v *models.Voucher, now time.Time) gin.H {
	var tags []string
	if len(v.Tags) > 0 {
		_ = json.Unmarshal(v.Tags, &tags)
	}
	return gin.H{
		"id":                 v.ID,
		"code":               v.Code,
		"name":               v.Name,
		"description":        v.Description,
		"discount_type":      v.DiscountType,
		"discount_value":     v.DiscountValue,
		"max_discount_value": v.MaxDiscountValue,
		"min_order_value":    v.MinOrderValue,
		"start_date":         v.StartDate,
		"end_date":           v.EndDate,
		"usage_limit":        v.UsageLimit,
		"per_user_limit":     v.PerUserLimit,
		"usage_count":        v.UsageCount,
		"last_used_at":       v.LastUsedAt,
		"status":             v.Status,
		"runtime_status":     voucher.ResolveStatus(v, now),
		"is_active":          v.IsActive,
		"auto_apply":         v.AutoApply,
		"tags":               tags,
		"created_by":         v.CreatedBy,
		"updated_by":         v.UpdatedBy,
		"created_at":         v.CreatedAt,
		"updated_at":         v.UpdatedAt,
	}
}
