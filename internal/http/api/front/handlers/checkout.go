package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/openstorelab/storefront/internal/models"
	"github.com/openstorelab/storefront/internal/voucher"
)

// CheckoutHandler turns carts into orders and settles them. A voucher
// discount is priced at checkout but only charged against the voucher
// ledger when the order is paid.
type CheckoutHandler struct {
	db      *gorm.DB
	service *voucher.Service
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(db *gorm.DB, service *voucher.Service) *CheckoutHandler {
	return &CheckoutHandler{db: db, service: service}
}

// checkoutItem is one cart line in a checkout request.
type checkoutItem struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// checkoutRequest defines the request body for creating an order.
type checkoutRequest struct {
	Items       []checkoutItem `json:"items"`
	VoucherCode string         `json:"voucher_code"`
}

// Create reserves stock, prices the cart, applies a voucher and stores a
// pending order.
func (h *CheckoutHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var body checkoutRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(body.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		return
	}
	for _, item := range body.Items {
		if item.ProductID == 0 || item.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart item"})
			return
		}
	}

	ctx := c.Request.Context()
	order := models.Order{
		OrderNo:         uuid.NewString(),
		UserID:          userID,
		RedemptionToken: uuid.NewString(),
		Status:          models.OrderStatusPending,
	}
	var orderItems []models.OrderItem

	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subtotal := decimal.Zero
		for _, item := range body.Items {
			var product models.Product
			if errFind := tx.Where("id = ? AND is_published = ?", item.ProductID, true).
				First(&product).Error; errFind != nil {
				if errors.Is(errFind, gorm.ErrRecordNotFound) {
					return &voucher.Error{Kind: voucher.KindNotFound, Reason: "product not found"}
				}
				return errFind
			}
			// Stock reservation must stay conditional so two carts cannot
			// both take the last unit.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", product.ID, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &voucher.Error{Kind: voucher.KindConflict, Reason: "insufficient stock"}
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			subtotal = subtotal.Add(lineTotal)
			orderItems = append(orderItems, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				UnitPrice: product.Price,
				Quantity:  item.Quantity,
				LineTotal: lineTotal,
			})
		}

		order.Subtotal = subtotal
		order.DiscountAmount = decimal.Zero
		order.Total = subtotal

		if errApply := h.applyVoucher(ctx, &order, strings.TrimSpace(body.VoucherCode), userID); errApply != nil {
			return errApply
		}

		if errCreate := tx.Create(&order).Error; errCreate != nil {
			return errCreate
		}
		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		return tx.Create(&orderItems).Error
	})
	if errTx != nil {
		respondVoucherError(c, errTx)
		return
	}

	c.JSON(http.StatusCreated, formatOrder(&order, orderItems))
}

// applyVoucher prices the voucher for an order. An explicit code must be
// valid; with no code the best eligible auto-apply voucher is used and
// ineligible ones are skipped silently.
func (h *CheckoutHandler) applyVoucher(ctx context.Context, order *models.Order, code string, userID uint64) error {
	if code != "" {
		result, errPreview := h.service.Preview(ctx, code, order.Subtotal, &userID)
		if errPreview != nil {
			return errPreview
		}
		order.VoucherID = &result.Voucher.ID
		order.VoucherCode = result.Voucher.Code
		order.DiscountAmount = result.DiscountAmount
		order.Total = order.Subtotal.Sub(result.DiscountAmount)
		return nil
	}

	candidates, errList := h.service.ListAutoApply(ctx, time.Now().UTC())
	if errList != nil {
		return errList
	}
	for _, candidate := range candidates {
		result, errPreview := h.service.Preview(ctx, candidate.Code, order.Subtotal, &userID)
		if errPreview != nil {
			if voucher.KindOf(errPreview) == voucher.KindIneligible {
				continue
			}
			return errPreview
		}
		order.VoucherID = &result.Voucher.ID
		order.VoucherCode = result.Voucher.Code
		order.DiscountAmount = result.DiscountAmount
		order.Total = order.Subtotal.Sub(result.DiscountAmount)
		return nil
	}
	return nil
}

// Confirm marks a pending order as paid and commits any voucher usage.
// The endpoint trusts its caller; real payment capture happens elsewhere.
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	orderNo := strings.TrimSpace(c.Param("order_no"))

	ctx := c.Request.Context()
	var order models.Order
	if errFind := h.db.WithContext(ctx).
		Where("order_no = ? AND user_id = ?", orderNo, userID).
		First(&order).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if order.Status != models.OrderStatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "order is not pending"})
		return
	}

	if order.VoucherID != nil {
		if errCommit := h.service.CommitRedemption(ctx, *order.VoucherID, &userID, order.RedemptionToken); errCommit != nil {
			respondVoucherError(c, errCommit)
			return
		}
	}

	now := time.Now().UTC()
	res := h.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
		Updates(map[string]any{
			"status":     models.OrderStatusPaid,
			"paid_at":    now,
			"updated_at": now,
		})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update order failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "order is not pending"})
		return
	}

	order.Status = models.OrderStatusPaid
	order.PaidAt = &now
	c.JSON(http.StatusOK, formatOrder(&order, nil))
}

// Cancel cancels a pending order and returns its reserved stock.
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	orderNo := strings.TrimSpace(c.Param("order_no"))

	ctx := c.Request.Context()
	var order models.Order
	if errFind := h.db.WithContext(ctx).
		Where("order_no = ? AND user_id = ?", orderNo, userID).
		First(&order).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
			Updates(map[string]any{
				"status":     models.OrderStatusCancelled,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &voucher.Error{Kind: voucher.KindConflict, Reason: "order is not pending"}
		}

		var items []models.OrderItem
		if errItems := tx.Where("order_id = ?", order.ID).Find(&items).Error; errItems != nil {
			return errItems
		}
		for _, item := range items {
			if errRestore := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error; errRestore != nil {
				return errRestore
			}
		}
		return nil
	})
	if errTx != nil {
		respondVoucherError(c, errTx)
		return
	}

	order.Status = models.OrderStatusCancelled
	c.JSON(http.StatusOK, formatOrder(&order, nil))
}

// List returns the current user's orders, newest first.
func (h *CheckoutHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var rows []models.Order
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(100).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list orders failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, formatOrder(&row, nil))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// Get returns one of the current user's orders with its line items.
func (h *CheckoutHandler) Get(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	orderNo := strings.TrimSpace(c.Param("order_no"))

	ctx := c.Request.Context()
	var order models.Order
	if errFind := h.db.WithContext(ctx).
		Where("order_no = ? AND user_id = ?", orderNo, userID).
		First(&order).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var items []models.OrderItem
	if errItems := h.db.WithContext(ctx).Where("order_id = ?", order.ID).Find(&items).Error; errItems != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, formatOrder(&order, items))
}

// formatOrder maps an order and optional line items into a response payload.
func formatOrder(o *models.Order, items []models.OrderItem) gin.H {
	out := gin.H{
		"order_no":        o.OrderNo,
		"subtotal":        o.Subtotal,
		"discount_amount": o.DiscountAmount,
		"total":           o.Total,
		"voucher_code":    o.VoucherCode,
		"status":          o.Status,
		"paid_at":         o.PaidAt,
		"created_at":      o.CreatedAt,
	}
	if items != nil {
		lines := make([]gin.H, 0, len(items))
		for _, item := range items {
			lines = append(lines, gin.H{
				"product_id": item.ProductID,
				"name":       item.Name,
				"unit_price": item.UnitPrice,
				"quantity":   item.Quantity,
				"line_total": item.LineTotal,
			})
		}
		out["items"] = lines
	}
	return out
}
