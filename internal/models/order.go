package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// Order represents a checkout order. A voucher discount captured at checkout
// is only committed to the voucher ledger after payment confirmation.
type Order struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OrderNo string `gorm:"type:text;not null;uniqueIndex"` // Public order number.
	UserID  uint64 `gorm:"not null;index"`                 // Ordering user.

	Subtotal       decimal.Decimal `gorm:"type:decimal(20,2);not null"`           // Sum of line items.
	DiscountAmount decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"` // Voucher discount applied.
	Total          decimal.Decimal `gorm:"type:decimal(20,2);not null"`           // Payable amount.

	VoucherID   *uint64 `gorm:"index"`     // Applied voucher, if any.
	VoucherCode string  `gorm:"type:text"` // Code as entered, kept for display.

	RedemptionToken string `gorm:"type:text;not null;uniqueIndex"` // Idempotency token for ledger commit.

	Status string `gorm:"type:text;not null;default:'pending'"` // pending, paid or cancelled.

	PaidAt *time.Time // Payment confirmation time.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`       // Last update timestamp.
}

// OrderItem is a single product line within an order. Name and unit price are
// copied from the product at checkout so later catalog edits do not rewrite
// order history.
type OrderItem struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OrderID   uint64 `gorm:"not null;index"` // Owning order.
	ProductID uint64 `gorm:"not null"`       // Purchased product.

	Name      string          `gorm:"type:text;not null"`          // Product name at purchase time.
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,2);not null"` // Price at purchase time.
	Quantity  int             `gorm:"not null"`                    // Units purchased.
	LineTotal decimal.Decimal `gorm:"type:decimal(20,2);not null"` // UnitPrice * Quantity.
}
