package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Voucher discount types.
const (
	// DiscountTypePercentage discounts a percentage of the order subtotal.
	DiscountTypePercentage = "percentage"
	// DiscountTypeFixed discounts a fixed currency amount.
	DiscountTypeFixed = "fixed"
)

// Administrative voucher statuses stored on the record. The stored value is
// operator intent only; whether a voucher is usable right now is derived by
// the voucher package from flags, schedule and usage counters.
const (
	VoucherStatusDraft     = "draft"
	VoucherStatusScheduled = "scheduled"
	VoucherStatusActive    = "active"
	VoucherStatusExpired   = "expired"
	VoucherStatusDisabled  = "disabled"
)

// Voucher represents a redeemable discount code.
type Voucher struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Code        string `gorm:"type:text;not null;uniqueIndex"` // Uppercase redemption code, unique.
	Name        string `gorm:"type:text;not null"`             // Display name.
	Description string `gorm:"type:text"`                      // Customer-facing description.

	DiscountType     string           `gorm:"type:text;not null"`                    // percentage or fixed.
	DiscountValue    decimal.Decimal  `gorm:"type:decimal(20,2);not null"`           // Percent points or absolute amount.
	MaxDiscountValue *decimal.Decimal `gorm:"type:decimal(20,2)"`                    // Cap applied after percentage computation.
	MinOrderValue    decimal.Decimal  `gorm:"type:decimal(20,2);not null;default:0"` // Minimum subtotal required to redeem.

	StartDate *time.Time `gorm:"index"` // Validity window start.
	EndDate   *time.Time `gorm:"index"` // Validity window end.

	UsageLimit   *int       // Global redemption cap, nil means unlimited.
	PerUserLimit *int       // Per-user redemption cap, nil means unlimited.
	UsageCount   int        `gorm:"not null;default:0"` // Global redemption counter, ledger-owned.
	LastUsedAt   *time.Time // Last successful redemption, ledger-owned.

	Status   string `gorm:"type:text;not null;default:'draft'"` // Administrative status flag.
	IsActive bool   `gorm:"not null;default:true"`              // Administrative on/off switch.

	AutoApply bool           `gorm:"not null;default:false"` // Offered automatically at checkout.
	Tags      datatypes.JSON `gorm:"type:jsonb"`             // Free-form tag list in JSON.

	CreatedBy *uint64 `gorm:"index"` // Admin who created the voucher.
	UpdatedBy *uint64 // Admin who last updated the voucher.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`       // Last update timestamp.
}

// VoucherUsage is one row of the per-user redemption ledger. Rows are only
// written through the ledger's conditional upsert, never read-modify-write.
type VoucherUsage struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	VoucherID uint64 `gorm:"not null;uniqueIndex:idx_voucher_usages_voucher_user"` // Redeemed voucher.
	UserID    uint64 `gorm:"not null;uniqueIndex:idx_voucher_usages_voucher_user"` // Redeeming user.

	UseCount   int       `gorm:"not null;default:0"` // Redemptions by this user.
	LastUsedAt time.Time `gorm:"not null"`           // Most recent redemption time.
}
