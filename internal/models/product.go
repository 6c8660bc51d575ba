package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Product represents a catalog item sold by the store.
type Product struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:text;not null"`             // Display name.
	Slug        string `gorm:"type:text;not null;uniqueIndex"` // URL-safe unique identifier.
	Description string `gorm:"type:text"`                      // Long description.

	Price decimal.Decimal `gorm:"type:decimal(20,2);not null"` // Unit price.
	Stock int             `gorm:"not null;default:0"`          // Units available.

	Attributes datatypes.JSON `gorm:"type:jsonb"` // Variant attributes in JSON.

	IsPublished bool `gorm:"not null;default:false"` // Visible on the storefront when true.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`       // Last update timestamp.
}
