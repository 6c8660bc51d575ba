package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/openstorelab/storefront/internal/models"
)

// Migrate creates or updates the schema for all storefront models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Voucher{},
		&models.VoucherUsage{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	)
}
