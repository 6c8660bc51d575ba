package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	dbutil "github.com/openstorelab/storefront/internal/db"
	"github.com/openstorelab/storefront/internal/idempotency"
	"github.com/openstorelab/storefront/internal/models"
	"github.com/openstorelab/storefront/internal/voucher"
)

var handlerDBSeq atomic.Int64

func newPreviewRouter(t *testing.T) (*gin.Engine, *voucher.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:front_handlers_%d?mode=memory&cache=shared", handlerDBSeq.Add(1))
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("unwrap sql.DB: %v", errDB)
	}
	sqlDB.SetMaxOpenConns(1)
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	service := voucher.NewService(conn, idempotency.NewMemoryStore())
	handler := NewVoucherFrontHandler(service)

	engine := gin.New()
	engine.POST("/preview", func(c *gin.Context) {
		c.Set("userID", uint64(1))
		handler.Preview(c)
	})
	return engine, service
}

func doPreviewRequest(t *testing.T, engine *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/preview", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestPreviewEndpointReturnsDiscount(t *testing.T) {
	engine, service := newPreviewRouter(t)
	if _, errCreate := service.Create(context.Background(), voucher.CreateInput{
		Code:          "SUMMER20",
		Name:          "Summer sale",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(20),
		Status:        models.VoucherStatusActive,
	}); errCreate != nil {
		t.Fatalf("seed voucher: %v", errCreate)
	}

	rec := doPreviewRequest(t, engine, `{"code":"summer20","subtotal":"250"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		DiscountAmount decimal.Decimal `json:"discount_amount"`
		Payable        decimal.Decimal `json:"payable"`
		Status         string          `json:"status"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &payload); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if !payload.DiscountAmount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("discount = %s, want 50", payload.DiscountAmount)
	}
	if !payload.Payable.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("payable = %s, want 200", payload.Payable)
	}
	if payload.Status != models.VoucherStatusActive {
		t.Fatalf("status = %q, want active", payload.Status)
	}
}

func TestPreviewEndpointErrorMapping(t *testing.T) {
	engine, service := newPreviewRouter(t)
	if _, errCreate := service.Create(context.Background(), voucher.CreateInput{
		Code:          "DRAFT10",
		Name:          "Unpublished",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(10),
	}); errCreate != nil {
		t.Fatalf("seed voucher: %v", errCreate)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown code", `{"code":"NOPE123","subtotal":"100"}`, http.StatusNotFound},
		{"draft voucher", `{"code":"DRAFT10","subtotal":"100"}`, http.StatusUnprocessableEntity},
		{"missing code", `{"code":"","subtotal":"100"}`, http.StatusBadRequest},
		{"zero subtotal", `{"code":"DRAFT10","subtotal":"0"}`, http.StatusBadRequest},
		{"malformed json", `{"code":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doPreviewRequest(t, engine, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
