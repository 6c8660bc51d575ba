package voucher

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/openstorelab/storefront/internal/models"
)

func TestListSearchMatchesAnyTextColumn(t *testing.T) {
	svc, _ := newTestService(t)
	seedVoucher(t, svc, func(in *CreateInput) {
		in.Code = "WELCOME5"
		in.Name = "Welcome"
	})
	seedVoucher(t, svc, func(in *CreateInput) {
		in.Code = "SPRING15"
		in.Name = "Spring deal"
		in.Description = "welcome back offer"
	})
	seedVoucher(t, svc, func(in *CreateInput) {
		in.Code = "OTHER10"
		in.Name = "Unrelated"
	})

	rows, _, errList := svc.List(context.Background(), ListFilter{Search: "welcome"})
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestListSearchAndStatusCombineWithAnd(t *testing.T) {
	svc, _ := newTestService(t)
	past := time.Now().UTC().Add(-24 * time.Hour)

	// Matches the search but not the status filter.
	seedVoucher(t, svc, func(in *CreateInput) {
		in.Code = "SALEALIVE"
		in.Name = "Sale"
	})
	// Matches both: searched text and a closed window.
	seedVoucher(t, svc, func(in *CreateInput) {
		in.Code = "SALEGONE"
		in.Name = "Sale"
		in.EndDate = &past
	})
	// Matches the status filter but not the search.
	seedVoucher(t, svc, func(in *CreateInput) {
		in.Code = "OLDDEAL"
		in.Name = "Old"
		in.EndDate = &past
	})

	rows, _, errList := svc.List(context.Background(), ListFilter{
		Search: "sale",
		Status: models.VoucherStatusExpired,
	})
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(rows) != 1 || rows[0].Code != "SALEGONE" {
		t.Fatalf("rows = %v, want exactly SALEGONE", codesOf(rows))
	}
}

func TestListExpiredCoversAllCauses(t *testing.T) {
	svc, conn := newTestService(t)
	past := time.Now().UTC().Add(-24 * time.Hour)
	limit := 1

	seedVoucher(t, svc, func(in *CreateInput) {
		in.Code = "BYSTATUS"
		in.Status = models.VoucherStatusExpired
	})
	seedVoucher(t, svc, func(in *CreateInput) {
		in.Code = "BYWINDOW"
		in.EndDate = &past
	})
	exhausted := seedVoucher(t, svc, func(in *CreateInput) {
		in.Code = "BYUSAGE"
		in.UsageLimit = &limit
	})
	if errSeed := conn.Model(&models.Voucher{}).Where("id = ?", exhausted.ID).
		Update("usage_count", 1).Error; errSeed != nil {
		t.Fatalf("seed usage count: %v", errSeed)
	}
	seedVoucher(t, svc, func(in *CreateInput) {
		in.Code = "STILLGOOD"
	})

	rows, _, errList := svc.List(context.Background(), ListFilter{Status: models.VoucherStatusExpired})
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %v, want the three expired vouchers", codesOf(rows))
	}
	for _, row := range rows {
		if row.Code == "STILLGOOD" {
			t.Fatalf("live voucher leaked into expired filter")
		}
	}
}

func TestListPagination(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 5; i++ {
		seedVoucher(t, svc, func(in *CreateInput) {
			in.Code = fmt.Sprintf("CODE%03d", i)
		})
	}

	rows, pagination, errList := svc.List(context.Background(), ListFilter{Page: 1, Limit: 2})
	if errList != nil {
		t.Fatalf("list page 1: %v", errList)
	}
	if len(rows) != 2 {
		t.Fatalf("page 1 rows = %d, want 2", len(rows))
	}
	if pagination.Total != 5 || pagination.TotalPages != 3 {
		t.Fatalf("pagination = %+v, want total 5 pages 3", pagination)
	}

	rows, _, errList = svc.List(context.Background(), ListFilter{Page: 3, Limit: 2})
	if errList != nil {
		t.Fatalf("list page 3: %v", errList)
	}
	if len(rows) != 1 {
		t.Fatalf("page 3 rows = %d, want 1", len(rows))
	}

	// Out-of-range pages are empty but keep their metadata.
	rows, pagination, errList = svc.List(context.Background(), ListFilter{Page: 9, Limit: 2})
	if errList != nil {
		t.Fatalf("list page 9: %v", errList)
	}
	if len(rows) != 0 || pagination.TotalPages != 3 {
		t.Fatalf("page 9: rows = %d pagination = %+v", len(rows), pagination)
	}
}

func TestListEmptyResultHasOnePage(t *testing.T) {
	svc, _ := newTestService(t)

	rows, pagination, errList := svc.List(context.Background(), ListFilter{})
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
	if pagination.Total != 0 || pagination.TotalPages != 1 {
		t.Fatalf("pagination = %+v, want total 0 pages 1", pagination)
	}
}

func TestListSortByUsage(t *testing.T) {
	svc, conn := newTestService(t)
	low := seedVoucher(t, svc, func(in *CreateInput) { in.Code = "LOWUSE" })
	high := seedVoucher(t, svc, func(in *CreateInput) { in.Code = "HIGHUSE" })

	if errSeed := conn.Model(&models.Voucher{}).Where("id = ?", low.ID).
		Update("usage_count", 2).Error; errSeed != nil {
		t.Fatalf("seed low: %v", errSeed)
	}
	if errSeed := conn.Model(&models.Voucher{}).Where("id = ?", high.ID).
		Update("usage_count", 9).Error; errSeed != nil {
		t.Fatalf("seed high: %v", errSeed)
	}

	rows, _, errList := svc.List(context.Background(), ListFilter{Sort: SortUsage})
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(rows) != 2 || rows[0].Code != "HIGHUSE" {
		t.Fatalf("order = %v, want HIGHUSE first", codesOf(rows))
	}
}

func TestListIsActiveFilter(t *testing.T) {
	svc, _ := newTestService(t)
	inactive := false
	seedVoucher(t, svc, func(in *CreateInput) { in.Code = "SWITCHED" })
	seedVoucher(t, svc, func(in *CreateInput) {
		in.Code = "SWITCHEDOFF"
		in.IsActive = &inactive
	})

	active := true
	rows, _, errList := svc.List(context.Background(), ListFilter{IsActive: &active})
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(rows) != 1 || rows[0].Code != "SWITCHED" {
		t.Fatalf("rows = %v, want only SWITCHED", codesOf(rows))
	}
}

func codesOf(rows []models.Voucher) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Code)
	}
	return out
}
