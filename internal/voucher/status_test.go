package voucher

import (
	"testing"
	"time"

	"github.com/openstorelab/storefront/internal/models"
)

func TestResolveStatusPriorityOrder(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)
	limit := 5

	tests := []struct {
		name string
		v    models.Voucher
		want string
	}{
		{
			name: "inactive switch wins over everything",
			v: models.Voucher{
				IsActive: false, Status: models.VoucherStatusActive,
				StartDate: &future, EndDate: &past,
			},
			want: models.VoucherStatusDisabled,
		},
		{
			name: "disabled status wins over schedule",
			v: models.Voucher{
				IsActive: true, Status: models.VoucherStatusDisabled,
				StartDate: &future,
			},
			want: models.VoucherStatusDisabled,
		},
		{
			name: "draft wins over schedule",
			v: models.Voucher{
				IsActive: true, Status: models.VoucherStatusDraft,
				StartDate: &future,
			},
			want: models.VoucherStatusDraft,
		},
		{
			name: "scheduled before window opens",
			v: models.Voucher{
				IsActive: true, Status: models.VoucherStatusActive,
				StartDate: &future,
			},
			want: models.VoucherStatusScheduled,
		},
		{
			name: "scheduled wins over closed window",
			v: models.Voucher{
				IsActive: true, Status: models.VoucherStatusActive,
				StartDate: &future, EndDate: &past,
			},
			want: models.VoucherStatusScheduled,
		},
		{
			name: "expired after window closes",
			v: models.Voucher{
				IsActive: true, Status: models.VoucherStatusActive,
				StartDate: &past, EndDate: &past,
			},
			want: models.VoucherStatusExpired,
		},
		{
			name: "expired by exhausted usage limit",
			v: models.Voucher{
				IsActive: true, Status: models.VoucherStatusActive,
				UsageLimit: &limit, UsageCount: 5,
			},
			want: models.VoucherStatusExpired,
		},
		{
			name: "ledger auto-expiry reports expired, not disabled",
			v: models.Voucher{
				IsActive: false, Status: models.VoucherStatusExpired,
				UsageLimit: &limit, UsageCount: 5,
			},
			want: models.VoucherStatusExpired,
		},
		{
			name: "stored expired with switch off reports expired",
			v: models.Voucher{
				IsActive: false, Status: models.VoucherStatusExpired,
			},
			want: models.VoucherStatusExpired,
		},
		{
			name: "active when under usage limit",
			v: models.Voucher{
				IsActive: true, Status: models.VoucherStatusActive,
				UsageLimit: &limit, UsageCount: 4,
			},
			want: models.VoucherStatusActive,
		},
		{
			name: "active without any schedule or limit",
			v: models.Voucher{
				IsActive: true, Status: models.VoucherStatusActive,
			},
			want: models.VoucherStatusActive,
		},
		{
			name: "active on window boundaries",
			v: models.Voucher{
				IsActive: true, Status: models.VoucherStatusActive,
				StartDate: &now, EndDate: &now,
			},
			want: models.VoucherStatusActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveStatus(&tt.v, now); got != tt.want {
				t.Fatalf("ResolveStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveStatusIsDeterministic(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)
	limit := 10
	v := models.Voucher{
		IsActive: true, Status: models.VoucherStatusActive,
		StartDate: &start, EndDate: &end,
		UsageLimit: &limit, UsageCount: 3,
	}

	first := ResolveStatus(&v, now)
	for i := 0; i < 100; i++ {
		if got := ResolveStatus(&v, now); got != first {
			t.Fatalf("run %d: ResolveStatus = %q, want %q", i, got, first)
		}
	}
}
