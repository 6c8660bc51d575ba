package voucher

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openstorelab/storefront/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeDiscountPercentage(t *testing.T) {
	cap30 := dec("30")
	tests := []struct {
		name     string
		v        models.Voucher
		subtotal string
		want     string
	}{
		{
			name:     "twenty percent of 250",
			v:        models.Voucher{DiscountType: models.DiscountTypePercentage, DiscountValue: dec("20")},
			subtotal: "250",
			want:     "50",
		},
		{
			name: "cap limits the percentage result",
			v: models.Voucher{
				DiscountType: models.DiscountTypePercentage, DiscountValue: dec("20"),
				MaxDiscountValue: &cap30,
			},
			subtotal: "250",
			want:     "30",
		},
		{
			name:     "fractional result rounds to whole units",
			v:        models.Voucher{DiscountType: models.DiscountTypePercentage, DiscountValue: dec("10")},
			subtotal: "24.99",
			want:     "2",
		},
		{
			name:     "over one hundred percent clamps to subtotal",
			v:        models.Voucher{DiscountType: models.DiscountTypePercentage, DiscountValue: dec("150")},
			subtotal: "80",
			want:     "80",
		},
		{
			name:     "full discount on fractional subtotal cannot overshoot",
			v:        models.Voucher{DiscountType: models.DiscountTypePercentage, DiscountValue: dec("100")},
			subtotal: "0.60",
			want:     "0",
		},
		{
			name:     "zero percent gives nothing",
			v:        models.Voucher{DiscountType: models.DiscountTypePercentage, DiscountValue: dec("0")},
			subtotal: "100",
			want:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(&tt.v, dec(tt.subtotal))
			if !got.Equal(dec(tt.want)) {
				t.Fatalf("ComputeDiscount = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeDiscountFixed(t *testing.T) {
	tests := []struct {
		name     string
		v        models.Voucher
		subtotal string
		want     string
	}{
		{
			name:     "fixed amount below subtotal",
			v:        models.Voucher{DiscountType: models.DiscountTypeFixed, DiscountValue: dec("25")},
			subtotal: "250",
			want:     "25",
		},
		{
			name:     "fixed amount clamps to subtotal",
			v:        models.Voucher{DiscountType: models.DiscountTypeFixed, DiscountValue: dec("100")},
			subtotal: "80",
			want:     "80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(&tt.v, dec(tt.subtotal))
			if !got.Equal(dec(tt.want)) {
				t.Fatalf("ComputeDiscount = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeDiscountBounds(t *testing.T) {
	v := models.Voucher{DiscountType: models.DiscountTypeFixed, DiscountValue: dec("10")}

	if got := ComputeDiscount(&v, decimal.Zero); !got.IsZero() {
		t.Fatalf("zero subtotal: ComputeDiscount = %s, want 0", got)
	}
	if got := ComputeDiscount(&v, dec("-5")); !got.IsZero() {
		t.Fatalf("negative subtotal: ComputeDiscount = %s, want 0", got)
	}

	unknown := models.Voucher{DiscountType: "bogus", DiscountValue: dec("10")}
	if got := ComputeDiscount(&unknown, dec("100")); !got.IsZero() {
		t.Fatalf("unknown type: ComputeDiscount = %s, want 0", got)
	}
}
