package voucher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openstorelab/storefront/internal/models"
)

func TestCommitRedemptionIncrementsCounters(t *testing.T) {
	svc, conn := newTestService(t)
	v := seedVoucher(t, svc, nil)
	userID := uint64(7)

	if errCommit := svc.CommitRedemption(context.Background(), v.ID, &userID, ""); errCommit != nil {
		t.Fatalf("commit: %v", errCommit)
	}

	var stored models.Voucher
	if errFind := conn.First(&stored, v.ID).Error; errFind != nil {
		t.Fatalf("reload voucher: %v", errFind)
	}
	if stored.UsageCount != 1 {
		t.Fatalf("usage count = %d, want 1", stored.UsageCount)
	}
	if stored.LastUsedAt == nil {
		t.Fatalf("last used at not set")
	}
	if stored.Status != models.VoucherStatusActive || !stored.IsActive {
		t.Fatalf("voucher flipped without a usage limit: status=%q active=%v", stored.Status, stored.IsActive)
	}

	var usage models.VoucherUsage
	if errUsage := conn.Where("voucher_id = ? AND user_id = ?", v.ID, userID).First(&usage).Error; errUsage != nil {
		t.Fatalf("ledger row: %v", errUsage)
	}
	if usage.UseCount != 1 {
		t.Fatalf("ledger use count = %d, want 1", usage.UseCount)
	}
}

func TestCommitRedemptionUnknownVoucher(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.CommitRedemption(context.Background(), 999, nil, ""); !IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestCommitRedemptionGlobalLimit(t *testing.T) {
	svc, conn := newTestService(t)
	limit := 3
	v := seedVoucher(t, svc, func(in *CreateInput) {
		in.UsageLimit = &limit
	})

	const attempts = 10
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := uint64(100 + i)
			errs[i] = svc.CommitRedemption(context.Background(), v.ID, &userID, "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, errCommit := range errs {
		switch errCommit {
		case nil:
			succeeded++
		case ErrExpired:
		default:
			t.Fatalf("attempt %d: unexpected error %v", i, errCommit)
		}
	}
	if succeeded != limit {
		t.Fatalf("%d commits succeeded, want exactly %d", succeeded, limit)
	}

	var stored models.Voucher
	if errFind := conn.First(&stored, v.ID).Error; errFind != nil {
		t.Fatalf("reload voucher: %v", errFind)
	}
	if stored.UsageCount != limit {
		t.Fatalf("usage count = %d, want %d", stored.UsageCount, limit)
	}
	// The exhausting commit must flip the voucher in the same statement.
	if stored.Status != models.VoucherStatusExpired || stored.IsActive {
		t.Fatalf("exhausted voucher: status=%q active=%v, want expired/false", stored.Status, stored.IsActive)
	}

	// Further commits keep failing and the counter never passes the limit.
	userID := uint64(999)
	if err := svc.CommitRedemption(context.Background(), v.ID, &userID, ""); err != ErrExpired {
		t.Fatalf("post-exhaustion commit: err = %v, want %v", err, ErrExpired)
	}
}

func TestExhaustedVoucherReportsExpired(t *testing.T) {
	svc, conn := newTestService(t)
	limit := 1
	v := seedVoucher(t, svc, func(in *CreateInput) {
		in.UsageLimit = &limit
	})

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := uint64(200 + i)
			errs[i] = svc.CommitRedemption(context.Background(), v.ID, &userID, "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, errCommit := range errs {
		if errCommit == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d commits succeeded, want exactly 1", succeeded)
	}

	var stored models.Voucher
	if errFind := conn.First(&stored, v.ID).Error; errFind != nil {
		t.Fatalf("reload voucher: %v", errFind)
	}
	if stored.UsageCount != 1 {
		t.Fatalf("usage count = %d, want 1", stored.UsageCount)
	}
	// The auto-expiry flip switches the voucher off, but it must keep
	// reporting expired rather than disabled.
	if got := ResolveStatus(&stored, time.Now().UTC()); got != models.VoucherStatusExpired {
		t.Fatalf("runtime status = %q, want %q", got, models.VoucherStatusExpired)
	}
	if _, errPreview := svc.Preview(context.Background(), v.Code, decimal.NewFromInt(100), nil); errPreview != ErrExpired {
		t.Fatalf("preview err = %v, want %v", errPreview, ErrExpired)
	}
}

func TestCommitRedemptionPerUserLimit(t *testing.T) {
	svc, conn := newTestService(t)
	perUser := 1
	v := seedVoucher(t, svc, func(in *CreateInput) {
		in.PerUserLimit = &perUser
	})
	userID := uint64(7)

	if errFirst := svc.CommitRedemption(context.Background(), v.ID, &userID, ""); errFirst != nil {
		t.Fatalf("first commit: %v", errFirst)
	}
	if errSecond := svc.CommitRedemption(context.Background(), v.ID, &userID, ""); errSecond != ErrPerUserLimit {
		t.Fatalf("second commit: err = %v, want %v", errSecond, ErrPerUserLimit)
	}

	// The rejected commit must not move the global counter either.
	var stored models.Voucher
	if errFind := conn.First(&stored, v.ID).Error; errFind != nil {
		t.Fatalf("reload voucher: %v", errFind)
	}
	if stored.UsageCount != 1 {
		t.Fatalf("usage count = %d, want 1", stored.UsageCount)
	}

	// Another user still redeems normally.
	other := uint64(8)
	if errOther := svc.CommitRedemption(context.Background(), v.ID, &other, ""); errOther != nil {
		t.Fatalf("other user: %v", errOther)
	}
}

func TestCommitRedemptionTokenIdempotency(t *testing.T) {
	svc, conn := newTestService(t)
	v := seedVoucher(t, svc, nil)
	userID := uint64(7)
	token := "order-abc-123"

	if errFirst := svc.CommitRedemption(context.Background(), v.ID, &userID, token); errFirst != nil {
		t.Fatalf("first commit: %v", errFirst)
	}
	// A retry with the same token is a no-op, not a double count.
	if errRetry := svc.CommitRedemption(context.Background(), v.ID, &userID, token); errRetry != nil {
		t.Fatalf("retried commit: %v", errRetry)
	}

	var stored models.Voucher
	if errFind := conn.First(&stored, v.ID).Error; errFind != nil {
		t.Fatalf("reload voucher: %v", errFind)
	}
	if stored.UsageCount != 1 {
		t.Fatalf("usage count = %d after retry, want 1", stored.UsageCount)
	}
}

func TestCommitRedemptionReleasesTokenOnFailure(t *testing.T) {
	svc, _ := newTestService(t)
	limit := 1
	v := seedVoucher(t, svc, func(in *CreateInput) {
		in.UsageLimit = &limit
	})

	exhauster := uint64(1)
	if errFill := svc.CommitRedemption(context.Background(), v.ID, &exhauster, ""); errFill != nil {
		t.Fatalf("exhaust voucher: %v", errFill)
	}

	userID := uint64(2)
	token := "order-def-456"
	if errFail := svc.CommitRedemption(context.Background(), v.ID, &userID, token); errFail != ErrExpired {
		t.Fatalf("err = %v, want %v", errFail, ErrExpired)
	}
	// The failed commit released its token, so a retry reports the real
	// failure instead of silently succeeding as a duplicate.
	if errRetry := svc.CommitRedemption(context.Background(), v.ID, &userID, token); errRetry != ErrExpired {
		t.Fatalf("retry err = %v, want %v", errRetry, ErrExpired)
	}
}
