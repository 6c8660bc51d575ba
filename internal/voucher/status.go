package voucher

import (
	"time"

	"github.com/openstorelab/storefront/internal/models"
)

// ResolveStatus derives the runtime status of a voucher at the given time.
// It is the single source of truth for "can this voucher be used right now".
//
// Checks run in strict priority order and the first match wins:
// disabled, draft, scheduled, expired by schedule, expired by usage, active.
// A row the ledger auto-expired carries both is_active=false and a stored
// expired status; that combination must keep resolving as expired, so the
// disabled arm only claims inactive rows that are not stored as expired.
func ResolveStatus(v *models.Voucher, now time.Time) string {
	switch {
	case v.Status == models.VoucherStatusDisabled,
		!v.IsActive && v.Status != models.VoucherStatusExpired:
		return models.VoucherStatusDisabled
	case v.Status == models.VoucherStatusDraft:
		return models.VoucherStatusDraft
	case v.StartDate != nil && now.Before(*v.StartDate):
		return models.VoucherStatusScheduled
	case v.EndDate != nil && now.After(*v.EndDate):
		return models.VoucherStatusExpired
	case v.UsageLimit != nil && v.UsageCount >= *v.UsageLimit:
		return models.VoucherStatusExpired
	case !v.IsActive:
		// Only reachable for stored-expired rows the first arm let through.
		return models.VoucherStatusExpired
	default:
		return models.VoucherStatusActive
	}
}
