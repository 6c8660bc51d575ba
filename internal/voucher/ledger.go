package voucher

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openstorelab/storefront/internal/models"
)

// redemptionTokenTTL bounds how long a redemption token blocks re-commits.
// The conditional increment remains the hard invariant; the token only
// protects retrying callers from double-counting.
const redemptionTokenTTL = 24 * time.Hour

// CommitRedemption consumes one use of a voucher after a transaction
// succeeded. It never reads counters into memory: the global counter moves
// through a single conditional UPDATE that also flips the voucher to
// expired/inactive in the same statement when the limit is reached, and the
// per-user ledger moves through a conditional upsert-increment. Concurrent
// commits against the same voucher serialize on the row; commits against
// different vouchers are independent.
//
// token is an optional idempotency token. Without one, the caller must not
// retry a commit whose outcome is unknown.
func (s *Service) CommitRedemption(ctx context.Context, voucherID uint64, userID *uint64, token string) error {
	if token != "" && s.tokens != nil {
		claimed, errClaim := s.tokens.Claim(ctx, token, redemptionTokenTTL)
		if errClaim != nil {
			return errClaim
		}
		if !claimed {
			// Already counted by a previous attempt.
			return nil
		}
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.Voucher
		if errFind := tx.Select("id", "usage_limit", "per_user_limit").
			First(&v, voucherID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		now := time.Now().UTC()
		if userID != nil {
			if errUser := incrementUserUsage(tx, voucherID, *userID, v.PerUserLimit, now); errUser != nil {
				return errUser
			}
		}
		return incrementGlobalUsage(tx, voucherID, now)
	})

	if errTx != nil && token != "" && s.tokens != nil {
		// Free the token so the caller may retry a failed commit.
		_ = s.tokens.Release(ctx, token)
	}
	return errTx
}

// incrementGlobalUsage advances the global counter only while under the
// limit, and expires the voucher in the same statement once the limit is
// reached. Zero affected rows means the limit was already exhausted.
func incrementGlobalUsage(tx *gorm.DB, voucherID uint64, now time.Time) error {
	res := tx.Model(&models.Voucher{}).
		Where("id = ?", voucherID).
		Where("usage_limit IS NULL OR usage_count < usage_limit").
		Updates(map[string]any{
			"usage_count":  gorm.Expr("usage_count + 1"),
			"last_used_at": now,
			"updated_at":   now,
			"status": gorm.Expr(
				"CASE WHEN usage_limit IS NOT NULL AND usage_count + 1 >= usage_limit THEN ? ELSE status END",
				models.VoucherStatusExpired),
			"is_active": gorm.Expr(
				"CASE WHEN usage_limit IS NOT NULL AND usage_count + 1 >= usage_limit THEN ? ELSE is_active END",
				false),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrExpired
	}
	return nil
}

// incrementUserUsage upserts the caller's ledger row. When a per-user limit
// is set, the conflict update carries a WHERE guard so the increment only
// lands while under the cap; zero affected rows means the cap was hit.
func incrementUserUsage(tx *gorm.DB, voucherID, userID uint64, perUserLimit *int, now time.Time) error {
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "voucher_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"use_count":    gorm.Expr("voucher_usages.use_count + 1"),
			"last_used_at": now,
		}),
	}
	if perUserLimit != nil {
		onConflict.Where = clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "voucher_usages.use_count < ?", Vars: []any{*perUserLimit}},
		}}
	}

	res := tx.Clauses(onConflict).Create(&models.VoucherUsage{
		VoucherID:  voucherID,
		UserID:     userID,
		UseCount:   1,
		LastUsedAt: now,
	})
	if res.Error != nil {
		return res.Error
	}
	if perUserLimit != nil && res.RowsAffected == 0 {
		return ErrPerUserLimit
	}
	return nil
}
