// Package voucher implements the discount voucher engine: runtime status
// resolution, discount calculation, the eligibility pipeline, the redemption
// usage ledger and the admin query surface.
package voucher

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openstorelab/storefront/internal/idempotency"
	"github.com/openstorelab/storefront/internal/models"
)

// Code length bounds enforced on create and update.
const (
	codeMinLen = 3
	codeMaxLen = 32
)

// Service exposes voucher eligibility checks, the redemption ledger and the
// admin CRUD surface. Preview never mutates state; CommitRedemption is the
// only mutator of usage counters.
type Service struct {
	db     *gorm.DB
	tokens idempotency.TokenStore
}

// NewService constructs a voucher Service. tokens may be nil, in which case
// redemption commits run without idempotency protection.
func NewService(db *gorm.DB, tokens idempotency.TokenStore) *Service {
	return &Service{db: db, tokens: tokens}
}

// NormalizeCode uppercases and trims a voucher code. Codes are stored and
// compared in normalized form, making lookups case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// PreviewResult is the successful outcome of an eligibility check.
type PreviewResult struct {
	Voucher        *models.Voucher // The matched voucher.
	RuntimeStatus  string          // Derived status at evaluation time.
	DiscountAmount decimal.Decimal // Discount granted on the subtotal.
}

// Preview checks whether a code may be applied to a subtotal and computes
// the discount. It is read-only and safe to call on every cart
// recalculation. Checks fail fast in a fixed priority order: runtime status
// first, then minimum order value, per-user limit, and finally net benefit.
func (s *Service) Preview(ctx context.Context, code string, subtotal decimal.Decimal, userID *uint64) (*PreviewResult, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, errValidation("missing voucher code")
	}
	if subtotal.LessThanOrEqual(decimal.Zero) {
		return nil, errValidation("subtotal must be positive")
	}

	v, errFind := s.FindByCode(ctx, normalized)
	if errFind != nil {
		return nil, errFind
	}

	now := time.Now().UTC()
	runtimeStatus := ResolveStatus(v, now)
	switch runtimeStatus {
	case models.VoucherStatusDisabled:
		return nil, ErrUnavailable
	case models.VoucherStatusDraft:
		return nil, ErrNotActivated
	case models.VoucherStatusScheduled:
		return nil, ErrNotStarted
	case models.VoucherStatusExpired:
		return nil, ErrExpired
	}

	if subtotal.LessThan(v.MinOrderValue) {
		return nil, errMinOrder(v.MinOrderValue.Sub(subtotal))
	}

	if v.PerUserLimit != nil && userID != nil {
		var usage models.VoucherUsage
		errUsage := s.db.WithContext(ctx).
			Where("voucher_id = ? AND user_id = ?", v.ID, *userID).
			First(&usage).Error
		if errUsage == nil {
			if usage.UseCount >= *v.PerUserLimit {
				return nil, ErrPerUserLimit
			}
		} else if !errors.Is(errUsage, gorm.ErrRecordNotFound) {
			return nil, errUsage
		}
	}

	amount := ComputeDiscount(v, subtotal)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrNoBenefit
	}

	return &PreviewResult{
		Voucher:        v,
		RuntimeStatus:  runtimeStatus,
		DiscountAmount: amount,
	}, nil
}

// CreateInput captures the payload for creating a voucher.
type CreateInput struct {
	Code             string
	Name             string
	Description      string
	DiscountType     string
	DiscountValue    decimal.Decimal
	MaxDiscountValue *decimal.Decimal
	MinOrderValue    decimal.Decimal
	StartDate        *time.Time
	EndDate          *time.Time
	UsageLimit       *int
	PerUserLimit     *int
	Status           string
	IsActive         *bool
	AutoApply        bool
	Tags             []string
	CreatedBy        *uint64
}

// Create validates and persists a new voucher. Duplicate codes are rejected
// as a conflict; the unique index backs the check under concurrency.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Voucher, error) {
	code := NormalizeCode(input.Code)
	if errCode := validateCode(code); errCode != nil {
		return nil, errCode
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errValidation("missing name")
	}
	if errRules := validateRules(input.DiscountType, input.DiscountValue, input.MaxDiscountValue,
		input.MinOrderValue, input.StartDate, input.EndDate, input.UsageLimit, input.PerUserLimit); errRules != nil {
		return nil, errRules
	}
	status := input.Status
	if status == "" {
		status = models.VoucherStatusDraft
	}
	if !validStoredStatus(status) {
		return nil, errValidation("unknown status")
	}

	var exists models.Voucher
	errCheck := s.db.WithContext(ctx).Where("code = ?", code).First(&exists).Error
	if errCheck == nil {
		return nil, ErrCodeTaken
	}
	if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		return nil, errCheck
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	tags, errTags := marshalTags(input.Tags)
	if errTags != nil {
		return nil, errTags
	}

	v := models.Voucher{
		Code:             code,
		Name:             strings.TrimSpace(input.Name),
		Description:      strings.TrimSpace(input.Description),
		DiscountType:     input.DiscountType,
		DiscountValue:    input.DiscountValue,
		MaxDiscountValue: input.MaxDiscountValue,
		MinOrderValue:    input.MinOrderValue,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		UsageLimit:       input.UsageLimit,
		PerUserLimit:     input.PerUserLimit,
		Status:           status,
		IsActive:         isActive,
		AutoApply:        input.AutoApply,
		Tags:             tags,
		CreatedBy:        input.CreatedBy,
	}
	if errCreate := s.db.WithContext(ctx).Create(&v).Error; errCreate != nil {
		if isDuplicateKeyError(errCreate) {
			return nil, ErrCodeTaken
		}
		return nil, errCreate
	}
	return &v, nil
}

// UpdateInput captures optional field changes for a voucher. Usage counters
// are ledger-owned and cannot be updated here.
type UpdateInput struct {
	Code             *string
	Name             *string
	Description      *string
	DiscountType     *string
	DiscountValue    *decimal.Decimal
	MaxDiscountValue *decimal.Decimal
	ClearMaxDiscount bool
	MinOrderValue    *decimal.Decimal
	StartDate        *time.Time
	ClearStartDate   bool
	EndDate          *time.Time
	ClearEndDate     bool
	UsageLimit       *int
	ClearUsageLimit  bool
	PerUserLimit     *int
	ClearPerUser     bool
	Status           *string
	IsActive         *bool
	AutoApply        *bool
	Tags             []string
	UpdatedBy        *uint64
}

// Update applies validated field changes to a voucher located by numeric ID
// or by code.
func (s *Service) Update(ctx context.Context, idOrCode string, input UpdateInput) (*models.Voucher, error) {
	v, errFind := s.findByIDOrCode(ctx, idOrCode)
	if errFind != nil {
		return nil, errFind
	}

	updates := map[string]any{}
	if input.Code != nil {
		code := NormalizeCode(*input.Code)
		if errCode := validateCode(code); errCode != nil {
			return nil, errCode
		}
		if code != v.Code {
			var exists models.Voucher
			errCheck := s.db.WithContext(ctx).Where("code = ?", code).First(&exists).Error
			if errCheck == nil {
				return nil, ErrCodeTaken
			}
			if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
				return nil, errCheck
			}
			updates["code"] = code
		}
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errValidation("name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}

	discountType := v.DiscountType
	if input.DiscountType != nil {
		discountType = *input.DiscountType
		updates["discount_type"] = discountType
	}
	discountValue := v.DiscountValue
	if input.DiscountValue != nil {
		discountValue = *input.DiscountValue
		updates["discount_value"] = discountValue
	}
	maxDiscount := v.MaxDiscountValue
	if input.ClearMaxDiscount {
		maxDiscount = nil
		updates["max_discount_value"] = nil
	} else if input.MaxDiscountValue != nil {
		maxDiscount = input.MaxDiscountValue
		updates["max_discount_value"] = *input.MaxDiscountValue
	}
	minOrder := v.MinOrderValue
	if input.MinOrderValue != nil {
		minOrder = *input.MinOrderValue
		updates["min_order_value"] = minOrder
	}
	startDate := v.StartDate
	if input.ClearStartDate {
		startDate = nil
		updates["start_date"] = nil
	} else if input.StartDate != nil {
		startDate = input.StartDate
		updates["start_date"] = *input.StartDate
	}
	endDate := v.EndDate
	if input.ClearEndDate {
		endDate = nil
		updates["end_date"] = nil
	} else if input.EndDate != nil {
		endDate = input.EndDate
		updates["end_date"] = *input.EndDate
	}
	usageLimit := v.UsageLimit
	if input.ClearUsageLimit {
		usageLimit = nil
		updates["usage_limit"] = nil
	} else if input.UsageLimit != nil {
		usageLimit = input.UsageLimit
		updates["usage_limit"] = *input.UsageLimit
	}
	perUserLimit := v.PerUserLimit
	if input.ClearPerUser {
		perUserLimit = nil
		updates["per_user_limit"] = nil
	} else if input.PerUserLimit != nil {
		perUserLimit = input.PerUserLimit
		updates["per_user_limit"] = *input.PerUserLimit
	}
	if errRules := validateRules(discountType, discountValue, maxDiscount,
		minOrder, startDate, endDate, usageLimit, perUserLimit); errRules != nil {
		return nil, errRules
	}

	if input.Status != nil {
		if !validStoredStatus(*input.Status) {
			return nil, errValidation("unknown status")
		}
		updates["status"] = *input.Status
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.AutoApply != nil {
		updates["auto_apply"] = *input.AutoApply
	}
	if input.Tags != nil {
		tags, errTags := marshalTags(input.Tags)
		if errTags != nil {
			return nil, errTags
		}
		updates["tags"] = tags
	}
	if input.UpdatedBy != nil {
		updates["updated_by"] = *input.UpdatedBy
	}

	if len(updates) == 0 {
		return nil, errValidation("no fields to update")
	}
	updates["updated_at"] = time.Now().UTC()

	if errUpdate := s.db.WithContext(ctx).Model(&models.Voucher{}).
		Where("id = ?", v.ID).Updates(updates).Error; errUpdate != nil {
		if isDuplicateKeyError(errUpdate) {
			return nil, ErrCodeTaken
		}
		return nil, errUpdate
	}
	return s.FindByID(ctx, v.ID)
}

// Remove hard-deletes a voucher and returns the deleted record. The delete
// is irreversible; no audit trail is retained for removed vouchers.
func (s *Service) Remove(ctx context.Context, id uint64) (*models.Voucher, error) {
	v, errFind := s.FindByID(ctx, id)
	if errFind != nil {
		return nil, errFind
	}
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errUsage := tx.Where("voucher_id = ?", id).Delete(&models.VoucherUsage{}).Error; errUsage != nil {
			return errUsage
		}
		return tx.Delete(&models.Voucher{}, id).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return v, nil
}

// FindByID fetches a voucher by primary key.
func (s *Service) FindByID(ctx context.Context, id uint64) (*models.Voucher, error) {
	var v models.Voucher
	if errFind := s.db.WithContext(ctx).First(&v, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errFind
	}
	return &v, nil
}

// FindByCode fetches a voucher by normalized code.
func (s *Service) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var v models.Voucher
	if errFind := s.db.WithContext(ctx).Where("code = ?", NormalizeCode(code)).First(&v).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errFind
	}
	return &v, nil
}

// ListAutoApply returns vouchers flagged for automatic application that are
// usable at the given time, best discount candidates first.
func (s *Service) ListAutoApply(ctx context.Context, now time.Time) ([]models.Voucher, error) {
	var rows []models.Voucher
	errFind := s.db.WithContext(ctx).
		Where("auto_apply = ?", true).
		Where("is_active = ?", true).
		Where("status NOT IN ?", []string{models.VoucherStatusDraft, models.VoucherStatusDisabled}).
		Where("start_date IS NULL OR start_date <= ?", now).
		Where("end_date IS NULL OR end_date >= ?", now).
		Where("usage_limit IS NULL OR usage_count < usage_limit").
		Order("discount_value DESC").
		Find(&rows).Error
	if errFind != nil {
		return nil, errFind
	}
	return rows, nil
}

// findByIDOrCode resolves a voucher locator that may be a numeric ID or a code.
func (s *Service) findByIDOrCode(ctx context.Context, idOrCode string) (*models.Voucher, error) {
	trimmed := strings.TrimSpace(idOrCode)
	if trimmed == "" {
		return nil, errValidation("missing voucher id or code")
	}
	if id, errParse := strconv.ParseUint(trimmed, 10, 64); errParse == nil {
		return s.FindByID(ctx, id)
	}
	return s.FindByCode(ctx, trimmed)
}

// validateCode enforces code length bounds after normalization.
func validateCode(code string) *Error {
	if len(code) < codeMinLen || len(code) > codeMaxLen {
		return errValidation("code must be between 3 and 32 characters")
	}
	return nil
}

// validateRules checks numeric and schedule constraints shared by create and
// update. Percentage values above 100 stay allowed; only non-negativity and
// an absolute ceiling are enforced.
func validateRules(discountType string, discountValue decimal.Decimal, maxDiscount *decimal.Decimal,
	minOrder decimal.Decimal, startDate, endDate *time.Time, usageLimit, perUserLimit *int) *Error {
	if discountType != models.DiscountTypePercentage && discountType != models.DiscountTypeFixed {
		return errValidation("discount_type must be percentage or fixed")
	}
	if discountValue.IsNegative() {
		return errValidation("discount_value cannot be negative")
	}
	if maxDiscount != nil && maxDiscount.IsNegative() {
		return errValidation("max_discount_value cannot be negative")
	}
	if minOrder.IsNegative() {
		return errValidation("min_order_value cannot be negative")
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return errValidation("end_date must be after start_date")
	}
	if usageLimit != nil && *usageLimit < 1 {
		return errValidation("usage_limit must be at least 1")
	}
	if perUserLimit != nil && *perUserLimit < 1 {
		return errValidation("per_user_limit must be at least 1")
	}
	return nil
}

// validStoredStatus reports whether the value is a known administrative status.
func validStoredStatus(status string) bool {
	switch status {
	case models.VoucherStatusDraft, models.VoucherStatusScheduled, models.VoucherStatusActive,
		models.VoucherStatusExpired, models.VoucherStatusDisabled:
		return true
	}
	return false
}

// marshalTags encodes a tag list as a JSON column value.
func marshalTags(tags []string) (datatypes.JSON, error) {
	if tags == nil {
		return nil, nil
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// isDuplicateKeyError detects unique-constraint violations across dialects.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
