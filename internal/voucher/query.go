package voucher

import (
	"context"
	"time"

	"gorm.io/gorm"

	dbutil "github.com/openstorelab/storefront/internal/db"
	"github.com/openstorelab/storefront/internal/models"
)

// Sort modes accepted by List.
const (
	// SortDefault orders by creation time, newest first.
	SortDefault = ""
	// SortUsage orders by redemption count, then recency of updates.
	SortUsage = "usage"
)

// ListFilter selects and pages vouchers for the admin list view.
type ListFilter struct {
	Search   string // Case-insensitive substring across code, name, description.
	Status   string // Runtime-flavoured status filter, empty for all.
	IsActive *bool  // Administrative switch filter.
	Page     int    // 1-based page number.
	Limit    int    // Page size.
	Sort     string // SortDefault or SortUsage.
}

// Pagination describes an offset-paged result set.
type Pagination struct {
	Total      int64 `json:"total"`       // Matching rows.
	Page       int   `json:"page"`        // Current page.
	Limit      int   `json:"limit"`       // Page size.
	TotalPages int   `json:"total_pages"` // ceil(total/limit), at least 1.
}

// List returns vouchers matching the filter plus pagination metadata.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.Voucher, *Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	now := time.Now().UTC()

	var total int64
	countQ := s.applyListFilter(s.db.WithContext(ctx).Model(&models.Voucher{}), filter, now)
	if errCount := countQ.Count(&total).Error; errCount != nil {
		return nil, nil, errCount
	}

	q := s.applyListFilter(s.db.WithContext(ctx).Model(&models.Voucher{}), filter, now)
	switch filter.Sort {
	case SortUsage:
		q = q.Order("usage_count DESC").Order("updated_at DESC")
	default:
		q = q.Order("created_at DESC")
	}

	offset := (filter.Page - 1) * filter.Limit
	var rows []models.Voucher
	if errFind := q.Offset(offset).Limit(filter.Limit).Find(&rows).Error; errFind != nil {
		return nil, nil, errFind
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	if totalPages < 1 {
		totalPages = 1
	}
	return rows, &Pagination{
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// applyListFilter composes the filter as explicit predicate groups. Each
// OR-bearing group is attached through its own Where call so groups always
// combine with AND; groups are never merged into one condition map where a
// later OR clause could overwrite an earlier one.
func (s *Service) applyListFilter(q *gorm.DB, filter ListFilter, now time.Time) *gorm.DB {
	if filter.Search != "" {
		pattern := dbutil.NormalizeLikePattern(s.db, "%"+filter.Search+"%")
		searchGroup := s.db.
			Where(dbutil.CaseInsensitiveLikeExpr(s.db, "code"), pattern).
			Or(dbutil.CaseInsensitiveLikeExpr(s.db, "name"), pattern).
			Or(dbutil.CaseInsensitiveLikeExpr(s.db, "description"), pattern)
		q = q.Where(searchGroup)
	}

	switch filter.Status {
	case models.VoucherStatusActive:
		q = q.Where("status IN ?", []string{models.VoucherStatusActive, models.VoucherStatusScheduled}).
			Where("is_active = ?", true)
	case models.VoucherStatusExpired:
		expiredGroup := s.db.
			Where("status = ?", models.VoucherStatusExpired).
			Or("end_date IS NOT NULL AND end_date < ?", now).
			Or("usage_limit IS NOT NULL AND usage_count >= usage_limit")
		q = q.Where(expiredGroup)
	case models.VoucherStatusDraft, models.VoucherStatusDisabled:
		q = q.Where("status = ?", filter.Status)
	}

	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	return q
}
