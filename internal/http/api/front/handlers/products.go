package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	dbutil "github.com/openstorelab/storefront/internal/db"
	"github.com/openstorelab/storefront/internal/models"
)

// ProductFrontHandler serves the public product catalog.
type ProductFrontHandler struct {
	db *gorm.DB
}

// NewProductFrontHandler constructs a ProductFrontHandler.
func NewProductFrontHandler(db *gorm.DB) *ProductFrontHandler {
	return &ProductFrontHandler{db: db}
}

// catalogQuery defines filters for the public catalog list.
type catalogQuery struct {
	Page   int    `form:"page,default=1"`   // Page number.
	Limit  int    `form:"limit,default=20"` // Page size.
	Search string `form:"search"`           // Substring across name and description.
}

// List returns published products with paging.
func (h *ProductFrontHandler) List(c *gin.Context) {
	var q catalogQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	filtered := func() *gorm.DB {
		base := h.db.WithContext(c.Request.Context()).Model(&models.Product{}).
			Where("is_published = ?", true)
		if search := strings.TrimSpace(q.Search); search != "" {
			pattern := dbutil.NormalizeLikePattern(h.db, "%"+search+"%")
			group := h.db.
				Where(dbutil.CaseInsensitiveLikeExpr(h.db, "name"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(h.db, "description"), pattern)
			base = base.Where(group)
		}
		return base
	}

	var total int64
	if errCount := filtered().Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count products failed"})
		return
	}

	offset := (q.Page - 1) * q.Limit
	var rows []models.Product
	if errFind := filtered().Order("created_at DESC").Offset(offset).Limit(q.Limit).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list products failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, formatCatalogProduct(&row))
	}
	c.JSON(http.StatusOK, gin.H{
		"products": out,
		"total":    total,
		"page":     q.Page,
		"limit":    q.Limit,
	})
}

// Get fetches a single published product by slug.
func (h *ProductFrontHandler) Get(c *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(c.Param("slug")))
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing slug"})
		return
	}
	var product models.Product
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("slug = ? AND is_published = ?", slug, true).
		First(&product).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, formatCatalogProduct(&product))
}

// formatCatalogProduct maps a product into a public response payload.
func formatCatalogProduct(p *models.Product) gin.H {
	return gin.H{
		"id":          p.ID,
		"name":        p.Name,
		"slug":        p.Slug,
		"description": p.Description,
		"price":       p.Price,
		"in_stock":    p.Stock > 0,
		"attributes":  p.Attributes,
	}
}
