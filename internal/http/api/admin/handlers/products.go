package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dbutil "github.com/openstorelab/storefront/internal/db"
	"github.com/openstorelab/storefront/internal/models"
)

// ProductHandler handles admin operations for catalog products.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// createProductRequest captures the payload for creating a product.
type createProductRequest struct {
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Attributes  datatypes.JSON  `json:"attributes"`
	IsPublished *bool           `json:"is_published"`
}

// Create validates input and persists a new product.
func (h *ProductHandler) Create(c *gin.Context) {
	var body createProductRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	slug := strings.ToLower(strings.TrimSpace(body.Slug))
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing slug"})
		return
	}
	if body.Price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price cannot be negative"})
		return
	}
	if body.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stock cannot be negative"})
		return
	}

	var exists models.Product
	if errCheck := h.db.WithContext(c.Request.Context()).Where("slug = ?", slug).First(&exists).Error; errCheck == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "slug already exists"})
		return
	} else if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	isPublished := false
	if body.IsPublished != nil {
		isPublished = *body.IsPublished
	}
	product := models.Product{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(body.Description),
		Price:       body.Price,
		Stock:       body.Stock,
		Attributes:  body.Attributes,
		IsPublished: isPublished,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&product).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create product failed"})
		return
	}
	c.JSON(http.StatusCreated, formatProduct(&product))
}

// productListQuery defines filters for the product list view.
type productListQuery struct {
	Page      int    `form:"page,default=1"`   // Page number.
	Limit     int    `form:"limit,default=20"` // Page size.
	Search    string `form:"search"`           // Substring across name and slug.
	Published string `form:"published"`        // "true" or "false", empty for all.
}

// List returns products filtered by query parameters.
func (h *ProductHandler) List(c *gin.Context) {
	var q productListQuery
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
		base := h.db.WithContext(c.Request.Context()).Model(&models.Product{})
		if search := strings.TrimSpace(q.Search); search != "" {
			pattern := dbutil.NormalizeLikePattern(h.db, "%"+search+"%")
			group := h.db.
				Where(dbutil.CaseInsensitiveLikeExpr(h.db, "name"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(h.db, "slug"), pattern)
			base = base.Where(group)
		}
		switch strings.TrimSpace(q.Published) {
		case "true", "1":
			base = base.Where("is_published = ?", true)
		case "false", "0":
			base = base.Where("is_published = ?", false)
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
		out = append(out, formatProduct(&row))
	}
	c.JSON(http.StatusOK, gin.H{
		"products": out,
		"total":    total,
		"page":     q.Page,
		"limit":    q.Limit,
	})
}

// Get fetches a single product by ID.
func (h *ProductHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var product models.Product
	if errFind := h.db.WithContext(c.Request.Context()).First(&product, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, formatProduct(&product))
}

// updateProductRequest captures optional fields for product updates.
type updateProductRequest struct {
	Name        *string          `json:"name"`
	Slug        *string          `json:"slug"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Attributes  datatypes.JSON   `json:"attributes"`
	IsPublished *bool            `json:"is_published"`
}

// Update applies validated field changes to a product.
func (h *ProductHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var product models.Product
	if errFind := h.db.WithContext(c.Request.Context()).First(&product, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var body updateProductRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		updates["name"] = name
	}
	if body.Slug != nil {
		slug := strings.ToLower(strings.TrimSpace(*body.Slug))
		if slug == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "slug cannot be empty"})
			return
		}
		updates["slug"] = slug
	}
	if body.Description != nil {
		updates["description"] = strings.TrimSpace(*body.Description)
	}
	if body.Price != nil {
		if body.Price.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price cannot be negative"})
			return
		}
		updates["price"] = *body.Price
	}
	if body.Stock != nil {
		if *body.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock cannot be negative"})
			return
		}
		updates["stock"] = *body.Stock
	}
	if body.Attributes != nil {
		updates["attributes"] = body.Attributes
	}
	if body.IsPublished != nil {
		updates["is_published"] = *body.IsPublished
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}
	updates["updated_at"] = time.Now().UTC()

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Product{}).
		Where("id = ?", id).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete removes a product record by ID.
func (h *ProductHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.Product{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// formatProduct maps a product model into a response payload.
func formatProduct(p *models.Product) gin.H {
	return gin.H{
		"id":           p.ID,
		"name":         p.Name,
		"slug":         p.Slug,
		"description":  p.Description,
		"price":        p.Price,
		"stock":        p.Stock,
		"attributes":   p.Attributes,
		"is_published": p.IsPublished,
		"created_at":   p.CreatedAt,
		"updated_at":   p.UpdatedAt,
	}
}
