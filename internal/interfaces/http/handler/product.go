package handler

import (
	appcatalog "github.com/fenceline/backend/internal/application/catalog"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	BaseHandler
	productService *appcatalog.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *appcatalog.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// CreateProductRequest adds a product to the catalog
type CreateProductRequest struct {
	Name          string  `json:"name" binding:"required,min=1,max=200"`
	SKU           string  `json:"sku" binding:"max=50"`
	Category      string  `json:"category" binding:"max=100"`
	Unit          string  `json:"unit" binding:"max=20"`
	Price         float64 `json:"price" binding:"min=0"`
	Cost          float64 `json:"cost" binding:"min=0"`
	MarkupPercent float64 `json:"markup_percent" binding:"min=0"`
	VendorID      *string `json:"vendor_id" binding:"omitempty,uuid"`
}

// UpdateProductRequest applies a partial update; nil keeps current
type UpdateProductRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=200"`
	SKU      *string `json:"sku" binding:"omitempty,max=50"`
	Category *string `json:"category" binding:"omitempty,max=100"`
	Unit     *string `json:"unit" binding:"omitempty,max=20"`
	VendorID *string `json:"vendor_id" binding:"omitempty,uuid"`
	IsActive *bool   `json:"is_active"`
}

// UpdatePricingRequest replaces price, cost, and markup together
type UpdatePricingRequest struct {
	Price         float64 `json:"price" binding:"min=0"`
	Cost          float64 `json:"cost" binding:"min=0"`
	MarkupPercent float64 `json:"markup_percent" binding:"min=0"`
}

// Create adds a product to the catalog
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := appcatalog.CreateProductRequest{
		Name:          req.Name,
		SKU:           req.SKU,
		Category:      req.Category,
		Unit:          req.Unit,
		Price:         decimal.NewFromFloat(req.Price),
		Cost:          decimal.NewFromFloat(req.Cost),
		MarkupPercent: decimal.NewFromFloat(req.MarkupPercent),
	}
	if req.VendorID != nil {
		vendorID, err := uuid.Parse(*req.VendorID)
		if err != nil {
			h.BadRequest(c, "Invalid vendor ID")
			return
		}
		appReq.VendorID = &vendorID
	}

	product, err := h.productService.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, NewProductResponse(product))
}

// List returns a filtered page of products
func (h *ProductHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
		Filters:  map[string]interface{}{},
	}
	if category := c.Query("category"); category != "" {
		filter.Filters["category"] = category
	}
	if activeOnly := c.Query("active_only"); activeOnly == "true" {
		filter.Filters["is_active"] = true
	}

	page, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]ProductResponse, 0, len(page.Items))
	for _, product := range page.Items {
		out = append(out, NewProductResponse(product))
	}
	h.SuccessWithMeta(c, out, page.Total, page.Page, page.PageSize)
}

// GetByID returns a single product
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewProductResponse(product))
}

// Update applies a partial update to a product's descriptive fields
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := appcatalog.UpdateProductRequest{
		Name:     req.Name,
		SKU:      req.SKU,
		Category: req.Category,
		Unit:     req.Unit,
		IsActive: req.IsActive,
	}
	if req.VendorID != nil {
		vendorID, err := uuid.Parse(*req.VendorID)
		if err != nil {
			h.BadRequest(c, "Invalid vendor ID")
			return
		}
		appReq.VendorID = &vendorID
	}

	product, err := h.productService.Update(c.Request.Context(), id, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewProductResponse(product))
}

// UpdatePricing replaces the product's pricing fields together
func (h *ProductHandler) UpdatePricing(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req UpdatePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.productService.UpdatePricing(
		c.Request.Context(),
		id,
		decimal.NewFromFloat(req.Price),
		decimal.NewFromFloat(req.Cost),
		decimal.NewFromFloat(req.MarkupPercent),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewProductResponse(product))
}

// Delete removes a product from the catalog
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
