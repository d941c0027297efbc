package handler

import (
	apppartner "github.com/fenceline/backend/internal/application/partner"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// VendorHandler handles supplier endpoints
type VendorHandler struct {
	BaseHandler
	vendorService *apppartner.VendorService
}

// NewVendorHandler creates a new VendorHandler
func NewVendorHandler(vendorService *apppartner.VendorService) *VendorHandler {
	return &VendorHandler{vendorService: vendorService}
}

// CreateVendorRequest creates a new vendor
type CreateVendorRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	ContactName string `json:"contact_name" binding:"max=100"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
	Phone       string `json:"phone" binding:"max=50"`
	Notes       string `json:"notes" binding:"max=1000"`
}

// UpdateVendorRequest applies a partial update; nil keeps current
type UpdateVendorRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	ContactName *string `json:"contact_name" binding:"omitempty,max=100"`
	Email       *string `json:"email" binding:"omitempty,email,max=200"`
	Phone       *string `json:"phone" binding:"omitempty,max=50"`
	Notes       *string `json:"notes" binding:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active"`
}

// Create adds a vendor to the supplier list
func (h *VendorHandler) Create(c *gin.Context) {
	var req CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := h.vendorService.Create(c.Request.Context(), apppartner.CreateVendorRequest{
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Notes:       req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, NewVendorResponse(vendor))
}

// List returns a filtered page of vendors
func (h *VendorHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.vendorService.List(c.Request.Context(), shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]VendorResponse, 0, len(page.Items))
	for _, vendor := range page.Items {
		out = append(out, NewVendorResponse(vendor))
	}
	h.SuccessWithMeta(c, out, page.Total, page.Page, page.PageSize)
}

// GetByID returns a single vendor
func (h *VendorHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	vendor, err := h.vendorService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewVendorResponse(vendor))
}

// Update applies a partial update to a vendor
func (h *VendorHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req UpdateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := h.vendorService.Update(c.Request.Context(), id, apppartner.UpdateVendorRequest{
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Notes:       req.Notes,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewVendorResponse(vendor))
}

// Delete removes a vendor record
func (h *VendorHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.vendorService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
