package handler

import (
	apppartner "github.com/fenceline/backend/internal/application/partner"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CustomerHandler handles customer account endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *apppartner.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *apppartner.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// CreateCustomerRequest creates a new customer account
type CreateCustomerRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	ContactName string `json:"contact_name" binding:"max=100"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
	Phone       string `json:"phone" binding:"max=50"`
	Address     string `json:"address" binding:"max=500"`
	Notes       string `json:"notes" binding:"max=1000"`
}

// UpdateCustomerRequest applies a partial update; nil keeps current
type UpdateCustomerRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	ContactName *string `json:"contact_name" binding:"omitempty,max=100"`
	Email       *string `json:"email" binding:"omitempty,email,max=200"`
	Phone       *string `json:"phone" binding:"omitempty,max=50"`
	Address     *string `json:"address" binding:"omitempty,max=500"`
	Notes       *string `json:"notes" binding:"omitempty,max=1000"`
}

// SetMarkupRuleRequest sets the markup for a category ("*" = wildcard)
type SetMarkupRuleRequest struct {
	Category      string  `json:"category" binding:"required,min=1,max=100"`
	MarkupPercent float64 `json:"markup_percent" binding:"min=0"`
}

// AdjustCreditRequest applies a signed manual credit adjustment
type AdjustCreditRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Notes  string  `json:"notes" binding:"max=500"`
}

// Create opens a new customer account
func (h *CustomerHandler) Create(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), apppartner.CreateCustomerRequest{
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Notes:       req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, NewCustomerResponse(customer))
}

// List returns a filtered page of customers
func (h *CustomerHandler) List(c *gin.Context) {
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
	if activeOnly := c.Query("active_only"); activeOnly == "true" {
		filter.Filters["is_active"] = true
	}

	page, err := h.customerService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]CustomerResponse, 0, len(page.Items))
	for _, customer := range page.Items {
		out = append(out, NewCustomerResponse(customer))
	}
	h.SuccessWithMeta(c, out, page.Total, page.Page, page.PageSize)
}

// GetByID returns a single customer
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	customer, err := h.customerService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewCustomerResponse(customer))
}

// Update applies a partial update to a customer
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), id, apppartner.UpdateCustomerRequest{
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Notes:       req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewCustomerResponse(customer))
}

// Delete removes a customer record
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.customerService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Activate restores a deactivated customer
func (h *CustomerHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate hides a customer from active listings
func (h *CustomerHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *CustomerHandler) setActive(c *gin.Context, active bool) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	customer, err := h.customerService.SetActive(c.Request.Context(), id, active)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewCustomerResponse(customer))
}

// SetMarkupRule adds or replaces a markup rule for a category
func (h *CustomerHandler) SetMarkupRule(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req SetMarkupRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customerService.SetMarkupRule(c.Request.Context(), id, req.Category, decimal.NewFromFloat(req.MarkupPercent))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewCustomerResponse(customer))
}

// AdjustCredit applies a signed manual adjustment to the credit balance
func (h *CustomerHandler) AdjustCredit(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req AdjustCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customerService.AdjustCredit(c.Request.Context(), id, decimal.NewFromFloat(req.Amount), req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewCustomerResponse(customer))
}

// CreditLedger returns the customer's credit transactions, newest first
func (h *CustomerHandler) CreditLedger(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	ledger, err := h.customerService.CreditLedger(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewCreditTransactionResponses(ledger))
}
