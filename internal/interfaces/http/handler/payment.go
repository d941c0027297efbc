package handler

import (
	"time"

	appbilling "github.com/fenceline/backend/internal/application/billing"
	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles single and bulk payment endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *appbilling.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *appbilling.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// ApplyPaymentRequest records one payment against one document
type ApplyPaymentRequest struct {
	Amount    float64    `json:"amount" binding:"required,gt=0"`
	Date      *time.Time `json:"date"`
	Method    string     `json:"method" binding:"required,oneof=CASH CHECK CREDIT_CARD DEBIT_CARD BANK_TRANSFER ACCOUNT_CREDIT OTHER"`
	Reference string     `json:"reference" binding:"max=100"`
	Notes     string     `json:"notes" binding:"max=500"`
}

// BulkPaymentRequest spreads one customer payment across invoices or
// deposits it to credit
type BulkPaymentRequest struct {
	CustomerID       string     `json:"customer_id" binding:"required,uuid"`
	Amount           float64    `json:"amount" binding:"required,gt=0"`
	Date             *time.Time `json:"date"`
	Method           string     `json:"method" binding:"required,oneof=CASH CHECK CREDIT_CARD DEBIT_CARD BANK_TRANSFER ACCOUNT_CREDIT OTHER"`
	Reference        string     `json:"reference" binding:"max=100"`
	Notes            string     `json:"notes" binding:"max=500"`
	TargetInvoiceIDs []string   `json:"target_invoice_ids" binding:"omitempty,dive,uuid"`
	AsCreditDeposit  bool       `json:"as_credit_deposit"`
	IdempotencyKey   string     `json:"idempotency_key" binding:"max=100"`
}

// Apply records a payment against a single document
func (h *PaymentHandler) Apply(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := appbilling.ApplyPaymentRequest{
		DocumentID: id,
		Amount:     decimal.NewFromFloat(req.Amount),
		Method:     billing.PaymentMethod(req.Method),
		Reference:  req.Reference,
		Notes:      req.Notes,
	}
	if req.Date != nil {
		appReq.Date = *req.Date
	}

	doc, err := h.paymentService.ApplyPayment(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewDocumentResponse(doc))
}

// ApplyBulk runs a bulk payment across a customer's outstanding invoices
func (h *PaymentHandler) ApplyBulk(c *gin.Context) {
	var req BulkPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}
	targets := make([]uuid.UUID, 0, len(req.TargetInvoiceIDs))
	for _, raw := range req.TargetInvoiceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid target invoice ID")
			return
		}
		targets = append(targets, id)
	}

	idemKey := req.IdempotencyKey
	if idemKey == "" {
		idemKey = c.GetHeader("Idempotency-Key")
	}

	appReq := appbilling.BulkPaymentRequest{
		CustomerID:       customerID,
		Amount:           decimal.NewFromFloat(req.Amount),
		Method:           billing.PaymentMethod(req.Method),
		Reference:        req.Reference,
		Notes:            req.Notes,
		TargetInvoiceIDs: targets,
		AsCreditDeposit:  req.AsCreditDeposit,
		IdempotencyKey:   idemKey,
	}
	if req.Date != nil {
		appReq.Date = *req.Date
	}

	result, err := h.paymentService.ApplyBulkPayment(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListBulkByCustomer returns a customer's bulk payment audit records
func (h *PaymentHandler) ListBulkByCustomer(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	records, err := h.paymentService.ListBulkPayments(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]BulkPaymentResponse, 0, len(records))
	for _, bp := range records {
		out = append(out, NewBulkPaymentResponse(bp))
	}
	h.Success(c, out)
}
