package handler

import (
	appfulfillment "github.com/fenceline/backend/internal/application/fulfillment"
	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/fenceline/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceivingHandler handles the receiving and pickup workflow
type ReceivingHandler struct {
	BaseHandler
	receivingService *appfulfillment.ReceivingService
}

// NewReceivingHandler creates a new ReceivingHandler
func NewReceivingHandler(receivingService *appfulfillment.ReceivingService) *ReceivingHandler {
	return &ReceivingHandler{receivingService: receivingService}
}

// ReceiptLineRequest is one line's received quantity
type ReceiptLineRequest struct {
	LineItemID       string  `json:"line_item_id" binding:"required,uuid"`
	ReceivedQuantity float64 `json:"received_quantity" binding:"min=0"`
}

// RecordReceiptRequest records received quantities for a document
type RecordReceiptRequest struct {
	Lines []ReceiptLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// SetFulfillmentStatusRequest moves a document along the shop ladder
type SetFulfillmentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// RecordReceipt saves received quantities and reconciles the document's
// fulfillment status. The acting user is taken from the verified token.
func (h *ReceivingHandler) RecordReceipt(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req RecordReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lines := make([]appfulfillment.ReceiptLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lineID, err := uuid.Parse(l.LineItemID)
		if err != nil {
			h.BadRequest(c, "Invalid line item ID")
			return
		}
		lines = append(lines, appfulfillment.ReceiptLineInput{
			LineItemID:       lineID,
			ReceivedQuantity: decimal.NewFromFloat(l.ReceivedQuantity),
		})
	}

	doc, err := h.receivingService.RecordReceipt(c.Request.Context(), appfulfillment.RecordReceiptRequest{
		DocumentID: id,
		Lines:      lines,
		ReceivedBy: middleware.GetJWTDisplayName(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewDocumentResponse(doc))
}

// SetStatus applies an operator transition on the fulfillment ladder
func (h *ReceivingHandler) SetStatus(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req SetFulfillmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	doc, err := h.receivingService.SetFulfillmentStatus(c.Request.Context(), id, billing.FulfillmentStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewDocumentResponse(doc))
}

// Backorders returns the derived per-line shortfall for a document
func (h *ReceivingHandler) Backorders(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	backorders, err := h.receivingService.GetBackorders(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewBackorderResponses(backorders))
}

// PickupReminders lists documents that have sat ready for pickup past
// the business-day threshold
func (h *ReceivingHandler) PickupReminders(c *gin.Context) {
	reminders, err := h.receivingService.ListPickupReminders(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reminders)
}
