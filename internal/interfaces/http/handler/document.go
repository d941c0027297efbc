package handler

import (
	appbilling "github.com/fenceline/backend/internal/application/billing"
	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles financial document endpoints
type DocumentHandler struct {
	BaseHandler
	documentService *appbilling.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *appbilling.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Create opens a new document
func (h *DocumentHandler) Create(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}
	lineItems, err := toLineItemInputs(req.LineItems)
	if err != nil {
		h.BadRequest(c, "Invalid product ID in line items")
		return
	}

	appReq := appbilling.CreateDocumentRequest{
		Kind:       billing.DocumentKind(req.Kind),
		CustomerID: customerID,
		DueDate:    req.DueDate,
		LineItems:  lineItems,
		Notes:      req.Notes,
	}
	if req.DocumentDate != nil {
		appReq.DocumentDate = *req.DocumentDate
	}
	if req.VendorID != nil {
		vendorID, err := uuid.Parse(*req.VendorID)
		if err != nil {
			h.BadRequest(c, "Invalid vendor ID")
			return
		}
		appReq.VendorID = &vendorID
	}

	doc, err := h.documentService.CreateDocument(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, NewDocumentResponse(doc))
}

// List returns a filtered page of documents
func (h *DocumentHandler) List(c *gin.Context) {
	var req ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter, err := req.toFilter()
	if err != nil {
		h.BadRequest(c, "Invalid filter parameter")
		return
	}

	page, err := h.documentService.ListDocuments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, NewDocumentResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// GetByID returns a single document
func (h *DocumentHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	doc, err := h.documentService.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewDocumentResponse(doc))
}

// GetByNumber returns a document by its human-facing number
func (h *DocumentHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Document number is required")
		return
	}
	doc, err := h.documentService.GetDocumentByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewDocumentResponse(doc))
}

// UpdateLineItems replaces the document's line item set
func (h *DocumentHandler) UpdateLineItems(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req UpdateLineItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	lineItems, err := toLineItemInputs(req.LineItems)
	if err != nil {
		h.BadRequest(c, "Invalid product ID in line items")
		return
	}

	doc, err := h.documentService.UpdateLineItems(c.Request.Context(), appbilling.UpdateLineItemsRequest{
		DocumentID: id,
		LineItems:  lineItems,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewDocumentResponse(doc))
}

// Void marks a document void
func (h *DocumentHandler) Void(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req VoidDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	doc, err := h.documentService.VoidDocument(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewDocumentResponse(doc))
}

// Finalize locks a document against edits
func (h *DocumentHandler) Finalize(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	doc, err := h.documentService.FinalizeDocument(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewDocumentResponse(doc))
}

// Unfinalize reopens a finalized document
func (h *DocumentHandler) Unfinalize(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	doc, err := h.documentService.UnfinalizeDocument(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewDocumentResponse(doc))
}

// Convert converts a document forward, finalizing the source
func (h *DocumentHandler) Convert(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req ConvertDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	converted, err := h.documentService.ConvertDocument(c.Request.Context(), id, billing.DocumentKind(req.TargetKind))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, NewDocumentResponse(converted))
}
