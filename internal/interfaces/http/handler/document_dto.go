package handler

import (
	"time"

	appbilling "github.com/fenceline/backend/internal/application/billing"
	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemRequest is one submitted document line
type LineItemRequest struct {
	ProductID        *string  `json:"product_id" binding:"omitempty,uuid"`
	Name             string   `json:"name" binding:"required,min=1,max=200"`
	Category         string   `json:"category" binding:"max=100"`
	Unit             string   `json:"unit" binding:"max=20"`
	Quantity         float64  `json:"quantity" binding:"min=0"`
	UnitPrice        *float64 `json:"unit_price" binding:"omitempty,min=0"`
	Cost             *float64 `json:"cost" binding:"omitempty,min=0"`
	MarkupPercent    *float64 `json:"markup_percent" binding:"omitempty,min=0"`
	IsReturn         bool     `json:"is_return"`
	IsNonStock       bool     `json:"is_non_stock"`
	AddToProductList bool     `json:"add_to_product_list"`
}

func (r LineItemRequest) toInput() (appbilling.LineItemInput, error) {
	in := appbilling.LineItemInput{
		Name:             r.Name,
		Category:         r.Category,
		Unit:             r.Unit,
		Quantity:         decimal.NewFromFloat(r.Quantity),
		IsReturn:         r.IsReturn,
		IsNonStock:       r.IsNonStock,
		AddToProductList: r.AddToProductList,
	}
	if r.ProductID != nil {
		id, err := uuid.Parse(*r.ProductID)
		if err != nil {
			return in, err
		}
		in.ProductID = &id
	}
	if r.UnitPrice != nil {
		in.UnitPrice = decimal.NewFromFloat(*r.UnitPrice)
	}
	if r.Cost != nil {
		in.Cost = decimal.NewFromFloat(*r.Cost)
	}
	if r.MarkupPercent != nil {
		in.MarkupPercent = decimal.NewFromFloat(*r.MarkupPercent)
	}
	return in, nil
}

func toLineItemInputs(reqs []LineItemRequest) ([]appbilling.LineItemInput, error) {
	inputs := make([]appbilling.LineItemInput, 0, len(reqs))
	for _, r := range reqs {
		in, err := r.toInput()
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// CreateDocumentRequest opens a new estimate, order, or invoice
type CreateDocumentRequest struct {
	Kind         string            `json:"kind" binding:"required,oneof=ESTIMATE ORDER INVOICE"`
	CustomerID   string            `json:"customer_id" binding:"required,uuid"`
	DocumentDate *time.Time        `json:"document_date"`
	DueDate      *time.Time        `json:"due_date"`
	VendorID     *string           `json:"vendor_id" binding:"omitempty,uuid"`
	LineItems    []LineItemRequest `json:"line_items" binding:"dive"`
	Notes        string            `json:"notes"`
}

// UpdateLineItemsRequest replaces a document's line item set
type UpdateLineItemsRequest struct {
	LineItems []LineItemRequest `json:"line_items" binding:"required,dive"`
}

// VoidDocumentRequest voids a document with an optional reason
type VoidDocumentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ConvertDocumentRequest converts a document to a later kind
type ConvertDocumentRequest struct {
	TargetKind string `json:"target_kind" binding:"required,oneof=ORDER INVOICE"`
}

// ListDocumentsRequest carries document list filters as query params
type ListDocumentsRequest struct {
	Page              int    `form:"page" binding:"omitempty,min=1"`
	PageSize          int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy           string `form:"order_by"`
	OrderDir          string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search            string `form:"search"`
	Kind              string `form:"kind" binding:"omitempty,oneof=ESTIMATE ORDER INVOICE"`
	CustomerID        string `form:"customer_id" binding:"omitempty,uuid"`
	VendorID          string `form:"vendor_id" binding:"omitempty,uuid"`
	PaymentStatus     string `form:"payment_status"`
	FulfillmentStatus string `form:"fulfillment_status"`
	IncludeVoided     bool   `form:"include_voided"`
	DateFrom          string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo            string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
}

func (r ListDocumentsRequest) toFilter() (billing.DocumentFilter, error) {
	filter := billing.DocumentFilter{}
	filter.Page = r.Page
	filter.PageSize = r.PageSize
	filter.OrderBy = r.OrderBy
	filter.OrderDir = r.OrderDir
	filter.Search = r.Search
	filter.IncludeVoided = r.IncludeVoided

	if r.Kind != "" {
		kind := billing.DocumentKind(r.Kind)
		filter.Kind = &kind
	}
	if r.CustomerID != "" {
		id, err := uuid.Parse(r.CustomerID)
		if err != nil {
			return filter, err
		}
		filter.CustomerID = &id
	}
	if r.VendorID != "" {
		id, err := uuid.Parse(r.VendorID)
		if err != nil {
			return filter, err
		}
		filter.VendorID = &id
	}
	if r.PaymentStatus != "" {
		status := billing.PaymentStatus(r.PaymentStatus)
		filter.PaymentStatus = &status
	}
	if r.FulfillmentStatus != "" {
		status := billing.FulfillmentStatus(r.FulfillmentStatus)
		filter.FulfillmentStatus = &status
	}
	if r.DateFrom != "" {
		from, err := time.Parse("2006-01-02", r.DateFrom)
		if err != nil {
			return filter, err
		}
		filter.DateFrom = &from
	}
	if r.DateTo != "" {
		to, err := time.Parse("2006-01-02", r.DateTo)
		if err != nil {
			return filter, err
		}
		filter.DateTo = &to
	}
	return filter, nil
}
