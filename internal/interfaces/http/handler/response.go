package handler

import (
	"time"

	"github.com/fenceline/backend/internal/domain/billing"
	"github.com/fenceline/backend/internal/domain/catalog"
	"github.com/fenceline/backend/internal/domain/fulfillment"
	"github.com/fenceline/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentResponse is the API shape of a financial document. Status is
// the derived single status; the two underlying axes are exposed
// alongside it.
type DocumentResponse struct {
	ID             uuid.UUID  `json:"id"`
	Kind           string     `json:"kind"`
	DocumentNumber string     `json:"document_number"`
	Status         string     `json:"status"`
	CustomerID     *uuid.UUID `json:"customer_id,omitempty"`
	CustomerName   string     `json:"customer_name"`
	VendorID       *uuid.UUID `json:"vendor_id,omitempty"`
	VendorName     string     `json:"vendor_name,omitempty"`

	DocumentDate time.Time  `json:"document_date"`
	DueDate      *time.Time `json:"due_date,omitempty"`

	LineItems []billing.LineItem `json:"line_items"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	TaxAmount decimal.Decimal    `json:"tax_amount"`
	Total     decimal.Decimal    `json:"total"`

	Payments   []billing.Payment `json:"payments"`
	AmountPaid decimal.Decimal   `json:"amount_paid"`
	BalanceDue decimal.Decimal   `json:"balance_due"`

	PaymentStatus     string `json:"payment_status"`
	FulfillmentStatus string `json:"fulfillment_status"`

	Voided      bool   `json:"voided"`
	VoidReason  string `json:"void_reason,omitempty"`
	IsFinalized bool   `json:"is_finalized"`

	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`
	ReceivedDate         *time.Time `json:"received_date,omitempty"`
	ReceivedBy           string     `json:"received_by,omitempty"`
	ReadyForPickUpDate   *time.Time `json:"ready_for_pickup_date,omitempty"`
	PickedUpDate         *time.Time `json:"picked_up_date,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDocumentResponse maps a document aggregate to its API shape
func NewDocumentResponse(doc *billing.FinancialDocument) DocumentResponse {
	return DocumentResponse{
		ID:                   doc.ID,
		Kind:                 doc.Kind.String(),
		DocumentNumber:       doc.DocumentNumber,
		Status:               string(doc.Status()),
		CustomerID:           doc.CustomerID,
		CustomerName:         doc.CustomerName,
		VendorID:             doc.VendorID,
		VendorName:           doc.VendorName,
		DocumentDate:         doc.DocumentDate,
		DueDate:              doc.DueDate,
		LineItems:            doc.LineItems,
		Subtotal:             doc.Subtotal,
		TaxAmount:            doc.TaxAmount,
		Total:                doc.Total,
		Payments:             doc.Payments,
		AmountPaid:           doc.AmountPaid,
		BalanceDue:           doc.BalanceDue,
		PaymentStatus:        doc.PaymentStatus.String(),
		FulfillmentStatus:    doc.FulfillmentStatus.String(),
		Voided:               doc.Voided,
		VoidReason:           doc.VoidReason,
		IsFinalized:          doc.IsFinalized,
		ExpectedDeliveryDate: doc.ExpectedDeliveryDate,
		ReceivedDate:         doc.ReceivedDate,
		ReceivedBy:           doc.ReceivedBy,
		ReadyForPickUpDate:   doc.ReadyForPickUpDate,
		PickedUpDate:         doc.PickedUpDate,
		Notes:                doc.Notes,
		Version:              doc.Version,
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
	}
}

// NewDocumentResponses maps a slice of documents
func NewDocumentResponses(docs []*billing.FinancialDocument) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, NewDocumentResponse(doc))
	}
	return out
}

// BulkPaymentResponse is the API shape of a bulk payment audit record
type BulkPaymentResponse struct {
	ID              uuid.UUID                       `json:"id"`
	CustomerID      uuid.UUID                       `json:"customer_id"`
	CustomerName    string                          `json:"customer_name"`
	Amount          decimal.Decimal                 `json:"amount"`
	Date            time.Time                       `json:"date"`
	Method          string                          `json:"method"`
	Reference       string                          `json:"reference,omitempty"`
	Notes           string                          `json:"notes,omitempty"`
	Applications    billing.BulkPaymentApplications `json:"applications"`
	CreditedAmount  decimal.Decimal                 `json:"credited_amount"`
	IsCreditDeposit bool                            `json:"is_credit_deposit"`
	CreatedAt       time.Time                       `json:"created_at"`
}

// NewBulkPaymentResponse maps a bulk payment record to its API shape
func NewBulkPaymentResponse(bp *billing.BulkPayment) BulkPaymentResponse {
	return BulkPaymentResponse{
		ID:              bp.ID,
		CustomerID:      bp.CustomerID,
		CustomerName:    bp.CustomerName,
		Amount:          bp.Amount,
		Date:            bp.Date,
		Method:          bp.Method.String(),
		Reference:       bp.Reference,
		Notes:           bp.Notes,
		Applications:    bp.Applications,
		CreditedAmount:  bp.CreditedAmount,
		IsCreditDeposit: bp.IsCreditDeposit,
		CreatedAt:       bp.CreatedAt,
	}
}

// CustomerResponse is the API shape of a customer account
type CustomerResponse struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	ContactName   string              `json:"contact_name,omitempty"`
	Email         string              `json:"email,omitempty"`
	Phone         string              `json:"phone,omitempty"`
	Address       string              `json:"address,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	CreditBalance decimal.Decimal     `json:"credit_balance"`
	MarkupRules   partner.MarkupRules `json:"markup_rules"`
	IsActive      bool                `json:"is_active"`
	Version       int                 `json:"version"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// NewCustomerResponse maps a customer aggregate to its API shape
func NewCustomerResponse(customer *partner.Customer) CustomerResponse {
	rules := customer.MarkupRules
	if rules == nil {
		rules = partner.MarkupRules{}
	}
	return CustomerResponse{
		ID:            customer.ID,
		Name:          customer.Name,
		ContactName:   customer.ContactName,
		Email:         customer.Email,
		Phone:         customer.Phone,
		Address:       customer.Address,
		Notes:         customer.Notes,
		CreditBalance: customer.CreditBalance,
		MarkupRules:   rules,
		IsActive:      customer.IsActive,
		Version:       customer.Version,
		CreatedAt:     customer.CreatedAt,
		UpdatedAt:     customer.UpdatedAt,
	}
}

// CreditTransactionResponse is one credit ledger entry
type CreditTransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	SourceID      *uuid.UUID      `json:"source_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Date          time.Time       `json:"date"`
	Notes         string          `json:"notes,omitempty"`
}

// NewCreditTransactionResponses maps a credit ledger
func NewCreditTransactionResponses(txs []*partner.CreditTransaction) []CreditTransactionResponse {
	out := make([]CreditTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, CreditTransactionResponse{
			ID:            tx.ID,
			CustomerID:    tx.CustomerID,
			Type:          string(tx.Type),
			Source:        string(tx.Source),
			SourceID:      tx.SourceID,
			Amount:        tx.Amount,
			BalanceBefore: tx.BalanceBefore,
			BalanceAfter:  tx.BalanceAfter,
			Date:          tx.Date,
			Notes:         tx.Notes,
		})
	}
	return out
}

// VendorResponse is the API shape of a vendor
type VendorResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contact_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewVendorResponse maps a vendor aggregate to its API shape
func NewVendorResponse(vendor *partner.Vendor) VendorResponse {
	return VendorResponse{
		ID:          vendor.ID,
		Name:        vendor.Name,
		ContactName: vendor.ContactName,
		Email:       vendor.Email,
		Phone:       vendor.Phone,
		Notes:       vendor.Notes,
		IsActive:    vendor.IsActive,
		CreatedAt:   vendor.CreatedAt,
		UpdatedAt:   vendor.UpdatedAt,
	}
}

// ProductResponse is the API shape of a catalog product
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku,omitempty"`
	Category      string          `json:"category,omitempty"`
	Unit          string          `json:"unit,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Cost          decimal.Decimal `json:"cost"`
	MarkupPercent decimal.Decimal `json:"markup_percent"`
	VendorID      *uuid.UUID      `json:"vendor_id,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewProductResponse maps a product aggregate to its API shape
func NewProductResponse(product *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            product.ID,
		Name:          product.Name,
		SKU:           product.SKU,
		Category:      product.Category,
		Unit:          product.Unit,
		Price:         product.Price,
		Cost:          product.Cost,
		MarkupPercent: product.MarkupPercent,
		VendorID:      product.VendorID,
		IsActive:      product.IsActive,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}

// BackorderResponse is the derived shortfall for one line
type BackorderResponse struct {
	LineItemID  uuid.UUID       `json:"line_item_id"`
	Name        string          `json:"name"`
	Ordered     decimal.Decimal `json:"ordered"`
	Received    decimal.Decimal `json:"received"`
	Backordered decimal.Decimal `json:"backordered"`
}

// NewBackorderResponses maps derived backorders
func NewBackorderResponses(backorders []fulfillment.Backorder) []BackorderResponse {
	out := make([]BackorderResponse, 0, len(backorders))
	for _, b := range backorders {
		out = append(out, BackorderResponse{
			LineItemID:  b.LineItemID,
			Name:        b.Name,
			Ordered:     b.Ordered,
			Received:    b.Received,
			Backordered: b.Backordered,
		})
	}
	return out
}
