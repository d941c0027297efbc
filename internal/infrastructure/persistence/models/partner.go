package models

import (
	"time"

	"github.com/fenceline/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer aggregate.
type CustomerModel struct {
	AggregateModel
	Name          string              `gorm:"type:varchar(200);not null;index"`
	ContactName   string              `gorm:"type:varchar(100)"`
	Email         string              `gorm:"type:varchar(200);index"`
	Phone         string              `gorm:"type:varchar(50);index"`
	Address       string              `gorm:"type:text"`
	Notes         string              `gorm:"type:text"`
	CreditBalance decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	MarkupRules   partner.MarkupRules `gorm:"type:jsonb;not null"`
	IsActive      bool                `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() *partner.Customer {
	c := &partner.Customer{
		Name:          m.Name,
		ContactName:   m.ContactName,
		Email:         m.Email,
		Phone:         m.Phone,
		Address:       m.Address,
		Notes:         m.Notes,
		CreditBalance: m.CreditBalance,
		MarkupRules:   m.MarkupRules,
		IsActive:      m.IsActive,
	}
	m.PopulateAggregateRoot(&c.BaseAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Customer.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.ContactName = c.ContactName
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address
	m.Notes = c.Notes
	m.CreditBalance = c.CreditBalance
	m.MarkupRules = c.MarkupRules
	m.IsActive = c.IsActive
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// VendorModel is the persistence model for the Vendor aggregate.
type VendorModel struct {
	AggregateModel
	Name        string `gorm:"type:varchar(200);not null;index"`
	ContactName string `gorm:"type:varchar(100)"`
	Email       string `gorm:"type:varchar(200)"`
	Phone       string `gorm:"type:varchar(50)"`
	Notes       string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (VendorModel) TableName() string {
	return "vendors"
}

// ToDomain converts the persistence model to a domain Vendor.
func (m *VendorModel) ToDomain() *partner.Vendor {
	v := &partner.Vendor{
		Name:        m.Name,
		ContactName: m.ContactName,
		Email:       m.Email,
		Phone:       m.Phone,
		Notes:       m.Notes,
		IsActive:    m.IsActive,
	}
	m.PopulateAggregateRoot(&v.BaseAggregateRoot)
	return v
}

// FromDomain populates the persistence model from a domain Vendor.
func (m *VendorModel) FromDomain(v *partner.Vendor) {
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	m.Name = v.Name
	m.ContactName = v.ContactName
	m.Email = v.Email
	m.Phone = v.Phone
	m.Notes = v.Notes
	m.IsActive = v.IsActive
}

// VendorModelFromDomain creates a new persistence model from a domain Vendor.
func VendorModelFromDomain(v *partner.Vendor) *VendorModel {
	m := &VendorModel{}
	m.FromDomain(v)
	return m
}

// CreditTransactionModel is the persistence model for the append-only
// customer credit ledger.
type CreditTransactionModel struct {
	BaseModel
	CustomerID    uuid.UUID                       `gorm:"type:uuid;not null;index"`
	Type          partner.CreditTransactionType   `gorm:"type:varchar(20);not null"`
	Source        partner.CreditTransactionSource `gorm:"type:varchar(20);not null"`
	SourceID      *uuid.UUID                      `gorm:"type:uuid;index"`
	Amount        decimal.Decimal                 `gorm:"type:decimal(18,2);not null"`
	BalanceBefore decimal.Decimal                 `gorm:"type:decimal(18,2);not null"`
	BalanceAfter  decimal.Decimal                 `gorm:"type:decimal(18,2);not null"`
	Date          time.Time                       `gorm:"not null;index"`
	Notes         string                          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CreditTransactionModel) TableName() string {
	return "credit_transactions"
}

// ToDomain converts the persistence model to a domain CreditTransaction.
func (m *CreditTransactionModel) ToDomain() *partner.CreditTransaction {
	return &partner.CreditTransaction{
		BaseEntity:    m.BaseModel.ToDomain(),
		CustomerID:    m.CustomerID,
		Type:          m.Type,
		Source:        m.Source,
		SourceID:      m.SourceID,
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Date:          m.Date,
		Notes:         m.Notes,
	}
}

// FromDomain populates the persistence model from a domain CreditTransaction.
func (m *CreditTransactionModel) FromDomain(tx *partner.CreditTransaction) {
	m.FromDomainBaseEntity(tx.BaseEntity)
	m.CustomerID = tx.CustomerID
	m.Type = tx.Type
	m.Source = tx.Source
	m.SourceID = tx.SourceID
	m.Amount = tx.Amount
	m.BalanceBefore = tx.BalanceBefore
	m.BalanceAfter = tx.BalanceAfter
	m.Date = tx.Date
	m.Notes = tx.Notes
}

// CreditTransactionModelFromDomain creates a new persistence model from a domain CreditTransaction.
func CreditTransactionModelFromDomain(tx *partner.CreditTransaction) *CreditTransactionModel {
	m := &CreditTransactionModel{}
	m.FromDomain(tx)
	return m
}
