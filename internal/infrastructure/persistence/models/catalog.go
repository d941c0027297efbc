package models

import (
	"github.com/fenceline/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the catalog Product aggregate.
type ProductModel struct {
	AggregateModel
	Name          string          `gorm:"type:varchar(200);not null;index"`
	SKU           string          `gorm:"type:varchar(50);index"`
	Category      string          `gorm:"type:varchar(100);index"`
	Unit          string          `gorm:"type:varchar(20)"`
	Price         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Cost          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	MarkupPercent decimal.Decimal `gorm:"type:decimal(8,2);not null;default:0"`
	VendorID      *uuid.UUID      `gorm:"type:uuid;index"`
	IsActive      bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		Name:          m.Name,
		SKU:           m.SKU,
		Category:      m.Category,
		Unit:          m.Unit,
		Price:         m.Price,
		Cost:          m.Cost,
		MarkupPercent: m.MarkupPercent,
		VendorID:      m.VendorID,
		IsActive:      m.IsActive,
	}
	m.PopulateAggregateRoot(&p.BaseAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Product.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.SKU = p.SKU
	m.Category = p.Category
	m.Unit = p.Unit
	m.Price = p.Price
	m.Cost = p.Cost
	m.MarkupPercent = p.MarkupPercent
	m.VendorID = p.VendorID
	m.IsActive = p.IsActive
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
