package partner

import (
	"context"
	"fmt"

	"github.com/fenceline/backend/internal/domain/partner"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VendorService manages the supplier list referenced by order documents
type VendorService struct {
	vendorRepo partner.VendorRepository
}

// NewVendorService creates a new VendorService
func NewVendorService(vendorRepo partner.VendorRepository) *VendorService {
	return &VendorService{vendorRepo: vendorRepo}
}

// CreateVendorRequest carries the fields for a new vendor
type CreateVendorRequest struct {
	Name        string
	ContactName string
	Email       string
	Phone       string
	Notes       string
}

// Create adds a vendor to the supplier list
func (s *VendorService) Create(ctx context.Context, req CreateVendorRequest) (*partner.Vendor, error) {
	vendor, err := partner.NewVendor(req.Name)
	if err != nil {
		return nil, err
	}
	vendor.ContactName = req.ContactName
	vendor.Email = req.Email
	vendor.Phone = req.Phone
	vendor.Notes = req.Notes

	if err := s.vendorRepo.Save(ctx, vendor); err != nil {
		return nil, fmt.Errorf("failed to save vendor: %w", err)
	}
	return vendor, nil
}

// UpdateVendorRequest updates vendor fields; nil means keep current
type UpdateVendorRequest struct {
	Name        *string
	ContactName *string
	Email       *string
	Phone       *string
	Notes       *string
	IsActive    *bool
}

// Update applies a partial update to a vendor
func (s *VendorService) Update(ctx context.Context, vendorID uuid.UUID, req UpdateVendorRequest) (*partner.Vendor, error) {
	vendor, err := s.loadVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, shared.NewDomainError("INVALID_VENDOR_NAME", "Vendor name cannot be empty")
		}
		vendor.Name = *req.Name
	}
	if req.ContactName != nil {
		vendor.ContactName = *req.ContactName
	}
	if req.Email != nil {
		vendor.Email = *req.Email
	}
	if req.Phone != nil {
		vendor.Phone = *req.Phone
	}
	if req.Notes != nil {
		vendor.Notes = *req.Notes
	}
	if req.IsActive != nil {
		vendor.IsActive = *req.IsActive
	}
	vendor.IncrementVersion()

	if err := s.vendorRepo.Save(ctx, vendor); err != nil {
		return nil, fmt.Errorf("failed to save vendor: %w", err)
	}
	return vendor, nil
}

// Get loads a single vendor
func (s *VendorService) Get(ctx context.Context, vendorID uuid.UUID) (*partner.Vendor, error) {
	return s.loadVendor(ctx, vendorID)
}

// List returns a filtered page of vendors
func (s *VendorService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*partner.Vendor], error) {
	return s.vendorRepo.FindAll(ctx, filter)
}

// Delete removes a vendor record
func (s *VendorService) Delete(ctx context.Context, vendorID uuid.UUID) error {
	return s.vendorRepo.Delete(ctx, vendorID)
}

func (s *VendorService) loadVendor(ctx context.Context, vendorID uuid.UUID) (*partner.Vendor, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}
	if vendor == nil {
		return nil, shared.NewDomainError("VENDOR_NOT_FOUND", "Vendor not found")
	}
	return vendor, nil
}
