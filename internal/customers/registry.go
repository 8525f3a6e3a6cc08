package customers

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ponmo-books/ponmo/internal/accounting"
	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/model"
)

// NewParty holds the fields for a new customer or vendor.
type NewParty struct {
	Name                 string
	Email                string
	Phone                string
	Address              string
	OpeningBalanceType   model.OpeningBalanceType
	OpeningBalanceAmount decimal.Decimal
	OpeningDate          time.Time // defaults to today
}

// Contact holds the contact fields that can change after creation.
// Empty fields are left untouched.
type Contact struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

func (c Contact) patch() map[string]any {
	p := make(map[string]any)
	for k, v := range map[string]string{"name": c.Name, "email": c.Email, "phone": c.Phone, "address": c.Address} {
		if v != "" {
			p[k] = v
		}
	}
	return p
}

func (p NewParty) openingType() model.OpeningBalanceType {
	if p.OpeningBalanceType == "" {
		return model.OpeningNone
	}
	return p.OpeningBalanceType
}

// CreateCustomer stores a customer and books its opening balance, if any.
// The customer is kept when the opening entry fails; the error says so.
func (s *Service) CreateCustomer(ctx context.Context, scope model.Scope, p NewParty) (model.Customer, error) {
	if p.Name == "" {
		return model.Customer{}, fmt.Errorf("customer name is required")
	}
	c := s.docs.Collection(scope, CustomersCollection)
	custID, err := c.Create(ctx, model.Customer{
		Name:                 p.Name,
		Email:                p.Email,
		Phone:                p.Phone,
		Address:              p.Address,
		OpeningBalanceType:   p.openingType(),
		OpeningBalanceAmount: p.OpeningBalanceAmount,
	})
	if err != nil {
		return model.Customer{}, fmt.Errorf("creating customer: %w", err)
	}

	entryID, err := s.recorder.RecordCustomerOpeningBalance(ctx, scope, accounting.OpeningBalance{
		Date:    s.today(p.OpeningDate),
		PartyID: custID,
		Name:    p.Name,
		Type:    p.openingType(),
		Amount:  p.OpeningBalanceAmount,
	})
	if err != nil {
		return model.Customer{}, fmt.Errorf("customer %s created without opening balance: %w", custID, err)
	}
	if entryID != "" {
		if _, err := c.Update(ctx, custID, map[string]any{"opening_entry_id": entryID}); err != nil {
			return model.Customer{}, fmt.Errorf("linking opening entry: %w", err)
		}
	}

	s.log.Info("customer created",
		zap.String("scope", string(scope)),
		zap.String("customer_id", custID),
		zap.String("opening_entry_id", entryID))
	return s.GetCustomer(ctx, scope, custID)
}

// GetCustomer returns one customer.
func (s *Service) GetCustomer(ctx context.Context, scope model.Scope, customerID string) (model.Customer, error) {
	return getDoc[model.Customer](ctx, s.docs.Collection(scope, CustomersCollection), "customer", customerID)
}

// ListCustomers returns every customer ordered by name.
func (s *Service) ListCustomers(ctx context.Context, scope model.Scope) ([]model.Customer, error) {
	out, err := listDocs[model.Customer](ctx, s.docs.Collection(scope, CustomersCollection), docstore.Query{OrderBy: "name"})
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	return out, nil
}

// UpdateCustomerContact changes a customer's contact fields. Opening
// balances are fixed once booked.
func (s *Service) UpdateCustomerContact(ctx context.Context, scope model.Scope, customerID string, contact Contact) error {
	ok, err := s.docs.Collection(scope, CustomersCollection).Update(ctx, customerID, contact.patch())
	if err != nil {
		return fmt.Errorf("updating customer %s: %w", customerID, err)
	}
	if !ok {
		return fmt.Errorf("customer %s: %w", customerID, ErrNotFound)
	}
	return nil
}

// CreateVendor stores a vendor and books its opening balance, if any.
func (s *Service) CreateVendor(ctx context.Context, scope model.Scope, p NewParty) (model.Vendor, error) {
	if p.Name == "" {
		return model.Vendor{}, fmt.Errorf("vendor name is required")
	}
	c := s.docs.Collection(scope, VendorsCollection)
	vendID, err := c.Create(ctx, model.Vendor{
		Name:                 p.Name,
		Email:                p.Email,
		Phone:                p.Phone,
		Address:              p.Address,
		OpeningBalanceType:   p.openingType(),
		OpeningBalanceAmount: p.OpeningBalanceAmount,
	})
	if err != nil {
		return model.Vendor{}, fmt.Errorf("creating vendor: %w", err)
	}

	entryID, err := s.recorder.RecordVendorOpeningBalance(ctx, scope, accounting.OpeningBalance{
		Date:    s.today(p.OpeningDate),
		PartyID: vendID,
		Name:    p.Name,
		Type:    p.openingType(),
		Amount:  p.OpeningBalanceAmount,
	})
	if err != nil {
		return model.Vendor{}, fmt.Errorf("vendor %s created without opening balance: %w", vendID, err)
	}
	if entryID != "" {
		if _, err := c.Update(ctx, vendID, map[string]any{"opening_entry_id": entryID}); err != nil {
			return model.Vendor{}, fmt.Errorf("linking opening entry: %w", err)
		}
	}

	s.log.Info("vendor created",
		zap.String("scope", string(scope)),
		zap.String("vendor_id", vendID),
		zap.String("opening_entry_id", entryID))
	return s.GetVendor(ctx, scope, vendID)
}

// GetVendor returns one vendor.
func (s *Service) GetVendor(ctx context.Context, scope model.Scope, vendorID string) (model.Vendor, error) {
	return getDoc[model.Vendor](ctx, s.docs.Collection(scope, VendorsCollection), "vendor", vendorID)
}

// ListVendors returns every vendor ordered by name.
func (s *Service) ListVendors(ctx context.Context, scope model.Scope) ([]model.Vendor, error) {
	out, err := listDocs[model.Vendor](ctx, s.docs.Collection(scope, VendorsCollection), docstore.Query{OrderBy: "name"})
	if err != nil {
		return nil, fmt.Errorf("listing vendors: %w", err)
	}
	return out, nil
}

// UpdateVendorContact changes a vendor's contact fields.
func (s *Service) UpdateVendorContact(ctx context.Context, scope model.Scope, vendorID string, contact Contact) error {
	ok, err := s.docs.Collection(scope, VendorsCollection).Update(ctx, vendorID, contact.patch())
	if err != nil {
		return fmt.Errorf("updating vendor %s: %w", vendorID, err)
	}
	if !ok {
		return fmt.Errorf("vendor %s: %w", vendorID, ErrNotFound)
	}
	return nil
}
