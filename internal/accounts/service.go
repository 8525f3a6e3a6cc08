package accounts

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ponmo-books/ponmo/internal/model"
)

// ErrNotFound is returned when an account code is not in the chart.
var ErrNotFound = errors.New("account not found")

// Service provides in-memory lookup over the chart of accounts.
type Service struct {
	accounts []model.Account
	byCode   map[string]model.Account
}

// NewService creates a Service from a slice of accounts, ordered by code.
func NewService(accounts []model.Account) *Service {
	sorted := make([]model.Account, len(accounts))
	copy(sorted, accounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	byCode := make(map[string]model.Account, len(sorted))
	for _, a := range sorted {
		byCode[a.Code] = a
	}
	return &Service{accounts: sorted, byCode: byCode}
}

// Default returns a Service over DefaultChart.
func Default() *Service {
	return NewService(DefaultChart())
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by code.
func (s *Service) Get(code string) (model.Account, bool) {
	a, ok := s.byCode[code]
	return a, ok
}

// Lookup is Get with an error for unknown codes.
func (s *Service) Lookup(code string) (model.Account, error) {
	a, ok := s.byCode[code]
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %q", ErrNotFound, code)
	}
	return a, nil
}

// Exists reports whether an account code exists.
func (s *Service) Exists(code string) bool {
	_, ok := s.byCode[code]
	return ok
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// ByCategory returns all accounts in the given category.
func (s *Service) ByCategory(category model.AccountCategory) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Category == category {
			result = append(result, a)
		}
	}
	return result
}
