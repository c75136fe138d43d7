package accounts

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/bukudapur/bukudapur/internal/shared"
)

// RepositoryPort abstracts storage for the chart of accounts.
type RepositoryPort interface {
	List(ctx context.Context, tenantID int64) ([]Account, error)
	GetByCode(ctx context.Context, tenantID int64, code string) (Account, error)
	Insert(ctx context.Context, acc Account) (Account, error)
	SetActive(ctx context.Context, tenantID int64, code string, active bool) error
}

// Service manages a tenant's chart of accounts.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// CreateInput groups fields for a new account.
type CreateInput struct {
	TenantID int64  `validate:"required"`
	Code     string `validate:"required,max=10"`
	Name     string `validate:"required,max=120"`
	Category string `validate:"required,max=30"`
}

// Create adds an account to the tenant's chart.
func (s *Service) Create(ctx context.Context, input CreateInput) (Account, error) {
	if err := s.validate.Struct(input); err != nil {
		return Account{}, err
	}
	return s.repo.Insert(ctx, Account{
		TenantID: input.TenantID,
		Code:     input.Code,
		Name:     input.Name,
		Category: input.Category,
		IsActive: true,
	})
}

// List returns the tenant's chart of accounts ordered by code.
func (s *Service) List(ctx context.Context, tenantID int64) ([]Account, error) {
	return s.repo.List(ctx, tenantID)
}

// Deactivate hides an account from entry screens without touching history.
func (s *Service) Deactivate(ctx context.Context, tenantID int64, code string) error {
	return s.repo.SetActive(ctx, tenantID, code, false)
}

// RequireByCode fetches an account the posting rules cannot do without.
func (s *Service) RequireByCode(ctx context.Context, tenantID int64, code string) (Account, error) {
	acc, err := s.repo.GetByCode(ctx, tenantID, code)
	if err != nil {
		return Account{}, fmt.Errorf("account %q: %w", code, shared.ErrMissingAccount)
	}
	return acc, nil
}

// SeedDefaults installs the standard kitchen chart for a new tenant,
// skipping codes that already exist.
func (s *Service) SeedDefaults(ctx context.Context, tenantID int64) (int, error) {
	existing, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	have := make(map[string]struct{}, len(existing))
	for _, acc := range existing {
		have[acc.Code] = struct{}{}
	}
	created := 0
	for _, acc := range DefaultChart() {
		if _, ok := have[acc.Code]; ok {
			continue
		}
		acc.TenantID = tenantID
		acc.IsActive = true
		if _, err := s.repo.Insert(ctx, acc); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
