package journals

import (
	"context"
	"errors"
	"time"
)

// Service answers ledger queries. Writing entries happens inside the domain
// services' transactions; this service owns the read side.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Balance returns sum(debit) - sum(credit) for one account code over an
// optional date window. The to bound is inclusive: it is applied as an
// exclusive bound one day later so time-of-day components never clip the
// final day. The raw figure is never negated here; presentation layers
// flip natural-credit accounts.
func (s *Service) Balance(ctx context.Context, tenantID int64, accountCode string, from, to *time.Time) (float64, error) {
	if tenantID == 0 {
		return 0, errors.New("journals: tenant required")
	}
	if accountCode == "" {
		return 0, errors.New("journals: account code required")
	}
	var before *time.Time
	if to != nil {
		b := to.AddDate(0, 0, 1)
		before = &b
	}
	debit, credit, err := s.repo.SumForAccount(ctx, tenantID, accountCode, from, before)
	if err != nil {
		return 0, err
	}
	return debit - credit, nil
}

// ListForTenant returns every entry with lines in (date, id) order.
func (s *Service) ListForTenant(ctx context.Context, tenantID int64) ([]JournalEntry, error) {
	if tenantID == 0 {
		return nil, errors.New("journals: tenant required")
	}
	return s.repo.ListForTenant(ctx, tenantID)
}
