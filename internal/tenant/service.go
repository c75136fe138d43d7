package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bukudapur/bukudapur/internal/shared"
)

// RepositoryPort abstracts storage for access codes.
type RepositoryPort interface {
	GetByCode(ctx context.Context, code string) (AccessCode, error)
	Insert(ctx context.Context, ac AccessCode) (AccessCode, error)
	Update(ctx context.Context, ac AccessCode) error
	List(ctx context.Context, limit int) ([]AccessCode, error)
}

// Service manages access codes and resolves the active tenant.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New(), now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateInput groups fields for issuing a new access code.
type CreateInput struct {
	KitchenName string `validate:"required,max=120"`
	Days        int    `validate:"gt=0"`
	Status      Status `validate:"required"`
}

// Create issues a fresh access code valid for the requested number of days.
func (s *Service) Create(ctx context.Context, input CreateInput) (AccessCode, error) {
	if err := s.validate.Struct(input); err != nil {
		return AccessCode{}, err
	}
	if input.Status != StatusTrial && input.Status != StatusActive {
		return AccessCode{}, ErrInvalidStatus
	}
	now := s.now().UTC()
	ac := AccessCode{
		Code:        newCode(),
		KitchenName: input.KitchenName,
		Status:      input.Status,
		StartAt:     now,
		ExpiresAt:   now.AddDate(0, 0, input.Days),
	}
	return s.repo.Insert(ctx, ac)
}

// Resolve looks up an access code and applies lazy expiration: once the
// validity window has passed, the status flips to expired, is persisted,
// and the code no longer resolves.
func (s *Service) Resolve(ctx context.Context, code string) (AccessCode, error) {
	ac, err := s.repo.GetByCode(ctx, normalize(code))
	if err != nil {
		return AccessCode{}, err
	}
	if ac.Status != StatusExpired && ac.ExpiredAt(s.now().UTC()) {
		ac.Status = StatusExpired
		if err := s.repo.Update(ctx, ac); err != nil {
			return AccessCode{}, fmt.Errorf("tenant: mark expired: %w", err)
		}
	}
	if ac.Status == StatusExpired {
		return AccessCode{}, shared.ErrTenantExpired
	}
	return ac, nil
}

// Extend pushes the expiry forward by days, counted from the current expiry
// when it is still in the future, otherwise from now. Extending reactivates
// an expired code.
func (s *Service) Extend(ctx context.Context, code string, days int) (AccessCode, error) {
	if days <= 0 {
		return AccessCode{}, fmt.Errorf("tenant: days must be positive, got %d", days)
	}
	ac, err := s.repo.GetByCode(ctx, normalize(code))
	if err != nil {
		return AccessCode{}, err
	}
	now := s.now().UTC()
	base := ac.ExpiresAt
	if base.Before(now) {
		base = now
	}
	ac.ExpiresAt = base.AddDate(0, 0, days)
	ac.Status = StatusActive
	if ac.StartAt.IsZero() {
		ac.StartAt = now
	}
	if err := s.repo.Update(ctx, ac); err != nil {
		return AccessCode{}, err
	}
	return ac, nil
}

// Expire force-expires a code immediately.
func (s *Service) Expire(ctx context.Context, code string) (AccessCode, error) {
	ac, err := s.repo.GetByCode(ctx, normalize(code))
	if err != nil {
		return AccessCode{}, err
	}
	ac.Status = StatusExpired
	ac.ExpiresAt = s.now().UTC()
	if err := s.repo.Update(ctx, ac); err != nil {
		return AccessCode{}, err
	}
	return ac, nil
}

// List returns the most recently issued codes.
func (s *Service) List(ctx context.Context, limit int) ([]AccessCode, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func newCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "BDMBG-" + raw[:8]
}
