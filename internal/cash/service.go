package cash

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bukudapur/bukudapur/internal/accounting/journals"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, tenantID int64) ([]Transaction, error)
	Get(ctx context.Context, tenantID, id int64) (Transaction, error)
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	Insert(ctx context.Context, t Transaction) (int64, error)
	Update(ctx context.Context, t Transaction) error
	Delete(ctx context.Context, tenantID, id int64) error
	ReplaceJournal(ctx context.Context, tenantID int64, draft journals.Draft) (int64, error)
	DropJournal(ctx context.Context, tenantID int64, source journals.Source, sourceID int64) error
	SetJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error
}

// Service records cash movements and keeps their journal entries in step.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// Input groups fields for creating or updating a cash movement.
type Input struct {
	TenantID           int64     `validate:"required"`
	Date               time.Time `validate:"required"`
	Direction          Direction `validate:"required,oneof=in out"`
	CashAccountCode    string    `validate:"required"`
	CashAccountName    string    `validate:"required"`
	CounterAccountCode string    `validate:"required"`
	CounterAccountName string    `validate:"required"`
	Amount             float64   `validate:"gt=0"`
	Memo               string    `validate:"max=255"`
}

// Create stores a cash movement and writes its journal entry in the same
// transaction, with the back-reference attached.
func (s *Service) Create(ctx context.Context, input Input) (Transaction, error) {
	if err := s.validate.Struct(input); err != nil {
		return Transaction{}, err
	}
	t := fromInput(input)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.Insert(ctx, t)
		if err != nil {
			return err
		}
		t.ID = id
		return replaceJournal(ctx, tx, &t)
	})
	if err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Update replaces the stored movement and regenerates its entry. Cash
// movements never touch inventory, so no rebuild is needed afterwards.
func (s *Service) Update(ctx context.Context, id int64, input Input) (Transaction, error) {
	if err := s.validate.Struct(input); err != nil {
		return Transaction{}, err
	}
	if id == 0 {
		return Transaction{}, errors.New("cash: id required")
	}
	t := fromInput(input)
	t.ID = id
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.Update(ctx, t); err != nil {
			return err
		}
		return replaceJournal(ctx, tx, &t)
	})
	if err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Delete removes the movement together with its journal entry.
func (s *Service) Delete(ctx context.Context, tenantID, id int64) error {
	if tenantID == 0 || id == 0 {
		return errors.New("cash: tenant and id required")
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.SetJournalRef(ctx, tenantID, id, nil); err != nil {
			return err
		}
		if err := tx.DropJournal(ctx, tenantID, journals.SourceCash, id); err != nil {
			return err
		}
		return tx.Delete(ctx, tenantID, id)
	})
}

// List returns the tenant's movements, newest first.
func (s *Service) List(ctx context.Context, tenantID int64) ([]Transaction, error) {
	return s.repo.List(ctx, tenantID)
}

func fromInput(input Input) Transaction {
	return Transaction{
		TenantID:           input.TenantID,
		Date:               input.Date,
		Direction:          input.Direction,
		CashAccountCode:    input.CashAccountCode,
		CashAccountName:    input.CashAccountName,
		CounterAccountCode: input.CounterAccountCode,
		CounterAccountName: input.CounterAccountName,
		Amount:             input.Amount,
		Memo:               input.Memo,
	}
}

func replaceJournal(ctx context.Context, tx TxRepository, t *Transaction) error {
	draft := JournalDraft(*t)
	if err := draft.Validate(); err != nil {
		return err
	}
	entryID, err := tx.ReplaceJournal(ctx, t.TenantID, draft)
	if err != nil {
		return err
	}
	t.JournalEntryID = &entryID
	return tx.SetJournalRef(ctx, t.TenantID, t.ID, &entryID)
}
