package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bukudapur/bukudapur/internal/accounting/accounts"
	"github.com/bukudapur/bukudapur/internal/accounting/journals"
	"github.com/bukudapur/bukudapur/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListItems(ctx context.Context, tenantID int64) ([]Item, error)
	InsertItem(ctx context.Context, item Item) (Item, error)
	ListUsages(ctx context.Context, tenantID int64) ([]Usage, error)
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, tenantID, itemID int64) (Item, error)
	UpdateItemValuation(ctx context.Context, tenantID, itemID int64, qty, avgCost float64) error
	InsertUsage(ctx context.Context, u Usage) (int64, error)
	DeleteUsage(ctx context.Context, tenantID, id int64) error
	GetAccountRef(ctx context.Context, tenantID int64, code string) (journals.Ref, error)
	ReplaceJournal(ctx context.Context, tenantID int64, draft journals.Draft) (int64, error)
	DropJournal(ctx context.Context, tenantID int64, source journals.Source, sourceID int64) error
	SetUsageJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error
}

// Service maintains items and records stock consumption.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// ItemInput groups fields for a new stock item.
type ItemInput struct {
	TenantID int64   `validate:"required"`
	Name     string  `validate:"required,max=120"`
	Category string  `validate:"max=80"`
	Unit     string  `validate:"required,max=20"`
	MinStock float64 `validate:"gte=0"`
}

// CreateItem registers a stock item with zero quantity and cost.
func (s *Service) CreateItem(ctx context.Context, input ItemInput) (Item, error) {
	if err := s.validate.Struct(input); err != nil {
		return Item{}, err
	}
	return s.repo.InsertItem(ctx, Item{
		TenantID: input.TenantID,
		Name:     input.Name,
		Category: input.Category,
		Unit:     input.Unit,
		MinStock: input.MinStock,
		IsActive: true,
	})
}

// Items lists the tenant's stock items.
func (s *Service) Items(ctx context.Context, tenantID int64) ([]Item, error) {
	return s.repo.ListItems(ctx, tenantID)
}

// LowStock lists items that fell below their minimum stock threshold.
func (s *Service) LowStock(ctx context.Context, tenantID int64) ([]Item, error) {
	items, err := s.repo.ListItems(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var out []Item
	for _, item := range items {
		if item.IsActive && item.BelowMinStock() {
			out = append(out, item)
		}
	}
	return out, nil
}

// UsageInput groups fields for recording consumption.
type UsageInput struct {
	TenantID       int64     `validate:"required"`
	Date           time.Time `validate:"required"`
	ItemID         int64     `validate:"required"`
	Qty            float64   `validate:"gt=0"`
	HPPAccountCode string    `validate:"required"`
	HPPAccountName string    `validate:"required"`
	Memo           string    `validate:"max=255"`
}

// RecordUsage consumes stock at the item's current average cost and posts
// the HPP entry. Consuming more than is on hand is a caller precondition
// failure, rejected before any write; only rebuild replay clamps instead.
func (s *Service) RecordUsage(ctx context.Context, input UsageInput) (Usage, error) {
	if err := s.validate.Struct(input); err != nil {
		return Usage{}, err
	}
	var usage Usage
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, input.TenantID, input.ItemID)
		if err != nil {
			return err
		}
		if input.Qty > item.StockQty+shared.BalanceTolerance {
			return shared.ErrInsufficientStock
		}

		state := State{Qty: item.StockQty, AvgCost: item.AvgCost}
		next := Apply(state, Event{Kind: EventUsage, Qty: input.Qty})
		if err := tx.UpdateItemValuation(ctx, input.TenantID, item.ID, next.Qty, next.AvgCost); err != nil {
			return err
		}

		usage = Usage{
			TenantID:       input.TenantID,
			Date:           input.Date,
			ItemID:         item.ID,
			ItemName:       item.Name,
			Qty:            input.Qty,
			UnitCost:       item.AvgCost,
			TotalCost:      ConsumedCost(state, input.Qty),
			HPPAccountCode: input.HPPAccountCode,
			HPPAccountName: input.HPPAccountName,
			Memo:           input.Memo,
		}
		id, err := tx.InsertUsage(ctx, usage)
		if err != nil {
			return err
		}
		usage.ID = id

		invRef, err := tx.GetAccountRef(ctx, input.TenantID, accounts.CodeInventory)
		if err != nil {
			return err
		}
		draft := UsageJournal(usage, invRef)
		if err := draft.Validate(); err != nil {
			return err
		}
		entryID, err := tx.ReplaceJournal(ctx, input.TenantID, draft)
		if err != nil {
			return err
		}
		usage.JournalEntryID = &entryID
		return tx.SetUsageJournalRef(ctx, input.TenantID, usage.ID, &entryID)
	})
	if err != nil {
		return Usage{}, err
	}
	return usage, nil
}

// DeleteUsage removes a consumption and its entry. Because average-cost
// history is path dependent the caller must follow up with a full tenant
// rebuild; item fields are left to that replay.
func (s *Service) DeleteUsage(ctx context.Context, tenantID, id int64) error {
	if tenantID == 0 || id == 0 {
		return errors.New("inventory: tenant and id required")
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.SetUsageJournalRef(ctx, tenantID, id, nil); err != nil {
			return err
		}
		if err := tx.DropJournal(ctx, tenantID, journals.SourceStockUsage, id); err != nil {
			return err
		}
		return tx.DeleteUsage(ctx, tenantID, id)
	})
}

// Usages lists the tenant's recorded consumption, newest first.
func (s *Service) Usages(ctx context.Context, tenantID int64) ([]Usage, error) {
	return s.repo.ListUsages(ctx, tenantID)
}
