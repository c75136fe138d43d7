package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bukudapur/bukudapur/internal/accounting/accounts"
	"github.com/bukudapur/bukudapur/internal/accounting/journals"
	"github.com/bukudapur/bukudapur/internal/inventory"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListPurchases(ctx context.Context, tenantID int64) ([]Purchase, error)
	GetPurchase(ctx context.Context, tenantID, id int64) (Purchase, error)
	ListSuppliers(ctx context.Context, tenantID int64) ([]Supplier, error)
	InsertSupplier(ctx context.Context, s Supplier) (Supplier, error)
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	InsertPurchase(ctx context.Context, p Purchase) (int64, error)
	InsertPurchaseLine(ctx context.Context, l PurchaseLine) (int64, error)
	GetPurchaseForUpdate(ctx context.Context, tenantID, id int64) (Purchase, error)
	SetPurchasePaid(ctx context.Context, tenantID, id int64, paid bool) error
	DeletePurchase(ctx context.Context, tenantID, id int64) error
	InsertPayment(ctx context.Context, p Payment) (int64, error)
	DeletePayment(ctx context.Context, tenantID, id int64) error
	GetPayment(ctx context.Context, tenantID, id int64) (Payment, error)
	SumPayments(ctx context.Context, tenantID, purchaseID int64) (float64, error)
	ListPaymentIDs(ctx context.Context, tenantID, purchaseID int64) ([]int64, error)
	GetItemForUpdate(ctx context.Context, tenantID, itemID int64) (inventory.Item, error)
	UpdateItemValuation(ctx context.Context, tenantID, itemID int64, qty, avgCost float64) error
	GetAccountRef(ctx context.Context, tenantID int64, code string) (journals.Ref, error)
	ReplaceJournal(ctx context.Context, tenantID int64, draft journals.Draft) (int64, error)
	DropJournal(ctx context.Context, tenantID int64, source journals.Source, sourceID int64) error
	SetPurchaseJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error
	SetPaymentJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error
}

// Service records purchases and their settlement.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// SupplierInput groups fields for a new supplier.
type SupplierInput struct {
	TenantID int64  `validate:"required"`
	Name     string `validate:"required,max=120"`
	Phone    string `validate:"max=30"`
	Address  string `validate:"max=255"`
}

// CreateSupplier registers a supplier.
func (s *Service) CreateSupplier(ctx context.Context, input SupplierInput) (Supplier, error) {
	if err := s.validate.Struct(input); err != nil {
		return Supplier{}, err
	}
	return s.repo.InsertSupplier(ctx, Supplier{
		TenantID: input.TenantID,
		Name:     input.Name,
		Phone:    input.Phone,
		Address:  input.Address,
		IsActive: true,
	})
}

// Suppliers lists the tenant's suppliers.
func (s *Service) Suppliers(ctx context.Context, tenantID int64) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx, tenantID)
}

// LineInput is one item received on a purchase.
type LineInput struct {
	ItemID   int64   `validate:"required"`
	Qty      float64 `validate:"gt=0"`
	UnitCost float64 `validate:"gte=0"`
}

// PurchaseInput groups fields for a new purchase.
type PurchaseInput struct {
	TenantID     int64       `validate:"required"`
	Date         time.Time   `validate:"required"`
	SupplierID   int64       `validate:"required"`
	SupplierName string      `validate:"required,max=120"`
	Memo         string      `validate:"max=255"`
	Lines        []LineInput `validate:"required,min=1,dive"`
}

// CreatePurchase records a purchase on account: stock and average cost move
// on every line, and one entry is posted for the whole document.
func (s *Service) CreatePurchase(ctx context.Context, input PurchaseInput) (Purchase, error) {
	if err := s.validate.Struct(input); err != nil {
		return Purchase{}, err
	}
	var purchase Purchase
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var total float64
		for _, line := range input.Lines {
			total += line.Qty * line.UnitCost
		}
		purchase = Purchase{
			TenantID:     input.TenantID,
			Date:         input.Date,
			SupplierID:   input.SupplierID,
			SupplierName: input.SupplierName,
			Total:        total,
			Memo:         input.Memo,
		}
		id, err := tx.InsertPurchase(ctx, purchase)
		if err != nil {
			return err
		}
		purchase.ID = id

		for _, line := range input.Lines {
			item, err := tx.GetItemForUpdate(ctx, input.TenantID, line.ItemID)
			if err != nil {
				return err
			}
			next := inventory.Apply(inventory.State{Qty: item.StockQty, AvgCost: item.AvgCost},
				inventory.Event{Kind: inventory.EventPurchase, Qty: line.Qty, UnitCost: line.UnitCost})
			if err := tx.UpdateItemValuation(ctx, input.TenantID, item.ID, next.Qty, next.AvgCost); err != nil {
				return err
			}
			pl := PurchaseLine{
				TenantID:   input.TenantID,
				PurchaseID: purchase.ID,
				ItemID:     item.ID,
				ItemName:   item.Name,
				Qty:        line.Qty,
				UnitCost:   line.UnitCost,
				Subtotal:   line.Qty * line.UnitCost,
			}
			if _, err := tx.InsertPurchaseLine(ctx, pl); err != nil {
				return err
			}
			purchase.Lines = append(purchase.Lines, pl)
		}

		invRef, err := tx.GetAccountRef(ctx, input.TenantID, accounts.CodeInventory)
		if err != nil {
			return err
		}
		apRef, err := tx.GetAccountRef(ctx, input.TenantID, accounts.CodePayable)
		if err != nil {
			return err
		}
		draft := PurchaseJournal(purchase, invRef, apRef)
		if err := draft.Validate(); err != nil {
			return err
		}
		entryID, err := tx.ReplaceJournal(ctx, input.TenantID, draft)
		if err != nil {
			return err
		}
		purchase.JournalEntryID = &entryID
		return tx.SetPurchaseJournalRef(ctx, input.TenantID, purchase.ID, &entryID)
	})
	if err != nil {
		return Purchase{}, err
	}
	return purchase, nil
}

// PaymentInput groups fields for settling a purchase.
type PaymentInput struct {
	TenantID        int64     `validate:"required"`
	Date            time.Time `validate:"required"`
	PurchaseID      int64     `validate:"required"`
	Amount          float64   `validate:"gt=0"`
	CashAccountCode string    `validate:"required"`
	CashAccountName string    `validate:"required"`
	Memo            string    `validate:"max=255"`
}

// PayPurchase records a payment against a purchase and re-derives its paid
// flag from the full payment sum.
func (s *Service) PayPurchase(ctx context.Context, input PaymentInput) (Payment, error) {
	if err := s.validate.Struct(input); err != nil {
		return Payment{}, err
	}
	var payment Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		purchase, err := tx.GetPurchaseForUpdate(ctx, input.TenantID, input.PurchaseID)
		if err != nil {
			return err
		}
		payment = Payment{
			TenantID:        input.TenantID,
			Date:            input.Date,
			PurchaseID:      purchase.ID,
			Amount:          input.Amount,
			CashAccountCode: input.CashAccountCode,
			CashAccountName: input.CashAccountName,
			Memo:            input.Memo,
		}
		id, err := tx.InsertPayment(ctx, payment)
		if err != nil {
			return err
		}
		payment.ID = id

		paid, err := tx.SumPayments(ctx, input.TenantID, purchase.ID)
		if err != nil {
			return err
		}
		if err := tx.SetPurchasePaid(ctx, input.TenantID, purchase.ID, Settled(purchase.Total, paid)); err != nil {
			return err
		}

		apRef, err := tx.GetAccountRef(ctx, input.TenantID, accounts.CodePayable)
		if err != nil {
			return err
		}
		draft := PaymentJournal(payment, apRef)
		if err := draft.Validate(); err != nil {
			return err
		}
		entryID, err := tx.ReplaceJournal(ctx, input.TenantID, draft)
		if err != nil {
			return err
		}
		payment.JournalEntryID = &entryID
		return tx.SetPaymentJournalRef(ctx, input.TenantID, payment.ID, &entryID)
	})
	if err != nil {
		return Payment{}, err
	}
	return payment, nil
}

// DeletePayment removes a payment, its entry, and re-derives the purchase
// paid flag.
func (s *Service) DeletePayment(ctx context.Context, tenantID, id int64) error {
	if tenantID == 0 || id == 0 {
		return errors.New("procurement: tenant and id required")
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetPayment(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := tx.SetPaymentJournalRef(ctx, tenantID, id, nil); err != nil {
			return err
		}
		if err := tx.DropJournal(ctx, tenantID, journals.SourceAPPayment, id); err != nil {
			return err
		}
		if err := tx.DeletePayment(ctx, tenantID, id); err != nil {
			return err
		}
		purchase, err := tx.GetPurchaseForUpdate(ctx, tenantID, payment.PurchaseID)
		if err != nil {
			return err
		}
		paid, err := tx.SumPayments(ctx, tenantID, purchase.ID)
		if err != nil {
			return err
		}
		return tx.SetPurchasePaid(ctx, tenantID, purchase.ID, Settled(purchase.Total, paid))
	})
}

// DeletePurchase removes a purchase with its lines, payments, and every
// entry they produced. Item stock and average cost are path dependent, so
// the caller must follow up with a full tenant rebuild.
func (s *Service) DeletePurchase(ctx context.Context, tenantID, id int64) error {
	if tenantID == 0 || id == 0 {
		return errors.New("procurement: tenant and id required")
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetPurchaseForUpdate(ctx, tenantID, id); err != nil {
			return err
		}
		paymentIDs, err := tx.ListPaymentIDs(ctx, tenantID, id)
		if err != nil {
			return err
		}
		for _, pid := range paymentIDs {
			if err := tx.SetPaymentJournalRef(ctx, tenantID, pid, nil); err != nil {
				return err
			}
			if err := tx.DropJournal(ctx, tenantID, journals.SourceAPPayment, pid); err != nil {
				return err
			}
			if err := tx.DeletePayment(ctx, tenantID, pid); err != nil {
				return err
			}
		}
		if err := tx.SetPurchaseJournalRef(ctx, tenantID, id, nil); err != nil {
			return err
		}
		if err := tx.DropJournal(ctx, tenantID, journals.SourcePurchase, id); err != nil {
			return err
		}
		return tx.DeletePurchase(ctx, tenantID, id)
	})
}

// Purchases lists the tenant's purchases, newest first.
func (s *Service) Purchases(ctx context.Context, tenantID int64) ([]Purchase, error) {
	return s.repo.ListPurchases(ctx, tenantID)
}

// Purchase returns one purchase with its lines.
func (s *Service) Purchase(ctx context.Context, tenantID, id int64) (Purchase, error) {
	return s.repo.GetPurchase(ctx, tenantID, id)
}
