package sales

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
	ListInvoices(ctx context.Context, tenantID int64) ([]Invoice, error)
	GetInvoice(ctx context.Context, tenantID, id int64) (Invoice, error)
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	NextInvoiceSeq(ctx context.Context, tenantID int64, period string) (int64, error)
	InsertInvoice(ctx context.Context, inv Invoice) (int64, error)
	InsertInvoiceLine(ctx context.Context, l InvoiceLine) (int64, error)
	GetInvoiceForUpdate(ctx context.Context, tenantID, id int64) (Invoice, error)
	SetInvoicePayment(ctx context.Context, tenantID, id int64, paid float64, status Status) error
	DeleteInvoice(ctx context.Context, tenantID, id int64) error
	InsertPayment(ctx context.Context, p Payment) (int64, error)
	DeletePayment(ctx context.Context, tenantID, id int64) error
	GetPayment(ctx context.Context, tenantID, id int64) (Payment, error)
	SumPayments(ctx context.Context, tenantID, invoiceID int64) (float64, error)
	ListPaymentIDs(ctx context.Context, tenantID, invoiceID int64) ([]int64, error)
	GetAccountRef(ctx context.Context, tenantID int64, code string) (journals.Ref, error)
	ReplaceJournal(ctx context.Context, tenantID int64, draft journals.Draft) (int64, error)
	DropJournal(ctx context.Context, tenantID int64, source journals.Source, sourceID int64) error
	SetInvoiceJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error
	SetPaymentJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error
}

// Service issues invoices and tracks their collection.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// LineInput is one billed position.
type LineInput struct {
	Description string  `validate:"required,max=255"`
	Qty         float64 `validate:"gt=0"`
	UnitPrice   float64 `validate:"gte=0"`
}

// InvoiceInput groups fields for a new invoice.
type InvoiceInput struct {
	TenantID           int64       `validate:"required"`
	Date               time.Time   `validate:"required"`
	CustomerName       string      `validate:"required,max=120"`
	ARAccountCode      string      `validate:"required"`
	RevenueAccountCode string      `validate:"required"`
	Memo               string      `validate:"max=255"`
	Lines              []LineInput `validate:"required,min=1,dive"`
}

// CreateInvoice numbers and records an invoice, posting receivable against
// revenue for the document total.
func (s *Service) CreateInvoice(ctx context.Context, input InvoiceInput) (Invoice, error) {
	if err := s.validate.Struct(input); err != nil {
		return Invoice{}, err
	}
	var invoice Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		arRef, err := tx.GetAccountRef(ctx, input.TenantID, input.ARAccountCode)
		if err != nil {
			return err
		}
		revRef, err := tx.GetAccountRef(ctx, input.TenantID, input.RevenueAccountCode)
		if err != nil {
			return err
		}
		seq, err := tx.NextInvoiceSeq(ctx, input.TenantID, input.Date.Format("200601"))
		if err != nil {
			return err
		}

		var total float64
		for _, line := range input.Lines {
			total += line.Qty * line.UnitPrice
		}
		invoice = Invoice{
			TenantID:           input.TenantID,
			InvoiceNo:          InvoiceNo(input.Date, seq),
			Date:               input.Date,
			CustomerName:       input.CustomerName,
			Total:              total,
			Status:             StatusUnpaid,
			ARAccountCode:      arRef.Code,
			ARAccountName:      arRef.Name,
			RevenueAccountCode: revRef.Code,
			RevenueAccountName: revRef.Name,
			Memo:               input.Memo,
		}
		id, err := tx.InsertInvoice(ctx, invoice)
		if err != nil {
			return err
		}
		invoice.ID = id

		for _, line := range input.Lines {
			il := InvoiceLine{
				TenantID:    input.TenantID,
				InvoiceID:   invoice.ID,
				Description: line.Description,
				Qty:         line.Qty,
				UnitPrice:   line.UnitPrice,
				Subtotal:    line.Qty * line.UnitPrice,
			}
			if _, err := tx.InsertInvoiceLine(ctx, il); err != nil {
				return err
			}
			invoice.Lines = append(invoice.Lines, il)
		}

		draft := InvoiceJournal(invoice)
		if err := draft.Validate(); err != nil {
			return err
		}
		entryID, err := tx.ReplaceJournal(ctx, input.TenantID, draft)
		if err != nil {
			return err
		}
		invoice.JournalEntryID = &entryID
		return tx.SetInvoiceJournalRef(ctx, input.TenantID, invoice.ID, &entryID)
	})
	if err != nil {
		return Invoice{}, err
	}
	return invoice, nil
}

// PaymentInput groups fields for collecting an invoice.
type PaymentInput struct {
	TenantID        int64     `validate:"required"`
	Date            time.Time `validate:"required"`
	InvoiceID       int64     `validate:"required"`
	Amount          float64   `validate:"gt=0"`
	CashAccountCode string    `validate:"required"`
	CashAccountName string    `validate:"required"`
	Memo            string    `validate:"max=255"`
}

// CollectInvoice records a payment against an invoice and re-derives its
// paid amount and status from the full payment sum.
func (s *Service) CollectInvoice(ctx context.Context, input PaymentInput) (Payment, error) {
	if err := s.validate.Struct(input); err != nil {
		return Payment{}, err
	}
	var payment Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, err := tx.GetInvoiceForUpdate(ctx, input.TenantID, input.InvoiceID)
		if err != nil {
			return err
		}
		payment = Payment{
			TenantID:        input.TenantID,
			Date:            input.Date,
			InvoiceID:       invoice.ID,
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

		if err := s.refreshInvoice(ctx, tx, invoice); err != nil {
			return err
		}

		arRef := journals.Ref{Code: invoice.ARAccountCode, Name: invoice.ARAccountName}
		draft := PaymentJournal(payment, arRef)
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

// DeletePayment removes a payment, its entry, and re-derives the invoice
// paid amount and status.
func (s *Service) DeletePayment(ctx context.Context, tenantID, id int64) error {
	if tenantID == 0 || id == 0 {
		return errors.New("sales: tenant and id required")
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetPayment(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := tx.SetPaymentJournalRef(ctx, tenantID, id, nil); err != nil {
			return err
		}
		if err := tx.DropJournal(ctx, tenantID, journals.SourceARPayment, id); err != nil {
			return err
		}
		if err := tx.DeletePayment(ctx, tenantID, id); err != nil {
			return err
		}
		invoice, err := tx.GetInvoiceForUpdate(ctx, tenantID, payment.InvoiceID)
		if err != nil {
			return err
		}
		return s.refreshInvoice(ctx, tx, invoice)
	})
}

// DeleteInvoice removes an invoice with its lines, payments, and every
// entry they produced.
func (s *Service) DeleteInvoice(ctx context.Context, tenantID, id int64) error {
	if tenantID == 0 || id == 0 {
		return errors.New("sales: tenant and id required")
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetInvoiceForUpdate(ctx, tenantID, id); err != nil {
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
			if err := tx.DropJournal(ctx, tenantID, journals.SourceARPayment, pid); err != nil {
				return err
			}
			if err := tx.DeletePayment(ctx, tenantID, pid); err != nil {
				return err
			}
		}
		if err := tx.SetInvoiceJournalRef(ctx, tenantID, id, nil); err != nil {
			return err
		}
		if err := tx.DropJournal(ctx, tenantID, journals.SourceSalesInvoice, id); err != nil {
			return err
		}
		return tx.DeleteInvoice(ctx, tenantID, id)
	})
}

func (s *Service) refreshInvoice(ctx context.Context, tx TxRepository, invoice Invoice) error {
	sum, err := tx.SumPayments(ctx, invoice.TenantID, invoice.ID)
	if err != nil {
		return err
	}
	paid, status := DerivePayment(invoice.Total, sum)
	return tx.SetInvoicePayment(ctx, invoice.TenantID, invoice.ID, paid, status)
}

// Invoices lists the tenant's invoices, newest first.
func (s *Service) Invoices(ctx context.Context, tenantID int64) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, tenantID)
}

// Invoice returns one invoice with its lines.
func (s *Service) Invoice(ctx context.Context, tenantID, id int64) (Invoice, error) {
	return s.repo.GetInvoice(ctx, tenantID, id)
}
