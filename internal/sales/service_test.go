package sales

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bukudapur/bukudapur/internal/accounting/journals"
	"github.com/bukudapur/bukudapur/internal/shared"
)

type storedEntry struct {
	id    int64
	draft journals.Draft
}

type memoryRepo struct {
	invoices      map[int64]Invoice
	lines         map[int64]InvoiceLine
	payments      map[int64]Payment
	accounts      map[string]string
	entries       []storedEntry
	nextInvoiceID int64
	nextLineID    int64
	nextPaymentID int64
	nextEntryID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		invoices: make(map[int64]Invoice),
		lines:    make(map[int64]InvoiceLine),
		payments: make(map[int64]Payment),
		accounts: map[string]string{
			"10011": "Kas",
			"10031": "Piutang Usaha",
			"40011": "Pendapatan Penjualan",
		},
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListInvoices(ctx context.Context, tenantID int64) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if inv.TenantID == tenantID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetInvoice(ctx context.Context, tenantID, id int64) (Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (tx *memoryTx) NextInvoiceSeq(ctx context.Context, tenantID int64, period string) (int64, error) {
	prefix := "INV-" + period + "-"
	var max int64
	for _, inv := range tx.repo.invoices {
		if inv.TenantID != tenantID || !strings.HasPrefix(inv.InvoiceNo, prefix) {
			continue
		}
		n, err := strconv.ParseInt(inv.InvoiceNo[len(prefix):], 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}

func (tx *memoryTx) InsertInvoice(ctx context.Context, inv Invoice) (int64, error) {
	tx.repo.nextInvoiceID++
	inv.ID = tx.repo.nextInvoiceID
	inv.Lines = nil
	tx.repo.invoices[inv.ID] = inv
	return inv.ID, nil
}

func (tx *memoryTx) InsertInvoiceLine(ctx context.Context, l InvoiceLine) (int64, error) {
	tx.repo.nextLineID++
	l.ID = tx.repo.nextLineID
	tx.repo.lines[l.ID] = l
	return l.ID, nil
}

func (tx *memoryTx) GetInvoiceForUpdate(ctx context.Context, tenantID, id int64) (Invoice, error) {
	inv, ok := tx.repo.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (tx *memoryTx) SetInvoicePayment(ctx context.Context, tenantID, id int64, paid float64, status Status) error {
	inv, ok := tx.repo.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	inv.PaidAmount = paid
	inv.Status = status
	tx.repo.invoices[id] = inv
	return nil
}

func (tx *memoryTx) DeleteInvoice(ctx context.Context, tenantID, id int64) error {
	for lid, l := range tx.repo.lines {
		if l.InvoiceID == id {
			delete(tx.repo.lines, lid)
		}
	}
	delete(tx.repo.invoices, id)
	return nil
}

func (tx *memoryTx) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	tx.repo.nextPaymentID++
	p.ID = tx.repo.nextPaymentID
	tx.repo.payments[p.ID] = p
	return p.ID, nil
}

func (tx *memoryTx) DeletePayment(ctx context.Context, tenantID, id int64) error {
	delete(tx.repo.payments, id)
	return nil
}

func (tx *memoryTx) GetPayment(ctx context.Context, tenantID, id int64) (Payment, error) {
	p, ok := tx.repo.payments[id]
	if !ok || p.TenantID != tenantID {
		return Payment{}, shared.ErrNotFound
	}
	return p, nil
}

func (tx *memoryTx) SumPayments(ctx context.Context, tenantID, invoiceID int64) (float64, error) {
	var sum float64
	for _, p := range tx.repo.payments {
		if p.TenantID == tenantID && p.InvoiceID == invoiceID {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (tx *memoryTx) ListPaymentIDs(ctx context.Context, tenantID, invoiceID int64) ([]int64, error) {
	var out []int64
	for _, p := range tx.repo.payments {
		if p.TenantID == tenantID && p.InvoiceID == invoiceID {
			out = append(out, p.ID)
		}
	}
	return out, nil
}

func (tx *memoryTx) GetAccountRef(ctx context.Context, tenantID int64, code string) (journals.Ref, error) {
	name, ok := tx.repo.accounts[code]
	if !ok {
		return journals.Ref{}, fmt.Errorf("account %q: %w", code, shared.ErrMissingAccount)
	}
	return journals.Ref{Code: code, Name: name}, nil
}

func (tx *memoryTx) ReplaceJournal(ctx context.Context, tenantID int64, draft journals.Draft) (int64, error) {
	_ = tx.DropJournal(ctx, tenantID, draft.Source, draft.SourceID)
	tx.repo.nextEntryID++
	tx.repo.entries = append(tx.repo.entries, storedEntry{id: tx.repo.nextEntryID, draft: draft})
	return tx.repo.nextEntryID, nil
}

func (tx *memoryTx) DropJournal(ctx context.Context, tenantID int64, source journals.Source, sourceID int64) error {
	kept := tx.repo.entries[:0]
	for _, e := range tx.repo.entries {
		if e.draft.Source != source || e.draft.SourceID != sourceID {
			kept = append(kept, e)
		}
	}
	tx.repo.entries = kept
	return nil
}

func (tx *memoryTx) SetInvoiceJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error {
	inv, ok := tx.repo.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	inv.JournalEntryID = entryID
	tx.repo.invoices[id] = inv
	return nil
}

func (tx *memoryTx) SetPaymentJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error {
	p, ok := tx.repo.payments[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.JournalEntryID = entryID
	tx.repo.payments[id] = p
	return nil
}

func invoiceInput() InvoiceInput {
	return InvoiceInput{
		TenantID:           1,
		Date:               time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
		CustomerName:       "Dinas Pendidikan",
		ARAccountCode:      "10031",
		RevenueAccountCode: "40011",
		Lines:              []LineInput{{Description: "Paket makan siang", Qty: 100, UnitPrice: 15}},
	}
}

func TestCreateInvoiceJournalShape(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	invoice, err := svc.CreateInvoice(ctx, invoiceInput())
	require.NoError(t, err)
	require.Equal(t, "INV-202504-0001", invoice.InvoiceNo)
	require.InDelta(t, 1500.0, invoice.Total, 0.0001)
	require.Equal(t, StatusUnpaid, invoice.Status)
	require.NotNil(t, invoice.JournalEntryID)

	require.Len(t, repo.entries, 1)
	draft := repo.entries[0].draft
	require.Equal(t, journals.SourceSalesInvoice, draft.Source)
	require.Equal(t, "10031", draft.Lines[0].Account.Code)
	require.InDelta(t, 1500.0, draft.Lines[0].Debit, 0.0001)
	require.Equal(t, "40011", draft.Lines[1].Account.Code)
	require.InDelta(t, 1500.0, draft.Lines[1].Credit, 0.0001)
}

func TestInvoiceNumbersIncrementPerMonth(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.CreateInvoice(ctx, invoiceInput())
	require.NoError(t, err)
	second, err := svc.CreateInvoice(ctx, invoiceInput())
	require.NoError(t, err)
	require.Equal(t, "INV-202504-0001", first.InvoiceNo)
	require.Equal(t, "INV-202504-0002", second.InvoiceNo)

	input := invoiceInput()
	input.Date = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	third, err := svc.CreateInvoice(ctx, input)
	require.NoError(t, err)
	require.Equal(t, "INV-202505-0001", third.InvoiceNo)
}

func TestInvoiceNumbersNeverReissuedAfterDelete(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.CreateInvoice(ctx, invoiceInput())
	require.NoError(t, err)
	second, err := svc.CreateInvoice(ctx, invoiceInput())
	require.NoError(t, err)
	require.Equal(t, "INV-202504-0002", second.InvoiceNo)

	require.NoError(t, svc.DeleteInvoice(ctx, 1, first.ID))

	third, err := svc.CreateInvoice(ctx, invoiceInput())
	require.NoError(t, err)
	require.Equal(t, "INV-202504-0003", third.InvoiceNo)
}

func TestCreateInvoiceMissingAccount(t *testing.T) {
	repo := newMemoryRepo()
	delete(repo.accounts, "40011")
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, invoiceInput())
	require.ErrorIs(t, err, shared.ErrMissingAccount)
	require.Empty(t, repo.invoices)
}

func TestCollectInvoiceProgressesStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	invoice, err := svc.CreateInvoice(ctx, invoiceInput())
	require.NoError(t, err)

	pay := PaymentInput{
		TenantID: 1, Date: invoice.Date, InvoiceID: invoice.ID, Amount: 600,
		CashAccountCode: "10011", CashAccountName: "Kas",
	}
	_, err = svc.CollectInvoice(ctx, pay)
	require.NoError(t, err)
	require.Equal(t, StatusPartial, repo.invoices[invoice.ID].Status)
	require.InDelta(t, 600.0, repo.invoices[invoice.ID].PaidAmount, 0.0001)

	pay.Amount = 900
	payment, err := svc.CollectInvoice(ctx, pay)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, repo.invoices[invoice.ID].Status)

	draft := repo.entries[len(repo.entries)-1].draft
	require.Equal(t, journals.SourceARPayment, draft.Source)
	require.Equal(t, payment.ID, draft.SourceID)
	require.Equal(t, "10011", draft.Lines[0].Account.Code)
	require.InDelta(t, 900.0, draft.Lines[0].Debit, 0.0001)
	require.Equal(t, "10031", draft.Lines[1].Account.Code)
	require.InDelta(t, 900.0, draft.Lines[1].Credit, 0.0001)
}

func TestOverpaymentClampsToTotal(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	invoice, err := svc.CreateInvoice(ctx, invoiceInput())
	require.NoError(t, err)

	_, err = svc.CollectInvoice(ctx, PaymentInput{
		TenantID: 1, Date: invoice.Date, InvoiceID: invoice.ID, Amount: 2000,
		CashAccountCode: "10011", CashAccountName: "Kas",
	})
	require.NoError(t, err)
	require.InDelta(t, 1500.0, repo.invoices[invoice.ID].PaidAmount, 0.0001)
	require.Equal(t, StatusPaid, repo.invoices[invoice.ID].Status)
}

func TestDeletePaymentRevertsStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	invoice, err := svc.CreateInvoice(ctx, invoiceInput())
	require.NoError(t, err)
	payment, err := svc.CollectInvoice(ctx, PaymentInput{
		TenantID: 1, Date: invoice.Date, InvoiceID: invoice.ID, Amount: 1500,
		CashAccountCode: "10011", CashAccountName: "Kas",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, repo.invoices[invoice.ID].Status)

	require.NoError(t, svc.DeletePayment(ctx, 1, payment.ID))
	require.Equal(t, StatusUnpaid, repo.invoices[invoice.ID].Status)
	require.Zero(t, repo.invoices[invoice.ID].PaidAmount)
	require.Len(t, repo.entries, 1)
}

func TestDeleteInvoiceRemovesEverything(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	invoice, err := svc.CreateInvoice(ctx, invoiceInput())
	require.NoError(t, err)
	_, err = svc.CollectInvoice(ctx, PaymentInput{
		TenantID: 1, Date: invoice.Date, InvoiceID: invoice.ID, Amount: 500,
		CashAccountCode: "10011", CashAccountName: "Kas",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteInvoice(ctx, 1, invoice.ID))
	require.Empty(t, repo.invoices)
	require.Empty(t, repo.lines)
	require.Empty(t, repo.payments)
	require.Empty(t, repo.entries)
}

func TestDerivePayment(t *testing.T) {
	paid, status := DerivePayment(1000, 0)
	require.Zero(t, paid)
	require.Equal(t, StatusUnpaid, status)

	paid, status = DerivePayment(1000, 400)
	require.InDelta(t, 400.0, paid, 0.0001)
	require.Equal(t, StatusPartial, status)

	paid, status = DerivePayment(1000, 1000)
	require.InDelta(t, 1000.0, paid, 0.0001)
	require.Equal(t, StatusPaid, status)

	paid, status = DerivePayment(1000, 1250)
	require.InDelta(t, 1000.0, paid, 0.0001)
	require.Equal(t, StatusPaid, status)
}
