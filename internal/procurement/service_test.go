package procurement

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bukudapur/bukudapur/internal/accounting/journals"
	"github.com/bukudapur/bukudapur/internal/inventory"
	"github.com/bukudapur/bukudapur/internal/shared"
)

type storedEntry struct {
	id    int64
	draft journals.Draft
}

type memoryRepo struct {
	suppliers      map[int64]Supplier
	purchases      map[int64]Purchase
	lines          map[int64]PurchaseLine
	payments       map[int64]Payment
	items          map[int64]inventory.Item
	accounts       map[string]string
	entries        []storedEntry
	nextSupplierID int64
	nextPurchaseID int64
	nextLineID     int64
	nextPaymentID  int64
	nextItemID     int64
	nextEntryID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		suppliers: make(map[int64]Supplier),
		purchases: make(map[int64]Purchase),
		lines:     make(map[int64]PurchaseLine),
		payments:  make(map[int64]Payment),
		items:     make(map[int64]inventory.Item),
		accounts: map[string]string{
			"10011": "Kas",
			"10051": "Persediaan Bahan",
			"20011": "Hutang Usaha",
		},
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListPurchases(ctx context.Context, tenantID int64) ([]Purchase, error) {
	var out []Purchase
	for _, p := range r.purchases {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetPurchase(ctx context.Context, tenantID, id int64) (Purchase, error) {
	p, ok := r.purchases[id]
	if !ok || p.TenantID != tenantID {
		return Purchase{}, shared.ErrNotFound
	}
	for _, l := range r.lines {
		if l.PurchaseID == id {
			p.Lines = append(p.Lines, l)
		}
	}
	return p, nil
}

func (r *memoryRepo) ListSuppliers(ctx context.Context, tenantID int64) ([]Supplier, error) {
	var out []Supplier
	for _, s := range r.suppliers {
		if s.TenantID == tenantID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryRepo) InsertSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	r.nextSupplierID++
	s.ID = r.nextSupplierID
	r.suppliers[s.ID] = s
	return s, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (tx *memoryTx) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	tx.repo.nextPurchaseID++
	p.ID = tx.repo.nextPurchaseID
	p.Lines = nil
	tx.repo.purchases[p.ID] = p
	return p.ID, nil
}

func (tx *memoryTx) InsertPurchaseLine(ctx context.Context, l PurchaseLine) (int64, error) {
	tx.repo.nextLineID++
	l.ID = tx.repo.nextLineID
	tx.repo.lines[l.ID] = l
	return l.ID, nil
}

func (tx *memoryTx) GetPurchaseForUpdate(ctx context.Context, tenantID, id int64) (Purchase, error) {
	p, ok := tx.repo.purchases[id]
	if !ok || p.TenantID != tenantID {
		return Purchase{}, shared.ErrNotFound
	}
	return p, nil
}

func (tx *memoryTx) SetPurchasePaid(ctx context.Context, tenantID, id int64, paid bool) error {
	p, ok := tx.repo.purchases[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.IsPaid = paid
	tx.repo.purchases[id] = p
	return nil
}

func (tx *memoryTx) DeletePurchase(ctx context.Context, tenantID, id int64) error {
	for lid, l := range tx.repo.lines {
		if l.PurchaseID == id {
			delete(tx.repo.lines, lid)
		}
	}
	delete(tx.repo.purchases, id)
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

func (tx *memoryTx) SumPayments(ctx context.Context, tenantID, purchaseID int64) (float64, error) {
	var sum float64
	for _, p := range tx.repo.payments {
		if p.TenantID == tenantID && p.PurchaseID == purchaseID {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (tx *memoryTx) ListPaymentIDs(ctx context.Context, tenantID, purchaseID int64) ([]int64, error) {
	var out []int64
	for _, p := range tx.repo.payments {
		if p.TenantID == tenantID && p.PurchaseID == purchaseID {
			out = append(out, p.ID)
		}
	}
	return out, nil
}

func (tx *memoryTx) GetItemForUpdate(ctx context.Context, tenantID, itemID int64) (inventory.Item, error) {
	it, ok := tx.repo.items[itemID]
	if !ok || it.TenantID != tenantID {
		return inventory.Item{}, shared.ErrNotFound
	}
	return it, nil
}

func (tx *memoryTx) UpdateItemValuation(ctx context.Context, tenantID, itemID int64, qty, avgCost float64) error {
	it, ok := tx.repo.items[itemID]
	if !ok {
		return shared.ErrNotFound
	}
	it.StockQty = qty
	it.AvgCost = avgCost
	tx.repo.items[itemID] = it
	return nil
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

func (tx *memoryTx) SetPurchaseJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error {
	p, ok := tx.repo.purchases[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.JournalEntryID = entryID
	tx.repo.purchases[id] = p
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

func seedItem(repo *memoryRepo, qty, avgCost float64) inventory.Item {
	repo.nextItemID++
	item := inventory.Item{
		ID:       repo.nextItemID,
		TenantID: 1,
		Name:     "Beras",
		Unit:     "kg",
		StockQty: qty,
		AvgCost:  avgCost,
		IsActive: true,
	}
	repo.items[item.ID] = item
	return item
}

func purchaseInput(itemID int64, qty, unitCost float64) PurchaseInput {
	return PurchaseInput{
		TenantID:     1,
		Date:         time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		SupplierID:   7,
		SupplierName: "CV Sumber Pangan",
		Lines:        []LineInput{{ItemID: itemID, Qty: qty, UnitCost: unitCost}},
	}
}

func TestCreatePurchaseMovesAverageCost(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	item := seedItem(repo, 10, 100)

	purchase, err := svc.CreatePurchase(ctx, purchaseInput(item.ID, 10, 200))
	require.NoError(t, err)
	require.InDelta(t, 2000.0, purchase.Total, 0.0001)
	require.False(t, purchase.IsPaid)

	updated := repo.items[item.ID]
	require.InDelta(t, 20.0, updated.StockQty, 0.0001)
	require.InDelta(t, 150.0, updated.AvgCost, 0.0001)
}

func TestCreatePurchaseJournalShape(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	item := seedItem(repo, 0, 0)

	purchase, err := svc.CreatePurchase(ctx, purchaseInput(item.ID, 5, 300))
	require.NoError(t, err)
	require.NotNil(t, purchase.JournalEntryID)

	require.Len(t, repo.entries, 1)
	draft := repo.entries[0].draft
	require.Equal(t, journals.SourcePurchase, draft.Source)
	require.Equal(t, purchase.ID, draft.SourceID)
	require.Equal(t, "10051", draft.Lines[0].Account.Code)
	require.InDelta(t, 1500.0, draft.Lines[0].Debit, 0.0001)
	require.Equal(t, "20011", draft.Lines[1].Account.Code)
	require.InDelta(t, 1500.0, draft.Lines[1].Credit, 0.0001)
}

func TestCreatePurchaseMissingItemRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.CreatePurchase(ctx, purchaseInput(99, 5, 300))
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPayPurchaseDerivesPaidFlag(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	item := seedItem(repo, 0, 0)

	purchase, err := svc.CreatePurchase(ctx, purchaseInput(item.ID, 10, 100))
	require.NoError(t, err)

	pay := PaymentInput{
		TenantID:        1,
		Date:            time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC),
		PurchaseID:      purchase.ID,
		Amount:          400,
		CashAccountCode: "10011",
		CashAccountName: "Kas",
	}
	_, err = svc.PayPurchase(ctx, pay)
	require.NoError(t, err)
	require.False(t, repo.purchases[purchase.ID].IsPaid)

	pay.Amount = 600
	payment, err := svc.PayPurchase(ctx, pay)
	require.NoError(t, err)
	require.True(t, repo.purchases[purchase.ID].IsPaid)

	require.Len(t, repo.entries, 3)
	draft := repo.entries[2].draft
	require.Equal(t, journals.SourceAPPayment, draft.Source)
	require.Equal(t, payment.ID, draft.SourceID)
	require.Equal(t, "20011", draft.Lines[0].Account.Code)
	require.InDelta(t, 600.0, draft.Lines[0].Debit, 0.0001)
	require.Equal(t, "10011", draft.Lines[1].Account.Code)
	require.InDelta(t, 600.0, draft.Lines[1].Credit, 0.0001)
}

func TestDeletePaymentReopensPurchase(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	item := seedItem(repo, 0, 0)

	purchase, err := svc.CreatePurchase(ctx, purchaseInput(item.ID, 10, 100))
	require.NoError(t, err)

	payment, err := svc.PayPurchase(ctx, PaymentInput{
		TenantID: 1, Date: purchase.Date, PurchaseID: purchase.ID, Amount: 1000,
		CashAccountCode: "10011", CashAccountName: "Kas",
	})
	require.NoError(t, err)
	require.True(t, repo.purchases[purchase.ID].IsPaid)

	require.NoError(t, svc.DeletePayment(ctx, 1, payment.ID))
	require.False(t, repo.purchases[purchase.ID].IsPaid)
	require.Len(t, repo.entries, 1)
}

func TestDeletePurchaseRemovesEverything(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	item := seedItem(repo, 0, 0)

	purchase, err := svc.CreatePurchase(ctx, purchaseInput(item.ID, 10, 100))
	require.NoError(t, err)
	_, err = svc.PayPurchase(ctx, PaymentInput{
		TenantID: 1, Date: purchase.Date, PurchaseID: purchase.ID, Amount: 1000,
		CashAccountCode: "10011", CashAccountName: "Kas",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePurchase(ctx, 1, purchase.ID))
	require.Empty(t, repo.purchases)
	require.Empty(t, repo.lines)
	require.Empty(t, repo.payments)
	require.Empty(t, repo.entries)
}

func TestSettled(t *testing.T) {
	require.False(t, Settled(0, 0))
	require.False(t, Settled(1000, 999.9))
	require.True(t, Settled(1000, 1000))
	require.True(t, Settled(1000, 1000.00005))
	require.True(t, Settled(1000, 1500))
}
