package cash

import (
	"context"
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
	transactions map[int64]Transaction
	entries      []storedEntry
	nextTxID     int64
	nextEntryID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{transactions: make(map[int64]Transaction)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) List(ctx context.Context, tenantID int64) ([]Transaction, error) {
	var out []Transaction
	for _, t := range r.transactions {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, tenantID, id int64) (Transaction, error) {
	if t, ok := r.transactions[id]; ok && t.TenantID == tenantID {
		return t, nil
	}
	return Transaction{}, shared.ErrNotFound
}

type memoryTx struct {
	repo *memoryRepo
}

func (tx *memoryTx) Insert(ctx context.Context, t Transaction) (int64, error) {
	tx.repo.nextTxID++
	t.ID = tx.repo.nextTxID
	tx.repo.transactions[t.ID] = t
	return t.ID, nil
}

func (tx *memoryTx) Update(ctx context.Context, t Transaction) error {
	if _, ok := tx.repo.transactions[t.ID]; !ok {
		return shared.ErrNotFound
	}
	tx.repo.transactions[t.ID] = t
	return nil
}

func (tx *memoryTx) Delete(ctx context.Context, tenantID, id int64) error {
	delete(tx.repo.transactions, id)
	return nil
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

func (tx *memoryTx) SetJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error {
	t, ok := tx.repo.transactions[id]
	if !ok {
		return shared.ErrNotFound
	}
	t.JournalEntryID = entryID
	tx.repo.transactions[id] = t
	return nil
}

func cashIn500(tenantID int64) Input {
	return Input{
		TenantID:           tenantID,
		Date:               time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		Direction:          DirectionIn,
		CashAccountCode:    "10011",
		CashAccountName:    "Kas",
		CounterAccountCode: "40011",
		CounterAccountName: "Pendapatan Penjualan",
		Amount:             500,
	}
}

func TestCreateCashInJournalShape(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, cashIn500(1))
	require.NoError(t, err)
	require.NotNil(t, created.JournalEntryID)

	require.Len(t, repo.entries, 1)
	draft := repo.entries[0].draft
	require.Equal(t, journals.SourceCash, draft.Source)
	require.Equal(t, created.ID, draft.SourceID)
	require.Len(t, draft.Lines, 2)
	require.Equal(t, "10011", draft.Lines[0].Account.Code)
	require.InDelta(t, 500.0, draft.Lines[0].Debit, 0.0001)
	require.Equal(t, "40011", draft.Lines[1].Account.Code)
	require.InDelta(t, 500.0, draft.Lines[1].Credit, 0.0001)
}

func TestCreateCashOutFlipsSides(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	input := cashIn500(1)
	input.Direction = DirectionOut
	input.CounterAccountCode = "60011"
	input.CounterAccountName = "Beban Gaji"
	_, err := svc.Create(ctx, input)
	require.NoError(t, err)

	draft := repo.entries[0].draft
	require.Equal(t, "60011", draft.Lines[0].Account.Code)
	require.InDelta(t, 500.0, draft.Lines[0].Debit, 0.0001)
	require.Equal(t, "10011", draft.Lines[1].Account.Code)
	require.InDelta(t, 500.0, draft.Lines[1].Credit, 0.0001)
}

func TestUpdateReplacesEntryWholesale(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, cashIn500(1))
	require.NoError(t, err)
	firstEntry := *created.JournalEntryID

	input := cashIn500(1)
	input.Amount = 750
	updated, err := svc.Update(ctx, created.ID, input)
	require.NoError(t, err)

	require.Len(t, repo.entries, 1)
	require.NotEqual(t, firstEntry, *updated.JournalEntryID)
	require.InDelta(t, 750.0, repo.entries[0].draft.Lines[0].Debit, 0.0001)
}

func TestDeleteRemovesEntry(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, cashIn500(1))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, created.ID))
	require.Empty(t, repo.entries)
	require.Empty(t, repo.transactions)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	input := cashIn500(1)
	input.Amount = 0
	_, err := svc.Create(ctx, input)
	require.Error(t, err)

	input = cashIn500(1)
	input.Direction = "sideways"
	_, err = svc.Create(ctx, input)
	require.Error(t, err)
}
