package rebuild

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bukudapur/bukudapur/internal/accounting/accounts"
	"github.com/bukudapur/bukudapur/internal/accounting/journals"
	"github.com/bukudapur/bukudapur/internal/cash"
	"github.com/bukudapur/bukudapur/internal/inventory"
	"github.com/bukudapur/bukudapur/internal/procurement"
	"github.com/bukudapur/bukudapur/internal/sales"
	"github.com/bukudapur/bukudapur/internal/shared"
)

// TxRepository exposes every read and write the engine needs inside one
// transaction.
type TxRepository interface {
	ListItems(ctx context.Context, tenantID int64) ([]inventory.Item, error)
	UpdateItemValuation(ctx context.Context, tenantID, itemID int64, qty, avgCost float64) error
	ListUsages(ctx context.Context, tenantID int64) ([]inventory.Usage, error)
	UpdateUsageCost(ctx context.Context, tenantID, id int64, unitCost, totalCost float64) error

	ListPurchases(ctx context.Context, tenantID int64) ([]procurement.Purchase, error)
	ListPurchaseLines(ctx context.Context, tenantID int64) ([]procurement.PurchaseLine, error)
	ListAPPayments(ctx context.Context, tenantID int64) ([]procurement.Payment, error)
	SetPurchasePaid(ctx context.Context, tenantID, id int64, paid bool) error

	ListInvoices(ctx context.Context, tenantID int64) ([]sales.Invoice, error)
	ListARPayments(ctx context.Context, tenantID int64) ([]sales.Payment, error)
	SetInvoicePayment(ctx context.Context, tenantID, id int64, paid float64, status sales.Status) error

	ListCashTransactions(ctx context.Context, tenantID int64) ([]cash.Transaction, error)

	ClearJournalRefs(ctx context.Context, tenantID int64) error
	WipeJournals(ctx context.Context, tenantID int64) error
	InsertJournal(ctx context.Context, tenantID int64, draft journals.Draft) (int64, error)
	SetSourceJournalRef(ctx context.Context, tenantID int64, source journals.Source, id, entryID int64) error

	GetAccountRef(ctx context.Context, tenantID int64, code string) (journals.Ref, error)
}

// RepositoryPort opens the rebuild transaction.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Auditor records rebuild runs. Satisfied by shared.AuditLogger.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Result summarizes one rebuild run.
type Result struct {
	RunID         string
	TenantID      int64
	Items         int
	Usages        int
	Purchases     int
	Invoices      int
	EntriesPosted int
	Duration      time.Duration
}

// Engine rebuilds a tenant's derived state from scratch: item valuations,
// settlement flags, and the entire journal. Every run is equivalent to
// re-entering all transactions in order, so running it twice changes
// nothing.
type Engine struct {
	repo    RepositoryPort
	auditor Auditor
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine builds Engine. The auditor may be nil.
func NewEngine(repo RepositoryPort, auditor Auditor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{repo: repo, auditor: auditor, logger: logger, now: time.Now}
}

// Rebuild rebuilds one tenant inside a single transaction. Any failure
// rolls back every step and returns wrapped shared.ErrRebuildFailed.
func (e *Engine) Rebuild(ctx context.Context, tenantID int64) (Result, error) {
	start := e.now()
	result := Result{RunID: uuid.NewString(), TenantID: tenantID}
	log := e.logger.With("run_id", result.RunID, "tenant_id", tenantID)
	log.Info("rebuild started")

	err := e.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := e.replayInventory(ctx, tx, tenantID, &result); err != nil {
			return fmt.Errorf("replay inventory: %w", err)
		}
		if err := e.recomputePurchases(ctx, tx, tenantID, &result); err != nil {
			return fmt.Errorf("recompute purchases: %w", err)
		}
		if err := e.recomputeInvoices(ctx, tx, tenantID, &result); err != nil {
			return fmt.Errorf("recompute invoices: %w", err)
		}
		if err := tx.ClearJournalRefs(ctx, tenantID); err != nil {
			return fmt.Errorf("clear journal refs: %w", err)
		}
		if err := tx.WipeJournals(ctx, tenantID); err != nil {
			return fmt.Errorf("wipe journals: %w", err)
		}
		if err := e.repostJournals(ctx, tx, tenantID, &result); err != nil {
			return fmt.Errorf("repost journals: %w", err)
		}
		return nil
	})
	result.Duration = e.now().Sub(start)
	if err != nil {
		log.Error("rebuild failed", "error", err)
		return Result{}, fmt.Errorf("%w: tenant %d: %w", shared.ErrRebuildFailed, tenantID, err)
	}

	log.Info("rebuild finished",
		"entries", result.EntriesPosted, "items", result.Items, "duration", result.Duration)
	if e.auditor != nil {
		_ = e.auditor.Record(ctx, shared.AuditLog{
			TenantID: tenantID,
			Action:   "rebuild",
			Entity:   "ledger",
			EntityID: result.RunID,
			Meta: map[string]any{
				"entries":   result.EntriesPosted,
				"items":     result.Items,
				"purchases": result.Purchases,
				"invoices":  result.Invoices,
			},
		})
	}
	return result, nil
}

// RebuildAll rebuilds the given tenants concurrently, each in its own
// transaction. The first failure cancels the rest.
func (e *Engine) RebuildAll(ctx context.Context, tenantIDs []int64) ([]Result, error) {
	results := make([]Result, len(tenantIDs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, id := range tenantIDs {
		g.Go(func() error {
			r, err := e.Rebuild(ctx, id)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// replayInventory rebuilds stock quantity and average cost for every item
// from its purchase and usage history, recomputing the cost stored on each
// usage along the way. Usages beyond available stock consume what is left
// and clamp at zero.
func (e *Engine) replayInventory(ctx context.Context, tx TxRepository, tenantID int64, result *Result) error {
	items, err := tx.ListItems(ctx, tenantID)
	if err != nil {
		return err
	}
	purchases, err := tx.ListPurchases(ctx, tenantID)
	if err != nil {
		return err
	}
	lines, err := tx.ListPurchaseLines(ctx, tenantID)
	if err != nil {
		return err
	}
	usages, err := tx.ListUsages(ctx, tenantID)
	if err != nil {
		return err
	}
	result.Items = len(items)
	result.Usages = len(usages)

	purchaseDates := make(map[int64]time.Time, len(purchases))
	for _, p := range purchases {
		purchaseDates[p.ID] = p.Date
	}

	var events []inventory.Event
	for _, l := range lines {
		events = append(events, inventory.Event{
			ItemID:   l.ItemID,
			Kind:     inventory.EventPurchase,
			Date:     purchaseDates[l.PurchaseID],
			Qty:      l.Qty,
			UnitCost: l.UnitCost,
			Seq:      l.ID,
		})
	}
	usageByID := make(map[int64]inventory.Usage, len(usages))
	for _, u := range usages {
		usageByID[u.ID] = u
		events = append(events, inventory.Event{
			ItemID: u.ItemID,
			Kind:   inventory.EventUsage,
			Date:   u.Date,
			Qty:    u.Qty,
			Seq:    u.ID,
		})
	}
	inventory.SortEvents(events)

	states := make(map[int64]inventory.State, len(items))
	for _, ev := range events {
		state := states[ev.ItemID]
		if ev.Kind == inventory.EventUsage {
			u := usageByID[ev.Seq]
			unitCost := state.AvgCost
			totalCost := inventory.ConsumedCost(state, ev.Qty)
			if unitCost != u.UnitCost || totalCost != u.TotalCost {
				if err := tx.UpdateUsageCost(ctx, tenantID, u.ID, unitCost, totalCost); err != nil {
					return err
				}
			}
			u.UnitCost = unitCost
			u.TotalCost = totalCost
			usageByID[u.ID] = u
		}
		states[ev.ItemID] = inventory.Apply(state, ev)
	}

	for _, item := range items {
		state := states[item.ID]
		if err := tx.UpdateItemValuation(ctx, tenantID, item.ID, state.Qty, state.AvgCost); err != nil {
			return err
		}
	}
	return nil
}

// recomputePurchases re-derives every purchase's paid flag from its
// payment sum.
func (e *Engine) recomputePurchases(ctx context.Context, tx TxRepository, tenantID int64, result *Result) error {
	purchases, err := tx.ListPurchases(ctx, tenantID)
	if err != nil {
		return err
	}
	payments, err := tx.ListAPPayments(ctx, tenantID)
	if err != nil {
		return err
	}
	result.Purchases = len(purchases)

	sums := make(map[int64]float64, len(purchases))
	for _, p := range payments {
		sums[p.PurchaseID] += p.Amount
	}
	for _, p := range purchases {
		if err := tx.SetPurchasePaid(ctx, tenantID, p.ID, procurement.Settled(p.Total, sums[p.ID])); err != nil {
			return err
		}
	}
	return nil
}

// recomputeInvoices re-derives every invoice's paid amount and status from
// its payment sum, clamping overpayment at the invoice total.
func (e *Engine) recomputeInvoices(ctx context.Context, tx TxRepository, tenantID int64, result *Result) error {
	invoices, err := tx.ListInvoices(ctx, tenantID)
	if err != nil {
		return err
	}
	payments, err := tx.ListARPayments(ctx, tenantID)
	if err != nil {
		return err
	}
	result.Invoices = len(invoices)

	sums := make(map[int64]float64, len(invoices))
	for _, p := range payments {
		sums[p.InvoiceID] += p.Amount
	}
	for _, inv := range invoices {
		paid, status := sales.DerivePayment(inv.Total, sums[inv.ID])
		if err := tx.SetInvoicePayment(ctx, tenantID, inv.ID, paid, status); err != nil {
			return err
		}
	}
	return nil
}

type document struct {
	date  time.Time
	rank  int
	id    int64
	draft journals.Draft
}

// Reposting walks documents by date, then a stable per-kind rank matching
// the inventory tie rule, then id.
var sourceRank = map[journals.Source]int{
	journals.SourceCash:         0,
	journals.SourcePurchase:     1,
	journals.SourceAPPayment:    2,
	journals.SourceStockUsage:   3,
	journals.SourceSalesInvoice: 4,
	journals.SourceARPayment:    5,
}

// repostJournals posts one fresh entry per surviving document and rewires
// the backrefs. Runs after the wipe, so every insert starts from an empty
// journal.
func (e *Engine) repostJournals(ctx context.Context, tx TxRepository, tenantID int64, result *Result) error {
	invRef, err := tx.GetAccountRef(ctx, tenantID, accounts.CodeInventory)
	if err != nil {
		return err
	}
	apRef, err := tx.GetAccountRef(ctx, tenantID, accounts.CodePayable)
	if err != nil {
		return err
	}

	var docs []document
	add := func(date time.Time, id int64, draft journals.Draft) {
		docs = append(docs, document{date: date, rank: sourceRank[draft.Source], id: id, draft: draft})
	}

	cashTxs, err := tx.ListCashTransactions(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, t := range cashTxs {
		add(t.Date, t.ID, cash.JournalDraft(t))
	}

	purchases, err := tx.ListPurchases(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, p := range purchases {
		add(p.Date, p.ID, procurement.PurchaseJournal(p, invRef, apRef))
	}
	apPayments, err := tx.ListAPPayments(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, p := range apPayments {
		add(p.Date, p.ID, procurement.PaymentJournal(p, apRef))
	}

	usages, err := tx.ListUsages(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, u := range usages {
		add(u.Date, u.ID, inventory.UsageJournal(u, invRef))
	}

	invoices, err := tx.ListInvoices(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, inv := range invoices {
		add(inv.Date, inv.ID, sales.InvoiceJournal(inv))
	}
	arPayments, err := tx.ListARPayments(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, p := range arPayments {
		arRef := journals.Ref{}
		for _, inv := range invoices {
			if inv.ID == p.InvoiceID {
				arRef = journals.Ref{Code: inv.ARAccountCode, Name: inv.ARAccountName}
				break
			}
		}
		add(p.Date, p.ID, sales.PaymentJournal(p, arRef))
	}

	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].date.Equal(docs[j].date) {
			return docs[i].date.Before(docs[j].date)
		}
		if docs[i].rank != docs[j].rank {
			return docs[i].rank < docs[j].rank
		}
		return docs[i].id < docs[j].id
	})

	for _, doc := range docs {
		if err := doc.draft.Validate(); err != nil {
			return fmt.Errorf("%s %d: %w", doc.draft.Source, doc.id, err)
		}
		entryID, err := tx.InsertJournal(ctx, tenantID, doc.draft)
		if err != nil {
			return err
		}
		if err := tx.SetSourceJournalRef(ctx, tenantID, doc.draft.Source, doc.id, entryID); err != nil {
			return err
		}
		result.EntriesPosted++
	}
	return nil
}
