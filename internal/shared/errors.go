package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrMissingAccount indicates a required account code is absent for the tenant.
	ErrMissingAccount = errors.New("ledger: required account missing for tenant")
	// ErrUnbalancedEntry indicates sum(debit) != sum(credit) after construction.
	// This is an internal invariant violation, not a caller mistake.
	ErrUnbalancedEntry = errors.New("ledger: journal entry does not balance")
	// ErrInsufficientStock indicates a usage would drive item quantity negative.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrRebuildFailed wraps any failure during tenant reconciliation.
	ErrRebuildFailed = errors.New("rebuild: reconciliation failed")
	// ErrTenantExpired indicates the access code is past its validity window.
	ErrTenantExpired = errors.New("tenant: access code expired")
	// ErrDuplicate indicates a tenant-scoped uniqueness conflict.
	ErrDuplicate = errors.New("duplicate record")
)

// BalanceTolerance is the float tolerance applied when checking that an
// entry's debits equal its credits.
const BalanceTolerance = 1e-4
