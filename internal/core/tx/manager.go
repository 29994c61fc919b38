// Package tx lets document services run against the database inside one transaction
// without importing the storage layer.
package tx

import "context"

// Manager runs a unit of work in a transaction.
// Stock adjustment submit uses it so the ledger postings, the status change and the
// series number commit or roll back together.
type Manager interface {
	// RunInTransaction commits when fn returns nil and rolls back otherwise.
	// A transaction already carried by ctx is reused.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions for lookups such as work order sources,
// item prices, tax templates and payment accounts.
type ReadOnlyManager interface {
	Manager

	// ReadOnly runs fn in a READ ONLY transaction; writes inside fn fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
