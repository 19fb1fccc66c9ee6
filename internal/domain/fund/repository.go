package fund

import "context"

// Repository persists funds
type Repository interface {
	// FindByID returns shared.ErrNotFound when no fund has the id
	FindByID(ctx context.Context, id int64) (*Fund, error)
	// FindAll returns the funds matching the filter ordered by id
	FindAll(ctx context.Context, filter ListFilter) ([]Fund, error)
	// Create inserts the fund and fills in its store-assigned ID
	Create(ctx context.Context, fund *Fund) error
	// Update applies a sparse update and returns the stored fund.
	// Returns shared.ErrConcurrencyConflict when the row changed underneath.
	Update(ctx context.Context, id int64, partial PartialFund) (*Fund, error)
}

// DuplicateFinder answers the collision queries used by duplicate detection
type DuplicateFinder interface {
	// CountNameCollisions counts other funds of the same manager sharing the name
	CountNameCollisions(ctx context.Context, fund *Fund) (int64, error)
	// CountAliasCollisions counts aliases equal to the fund name whose owning
	// fund belongs to the same manager
	CountAliasCollisions(ctx context.Context, fund *Fund) (int64, error)
}
