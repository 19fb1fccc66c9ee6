package fund

import (
	"context"
	"fmt"

	"github.com/canoe/backend/internal/domain/fund"
	"github.com/canoe/backend/internal/domain/shared"
	"github.com/canoe/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CheckResult is the outcome of one duplicate inspection
type CheckResult struct {
	Fund            *fund.Fund
	NameCollisions  int64
	AliasCollisions int64
}

// IsDuplicate reports whether any collision was found
func (r CheckResult) IsDuplicate() bool {
	return r.NameCollisions > 0 || r.AliasCollisions > 0
}

// DuplicateChecker looks for funds of the same manager that share a name,
// either directly or through an alias.
// The two counts are separate reads; a concurrent write between them can be missed.
type DuplicateChecker struct {
	funds     fund.Repository
	finder    fund.DuplicateFinder
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewDuplicateChecker creates a new DuplicateChecker
func NewDuplicateChecker(funds fund.Repository, finder fund.DuplicateFinder, publisher shared.EventPublisher, logger *zap.Logger) *DuplicateChecker {
	return &DuplicateChecker{
		funds:     funds,
		finder:    finder,
		publisher: publisher,
		logger:    logger.Named("duplicate_checker"),
	}
}

// Inspect counts the collisions of a fund without publishing anything.
// A missing fund returns shared.ErrNotFound.
func (c *DuplicateChecker) Inspect(ctx context.Context, fundID int64) (CheckResult, error) {
	f, err := c.funds.FindByID(ctx, fundID)
	if err != nil {
		return CheckResult{}, err
	}

	byName, err := c.finder.CountNameCollisions(ctx, f)
	if err != nil {
		return CheckResult{}, fmt.Errorf("count name collisions of fund %d: %w", fundID, err)
	}
	byAlias, err := c.finder.CountAliasCollisions(ctx, f)
	if err != nil {
		return CheckResult{}, fmt.Errorf("count alias collisions of fund %d: %w", fundID, err)
	}

	return CheckResult{Fund: f, NameCollisions: byName, AliasCollisions: byAlias}, nil
}

// Check inspects a fund and publishes fund_duplicate when it collides
func (c *DuplicateChecker) Check(ctx context.Context, fundID int64) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "fund", "check_duplicates", telemetry.SpanAttrFundID, fundID)
	defer span.End()

	result, err := c.Inspect(ctx, fundID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	telemetry.SetAttributes(span,
		"fund.name_collisions", result.NameCollisions,
		"fund.alias_collisions", result.AliasCollisions,
	)

	if !result.IsDuplicate() {
		c.logger.Debug("no duplicate found", zap.Int64("fund_id", fundID))
		return nil
	}

	if err := c.publisher.Publish(ctx, fund.NewDuplicateEvent(result.Fund)); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("publish duplicate of fund %d: %w", fundID, err)
	}
	return nil
}
