package fund

import (
	"context"

	"github.com/canoe/backend/internal/domain/fund"
	"github.com/canoe/backend/internal/domain/shared"
	"github.com/canoe/backend/internal/infrastructure/logger"
	"github.com/canoe/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// FundService handles fund business operations
type FundService struct {
	repo      fund.Repository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewFundService creates a new FundService
func NewFundService(repo fund.Repository, publisher shared.EventPublisher, logger *zap.Logger) *FundService {
	return &FundService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.Named("fund_service"),
	}
}

// List returns the funds matching filter ordered by id
func (s *FundService) List(ctx context.Context, filter fund.ListFilter) ([]FundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fund", "list", "fund.filter", filter.Kind.String())
	defer span.End()

	funds, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToFundResponses(funds), nil
}

// Get returns a fund by id
func (s *FundService) Get(ctx context.Context, id int64) (*FundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fund", "get", telemetry.SpanAttrFundID, id)
	defer span.End()

	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToFundResponse(f)
	return &resp, nil
}

// Create stores a new fund and queues it for duplicate detection.
// A failed publish is logged; the fund is still returned.
func (s *FundService) Create(ctx context.Context, req CreateFundRequest) (*FundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fund", "create")
	defer span.End()

	if req.Manager == nil || req.StartYear == nil {
		return nil, shared.InvalidInput("manager and start_year are required")
	}

	f, err := fund.NewFund(req.Name, *req.Manager, *req.StartYear)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, f); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrFundID, f.ID, telemetry.SpanAttrManager, f.Manager)

	log := logger.WithTraceContext(ctx, s.logger)
	if err := s.publisher.Publish(ctx, fund.NewCreatedEvent(f)); err != nil {
		log.Error("failed to queue fund for duplicate check",
			zap.Int64("fund_id", f.ID),
			zap.Error(err),
		)
	}

	log.Info("fund created",
		zap.Int64("fund_id", f.ID),
		zap.Int64("manager", f.Manager),
	)
	resp := ToFundResponse(f)
	return &resp, nil
}

// Update applies a sparse update. Absent fields are left unchanged.
func (s *FundService) Update(ctx context.Context, id int64, partial fund.PartialFund) (*FundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fund", "update", telemetry.SpanAttrFundID, id)
	defer span.End()

	if err := partial.Validate(); err != nil {
		return nil, err
	}

	f, err := s.repo.Update(ctx, id, partial)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToFundResponse(f)
	return &resp, nil
}
