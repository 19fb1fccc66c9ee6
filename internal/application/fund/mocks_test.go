package fund

import (
	"context"

	"github.com/canoe/backend/internal/domain/fund"
	"github.com/canoe/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockFundRepository is a mock implementation of fund.Repository and fund.DuplicateFinder
type MockFundRepository struct {
	mock.Mock
}

func (m *MockFundRepository) FindByID(ctx context.Context, id int64) (*fund.Fund, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fund.Fund), args.Error(1)
}

func (m *MockFundRepository) FindAll(ctx context.Context, filter fund.ListFilter) ([]fund.Fund, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fund.Fund), args.Error(1)
}

func (m *MockFundRepository) Create(ctx context.Context, f *fund.Fund) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFundRepository) Update(ctx context.Context, id int64, partial fund.PartialFund) (*fund.Fund, error) {
	args := m.Called(ctx, id, partial)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fund.Fund), args.Error(1)
}

func (m *MockFundRepository) CountNameCollisions(ctx context.Context, f *fund.Fund) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFundRepository) CountAliasCollisions(ctx context.Context, f *fund.Fund) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// publishedOne matches a Publish call carrying exactly one event that satisfies match
func publishedOne(match func(shared.DomainEvent) bool) any {
	return mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return len(events) == 1 && match(events[0])
	})
}

var (
	_ fund.Repository       = (*MockFundRepository)(nil)
	_ fund.DuplicateFinder  = (*MockFundRepository)(nil)
	_ shared.EventPublisher = (*MockEventPublisher)(nil)
)

func strPtr(s string) *string    { return &s }
func int64Ptr(i int64) *int64    { return &i }
func uint16Ptr(u uint16) *uint16 { return &u }
