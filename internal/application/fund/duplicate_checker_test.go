package fund

import (
	"context"
	"errors"
	"testing"

	"github.com/canoe/backend/internal/domain/fund"
	"github.com/canoe/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestChecker() (*DuplicateChecker, *MockFundRepository, *MockEventPublisher) {
	repo := new(MockFundRepository)
	publisher := new(MockEventPublisher)
	return NewDuplicateChecker(repo, repo, publisher, zap.NewNop()), repo, publisher
}

func TestDuplicateChecker_Check(t *testing.T) {
	ctx := context.Background()
	growth := &fund.Fund{ID: 12, Name: "Growth", Manager: 3, StartYear: 2019, Version: 1}

	tests := []struct {
		name      string
		byName    int64
		byAlias   int64
		duplicate bool
	}{
		{name: "unique fund publishes nothing", byName: 0, byAlias: 0, duplicate: false},
		{name: "name and manager collision", byName: 1, byAlias: 0, duplicate: true},
		{name: "alias collision under the same manager", byName: 0, byAlias: 2, duplicate: true},
		{name: "both collisions publish once", byName: 1, byAlias: 1, duplicate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, repo, publisher := newTestChecker()
			repo.On("FindByID", mock.Anything, int64(12)).Return(growth, nil)
			repo.On("CountNameCollisions", mock.Anything, growth).Return(tt.byName, nil)
			repo.On("CountAliasCollisions", mock.Anything, growth).Return(tt.byAlias, nil)
			if tt.duplicate {
				publisher.On("Publish", mock.Anything, publishedOne(func(e shared.DomainEvent) bool {
					dup, ok := e.(*fund.DuplicateEvent)
					return ok && dup.ID == 12 && dup.Name == "Growth"
				})).Return(nil).Once()
			}

			require.NoError(t, checker.Check(ctx, 12))

			repo.AssertExpectations(t)
			publisher.AssertExpectations(t)
			if !tt.duplicate {
				publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDuplicateChecker_Check_Errors(t *testing.T) {
	ctx := context.Background()
	growth := &fund.Fund{ID: 12, Name: "Growth", Manager: 3, StartYear: 2019, Version: 1}

	t.Run("missing fund", func(t *testing.T) {
		checker, repo, _ := newTestChecker()
		repo.On("FindByID", mock.Anything, int64(12)).Return(nil, shared.ErrNotFound)

		err := checker.Check(ctx, 12)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		repo.AssertNotCalled(t, "CountNameCollisions", mock.Anything, mock.Anything)
	})

	t.Run("count failure is wrapped", func(t *testing.T) {
		checker, repo, _ := newTestChecker()
		dbErr := errors.New("database is locked")
		repo.On("FindByID", mock.Anything, int64(12)).Return(growth, nil)
		repo.On("CountNameCollisions", mock.Anything, growth).Return(int64(0), dbErr)

		err := checker.Check(ctx, 12)

		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "count name collisions of fund 12")
	})

	t.Run("publish failure is wrapped", func(t *testing.T) {
		checker, repo, publisher := newTestChecker()
		repo.On("FindByID", mock.Anything, int64(12)).Return(growth, nil)
		repo.On("CountNameCollisions", mock.Anything, growth).Return(int64(1), nil)
		repo.On("CountAliasCollisions", mock.Anything, growth).Return(int64(0), nil)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("queue closed"))

		err := checker.Check(ctx, 12)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "publish duplicate of fund 12")
	})
}

func TestDuplicateChecker_Inspect(t *testing.T) {
	checker, repo, publisher := newTestChecker()
	growth := &fund.Fund{ID: 12, Name: "Growth", Manager: 3, StartYear: 2019, Version: 1}
	repo.On("FindByID", mock.Anything, int64(12)).Return(growth, nil)
	repo.On("CountNameCollisions", mock.Anything, growth).Return(int64(2), nil)
	repo.On("CountAliasCollisions", mock.Anything, growth).Return(int64(1), nil)

	result, err := checker.Inspect(context.Background(), 12)

	require.NoError(t, err)
	assert.True(t, result.IsDuplicate())
	assert.Equal(t, int64(2), result.NameCollisions)
	assert.Equal(t, int64(1), result.AliasCollisions)
	assert.Same(t, growth, result.Fund)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
