package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/canoe/backend/internal/domain/fund"
	"github.com/canoe/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormFundRepository implements fund.Repository and fund.DuplicateFinder using GORM
type GormFundRepository struct {
	db *gorm.DB
}

// NewGormFundRepository creates a new GormFundRepository
func NewGormFundRepository(db *gorm.DB) *GormFundRepository {
	return &GormFundRepository{db: db}
}

// FindByID finds a fund by its ID
func (r *GormFundRepository) FindByID(ctx context.Context, id int64) (*fund.Fund, error) {
	var f fund.Fund
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// FindAll finds the funds matching the filter, ordered by id
func (r *GormFundRepository) FindAll(ctx context.Context, filter fund.ListFilter) ([]fund.Fund, error) {
	query := r.db.WithContext(ctx).Model(&fund.Fund{})
	switch filter.Kind {
	case fund.FilterNone:
	case fund.FilterByName:
		query = query.Where("name = ?", filter.Name)
	case fund.FilterByManager:
		query = query.Where("manager = ?", filter.Manager)
	case fund.FilterByStartYear:
		query = query.Where("start_year = ?", filter.StartYear)
	default:
		return nil, fmt.Errorf("unknown fund filter kind %d", filter.Kind)
	}

	funds := make([]fund.Fund, 0)
	if err := query.Order("id").Find(&funds).Error; err != nil {
		return nil, err
	}
	return funds, nil
}

// Create inserts a fund; the store assigns its ID
func (r *GormFundRepository) Create(ctx context.Context, f *fund.Fund) error {
	if f.Version == 0 {
		f.Version = 1
	}
	return r.db.WithContext(ctx).Create(f).Error
}

// Update applies a sparse update inside a transaction.
// The write is guarded by the version read in the same transaction.
func (r *GormFundRepository) Update(ctx context.Context, id int64, partial fund.PartialFund) (*fund.Fund, error) {
	var updated fund.Fund
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if !updated.Apply(partial) {
			return nil
		}

		result := tx.Model(&fund.Fund{}).
			Where("id = ? AND version = ?", id, updated.Version).
			Updates(map[string]any{
				"name":       updated.Name,
				"manager":    updated.Manager,
				"start_year": updated.StartYear,
				"version":    updated.Version + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		updated.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// CountNameCollisions counts the other funds of the same manager with the same name
func (r *GormFundRepository) CountNameCollisions(ctx context.Context, f *fund.Fund) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&fund.Fund{}).
		Where("name = ? AND manager = ? AND id <> ?", f.Name, f.Manager, f.ID).
		Count(&count).Error
	return count, err
}

// CountAliasCollisions counts aliases equal to the fund name that belong to
// a fund of the same manager
func (r *GormFundRepository) CountAliasCollisions(ctx context.Context, f *fund.Fund) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&fund.Alias{}).
		Joins("JOIN funds ON funds.id = aliases.fund_id").
		Where("aliases.alias = ? AND funds.manager = ?", f.Name, f.Manager).
		Count(&count).Error
	return count, err
}

// Ensure GormFundRepository implements the domain interfaces
var (
	_ fund.Repository      = (*GormFundRepository)(nil)
	_ fund.DuplicateFinder = (*GormFundRepository)(nil)
)
