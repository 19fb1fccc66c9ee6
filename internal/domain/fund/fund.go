package fund

import (
	"strings"

	"github.com/canoe/backend/internal/domain/shared"
)

// Fund is the aggregate managed by the service.
// Uniqueness of (Name, Manager) is not enforced by storage; collisions are
// detected asynchronously after creation.
type Fund struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string `gorm:"type:varchar(255);not null;index:idx_funds_name_manager,priority:1" json:"name"`
	Manager   int64  `gorm:"not null;index:idx_funds_name_manager,priority:2" json:"manager"`
	StartYear uint16 `gorm:"column:start_year;not null" json:"start_year"`
	Version   int64  `gorm:"not null;default:1" json:"version"`
}

// TableName returns the table name for GORM
func (Fund) TableName() string {
	return "funds"
}

// NewFund creates a new, not yet persisted fund
func NewFund(name string, manager int64, startYear uint16) (*Fund, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &Fund{
		Name:      name,
		Manager:   manager,
		StartYear: startYear,
		Version:   1,
	}, nil
}

// PartialFund carries a sparse update. Nil fields are left unchanged.
type PartialFund struct {
	Name      *string `json:"name,omitempty"`
	Manager   *int64  `json:"manager,omitempty"`
	StartYear *uint16 `json:"start_year,omitempty"`
}

// IsEmpty reports whether the partial carries no field at all
func (p PartialFund) IsEmpty() bool {
	return p.Name == nil && p.Manager == nil && p.StartYear == nil
}

// Validate checks the fields that are present
func (p PartialFund) Validate() error {
	if p.Name != nil {
		return validateName(*p.Name)
	}
	return nil
}

// Apply overwrites the fields present in p and reports whether the fund changed.
// The ID and Version are never touched.
func (f *Fund) Apply(p PartialFund) bool {
	changed := false
	if p.Name != nil && *p.Name != f.Name {
		f.Name = *p.Name
		changed = true
	}
	if p.Manager != nil && *p.Manager != f.Manager {
		f.Manager = *p.Manager
		changed = true
	}
	if p.StartYear != nil && *p.StartYear != f.StartYear {
		f.StartYear = *p.StartYear
		changed = true
	}
	return changed
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.InvalidInput("Fund name cannot be empty")
	}
	if len(name) > 255 {
		return shared.InvalidInput("Fund name cannot exceed 255 characters")
	}
	return nil
}

// Alias is an alternate fund name. Rows are maintained outside this service
// and only read for duplicate detection.
type Alias struct {
	FundID int64  `gorm:"column:fund_id;not null;index"`
	Alias  string `gorm:"type:varchar(255);not null;index"`
}

// TableName returns the table name for GORM
func (Alias) TableName() string {
	return "aliases"
}
