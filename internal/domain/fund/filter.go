package fund

import (
	"strconv"
	"strings"

	"github.com/canoe/backend/internal/domain/shared"
)

// FilterKind selects which column a listing is filtered on
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterByName
	FilterByManager
	FilterByStartYear
)

// String returns the query parameter spelling of the kind
func (k FilterKind) String() string {
	switch k {
	case FilterByName:
		return "name"
	case FilterByManager:
		return "manager"
	case FilterByStartYear:
		return "start_year"
	default:
		return "none"
	}
}

// ListFilter restricts a fund listing to a single equality condition.
// Only the field matching Kind is meaningful.
type ListFilter struct {
	Kind      FilterKind
	Name      string
	Manager   int64
	StartYear uint16
}

// NoFilter lists every fund
func NoFilter() ListFilter { return ListFilter{Kind: FilterNone} }

// ByName lists funds with exactly this name
func ByName(name string) ListFilter { return ListFilter{Kind: FilterByName, Name: name} }

// ByManager lists funds owned by a manager
func ByManager(manager int64) ListFilter { return ListFilter{Kind: FilterByManager, Manager: manager} }

// ByStartYear lists funds started in a year
func ByStartYear(year uint16) ListFilter { return ListFilter{Kind: FilterByStartYear, StartYear: year} }

// ParseListFilter builds a filter from the `filter` and `value` query parameters.
// An empty kind yields NoFilter.
func ParseListFilter(kind, value string) (ListFilter, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "none":
		return NoFilter(), nil
	case "name":
		return ByName(value), nil
	case "manager":
		manager, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return ListFilter{}, shared.InvalidInput("manager filter value must be an integer")
		}
		return ByManager(manager), nil
	case "start_year", "year":
		year, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return ListFilter{}, shared.InvalidInput("start_year filter value must be a year")
		}
		return ByStartYear(uint16(year)), nil
	default:
		return ListFilter{}, shared.InvalidInput("filter must be one of name, manager, start_year")
	}
}
