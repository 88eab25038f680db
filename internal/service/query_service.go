package service

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/repository"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// Sort orders accepted by the listing.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// DefaultSortBy is used when the requested column is not sortable.
const DefaultSortBy = "id"

var sortableColumns = map[string]repository.SortColumn{
	"id":         repository.SortByID,
	"first_name": repository.SortByFirstName,
	"last_name":  repository.SortByLastName,
	"hire_date":  repository.SortByHireDate,
	"salary":     repository.SortBySalary,
}

// SortableColumns lists the accepted sort_by values in display order.
var SortableColumns = []string{"id", "first_name", "last_name", "hire_date", "salary"}

// ListParams is the raw listing request.
type ListParams struct {
	SortBy string
	Order  string
	Search string
	Page   int
}

// EmployeePage is one page of the listing plus the parameters actually applied.
type EmployeePage struct {
	Items    []domain.Employee
	Total    int
	Page     int
	PageSize int
	Pages    int
	HasPrev  bool
	HasNext  bool
	SortBy   string
	Order    string
	Search   string
}

// QueryService builds listing views.
type QueryService struct {
	store    RosterStore
	pageSize int
	logger   *zap.Logger
}

// NewQueryService constructs the service with a fixed page size.
func NewQueryService(store RosterStore, pageSize int, logger *zap.Logger) *QueryService {
	if pageSize <= 0 {
		pageSize = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{store: store, pageSize: pageSize, logger: logger.Named("roster.query")}
}

// Normalize applies the listing fallbacks: unknown columns sort by id, anything but
// "desc" sorts ascending and pages start at 1.
func (p ListParams) Normalize() ListParams {
	if _, ok := sortableColumns[p.SortBy]; !ok {
		p.SortBy = DefaultSortBy
	}
	if p.Order != OrderDesc {
		p.Order = OrderAsc
	}
	p.Search = strings.TrimSpace(p.Search)
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

// ListEmployees returns the requested page. A page past the end is empty, not an error.
func (s *QueryService) ListEmployees(ctx context.Context, params ListParams) (*EmployeePage, error) {
	params = params.Normalize()

	items, total, err := s.store.Employees().List(ctx, repository.EmployeeFilter{
		Search:     params.Search,
		SortBy:     sortableColumns[params.SortBy],
		Descending: params.Order == OrderDesc,
		Limit:      s.pageSize,
		Offset:     s.offset(params.Page),
	})
	if err != nil {
		s.logger.Error("list employees failed", zap.String("request_id", RequestIDFromContext(ctx)), zap.Error(err))
		return nil, apperrors.NewStorageError(err)
	}

	pages := (total + s.pageSize - 1) / s.pageSize
	return &EmployeePage{
		Items:    items,
		Total:    total,
		Page:     params.Page,
		PageSize: s.pageSize,
		Pages:    pages,
		HasPrev:  params.Page > 1,
		HasNext:  params.Page < pages,
		SortBy:   params.SortBy,
		Order:    params.Order,
		Search:   params.Search,
	}, nil
}

// offset saturates instead of wrapping so an absurd page number still lands past the end.
func (s *QueryService) offset(page int) int {
	if page-1 > math.MaxInt/s.pageSize {
		return math.MaxInt
	}
	return (page - 1) * s.pageSize
}
