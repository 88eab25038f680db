package dto

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/roster-service/internal/api/flash"
	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/service"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// InvalidManagerMessage is shown when manager_id is not a positive integer.
const InvalidManagerMessage = "Invalid manager selection"

// ListEmployeesQuery binds the listing query string.
type ListEmployeesQuery struct {
	SortBy string `query:"sort_by"`
	Order  string `query:"order"`
	Search string `query:"search" validate:"max=200"`
	Page   string `query:"page" validate:"omitempty,number"`
}

// Params converts the query into service parameters. A malformed page falls back to the
// first page and an overlong search is cut, so the listing never fails on bad input.
func (q ListEmployeesQuery) Params() service.ListParams {
	var fieldErrs validator.ValidationErrors
	if err := Validate.Struct(q); errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			switch fe.Field() {
			case "Page":
				q.Page = ""
			case "Search":
				q.Search = string([]rune(q.Search)[:200])
			}
		}
	}

	page, _ := strconv.Atoi(q.Page)
	return service.ListParams{SortBy: q.SortBy, Order: q.Order, Search: q.Search, Page: page}
}

// ManagerForm is the manager edit form. An empty manager_id clears the manager.
type ManagerForm struct {
	ManagerID string `form:"manager_id" validate:"omitempty,number,max=18"`
}

// ManagerIDValue validates the form and returns the selected manager id. Malformed input
// yields a VALIDATION_FAILED domain error.
func (f ManagerForm) ManagerIDValue() (*int64, error) {
	f.ManagerID = strings.TrimSpace(f.ManagerID)
	invalid := apperrors.NewValidationError(InvalidManagerMessage, map[string]any{"manager_id": f.ManagerID})
	if err := Validate.Struct(f); err != nil {
		return nil, invalid
	}
	if f.ManagerID == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(f.ManagerID, 10, 64)
	if err != nil || id <= 0 {
		return nil, invalid
	}
	return &id, nil
}

// EmployeeRow is one line of the listing table.
type EmployeeRow struct {
	ID          int64
	FirstName   string
	LastName    string
	FullName    string
	Position    string
	HireDate    string
	Salary      string
	ManagerName string
	EditURL     string
}

// SortHeader is a clickable column heading.
type SortHeader struct {
	Label     string
	URL       string
	Active    bool
	Indicator string
}

// PageLink points at one page of the listing.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

// ListingView feeds employees.html.
type ListingView struct {
	Title    string
	Rows     []EmployeeRow
	Headers  []SortHeader
	Search   string
	SortBy   string
	Order    string
	Total    int
	Page     int
	Pages    []PageLink
	PrevURL  string
	NextURL  string
	Flashes  []flash.Message
	LoadFail bool
}

var sortLabels = map[string]string{
	"id":         "ID",
	"first_name": "First name",
	"last_name":  "Last name",
	"hire_date":  "Hire date",
	"salary":     "Salary",
}

// NewListingView builds the listing view model from a page of results.
func NewListingView(page *service.EmployeePage) ListingView {
	view := ListingView{
		Title:  "Employees",
		Search: page.Search,
		SortBy: page.SortBy,
		Order:  page.Order,
		Total:  page.Total,
		Page:   page.Page,
	}

	for i := range page.Items {
		view.Rows = append(view.Rows, NewEmployeeRow(&page.Items[i]))
	}

	for _, column := range service.SortableColumns {
		header := SortHeader{Label: sortLabels[column]}
		nextOrder := service.OrderAsc
		if column == page.SortBy {
			header.Active = true
			header.Indicator = "▲"
			if page.Order == service.OrderAsc {
				nextOrder = service.OrderDesc
			} else {
				header.Indicator = "▼"
			}
		}
		header.URL = ListingURL(column, nextOrder, page.Search, 1)
		view.Headers = append(view.Headers, header)
	}

	for n := 1; n <= page.Pages; n++ {
		view.Pages = append(view.Pages, PageLink{
			Number:  n,
			URL:     ListingURL(page.SortBy, page.Order, page.Search, n),
			Current: n == page.Page,
		})
	}
	if page.HasPrev {
		prev := page.Page - 1
		if page.Pages > 0 && prev > page.Pages {
			prev = page.Pages
		}
		view.PrevURL = ListingURL(page.SortBy, page.Order, page.Search, prev)
	}
	if page.HasNext {
		view.NextURL = ListingURL(page.SortBy, page.Order, page.Search, page.Page+1)
	}
	return view
}

// EmptyListingView is rendered when the roster could not be loaded.
func EmptyListingView() ListingView {
	page := &service.EmployeePage{SortBy: service.DefaultSortBy, Order: service.OrderAsc, Page: 1}
	view := NewListingView(page)
	view.LoadFail = true
	return view
}

// NewEmployeeRow formats one employee for display.
func NewEmployeeRow(e *domain.Employee) EmployeeRow {
	row := EmployeeRow{
		ID:          e.ID,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		FullName:    e.FullName(),
		HireDate:    e.HireDate.Format("2006-01-02"),
		Salary:      e.Salary.StringFixed(2),
		ManagerName: e.ManagerName(),
		EditURL:     ManagerFormURL(e.ID),
	}
	if e.Position != nil {
		row.Position = e.Position.Title
	}
	return row
}

// ListingURL renders a link to the listing with the given state.
func ListingURL(sortBy, order, search string, page int) string {
	values := url.Values{}
	values.Set("sort_by", sortBy)
	values.Set("order", order)
	if search != "" {
		values.Set("search", search)
	}
	if page > 1 {
		values.Set("page", strconv.Itoa(page))
	}
	return "/?" + values.Encode()
}

// ManagerFormURL is the edit form location for an employee.
func ManagerFormURL(id int64) string {
	return "/employees/" + strconv.FormatInt(id, 10) + "/manager"
}

// ManagerOption is one entry of the manager drop-down.
type ManagerOption struct {
	ID       int64
	Label    string
	Selected bool
}

// ManagerFormView feeds edit_manager.html.
type ManagerFormView struct {
	Title       string
	Employee    EmployeeRow
	Options     []ManagerOption
	NoneChecked bool
	Action      string
	Flashes     []flash.Message
}

// NewManagerFormView builds the edit form for employee with candidates as options.
func NewManagerFormView(employee *domain.Employee, candidates []domain.EmployeeSummary) ManagerFormView {
	view := ManagerFormView{
		Title:       "Change manager",
		Employee:    NewEmployeeRow(employee),
		NoneChecked: employee.ManagerID == nil,
		Action:      ManagerFormURL(employee.ID),
	}
	for _, candidate := range candidates {
		label := candidate.FullName
		if candidate.PositionTitle != "" {
			label += " (" + candidate.PositionTitle + ")"
		}
		view.Options = append(view.Options, ManagerOption{
			ID:       candidate.ID,
			Label:    label,
			Selected: employee.HasManager(&candidate.ID),
		})
	}
	return view
}
