package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/roster-service/internal/domain"
)

// SortColumn is a listing column the store knows how to order by.
type SortColumn string

const (
	SortByID        SortColumn = "id"
	SortByFirstName SortColumn = "first_name"
	SortByLastName  SortColumn = "last_name"
	SortByHireDate  SortColumn = "hire_date"
	SortBySalary    SortColumn = "salary"
)

var sortExpressions = map[SortColumn]string{
	SortByID:        "e.id",
	SortByFirstName: "e.first_name",
	SortByLastName:  "e.last_name",
	SortByHireDate:  "e.hire_date",
	SortBySalary:    "e.salary",
}

// hierarchyLockKey serializes every manager reassignment through pg_advisory_xact_lock.
const hierarchyLockKey int64 = 0x726f73746572

// EmployeeFilter defines query params for employee listing.
type EmployeeFilter struct {
	Search     string
	SortBy     SortColumn
	Descending bool
	Limit      int
	Offset     int
}

// EmployeeRepository handles persistence for employees.
type EmployeeRepository interface {
	List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, int, error)
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	ListSummaries(ctx context.Context) ([]domain.EmployeeSummary, error)
	ManagerOf(ctx context.Context, id int64) (*int64, bool, error)
	Count(ctx context.Context) (int, error)
	SetManager(ctx context.Context, id int64, managerID *int64) error
	LockHierarchy(ctx context.Context) error
	BulkInsert(ctx context.Context, employees []domain.Employee) (int64, error)
	ResetSequence(ctx context.Context) error
}

type employeeRepository struct {
	db DBTX
}

// NewEmployeeRepository instantiates the repository.
func NewEmployeeRepository(db DBTX) EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `
        e.id, e.first_name, e.last_name, e.middle_name, e.position_id, p.title, p.level,
        e.hire_date, e.salary, e.manager_id, m.first_name, m.last_name, m.middle_name`

const employeeJoins = `
        FROM employees e
        JOIN positions p ON p.id = e.position_id
        LEFT JOIN employees m ON m.id = e.manager_id`

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, int, error) {
	where, args := searchClause(filter.Search)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM employees e"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := sortExpressions[filter.SortBy]
	if !ok {
		orderBy = sortExpressions[SortByID]
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	order := fmt.Sprintf(" ORDER BY %s %s", orderBy, direction)
	if orderBy != sortExpressions[SortByID] {
		order += ", e.id ASC"
	}
	query := "SELECT" + employeeColumns + employeeJoins + where + order +
		fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := make([]domain.Employee, 0, limit)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *employee)
	}
	return result, total, rows.Err()
}

func (r *employeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	query := "SELECT" + employeeColumns + employeeJoins + " WHERE e.id=$1"
	employee, err := scanEmployee(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return employee, nil
}

func (r *employeeRepository) ListSummaries(ctx context.Context) ([]domain.EmployeeSummary, error) {
	const query = `
        SELECT e.id, e.first_name, e.last_name, e.middle_name, p.title
        FROM employees e
        JOIN positions p ON p.id = e.position_id
        ORDER BY e.last_name, e.first_name, e.id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EmployeeSummary
	for rows.Next() {
		var (
			summary     domain.EmployeeSummary
			first, last string
			middle      *string
		)
		if err := rows.Scan(&summary.ID, &first, &last, &middle, &summary.PositionTitle); err != nil {
			return nil, err
		}
		summary.FullName = domain.FormatFullName(first, last, middle)
		result = append(result, summary)
	}
	return result, rows.Err()
}

func (r *employeeRepository) ManagerOf(ctx context.Context, id int64) (*int64, bool, error) {
	var managerID *int64
	err := r.db.QueryRow(ctx, `SELECT manager_id FROM employees WHERE id=$1`, id).Scan(&managerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return managerID, true, nil
}

func (r *employeeRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM employees`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *employeeRepository) SetManager(ctx context.Context, id int64, managerID *int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE employees SET manager_id=$1 WHERE id=$2`, managerID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LockHierarchy blocks until no other transaction is reassigning managers. The lock is
// released when the surrounding transaction ends.
func (r *employeeRepository) LockHierarchy(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, hierarchyLockKey)
	return err
}

func (r *employeeRepository) BulkInsert(ctx context.Context, employees []domain.Employee) (int64, error) {
	columns := []string{"id", "first_name", "last_name", "middle_name", "position_id", "hire_date", "salary", "manager_id"}
	return r.db.CopyFrom(ctx, pgx.Identifier{"employees"}, columns,
		pgx.CopyFromSlice(len(employees), func(i int) ([]any, error) {
			e := employees[i]
			return []any{e.ID, e.FirstName, e.LastName, e.MiddleName, e.PositionID, e.HireDate, numeric(e.Salary), e.ManagerID}, nil
		}),
	)
}

// ResetSequence moves the id sequence past rows inserted with explicit ids.
func (r *employeeRepository) ResetSequence(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `SELECT setval(pg_get_serial_sequence('employees', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM employees`)
	return err
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func searchClause(search string) (string, []any) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", nil
	}
	pattern := "%" + likeEscaper.Replace(search) + "%"
	return " WHERE (e.first_name ILIKE $1 OR e.last_name ILIKE $1 OR e.middle_name ILIKE $1)", []any{pattern}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var (
		employee                  domain.Employee
		position                  domain.Position
		hireDate                  time.Time
		salary                    decimal.Decimal
		managerFirst, managerLast *string
		managerMiddle             *string
	)
	if err := row.Scan(
		&employee.ID,
		&employee.FirstName,
		&employee.LastName,
		&employee.MiddleName,
		&employee.PositionID,
		&position.Title,
		&position.Level,
		&hireDate,
		&salary,
		&employee.ManagerID,
		&managerFirst,
		&managerLast,
		&managerMiddle,
	); err != nil {
		return nil, err
	}
	position.ID = employee.PositionID
	employee.Position = &position
	employee.HireDate = hireDate
	employee.Salary = salary
	if employee.ManagerID != nil && managerFirst != nil && managerLast != nil {
		employee.Manager = &domain.EmployeeSummary{
			ID:       *employee.ManagerID,
			FullName: domain.FormatFullName(*managerFirst, *managerLast, managerMiddle),
		}
	}
	return &employee, nil
}
