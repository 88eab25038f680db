package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NoManagerLabel is shown for employees at the top of a reporting chain.
const NoManagerLabel = "No manager"

// Employee is a roster entry. ManagerID forms a self-referential forest.
type Employee struct {
	ID         int64
	FirstName  string
	LastName   string
	MiddleName *string
	PositionID int64
	Position   *Position
	HireDate   time.Time
	Salary     decimal.Decimal
	ManagerID  *int64
	Manager    *EmployeeSummary
}

// EmployeeSummary is the slim projection used for manager names and drop-downs.
type EmployeeSummary struct {
	ID            int64
	FullName      string
	PositionTitle string
}

// FullName returns "Last First Middle", skipping an empty middle name.
func (e *Employee) FullName() string {
	return FormatFullName(e.FirstName, e.LastName, e.MiddleName)
}

// ManagerName returns the manager's full name or NoManagerLabel.
func (e *Employee) ManagerName() string {
	if e.Manager == nil || e.ManagerID == nil {
		return NoManagerLabel
	}
	return e.Manager.FullName
}

// Summary projects the employee for drop-downs.
func (e *Employee) Summary() EmployeeSummary {
	summary := EmployeeSummary{ID: e.ID, FullName: e.FullName()}
	if e.Position != nil {
		summary.PositionTitle = e.Position.Title
	}
	return summary
}

// HasManager reports whether the employee currently reports to managerID (nil meaning nobody).
func (e *Employee) HasManager(managerID *int64) bool {
	if e.ManagerID == nil || managerID == nil {
		return e.ManagerID == nil && managerID == nil
	}
	return *e.ManagerID == *managerID
}

// FormatFullName joins name parts the way the roster displays them.
func FormatFullName(first, last string, middle *string) string {
	parts := []string{last, first}
	if middle != nil && strings.TrimSpace(*middle) != "" {
		parts = append(parts, *middle)
	}
	return strings.Join(parts, " ")
}
