package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestEmployeeFullName(t *testing.T) {
	e := &Employee{FirstName: "Ivan", LastName: "Petrov"}
	assert.Equal(t, "Petrov Ivan", e.FullName())

	e.MiddleName = ptr("  ")
	assert.Equal(t, "Petrov Ivan", e.FullName())

	e.MiddleName = ptr("Sergeevich")
	assert.Equal(t, "Petrov Ivan Sergeevich", e.FullName())
}

func TestEmployeeManagerName(t *testing.T) {
	e := &Employee{ID: 2}
	assert.Equal(t, NoManagerLabel, e.ManagerName())

	e.ManagerID = ptr(int64(1))
	e.Manager = &EmployeeSummary{ID: 1, FullName: "Smith Anna"}
	assert.Equal(t, "Smith Anna", e.ManagerName())
}

func TestEmployeeHasManager(t *testing.T) {
	e := &Employee{ID: 3}
	assert.True(t, e.HasManager(nil))
	assert.False(t, e.HasManager(ptr(int64(1))))

	e.ManagerID = ptr(int64(1))
	assert.True(t, e.HasManager(ptr(int64(1))))
	assert.False(t, e.HasManager(ptr(int64(2))))
	assert.False(t, e.HasManager(nil))
}

func TestEmployeeSummary(t *testing.T) {
	e := &Employee{ID: 4, FirstName: "Olga", LastName: "Ivanova", Position: &Position{ID: 1, Title: "Director"}}
	assert.Equal(t, EmployeeSummary{ID: 4, FullName: "Ivanova Olga", PositionTitle: "Director"}, e.Summary())
}
