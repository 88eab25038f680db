package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/repository"
)

type fakePositions struct {
	repository.PositionRepository
	created   []domain.Position
	truncated bool
}

func (f *fakePositions) Create(_ context.Context, position *domain.Position) error {
	position.ID = int64(len(f.created) + 1)
	f.created = append(f.created, *position)
	return nil
}

func (f *fakePositions) TruncateRoster(context.Context) error {
	f.truncated = true
	return nil
}

type fakeEmployees struct {
	repository.EmployeeRepository
	existing    int
	inserted    []domain.Employee
	resequenced bool
	copyErr     error
}

func (f *fakeEmployees) Count(context.Context) (int, error) { return f.existing, nil }

func (f *fakeEmployees) BulkInsert(_ context.Context, employees []domain.Employee) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.inserted = append(f.inserted, employees...)
	return int64(len(employees)), nil
}

func (f *fakeEmployees) ResetSequence(context.Context) error {
	f.resequenced = true
	return nil
}

type fakeTarget struct {
	positions *fakePositions
	employees *fakeEmployees
	committed bool
	rolled    bool
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{positions: &fakePositions{}, employees: &fakeEmployees{}}
}

func (f *fakeTarget) InRosterTx(_ context.Context, fn func(repository.TxRepos) error) error {
	if err := fn(repository.TxRepos{Employees: f.employees, Positions: f.positions}); err != nil {
		f.rolled = true
		return err
	}
	f.committed = true
	return nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

func TestLevelSizes(t *testing.T) {
	assert.Equal(t, []int{1, 4, 16, 64, 115}, LevelSizes(200, 5))
	assert.Equal(t, []int{1, 2}, LevelSizes(3, 5))
	assert.Equal(t, []int{7}, LevelSizes(7, 1))
	assert.Equal(t, []int{1, 4, 16, 9}, LevelSizes(30, 4))
}

func TestPositionTitle(t *testing.T) {
	assert.Equal(t, "Chief Executive Officer", PositionTitle(0))
	assert.Equal(t, "Specialist", PositionTitle(4))
	assert.Equal(t, "Associate 2", PositionTitle(6))
}

func TestGenerateBuildsForest(t *testing.T) {
	positions := []domain.Position{{ID: 10}, {ID: 11}, {ID: 12}, {ID: 13}}
	employees := Generate(Options{Employees: 150, Levels: 4, Seed: 7}, positions)
	require.Len(t, employees, 150)

	byID := map[int64]domain.Employee{}
	for i, e := range employees {
		assert.Equal(t, int64(i+1), e.ID)
		assert.True(t, e.Salary.IsPositive())
		byID[e.ID] = e
	}

	roots := 0
	for _, e := range employees {
		if e.ManagerID == nil {
			roots++
			assert.Equal(t, int64(10), e.PositionID)
			continue
		}
		manager, ok := byID[*e.ManagerID]
		require.True(t, ok, "employee %d has unknown manager", e.ID)
		assert.Less(t, manager.ID, e.ID)
		assert.Equal(t, manager.PositionID+1, e.PositionID)
	}
	assert.Equal(t, 1, roots)

	again := Generate(Options{Employees: 150, Levels: 4, Seed: 7}, positions)
	assert.Equal(t, employees, again)
}

func TestRunWithReset(t *testing.T) {
	target := newFakeTarget()
	target.employees.existing = 12
	cache := &countingInvalidator{}

	result, err := Run(context.Background(), target, cache, Options{Employees: 25, Levels: 3, Reset: true, Seed: 1}, nil)
	require.NoError(t, err)

	assert.True(t, target.positions.truncated)
	assert.Equal(t, Result{Positions: 3, Employees: 25}, result)
	require.Len(t, target.positions.created, 3)
	assert.Equal(t, "Manager", target.positions.created[2].Title)
	assert.Equal(t, "L3", target.positions.created[2].Level)
	assert.Len(t, target.employees.inserted, 25)
	assert.True(t, target.employees.resequenced)
	assert.True(t, target.committed)
	assert.Equal(t, 1, cache.calls)
}

func TestRunRefusesNonEmptyRoster(t *testing.T) {
	target := newFakeTarget()
	target.employees.existing = 1

	_, err := Run(context.Background(), target, nil, Options{Employees: 5, Levels: 2}, nil)
	require.ErrorIs(t, err, ErrRosterNotEmpty)
	assert.Empty(t, target.positions.created)
	assert.True(t, target.rolled)
}

func TestRunRollsBackOnCopyFailure(t *testing.T) {
	target := newFakeTarget()
	target.employees.copyErr = errors.New("COPY failed")
	cache := &countingInvalidator{}

	_, err := Run(context.Background(), target, cache, Options{Employees: 5, Levels: 2, Reset: true}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy employees")
	assert.True(t, target.positions.truncated)
	assert.True(t, target.rolled)
	assert.False(t, target.committed)
	assert.False(t, target.employees.resequenced)
	assert.Zero(t, cache.calls)
}

func TestOptionsValidate(t *testing.T) {
	assert.Error(t, Options{Employees: 0, Levels: 2}.Validate())
	assert.Error(t, Options{Employees: 5, Levels: 0}.Validate())
	assert.NoError(t, Options{Employees: 5, Levels: 1}.Validate())
}
