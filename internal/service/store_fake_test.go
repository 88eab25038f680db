package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/repository"
)

// memStore is an in-memory RosterStore with READ COMMITTED visibility: a transaction
// reads the latest committed rows overlaid with its own writes, and its writes become
// visible only on commit. InTx takes no lock of its own; LockHierarchy holds the
// hierarchy mutex until the transaction ends, like pg_advisory_xact_lock.
type memStore struct {
	mu         sync.Mutex
	hierarchy  sync.Mutex
	rows       map[int64]domain.Employee
	txOps      [][]string
	failCommit error
	failSet    error
	failLock   error
	failGet    error
	lastFilter repository.EmployeeFilter
	listErr    error
}

func newMemStore(rows ...domain.Employee) *memStore {
	s := &memStore{rows: map[int64]domain.Employee{}}
	for _, row := range rows {
		s.rows[row.ID] = row
	}
	return s
}

func emp(id int64, managerID *int64) domain.Employee {
	return domain.Employee{
		ID:         id,
		FirstName:  fmt.Sprintf("First%d", id),
		LastName:   fmt.Sprintf("Last%d", id),
		PositionID: 1,
		Position:   &domain.Position{ID: 1, Title: "Engineer", Level: "L1"},
		ManagerID:  managerID,
	}
}

func (s *memStore) Employees() repository.EmployeeRepository {
	return &memRepo{store: s}
}

func (s *memStore) InTx(_ context.Context, fn func(repository.EmployeeRepository) error) error {
	repo := &memRepo{store: s, writes: map[int64]domain.Employee{}, inTx: true}
	defer func() {
		if repo.locked {
			s.hierarchy.Unlock()
		}
		s.mu.Lock()
		s.txOps = append(s.txOps, repo.ops)
		s.mu.Unlock()
	}()

	if err := fn(repo); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCommit != nil {
		return fmt.Errorf("commit tx: %w", s.failCommit)
	}
	for id, row := range repo.writes {
		s.rows[id] = row
	}
	return nil
}

func (s *memStore) managerOf(id int64) *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id].ManagerID
}

// transactions returns the operations each finished transaction issued, in order.
func (s *memStore) transactions() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.txOps...)
}

type memRepo struct {
	store  *memStore
	inTx   bool
	locked bool
	writes map[int64]domain.Employee
	ops    []string
}

func (r *memRepo) record(op string) {
	if r.inTx {
		r.ops = append(r.ops, op)
	}
}

func (r *memRepo) row(id int64) (domain.Employee, bool) {
	if row, ok := r.writes[id]; ok {
		return row, true
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	row, ok := r.store.rows[id]
	return row, ok
}

func (r *memRepo) snapshot() map[int64]domain.Employee {
	r.store.mu.Lock()
	rows := make(map[int64]domain.Employee, len(r.store.rows))
	for id, row := range r.store.rows {
		rows[id] = row
	}
	r.store.mu.Unlock()
	for id, row := range r.writes {
		rows[id] = row
	}
	return rows
}

func (r *memRepo) List(_ context.Context, filter repository.EmployeeFilter) ([]domain.Employee, int, error) {
	r.store.mu.Lock()
	r.store.lastFilter = filter
	listErr := r.store.listErr
	r.store.mu.Unlock()
	if listErr != nil {
		return nil, 0, listErr
	}

	rows := r.snapshot()
	ids := make([]int64, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var items []domain.Employee
	for i, id := range ids {
		if i >= filter.Offset && len(items) < filter.Limit {
			items = append(items, rows[id])
		}
	}
	return items, len(ids), nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*domain.Employee, error) {
	r.record("get")
	if r.store.failGet != nil {
		return nil, r.store.failGet
	}
	row, ok := r.row(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	if row.ManagerID != nil {
		if manager, ok := r.row(*row.ManagerID); ok {
			summary := manager.Summary()
			row.Manager = &summary
		}
	}
	return &row, nil
}

func (r *memRepo) ListSummaries(context.Context) ([]domain.EmployeeSummary, error) {
	var result []domain.EmployeeSummary
	for _, row := range r.snapshot() {
		result = append(result, row.Summary())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memRepo) ManagerOf(_ context.Context, id int64) (*int64, bool, error) {
	r.record("manager_of")
	row, ok := r.row(id)
	if !ok {
		return nil, false, nil
	}
	return row.ManagerID, true, nil
}

func (r *memRepo) Count(context.Context) (int, error) {
	return len(r.snapshot()), nil
}

func (r *memRepo) SetManager(_ context.Context, id int64, managerID *int64) error {
	r.record("set")
	if r.store.failSet != nil {
		return r.store.failSet
	}
	row, ok := r.row(id)
	if !ok {
		return repository.ErrNotFound
	}
	row.ManagerID = managerID
	row.Manager = nil
	if !r.inTx {
		r.store.mu.Lock()
		r.store.rows[id] = row
		r.store.mu.Unlock()
		return nil
	}
	r.writes[id] = row
	return nil
}

func (r *memRepo) LockHierarchy(context.Context) error {
	r.record("lock")
	if r.store.failLock != nil {
		return r.store.failLock
	}
	if !r.locked {
		r.store.hierarchy.Lock()
		r.locked = true
	}
	return nil
}

func (r *memRepo) BulkInsert(_ context.Context, employees []domain.Employee) (int64, error) {
	for _, e := range employees {
		if r.inTx {
			r.writes[e.ID] = e
			continue
		}
		r.store.mu.Lock()
		r.store.rows[e.ID] = e
		r.store.mu.Unlock()
	}
	return int64(len(employees)), nil
}

func (r *memRepo) ResetSequence(context.Context) error { return nil }
