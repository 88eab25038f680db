package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/events"
	"github.com/spec-kit/roster-service/internal/hierarchy"
	"github.com/spec-kit/roster-service/internal/repository"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// RosterStore is the slice of repository.Store the services depend on.
type RosterStore interface {
	Employees() repository.EmployeeRepository
	InTx(ctx context.Context, fn func(employees repository.EmployeeRepository) error) error
}

// CandidateSource lists every employee that may appear in a manager drop-down.
type CandidateSource interface {
	Options(ctx context.Context) ([]domain.EmployeeSummary, error)
}

// ManagerService applies validated manager reassignments.
type ManagerService struct {
	store      RosterStore
	candidates CandidateSource
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ManagerDependencies bundles collaborators.
type ManagerDependencies struct {
	Store      RosterStore
	Candidates CandidateSource
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewManagerService creates the service.
func NewManagerService(deps ManagerDependencies) *ManagerService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManagerService{
		store:      deps.Store,
		candidates: deps.Candidates,
		dispatcher: deps.Dispatcher,
		logger:     logger.Named("roster.manager"),
	}
}

// Candidates returns the employee being edited and everyone who may become their manager.
func (s *ManagerService) Candidates(ctx context.Context, employeeID int64) (*domain.Employee, []domain.EmployeeSummary, error) {
	employee, err := s.store.Employees().GetByID(ctx, employeeID)
	if err != nil {
		return nil, nil, mapLoadError(err, employeeID)
	}

	options, err := s.candidates.Options(ctx)
	if err != nil {
		return nil, nil, apperrors.NewStorageError(err)
	}
	result := make([]domain.EmployeeSummary, 0, len(options))
	for _, option := range options {
		if option.ID != employeeID {
			result = append(result, option)
		}
	}
	return employee, result, nil
}

// AssignManager makes managerID the manager of employeeID, or clears it when managerID is nil.
// Validation and the write share one transaction that holds the hierarchy lock, so a rejected
// or failed call leaves the stored graph untouched.
func (s *ManagerService) AssignManager(ctx context.Context, employeeID int64, managerID *int64) (*domain.Employee, error) {
	var (
		updated  *domain.Employee
		previous *int64
		changed  bool
	)

	err := s.store.InTx(ctx, func(employees repository.EmployeeRepository) error {
		if err := employees.LockHierarchy(ctx); err != nil {
			return apperrors.NewStorageError(err)
		}

		current, err := employees.GetByID(ctx, employeeID)
		if err != nil {
			return mapLoadError(err, employeeID)
		}

		decision, err := hierarchy.Check(ctx, employees, employeeID, managerID)
		if err != nil {
			return apperrors.NewStorageError(err)
		}
		if !decision.Allowed {
			s.logger.Info("manager assignment rejected",
				zap.Int64("employee_id", employeeID),
				zap.Int64p("manager_id", managerID),
				zap.String("reason", string(decision.Reason)),
				zap.Int64s("chain", decision.Chain),
			)
			return rejectionError(decision.Reason, employeeID, managerID)
		}

		previous = current.ManagerID
		if current.HasManager(managerID) {
			updated = current
			return nil
		}

		if err := employees.SetManager(ctx, employeeID, managerID); err != nil {
			return apperrors.NewStorageError(err)
		}
		if updated, err = employees.GetByID(ctx, employeeID); err != nil {
			return apperrors.NewStorageError(err)
		}
		changed = true
		return nil
	})
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		s.logger.Error("manager assignment commit failed", zap.Int64("employee_id", employeeID), zap.Error(err))
		return nil, apperrors.NewStorageError(err)
	}

	if changed {
		s.logger.Info("manager assigned",
			zap.Int64("employee_id", employeeID),
			zap.Int64p("old_manager_id", previous),
			zap.Int64p("new_manager_id", managerID),
		)
		s.publishManagerChanged(ctx, employeeID, previous, managerID)
	}
	return updated, nil
}

func (s *ManagerService) publishManagerChanged(ctx context.Context, employeeID int64, previous, next *int64) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventManagerChanged,
		EmployeeID: employeeID,
		RequestID:  RequestIDFromContext(ctx),
		Timestamp:  time.Now().UTC(),
		Payload:    events.ManagerChangedPayload{OldManagerID: previous, NewManagerID: next},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("manager change handlers failed", zap.Int64("employee_id", employeeID), zap.Error(err))
	}
}

func mapLoadError(err error, employeeID int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("employee", map[string]any{"employee_id": employeeID})
	}
	return apperrors.NewStorageError(err)
}

func rejectionError(reason hierarchy.Reason, employeeID int64, managerID *int64) error {
	details := map[string]any{"employee_id": employeeID}
	if managerID != nil {
		details["manager_id"] = *managerID
	}
	switch reason {
	case hierarchy.ReasonSelfManager:
		return apperrors.NewRejection(apperrors.CodeSelfManager, "An employee cannot be their own manager", details)
	case hierarchy.ReasonManagerNotFound:
		return apperrors.NewRejection(apperrors.CodeManagerNotFound, "Selected manager does not exist", details)
	default:
		return apperrors.NewRejection(apperrors.CodeCycleDetected, "Circular reference detected in the hierarchy", details)
	}
}
