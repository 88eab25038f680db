package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/api/dto"
	"github.com/spec-kit/roster-service/internal/api/flash"
	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/observability"
	"github.com/spec-kit/roster-service/internal/service"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// Flash texts shown after a manager update.
const (
	MsgManagerUpdated    = "Manager updated successfully"
	MsgEmployeeNotFound  = "Employee not found"
	MsgInvalidManager    = dto.InvalidManagerMessage
	MsgManagerSaveFailed = "Database error: the manager was not changed"
	MsgListFailed        = "Failed to load employees"
)

// EmployeeLister pages through the roster.
type EmployeeLister interface {
	ListEmployees(ctx context.Context, params service.ListParams) (*service.EmployeePage, error)
}

// ManagerAssigner reads and changes reporting lines.
type ManagerAssigner interface {
	Candidates(ctx context.Context, employeeID int64) (*domain.Employee, []domain.EmployeeSummary, error)
	AssignManager(ctx context.Context, employeeID int64, managerID *int64) (*domain.Employee, error)
}

// EmployeesHandler serves the roster pages.
type EmployeesHandler struct {
	lister   EmployeeLister
	managers ManagerAssigner
	flashes  flash.Store
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(lister EmployeeLister, managers ManagerAssigner, flashes flash.Store, metrics *observability.Metrics, logger *zap.Logger) *EmployeesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeesHandler{
		lister:   lister,
		managers: managers,
		flashes:  flashes,
		metrics:  metrics,
		logger:   logger.Named("roster.http"),
	}
}

// Index GET /.
func (h *EmployeesHandler) Index(c *fiber.Ctx) error {
	var query dto.ListEmployeesQuery
	if err := c.QueryParser(&query); err != nil {
		query = dto.ListEmployeesQuery{}
	}
	flashes := h.popFlashes(c)

	page, err := h.lister.ListEmployees(c.UserContext(), query.Params())
	if err != nil {
		h.logger.Error("listing failed", zap.String("request_id", observability.RequestID(c)), zap.Error(err))
		view := dto.EmptyListingView()
		view.Flashes = append(flashes, flash.Error(MsgListFailed))
		return c.Render("employees", view, "layouts/main")
	}

	view := dto.NewListingView(page)
	view.Flashes = flashes
	return c.Render("employees", view, "layouts/main")
}

// EditManager GET /employees/:id/manager.
func (h *EmployeesHandler) EditManager(c *fiber.Ctx) error {
	id, ok := employeeID(c)
	if !ok {
		return h.redirectWith(c, "/", flash.Error(MsgEmployeeNotFound))
	}

	employee, candidates, err := h.managers.Candidates(c.UserContext(), id)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return h.redirectWith(c, "/", flash.Error(MsgEmployeeNotFound))
		}
		return err
	}

	view := dto.NewManagerFormView(employee, candidates)
	view.Flashes = h.popFlashes(c)
	return c.Render("edit_manager", view, "layouts/main")
}

// UpdateManager POST /employees/:id/manager.
func (h *EmployeesHandler) UpdateManager(c *fiber.Ctx) error {
	id, ok := employeeID(c)
	if !ok {
		return h.redirectWith(c, "/", flash.Error(MsgEmployeeNotFound))
	}
	back := dto.ManagerFormURL(id)

	var form dto.ManagerForm
	if err := c.BodyParser(&form); err != nil {
		h.metrics.RecordManagerChange(strings.ToLower(apperrors.CodeValidation))
		return h.redirectWith(c, back, flash.Error(MsgInvalidManager))
	}
	managerID, err := form.ManagerIDValue()
	if err == nil {
		_, err = h.managers.AssignManager(c.UserContext(), id, managerID)
	}
	if err != nil {
		var domainErr *apperrors.DomainError
		switch {
		case apperrors.HasCode(err, apperrors.CodeNotFound):
			return h.redirectWith(c, "/", flash.Error(MsgEmployeeNotFound))
		case apperrors.IsRejection(err) && errors.As(err, &domainErr):
			h.metrics.RecordManagerChange(strings.ToLower(domainErr.Code))
			return h.redirectWith(c, back, flash.Error(domainErr.Message))
		default:
			h.metrics.RecordManagerChange(strings.ToLower(apperrors.CodeStorage))
			h.logger.Error("manager update failed",
				zap.String("request_id", observability.RequestID(c)),
				zap.Int64("employee_id", id),
				zap.Error(err),
			)
			return h.redirectWith(c, back, flash.Error(MsgManagerSaveFailed))
		}
	}

	return h.redirectWith(c, "/", flash.Success(MsgManagerUpdated))
}

func (h *EmployeesHandler) popFlashes(c *fiber.Ctx) []flash.Message {
	messages, err := h.flashes.Pop(c)
	if err != nil {
		h.logger.Warn("flash read failed", zap.Error(err))
	}
	return messages
}

func (h *EmployeesHandler) redirectWith(c *fiber.Ctx, location string, msg flash.Message) error {
	if err := h.flashes.Add(c, msg); err != nil {
		h.logger.Warn("flash write failed", zap.Error(err))
	}
	return c.Redirect(location, fiber.StatusSeeOther)
}

func employeeID(c *fiber.Ctx) (int64, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}
