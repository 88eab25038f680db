// Package seed fills the roster with a generated, acyclic organisation chart.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/repository"
)

// ErrRosterNotEmpty is returned when seeding over existing rows without Reset.
var ErrRosterNotEmpty = errors.New("roster is not empty; rerun with --reset")

// Options controls generation.
type Options struct {
	Employees int
	Levels    int
	Reset     bool
	Seed      int64
}

// Validate checks option bounds.
func (o Options) Validate() error {
	if o.Employees < 1 {
		return fmt.Errorf("employees must be positive, got %d", o.Employees)
	}
	if o.Levels < 1 {
		return fmt.Errorf("levels must be positive, got %d", o.Levels)
	}
	return nil
}

// Target is the store being seeded. Everything Run writes goes through one InRosterTx call.
type Target interface {
	InRosterTx(ctx context.Context, fn func(repos repository.TxRepos) error) error
}

// Invalidator drops cached data derived from the roster.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Result summarises a run.
type Result struct {
	Positions int
	Employees int64
}

var positionTitles = []string{
	"Chief Executive Officer",
	"Director",
	"Manager",
	"Team Lead",
	"Specialist",
}

var (
	firstNames  = []string{"Ivan", "Petr", "Anna", "Maria", "Olga", "Sergey", "Elena", "Dmitry", "Natalia", "Alexey", "Irina", "Pavel"}
	lastNames   = []string{"Ivanov", "Petrov", "Sidorov", "Smirnov", "Kuznetsov", "Popov", "Volkov", "Sokolov", "Lebedev", "Kozlov", "Novikov", "Morozov"}
	middleNames = []string{"Ivanovich", "Petrovich", "Sergeevich", "Andreevna", "Nikolaevna", "Dmitrievich"}
)

// Run writes positions and employees into target and invalidates cache.
func Run(ctx context.Context, target Target, cache Invalidator, opts Options, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("roster.seed")
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	var (
		positions []domain.Position
		inserted  int64
	)
	err := target.InRosterTx(ctx, func(repos repository.TxRepos) error {
		var err error
		positions, inserted, err = fill(ctx, repos, opts, logger)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	if cache != nil {
		if err := cache.Invalidate(ctx); err != nil {
			logger.Warn("candidate cache invalidation failed", zap.Error(err))
		}
	}

	logger.Info("roster seeded", zap.Int("positions", len(positions)), zap.Int64("employees", inserted))
	return Result{Positions: len(positions), Employees: inserted}, nil
}

func fill(ctx context.Context, repos repository.TxRepos, opts Options, logger *zap.Logger) ([]domain.Position, int64, error) {
	if opts.Reset {
		if err := repos.Positions.TruncateRoster(ctx); err != nil {
			return nil, 0, fmt.Errorf("truncate roster: %w", err)
		}
		logger.Info("roster truncated")
	} else {
		count, err := repos.Employees.Count(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("count employees: %w", err)
		}
		if count > 0 {
			return nil, 0, ErrRosterNotEmpty
		}
	}

	positions := make([]domain.Position, 0, opts.Levels)
	for level := 0; level < opts.Levels; level++ {
		position := domain.Position{Title: PositionTitle(level), Level: fmt.Sprintf("L%d", level+1)}
		if err := repos.Positions.Create(ctx, &position); err != nil {
			return nil, 0, fmt.Errorf("create position %q: %w", position.Title, err)
		}
		positions = append(positions, position)
	}

	inserted, err := repos.Employees.BulkInsert(ctx, Generate(opts, positions))
	if err != nil {
		return nil, 0, fmt.Errorf("copy employees: %w", err)
	}
	if err := repos.Employees.ResetSequence(ctx); err != nil {
		return nil, 0, fmt.Errorf("reset sequence: %w", err)
	}
	return positions, inserted, nil
}

// PositionTitle names the position for a zero-based level.
func PositionTitle(level int) string {
	if level < len(positionTitles) {
		return positionTitles[level]
	}
	return fmt.Sprintf("Associate %d", level-len(positionTitles)+1)
}

// LevelSizes splits total employees across levels. Each level is up to four times
// larger than the one above it and the last level takes the remainder.
func LevelSizes(total, levels int) []int {
	var sizes []int
	remaining := total
	size := 1
	for level := 0; level < levels && remaining > 0; level++ {
		if level == levels-1 || size > remaining {
			size = remaining
		}
		sizes = append(sizes, size)
		remaining -= size
		size *= 4
	}
	return sizes
}

// Generate builds employees level by level with ids starting at 1. Every employee below the
// first level reports to a random employee of the level above, so the result is a forest.
func Generate(opts Options, positions []domain.Position) []domain.Employee {
	rng := rand.New(rand.NewSource(opts.Seed))
	hireFrom := time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC)
	hireDays := int(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC).Sub(hireFrom).Hours() / 24)

	employees := make([]domain.Employee, 0, opts.Employees)
	var previous []int64
	nextID := int64(1)

	for level, size := range LevelSizes(opts.Employees, len(positions)) {
		current := make([]int64, 0, size)
		base := int64(300000 / (level + 1))
		for i := 0; i < size; i++ {
			e := domain.Employee{
				ID:         nextID,
				FirstName:  firstNames[rng.Intn(len(firstNames))],
				LastName:   lastNames[rng.Intn(len(lastNames))],
				PositionID: positions[level].ID,
				HireDate:   hireFrom.AddDate(0, 0, rng.Intn(hireDays)),
				Salary:     decimal.New(base*100+rng.Int63n(base*20), -2),
			}
			if rng.Intn(3) > 0 {
				middle := middleNames[rng.Intn(len(middleNames))]
				e.MiddleName = &middle
			}
			if len(previous) > 0 {
				manager := previous[rng.Intn(len(previous))]
				e.ManagerID = &manager
			}
			employees = append(employees, e)
			current = append(current, nextID)
			nextID++
		}
		previous = current
	}
	return employees
}
