package repository

import (
	"context"

	"github.com/spec-kit/roster-service/internal/domain"
)

// PositionRepository manages position persistence.
type PositionRepository interface {
	Create(ctx context.Context, position *domain.Position) error
	List(ctx context.Context) ([]domain.Position, error)
	TruncateRoster(ctx context.Context) error
}

type positionRepository struct {
	db DBTX
}

// NewPositionRepository builds the repository.
func NewPositionRepository(db DBTX) PositionRepository {
	return &positionRepository{db: db}
}

func (r *positionRepository) Create(ctx context.Context, position *domain.Position) error {
	const query = `
        INSERT INTO positions (title, level)
        VALUES ($1,$2)
        RETURNING id`
	return r.db.QueryRow(ctx, query, position.Title, position.Level).Scan(&position.ID)
}

func (r *positionRepository) List(ctx context.Context) ([]domain.Position, error) {
	const query = `SELECT id, title, level FROM positions ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Position
	for rows.Next() {
		var position domain.Position
		if err := rows.Scan(&position.ID, &position.Title, &position.Level); err != nil {
			return nil, err
		}
		result = append(result, position)
	}
	return result, rows.Err()
}

// TruncateRoster removes every employee and position and restarts both id sequences.
func (r *positionRepository) TruncateRoster(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `TRUNCATE employees, positions RESTART IDENTITY`)
	return err
}
