package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"neotogether/internal/domain"
)

type interestTaxonomyRepository struct {
	DB *sql.DB
}

func NewInterestTaxonomyRepository(db *sql.DB) domain.InterestTaxonomyRepository {
	return &interestTaxonomyRepository{DB: db}
}

func (r *interestTaxonomyRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Interest, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM interests`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, name, category
		FROM interests
		ORDER BY category, name
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	interests, err := scanInterests(rows)
	if err != nil {
		return nil, 0, err
	}
	return interests, total, nil
}

func (r *interestTaxonomyRepository) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Interest, error) {
	if len(ids) == 0 {
		return []*domain.Interest{}, nil
	}
	query := `SELECT id, name, category FROM interests WHERE id = ANY($1) ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInterests(rows)
}

func scanInterests(rows *sql.Rows) ([]*domain.Interest, error) {
	out := make([]*domain.Interest, 0)
	for rows.Next() {
		in := &domain.Interest{}
		var category sql.NullString
		if err := rows.Scan(&in.ID, &in.Name, &category); err != nil {
			return nil, err
		}
		in.Category = category.String
		out = append(out, in)
	}
	return out, rows.Err()
}

type interestExpressionRepository struct {
	DB *sql.DB
}

func NewInterestExpressionRepository(db *sql.DB) domain.InterestExpressionRepository {
	return &interestExpressionRepository{DB: db}
}

func (r *interestExpressionRepository) Create(ctx context.Context, e *domain.InterestExpression) error {
	query := `
		INSERT INTO interest_expressions (actor_id, target_id, slot_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, e.ActorID, e.TargetID, e.SlotID, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.ErrDuplicateExpression
		}
		return err
	}
	return nil
}

func (r *interestExpressionRepository) Exists(ctx context.Context, actorID, targetID string, slotID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM interest_expressions
			WHERE actor_id = $1 AND target_id = $2 AND slot_id = $3
		)
	`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, actorID, targetID, slotID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *interestExpressionRepository) ListByActor(ctx context.Context, actorID string) ([]*domain.InterestExpression, error) {
	query := `
		SELECT id, actor_id, target_id, slot_id, created_at
		FROM interest_expressions
		WHERE actor_id = $1
		ORDER BY created_at
	`
	return r.queryExpressions(ctx, query, actorID)
}

func (r *interestExpressionRepository) ListByActorAndTarget(ctx context.Context, actorID, targetID string) ([]*domain.InterestExpression, error) {
	query := `
		SELECT id, actor_id, target_id, slot_id, created_at
		FROM interest_expressions
		WHERE actor_id = $1 AND target_id = $2
		ORDER BY created_at
	`
	return r.queryExpressions(ctx, query, actorID, targetID)
}

func (r *interestExpressionRepository) queryExpressions(ctx context.Context, query string, args ...any) ([]*domain.InterestExpression, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.InterestExpression, 0)
	for rows.Next() {
		e := &domain.InterestExpression{}
		if err := rows.Scan(&e.ID, &e.ActorID, &e.TargetID, &e.SlotID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
