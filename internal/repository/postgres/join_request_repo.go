package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"neotogether/internal/domain"
)

type joinRequestRepository struct {
	DB *sql.DB
}

func NewJoinRequestRepository(db *sql.DB) domain.GroupJoinRequestRepository {
	return &joinRequestRepository{DB: db}
}

const joinRequestColumns = `id, group_id, requester_id, status, created_at, responded_at`

func (r *joinRequestRepository) Create(ctx context.Context, req *domain.GroupJoinRequest) error {
	// A partial unique index on (group_id, requester_id) WHERE pending backs
	// the duplicate check.
	query := `
		INSERT INTO group_join_requests (group_id, requester_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, req.GroupID, req.RequesterID, req.Status, req.CreatedAt).Scan(&req.ID)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.ErrDuplicateJoinRequest
		}
		return err
	}
	return nil
}

func (r *joinRequestRepository) HasPending(ctx context.Context, groupID int64, requesterID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM group_join_requests
			WHERE group_id = $1 AND requester_id = $2 AND status = $3
		)
	`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, groupID, requesterID, domain.JoinRequestPending).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *joinRequestRepository) GetByID(ctx context.Context, id int64) (*domain.GroupJoinRequest, error) {
	req, err := scanJoinRequest(r.DB.QueryRowContext(ctx,
		`SELECT `+joinRequestColumns+` FROM group_join_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *joinRequestRepository) ListPendingByGroupIDs(ctx context.Context, groupIDs []int64) ([]*domain.GroupJoinRequest, error) {
	if len(groupIDs) == 0 {
		return []*domain.GroupJoinRequest{}, nil
	}
	query := `
		SELECT ` + joinRequestColumns + `
		FROM group_join_requests
		WHERE group_id = ANY($1) AND status = $2
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(groupIDs), domain.JoinRequestPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.GroupJoinRequest, 0)
	for rows.Next() {
		req, err := scanJoinRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *joinRequestRepository) Accept(ctx context.Context, requestID int64, respondedAt time.Time) (*domain.GroupJoinRequest, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Lock the request row so two members cannot resolve it at once.
	req, err := scanJoinRequest(tx.QueryRowContext(ctx,
		`SELECT `+joinRequestColumns+` FROM group_join_requests WHERE id = $1 FOR UPDATE`, requestID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if req.Status != domain.JoinRequestPending {
		return nil, domain.ErrAlreadyResolved
	}

	// Lock the group row so concurrent accepts serialize the capacity check.
	if _, err := tx.ExecContext(ctx, `SELECT 1 FROM groups WHERE id = $1 FOR UPDATE`, req.GroupID); err != nil {
		return nil, err
	}
	var size int
	var smallestCap sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(u.max_group_size)
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1 AND m.status = $2
	`, req.GroupID, domain.MemberConfirmed).Scan(&size, &smallestCap)
	if err != nil {
		return nil, err
	}
	if smallestCap.Valid && int64(size) >= smallestCap.Int64 {
		return nil, &domain.GroupFullError{MaxSize: int(smallestCap.Int64)}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, role, status, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`, req.GroupID, req.RequesterID, domain.RoleMember, domain.MemberConfirmed, respondedAt)
	if err != nil {
		return nil, err
	}
	if err := recomputeGroupStatus(ctx, tx, req.GroupID); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE group_join_requests SET status = $2, responded_at = $3 WHERE id = $1
	`, requestID, domain.JoinRequestAccepted, respondedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	req.Status = domain.JoinRequestAccepted
	req.RespondedAt = &respondedAt
	return req, nil
}

func (r *joinRequestRepository) Decline(ctx context.Context, requestID int64, respondedAt time.Time) (*domain.GroupJoinRequest, error) {
	query := `
		UPDATE group_join_requests
		SET status = $2, responded_at = $3
		WHERE id = $1 AND status = $4
		RETURNING ` + joinRequestColumns + `
	`
	req, err := scanJoinRequest(r.DB.QueryRowContext(ctx, query, requestID,
		domain.JoinRequestDeclined, respondedAt, domain.JoinRequestPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAlreadyResolved
		}
		return nil, err
	}
	return req, nil
}

func scanJoinRequest(row rowScanner) (*domain.GroupJoinRequest, error) {
	req := &domain.GroupJoinRequest{}
	var respondedAt sql.NullTime
	err := row.Scan(&req.ID, &req.GroupID, &req.RequesterID, &req.Status, &req.CreatedAt, &respondedAt)
	if err != nil {
		return nil, err
	}
	if respondedAt.Valid {
		req.RespondedAt = &respondedAt.Time
	}
	return req, nil
}
