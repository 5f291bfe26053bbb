package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"neotogether/internal/domain"
)

type matchRepository struct {
	DB *sql.DB
}

func NewMatchRepository(db *sql.DB) domain.MatchRepository {
	return &matchRepository{DB: db}
}

const matchColumns = `id, user1_id, user2_id, slot_id, status,
	proposed_datetime, proposed_by_id, confirmed_at, created_at`

func (r *matchRepository) Create(ctx context.Context, m *domain.Match) (bool, error) {
	// ON CONFLICT DO NOTHING makes concurrent reciprocal expressions converge
	// on one row; the loser sees no returned id.
	query := `
		INSERT INTO matches (user1_id, user2_id, slot_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user1_id, user2_id, slot_id) DO NOTHING
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, m.User1ID, m.User2ID, m.SlotID, m.Status, m.CreatedAt).Scan(&m.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *matchRepository) GetByID(ctx context.Context, id int64) (*domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *matchRepository) GetByPairAndSlot(ctx context.Context, user1ID, user2ID string, slotID int64) (*domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE user1_id = $1 AND user2_id = $2 AND slot_id = $3`
	m, err := scanMatch(r.DB.QueryRowContext(ctx, query, user1ID, user2ID, slotID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *matchRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *matchRepository) ProposeTime(ctx context.Context, matchID int64, proposerID string, datetime time.Time) error {
	// The status guard keeps a stale proposal from reopening a confirmed
	// match.
	query := `
		UPDATE matches
		SET status = $2, proposed_datetime = $3, proposed_by_id = $4
		WHERE id = $1 AND status <> $5
	`
	res, err := r.DB.ExecContext(ctx, query, matchID,
		domain.MatchTimeProposed, datetime, proposerID, domain.MatchConfirmed)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAlreadyConfirmed
	}
	return nil
}

func (r *matchRepository) Confirm(ctx context.Context, matchID int64, confirmedAt time.Time) error {
	query := `
		UPDATE matches
		SET status = $2, confirmed_at = $3
		WHERE id = $1 AND status = $4
	`
	res, err := r.DB.ExecContext(ctx, query, matchID,
		domain.MatchConfirmed, confirmedAt, domain.MatchTimeProposed)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNoProposalYet
	}
	return nil
}

func scanMatch(row rowScanner) (*domain.Match, error) {
	m := &domain.Match{}
	var proposedAt, confirmedAt sql.NullTime
	var proposerID sql.NullString
	err := row.Scan(
		&m.ID, &m.User1ID, &m.User2ID, &m.SlotID, &m.Status,
		&proposedAt, &proposerID, &confirmedAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if proposedAt.Valid {
		m.ProposedDatetime = &proposedAt.Time
	}
	if proposerID.Valid {
		m.ProposerID = &proposerID.String
	}
	if confirmedAt.Valid {
		m.ConfirmedAt = &confirmedAt.Time
	}
	return m, nil
}
