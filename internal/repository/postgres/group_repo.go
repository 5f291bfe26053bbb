package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"neotogether/internal/domain"
)

type groupRepository struct {
	DB *sql.DB
}

func NewGroupRepository(db *sql.DB) domain.GroupRepository {
	return &groupRepository{DB: db}
}

const groupColumns = `id, slot_id, status, created_at`

func (r *groupRepository) CreateWithMembers(ctx context.Context, g *domain.Group, members []*domain.GroupMember) (bool, *domain.Group, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, nil, err
	}
	defer tx.Rollback()

	// One group per slot; the conflict path hands back the existing group.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO groups (slot_id, status, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (slot_id) DO NOTHING
		RETURNING id
	`, g.SlotID, g.Status, g.CreatedAt).Scan(&g.ID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return false, nil, err
		}
		existing, err := scanGroup(tx.QueryRowContext(ctx,
			`SELECT `+groupColumns+` FROM groups WHERE slot_id = $1`, g.SlotID))
		if err != nil {
			return false, nil, err
		}
		return false, existing, tx.Commit()
	}

	for _, m := range members {
		m.GroupID = g.ID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO group_members (group_id, user_id, role, status, joined_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, m.GroupID, m.UserID, m.Role, m.Status, m.JoinedAt).Scan(&m.ID)
		if err != nil {
			return false, nil, err
		}
	}
	if err := recomputeGroupStatus(ctx, tx, g.ID); err != nil {
		return false, nil, err
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT status FROM groups WHERE id = $1`, g.ID).Scan(&g.Status); err != nil {
		return false, nil, err
	}
	return true, nil, tx.Commit()
}

func (r *groupRepository) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	g, err := scanGroup(r.DB.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *groupRepository) GetBySlotID(ctx context.Context, slotID int64) (*domain.Group, error) {
	g, err := scanGroup(r.DB.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE slot_id = $1`, slotID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *groupRepository) AddConfirmedMember(ctx context.Context, groupID int64, userID string, role domain.GroupMemberRole, joinedAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, role, status, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`, groupID, userID, role, domain.MemberConfirmed, joinedAt)
	if err != nil {
		return err
	}
	if err := recomputeGroupStatus(ctx, tx, groupID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *groupRepository) ListConfirmedMembers(ctx context.Context, groupID int64) ([]*domain.GroupMemberWithUser, error) {
	query := `
		SELECT m.id, m.group_id, m.user_id, m.role, m.status, m.joined_at,
			u.id, u.first_name, u.birth_year, u.gender, u.is_available, u.email,
			u.private_key_hash, u.min_age_pref, u.max_age_pref, u.gender_prefs,
			u.min_group_size, u.max_group_size, u.created_at
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1 AND m.status = $2
		ORDER BY m.joined_at, m.id
	`
	rows, err := r.DB.QueryContext(ctx, query, groupID, domain.MemberConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.GroupMemberWithUser, 0)
	for rows.Next() {
		m := &domain.GroupMember{}
		u := &domain.User{}
		var email sql.NullString
		var genders pq.StringArray
		err := rows.Scan(
			&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.Status, &m.JoinedAt,
			&u.ID, &u.FirstName, &u.BirthYear, &u.Gender, &u.IsAvailable, &email,
			&u.PrivateKeyHash, &u.Preferences.MinAge, &u.Preferences.MaxAge, &genders,
			&u.Preferences.MinGroupSize, &u.Preferences.MaxGroupSize, &u.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		u.Email = email.String
		u.Preferences.Genders = genders
		out = append(out, &domain.GroupMemberWithUser{Member: m, User: u})
	}
	return out, rows.Err()
}

func (r *groupRepository) IsConfirmedMember(ctx context.Context, groupID int64, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM group_members
			WHERE group_id = $1 AND user_id = $2 AND status = $3
		)
	`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, groupID, userID, domain.MemberConfirmed).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *groupRepository) ListGroupIDsByMember(ctx context.Context, userID string) ([]int64, error) {
	query := `
		SELECT group_id FROM group_members
		WHERE user_id = $1 AND status = $2
		ORDER BY group_id
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, domain.MemberConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *groupRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Group, error) {
	query := `
		SELECT g.id, g.slot_id, g.status, g.created_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1 AND m.status = $2
		ORDER BY g.created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, domain.MemberConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGroup(row rowScanner) (*domain.Group, error) {
	g := &domain.Group{}
	if err := row.Scan(&g.ID, &g.SlotID, &g.Status, &g.CreatedAt); err != nil {
		return nil, err
	}
	return g, nil
}

// recomputeGroupStatus derives the stored status from the confirmed members'
// comfort minimums: active once the head count reaches every member's
// min_group_size.
func recomputeGroupStatus(ctx context.Context, tx *sql.Tx, groupID int64) error {
	query := `
		UPDATE groups SET status = CASE
			WHEN (SELECT COUNT(*) FROM group_members m
				WHERE m.group_id = $1 AND m.status = $2)
				>= COALESCE((SELECT MAX(u.min_group_size)
					FROM group_members m JOIN users u ON u.id = m.user_id
					WHERE m.group_id = $1 AND m.status = $2), 0)
			THEN $3 ELSE $4 END
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query, groupID, domain.MemberConfirmed,
		domain.GroupActive, domain.GroupTentative)
	return err
}
