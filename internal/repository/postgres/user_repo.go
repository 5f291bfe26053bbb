package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"neotogether/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `id, first_name, birth_year, gender, is_available, email,
	private_key_hash, min_age_pref, max_age_pref, gender_prefs,
	min_group_size, max_group_size, created_at`

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, first_name, birth_year, gender, is_available, email,
			private_key_hash, min_age_pref, max_age_pref, gender_prefs,
			min_group_size, max_group_size, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.DB.ExecContext(ctx, query,
		u.ID, u.FirstName, u.BirthYear, u.Gender, u.IsAvailable, u.Email,
		u.PrivateKeyHash, u.Preferences.MinAge, u.Preferences.MaxAge,
		pq.Array(u.Preferences.Genders),
		u.Preferences.MinGroupSize, u.Preferences.MaxGroupSize, u.CreatedAt,
	)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := r.scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.attachInterests(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := r.scanUser(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if err := r.attachInterests(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) ListByFirstName(ctx context.Context, firstName string) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE first_name = $1 ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query, firstName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) ReplaceInterests(ctx context.Context, userID string, interestIDs []int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_interests WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for _, id := range interestIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_interests (user_id, interest_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, interest_id) DO NOTHING
		`, userID, id)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *userRepository) ListInterestsByUserIDs(ctx context.Context, userIDs []string) (map[string][]*domain.Interest, error) {
	out := make(map[string][]*domain.Interest, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT ui.user_id, i.id, i.name, i.category
		FROM user_interests ui
		JOIN interests i ON i.id = ui.interest_id
		WHERE ui.user_id = ANY($1)
		ORDER BY i.name
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		in := &domain.Interest{}
		var category sql.NullString
		if err := rows.Scan(&userID, &in.ID, &in.Name, &category); err != nil {
			return nil, err
		}
		in.Category = category.String
		out[userID] = append(out[userID], in)
	}
	return out, rows.Err()
}

func (r *userRepository) UpdatePreferences(ctx context.Context, userID string, prefs domain.MatchPreferences) error {
	query := `
		UPDATE users
		SET min_age_pref = $2, max_age_pref = $3, gender_prefs = $4,
			min_group_size = $5, max_group_size = $6
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, userID,
		prefs.MinAge, prefs.MaxAge, pq.Array(prefs.Genders),
		prefs.MinGroupSize, prefs.MaxGroupSize)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SetAvailable(ctx context.Context, userID string, available bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET is_available = $2 WHERE id = $1`, userID, available)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SetMagicToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET magic_token_hash = $2, magic_token_expires_at = $3 WHERE id = $1
	`, userID, tokenHash, expiresAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) ConsumeMagicToken(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	// Clearing the hash in the same statement makes the token single use even
	// under concurrent verification attempts.
	query := `
		UPDATE users
		SET magic_token_hash = NULL, magic_token_expires_at = NULL
		WHERE magic_token_hash = $1 AND magic_token_expires_at > $2
		RETURNING id
	`
	var userID string
	err := r.DB.QueryRowContext(ctx, query, tokenHash, now).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return userID, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *userRepository) scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	var email sql.NullString
	var genders pq.StringArray
	err := row.Scan(
		&u.ID, &u.FirstName, &u.BirthYear, &u.Gender, &u.IsAvailable, &email,
		&u.PrivateKeyHash, &u.Preferences.MinAge, &u.Preferences.MaxAge, &genders,
		&u.Preferences.MinGroupSize, &u.Preferences.MaxGroupSize, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	u.Preferences.Genders = genders
	return u, nil
}

func (r *userRepository) attachInterests(ctx context.Context, u *domain.User) error {
	byUser, err := r.ListInterestsByUserIDs(ctx, []string{u.ID})
	if err != nil {
		return err
	}
	u.Interests = byUser[u.ID]
	return nil
}
