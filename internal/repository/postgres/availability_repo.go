package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"neotogether/internal/domain"
)

// sameLocationTolerance is the coordinate distance (in degrees) under which
// two slots count as the same location.
const sameLocationTolerance = 0.001

type availabilityRepository struct {
	DB *sql.DB
}

func NewAvailabilityRepository(db *sql.DB) domain.AvailabilityRepository {
	return &availabilityRepository{DB: db}
}

const slotColumns = `id, user_id, location_name, latitude, longitude,
	radius_meters, time_start, time_end, repeat_days, is_active, created_at`

func (r *availabilityRepository) Create(ctx context.Context, s *domain.AvailabilitySlot) error {
	query := `
		INSERT INTO availability_slots (user_id, location_name, latitude, longitude,
			radius_meters, time_start, time_end, repeat_days, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		s.UserID, s.LocationName, s.Latitude, s.Longitude,
		s.RadiusMeters, s.TimeStart, s.TimeEnd, pq.Array(intsTo64(s.RepeatDays)),
		s.IsActive, s.CreatedAt,
	).Scan(&s.ID)
}

func (r *availabilityRepository) GetByID(ctx context.Context, id int64) (*domain.AvailabilitySlot, error) {
	query := `SELECT ` + slotColumns + ` FROM availability_slots WHERE id = $1`
	s, err := scanSlot(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *availabilityRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.AvailabilitySlot, error) {
	query := `SELECT ` + slotColumns + ` FROM availability_slots WHERE user_id = $1 ORDER BY id`
	return r.querySlots(ctx, query, userID)
}

func (r *availabilityRepository) ListActiveByUserID(ctx context.Context, userID string) ([]*domain.AvailabilitySlot, error) {
	query := `SELECT ` + slotColumns + ` FROM availability_slots WHERE user_id = $1 AND is_active ORDER BY id`
	return r.querySlots(ctx, query, userID)
}

func (r *availabilityRepository) Update(ctx context.Context, s *domain.AvailabilitySlot) error {
	query := `
		UPDATE availability_slots
		SET location_name = $2, latitude = $3, longitude = $4, radius_meters = $5,
			time_start = $6, time_end = $7, repeat_days = $8, is_active = $9
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		s.ID, s.LocationName, s.Latitude, s.Longitude, s.RadiusMeters,
		s.TimeStart, s.TimeEnd, pq.Array(intsTo64(s.RepeatDays)), s.IsActive)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *availabilityRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM availability_slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const visibleSlotQuery = `
	SELECT s.id, s.user_id, s.location_name, s.latitude, s.longitude,
		s.radius_meters, s.time_start, s.time_end, s.repeat_days, s.is_active, s.created_at,
		u.id, u.first_name, u.birth_year, u.gender, u.is_available, u.email,
		u.private_key_hash, u.min_age_pref, u.max_age_pref, u.gender_prefs,
		u.min_group_size, u.max_group_size, u.created_at
	FROM availability_slots s
	JOIN users u ON u.id = s.user_id
	WHERE s.is_active AND u.is_available AND s.user_id <> $1
`

func (r *availabilityRepository) ListVisible(ctx context.Context, excludeUserID string) ([]*domain.SlotWithOwner, error) {
	return r.queryVisible(ctx, visibleSlotQuery+` ORDER BY s.id`, excludeUserID)
}

func (r *availabilityRepository) ListVisibleNear(ctx context.Context, lat, lng float64, excludeUserID string) ([]*domain.SlotWithOwner, error) {
	query := visibleSlotQuery + `
		AND abs(s.latitude - $2) <= $4 AND abs(s.longitude - $3) <= $4
		ORDER BY s.id
	`
	return r.queryVisible(ctx, query, excludeUserID, lat, lng, sameLocationTolerance)
}

func (r *availabilityRepository) queryVisible(ctx context.Context, query string, args ...any) ([]*domain.SlotWithOwner, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.SlotWithOwner, 0)
	for rows.Next() {
		s := &domain.AvailabilitySlot{}
		u := &domain.User{}
		var days pq.Int64Array
		var email sql.NullString
		var genders pq.StringArray
		err := rows.Scan(
			&s.ID, &s.UserID, &s.LocationName, &s.Latitude, &s.Longitude,
			&s.RadiusMeters, &s.TimeStart, &s.TimeEnd, &days, &s.IsActive, &s.CreatedAt,
			&u.ID, &u.FirstName, &u.BirthYear, &u.Gender, &u.IsAvailable, &email,
			&u.PrivateKeyHash, &u.Preferences.MinAge, &u.Preferences.MaxAge, &genders,
			&u.Preferences.MinGroupSize, &u.Preferences.MaxGroupSize, &u.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		s.RepeatDays = int64sToInts(days)
		u.Email = email.String
		u.Preferences.Genders = genders
		out = append(out, &domain.SlotWithOwner{Slot: s, Owner: u})
	}
	return out, rows.Err()
}

func (r *availabilityRepository) querySlots(ctx context.Context, query string, args ...any) ([]*domain.AvailabilitySlot, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.AvailabilitySlot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSlot(row rowScanner) (*domain.AvailabilitySlot, error) {
	s := &domain.AvailabilitySlot{}
	var days pq.Int64Array
	err := row.Scan(
		&s.ID, &s.UserID, &s.LocationName, &s.Latitude, &s.Longitude,
		&s.RadiusMeters, &s.TimeStart, &s.TimeEnd, &days, &s.IsActive, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.RepeatDays = int64sToInts(days)
	return s, nil
}

func intsTo64(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func int64sToInts(in []int64) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
