package domain

import (
	"context"
	"fmt"
	"time"
)

// Weekday indices used in repeat schedules: 0=Monday .. 6=Sunday.
const (
	WeekdayMin = 0
	WeekdayMax = 6
)

// AvailabilitySlot is a user's declared place plus recurring time window of
// presence. Times are local wall-clock "HH:MM" strings; all comparisons
// happen within a single discovery query, so no timezone conversion is done.
// swagger:model AvailabilitySlot
type AvailabilitySlot struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	LocationName string    `json:"location_name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	RadiusMeters *int      `json:"radius_meters,omitempty"`
	TimeStart    string    `json:"time_start"`
	TimeEnd      string    `json:"time_end"`
	RepeatDays   []int     `json:"repeat_days"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks the slot's invariants. Errors wrap ErrInvalidInput.
func (s *AvailabilitySlot) Validate() error {
	if s.LocationName == "" {
		return fmt.Errorf("%w: location_name is required", ErrInvalidInput)
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("%w: latitude out of range", ErrInvalidInput)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("%w: longitude out of range", ErrInvalidInput)
	}
	if !validClockTime(s.TimeStart) || !validClockTime(s.TimeEnd) {
		return fmt.Errorf("%w: times must be in HH:MM format", ErrInvalidInput)
	}
	if s.TimeStart >= s.TimeEnd {
		return fmt.Errorf("%w: time_start must be before time_end", ErrInvalidInput)
	}
	if len(s.RepeatDays) == 0 {
		return fmt.Errorf("%w: repeat_days must not be empty", ErrInvalidInput)
	}
	seen := make(map[int]struct{}, len(s.RepeatDays))
	for _, d := range s.RepeatDays {
		if d < WeekdayMin || d > WeekdayMax {
			return fmt.Errorf("%w: repeat_days entries must be 0 (Monday) through 6 (Sunday)", ErrInvalidInput)
		}
		if _, dup := seen[d]; dup {
			return fmt.Errorf("%w: repeat_days entries must be unique", ErrInvalidInput)
		}
		seen[d] = struct{}{}
	}
	if s.RadiusMeters != nil && *s.RadiusMeters <= 0 {
		return fmt.Errorf("%w: radius_meters must be positive", ErrInvalidInput)
	}
	return nil
}

// validClockTime reports whether t is a five-character "HH:MM" string.
// Lexicographic comparison of such strings matches chronological order.
func validClockTime(t string) bool {
	if len(t) != 5 || t[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if t[i] < '0' || t[i] > '9' {
			return false
		}
	}
	hh := int(t[0]-'0')*10 + int(t[1]-'0')
	mm := int(t[3]-'0')*10 + int(t[4]-'0')
	return hh <= 23 && mm <= 59
}

// SlotWithOwner bundles a slot with its owning user for discovery reads.
type SlotWithOwner struct {
	Slot  *AvailabilitySlot `json:"availability"`
	Owner *User             `json:"user"`
}

// AvailabilityRepository defines storage for availability slots.
//
// "Visible" in the list methods means the derived visibility function
// owner.is_available AND slot.is_active, computed in the query rather than
// denormalized.
type AvailabilityRepository interface {
	Create(ctx context.Context, slot *AvailabilitySlot) error
	GetByID(ctx context.Context, id int64) (*AvailabilitySlot, error)
	ListByUserID(ctx context.Context, userID string) ([]*AvailabilitySlot, error)
	ListActiveByUserID(ctx context.Context, userID string) ([]*AvailabilitySlot, error)
	Update(ctx context.Context, slot *AvailabilitySlot) error
	Delete(ctx context.Context, id int64) error
	// ListVisible returns every visible slot not owned by excludeUserID.
	ListVisible(ctx context.Context, excludeUserID string) ([]*SlotWithOwner, error)
	// ListVisibleNear returns visible slots within the same-location tolerance
	// of (lat, lng), excluding slots owned by excludeUserID.
	ListVisibleNear(ctx context.Context, lat, lng float64, excludeUserID string) ([]*SlotWithOwner, error)
}

// AvailabilityService defines owner-facing CRUD over availability slots.
type AvailabilityService interface {
	Create(ctx context.Context, slot *AvailabilitySlot) (*AvailabilitySlot, error)
	GetOwn(ctx context.Context, ownerID string, slotID int64) (*AvailabilitySlot, error)
	ListOwn(ctx context.Context, ownerID string) ([]*AvailabilitySlot, error)
	Update(ctx context.Context, ownerID string, slot *AvailabilitySlot) (*AvailabilitySlot, error)
	Delete(ctx context.Context, ownerID string, slotID int64) error
}
