package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user and authentication operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid name or private key")
	ErrInvalidMagicToken  = errors.New("invalid or expired magic link")
)

// MatchPreferences holds a user's stated preferences for who they want to
// meet and how large a group they are comfortable with. A nil age bound means
// unbounded on that side; an empty gender set means any gender.
// swagger:model MatchPreferences
type MatchPreferences struct {
	MinAge       *int     `json:"min_age_preference"`
	MaxAge       *int     `json:"max_age_preference"`
	Genders      []string `json:"gender_preferences"`
	MinGroupSize int      `json:"min_group_size"`
	MaxGroupSize int      `json:"max_group_size"`
}

// Default group size comfort bounds for new users.
const (
	DefaultMinGroupSize = 2
	DefaultMaxGroupSize = 10
)

// AcceptsAge reports whether the given age satisfies the age bounds.
func (p *MatchPreferences) AcceptsAge(age int) bool {
	if p.MinAge != nil && age < *p.MinAge {
		return false
	}
	if p.MaxAge != nil && age > *p.MaxAge {
		return false
	}
	return true
}

// AcceptsGender reports whether the given gender satisfies the gender set.
func (p *MatchPreferences) AcceptsGender(gender string) bool {
	if len(p.Genders) == 0 {
		return true
	}
	for _, g := range p.Genders {
		if g == gender {
			return true
		}
	}
	return false
}

// Accepts reports whether the other user satisfies all set criteria.
// Unset bounds and an empty gender set accept everyone.
func (p *MatchPreferences) Accepts(other *User, now time.Time) bool {
	return p.AcceptsAge(other.Age(now)) && p.AcceptsGender(other.Gender)
}

// User represents a person using the app. First names come from a fixed
// approved list; the private key is the primary credential and its hash is
// never serialized.
// swagger:model User
type User struct {
	ID             string           `json:"id"`
	FirstName      string           `json:"first_name"`
	BirthYear      int              `json:"birth_year"`
	Gender         string           `json:"gender"`
	IsAvailable    bool             `json:"is_available"`
	Email          string           `json:"email,omitempty"`
	PrivateKeyHash string           `json:"-"`
	Interests      []*Interest      `json:"interests"`
	Preferences    MatchPreferences `json:"preferences"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NewUser returns a new User with default preferences. ID is assigned by the
// caller (users carry application-generated UUIDs).
func NewUser(id, firstName string, birthYear int, gender, privateKeyHash string, createdAt time.Time) *User {
	return &User{
		ID:             id,
		FirstName:      firstName,
		BirthYear:      birthYear,
		Gender:         gender,
		IsAvailable:    true,
		PrivateKeyHash: privateKeyHash,
		Preferences: MatchPreferences{
			MinGroupSize: DefaultMinGroupSize,
			MaxGroupSize: DefaultMaxGroupSize,
		},
		CreatedAt: createdAt,
	}
}

// Age derives the user's age from the birth year.
func (u *User) Age(now time.Time) int {
	return now.Year() - u.BirthYear
}

// PrivateKeyHasher hashes and verifies user private keys.
type PrivateKeyHasher interface {
	Hash(privateKey string) (string, error)
	Compare(hash, privateKey string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserRepository defines the interface for user storage.
// GetByID and GetByEmail load the user's interest tags.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByFirstName(ctx context.Context, firstName string) ([]*User, error)
	ReplaceInterests(ctx context.Context, userID string, interestIDs []int64) error
	ListInterestsByUserIDs(ctx context.Context, userIDs []string) (map[string][]*Interest, error)
	UpdatePreferences(ctx context.Context, userID string, prefs MatchPreferences) error
	SetAvailable(ctx context.Context, userID string, available bool) error
	SetMagicToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	// ConsumeMagicToken clears a non-expired token hash and returns the owning
	// user's id. Single use: a second call with the same hash fails.
	ConsumeMagicToken(ctx context.Context, tokenHash string, now time.Time) (userID string, err error)
}

// SignupResult bundles the created user with the plaintext private key,
// which is shown to the user exactly once.
type SignupResult struct {
	User       *User  `json:"user"`
	PrivateKey string `json:"private_key,omitempty"`
}

// UserService defines account, authentication, and profile operations.
type UserService interface {
	Signup(ctx context.Context, firstName string, birthYear int, gender string, interestIDs []int64) (*SignupResult, error)
	Login(ctx context.Context, firstName, privateKey string) (token string, user *User, err error)
	SignupWithEmail(ctx context.Context, email, firstName string, birthYear int, gender string, interestIDs []int64) error
	RequestMagicLink(ctx context.Context, email string) error
	VerifyMagicLink(ctx context.Context, token string) (jwtToken string, user *User, err error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdatePreferences(ctx context.Context, userID string, prefs MatchPreferences) (*User, error)
	ToggleAvailability(ctx context.Context, userID string) (isAvailable bool, err error)
}
