package domain

import (
	"context"
	"errors"
	"time"
)

// MatchStatus tracks the scheduling negotiation of a match.
type MatchStatus string

const (
	MatchPending      MatchStatus = "pending"
	MatchTimeProposed MatchStatus = "time_proposed"
	MatchConfirmed    MatchStatus = "confirmed"
)

// Sentinel errors for matching operations.
var (
	ErrNotAParticipant  = errors.New("not a participant of this match")
	ErrAlreadyConfirmed = errors.New("match already confirmed")
	ErrNoProposalYet    = errors.New("no time proposed yet")
	ErrSelfConfirmation = errors.New("cannot confirm your own proposal")
)

// Match records mutual interest between two users, anchored to the slot
// where the later of the two expressions was made. User1ID sorts before
// User2ID so the unordered pair is stored canonically.
// swagger:model Match
type Match struct {
	ID               int64       `json:"id"`
	User1ID          string      `json:"user1_id"`
	User2ID          string      `json:"user2_id"`
	SlotID           int64       `json:"slot_id"`
	Status           MatchStatus `json:"status"`
	ProposedDatetime *time.Time  `json:"proposed_datetime,omitempty"`
	ProposerID       *string     `json:"proposed_by_id,omitempty"`
	ConfirmedAt      *time.Time  `json:"confirmed_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

// NewMatch returns a pending Match for the unordered pair (a, b) at slotID.
// The pair is canonicalized so (a, b) and (b, a) produce the same record.
func NewMatch(a, b string, slotID int64, createdAt time.Time) *Match {
	if b < a {
		a, b = b, a
	}
	return &Match{
		User1ID:   a,
		User2ID:   b,
		SlotID:    slotID,
		Status:    MatchPending,
		CreatedAt: createdAt,
	}
}

// HasParticipant reports whether userID is one of the match's two users.
func (m *Match) HasParticipant(userID string) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// OtherParticipant returns the participant that is not userID.
func (m *Match) OtherParticipant(userID string) string {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// MatchRepository defines storage for matches.
type MatchRepository interface {
	// Create inserts the match unless one already exists for the pair and
	// slot. Returns created=false (and no error) when the row already existed,
	// so concurrent reciprocal expressions converge on a single match.
	Create(ctx context.Context, match *Match) (created bool, err error)
	GetByID(ctx context.Context, id int64) (*Match, error)
	GetByPairAndSlot(ctx context.Context, user1ID, user2ID string, slotID int64) (*Match, error)
	ListByUserID(ctx context.Context, userID string) ([]*Match, error)
	// ProposeTime sets the proposal atomically; it fails with
	// ErrAlreadyConfirmed when the match is no longer open for proposals.
	ProposeTime(ctx context.Context, matchID int64, proposerID string, datetime time.Time) error
	// Confirm moves time_proposed to confirmed atomically; it fails with
	// ErrNoProposalYet when no proposal is pending.
	Confirm(ctx context.Context, matchID int64, confirmedAt time.Time) error
}

// ExpressInterestResult reports the outcome of an interest expression.
type ExpressInterestResult struct {
	MutualMatch bool   `json:"mutual_match"`
	Match       *Match `json:"match,omitempty"`
}

// MatchWithContext bundles a match with the other participant and the
// anchoring slot, for listing a user's matches.
type MatchWithContext struct {
	Match     *Match            `json:"match"`
	OtherUser *User             `json:"other_user"`
	Slot      *AvailabilitySlot `json:"availability"`
}

// MatchingService owns the interest ledger and the match state machine.
type MatchingService interface {
	// ExpressInterest records the actor's interest in meeting whoever is at
	// the target's slot, detects reciprocity, and creates a Match (and its
	// Group) on first reciprocity. Duplicate expressions are idempotent and
	// re-report the current mutual outcome.
	ExpressInterest(ctx context.Context, actorID, targetID string, slotID int64) (*ExpressInterestResult, error)
	ListSentExpressions(ctx context.Context, actorID string) ([]*InterestExpression, error)
	ListMatches(ctx context.Context, userID string) ([]*MatchWithContext, error)
	ProposeTime(ctx context.Context, matchID int64, proposerID string, datetime time.Time) (*Match, error)
	Confirm(ctx context.Context, matchID int64, confirmerID string) (*Match, error)
}
