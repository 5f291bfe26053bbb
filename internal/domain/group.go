package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// GroupStatus is derived from the confirmed members' comfort minimums:
// tentative while the group is below at least one member's min_group_size,
// active otherwise.
type GroupStatus string

const (
	GroupTentative GroupStatus = "tentative"
	GroupActive    GroupStatus = "active"
)

// GroupMemberRole distinguishes the founding member from later joiners.
type GroupMemberRole string

const (
	RoleFounder GroupMemberRole = "founder"
	RoleMember  GroupMemberRole = "member"
)

// GroupMemberStatus tracks membership confirmation.
type GroupMemberStatus string

const (
	MemberConfirmed GroupMemberStatus = "confirmed"
	MemberPending   GroupMemberStatus = "pending"
)

// JoinRequestStatus tracks a join request's lifecycle.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestDeclined JoinRequestStatus = "declined"
)

// Sentinel errors for group operations.
var (
	ErrAlreadyMember        = errors.New("already a member of this group")
	ErrNotAMember           = errors.New("not a member of this group")
	ErrDuplicateJoinRequest = errors.New("join request already pending")
	ErrAlreadyResolved      = errors.New("join request already resolved")
)

// GroupFullError is the policy error returned when a join would exceed some
// confirmed member's max_group_size. It names the cap, never the member.
type GroupFullError struct {
	MaxSize int
}

func (e *GroupFullError) Error() string {
	return fmt.Sprintf("one member prefers groups no larger than %d", e.MaxSize)
}

// Group is the set of confirmed people meeting at one slot's location,
// seeded by the first match formed there.
// swagger:model Group
type Group struct {
	ID        int64       `json:"id"`
	SlotID    int64       `json:"slot_id"`
	Status    GroupStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// GroupMember is one user's membership in a group.
// swagger:model GroupMember
type GroupMember struct {
	ID       int64             `json:"id"`
	GroupID  int64             `json:"group_id"`
	UserID   string            `json:"user_id"`
	Role     GroupMemberRole   `json:"role"`
	Status   GroupMemberStatus `json:"status"`
	JoinedAt time.Time         `json:"joined_at"`
}

// GroupJoinRequest is a third party's request to join an existing group.
// swagger:model GroupJoinRequest
type GroupJoinRequest struct {
	ID          int64             `json:"id"`
	GroupID     int64             `json:"group_id"`
	RequesterID string            `json:"requester_id"`
	Status      JoinRequestStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	RespondedAt *time.Time        `json:"responded_at,omitempty"`
}

// GroupMemberWithUser bundles a membership with its user profile.
type GroupMemberWithUser struct {
	Member *GroupMember `json:"member"`
	User   *User        `json:"user"`
}

// GroupWithMembers is a group snapshot with confirmed members and the
// anchoring slot.
type GroupWithMembers struct {
	Group   *Group                 `json:"group"`
	Members []*GroupMemberWithUser `json:"members"`
	Slot    *AvailabilitySlot      `json:"availability"`
}

// GroupStatusFor derives the group status from the confirmed member count
// and the members' minimum comfortable sizes.
func GroupStatusFor(confirmedCount int, members []*GroupMemberWithUser) GroupStatus {
	for _, m := range members {
		if confirmedCount < m.User.Preferences.MinGroupSize {
			return GroupTentative
		}
	}
	return GroupActive
}

// GroupRepository defines storage for groups and memberships.
type GroupRepository interface {
	// CreateWithMembers inserts the group and its initial confirmed members
	// in one transaction. Returns created=false with the existing group when
	// a group already exists for the slot (unique per slot).
	CreateWithMembers(ctx context.Context, group *Group, members []*GroupMember) (created bool, existing *Group, err error)
	GetByID(ctx context.Context, id int64) (*Group, error)
	GetBySlotID(ctx context.Context, slotID int64) (*Group, error)
	// AddConfirmedMember inserts a confirmed membership and recomputes the
	// group status in the same transaction. Idempotent for existing members.
	AddConfirmedMember(ctx context.Context, groupID int64, userID string, role GroupMemberRole, joinedAt time.Time) error
	ListConfirmedMembers(ctx context.Context, groupID int64) ([]*GroupMemberWithUser, error)
	IsConfirmedMember(ctx context.Context, groupID int64, userID string) (bool, error)
	ListGroupIDsByMember(ctx context.Context, userID string) ([]int64, error)
	ListByMember(ctx context.Context, userID string) ([]*Group, error)
}

// GroupJoinRequestRepository defines storage for join requests.
type GroupJoinRequestRepository interface {
	// Create inserts a pending request. Returns ErrDuplicateJoinRequest when
	// a pending request for (group, requester) already exists.
	Create(ctx context.Context, req *GroupJoinRequest) error
	// HasPending reports whether the requester already has a pending
	// request against the group.
	HasPending(ctx context.Context, groupID int64, requesterID string) (bool, error)
	GetByID(ctx context.Context, id int64) (*GroupJoinRequest, error)
	ListPendingByGroupIDs(ctx context.Context, groupIDs []int64) ([]*GroupJoinRequest, error)
	// Accept atomically moves the request out of pending, re-checks every
	// confirmed member's size cap, inserts the requester as a confirmed
	// member, and recomputes the group status, all in one transaction.
	// Fails with ErrAlreadyResolved when the request is not pending and with
	// *GroupFullError when the re-check finds the group at capacity.
	Accept(ctx context.Context, requestID int64, respondedAt time.Time) (*GroupJoinRequest, error)
	// Decline atomically moves the request out of pending. Fails with
	// ErrAlreadyResolved when the request is not pending.
	Decline(ctx context.Context, requestID int64, respondedAt time.Time) (*GroupJoinRequest, error)
}

// JoinRequestResult is the outcome of a requestJoin call. Tentative is
// informational: the request is pending either way, but the group would
// still be below at least one member's comfort minimum after the join.
type JoinRequestResult struct {
	Request   *GroupJoinRequest `json:"request"`
	Tentative bool              `json:"tentative"`
}

// JoinRequestWithContext bundles a pending request with the requester's
// profile and the group it targets, for member-facing listings.
type JoinRequestWithContext struct {
	Request   *GroupJoinRequest `json:"request"`
	Requester *User             `json:"requester"`
	Group     *Group            `json:"group"`
}

// GroupService owns group membership, size-preference enforcement, and the
// join request lifecycle.
type GroupService interface {
	// FormOrJoin creates the group for the slot with the given confirmed
	// members (first is founder), or adds them directly to the existing
	// group. Mutual-match joins bypass the size cap; only request-based
	// joins enforce it.
	FormOrJoin(ctx context.Context, slotID int64, memberIDs []string) (*Group, error)
	RequestJoin(ctx context.Context, groupID int64, requesterID string) (*JoinRequestResult, error)
	RespondToJoinRequest(ctx context.Context, requestID int64, responderID string, accept bool) (*GroupJoinRequest, error)
	ListJoinRequestsForUser(ctx context.Context, userID string) ([]*JoinRequestWithContext, error)
	ListMyGroups(ctx context.Context, userID string) ([]*GroupWithMembers, error)
}
