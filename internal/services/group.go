package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"neotogether/internal/domain"
)

type groupService struct {
	groupRepo domain.GroupRepository
	jrRepo    domain.GroupJoinRequestRepository
	availRepo domain.AvailabilityRepository
	userRepo  domain.UserRepository
}

// NewGroupService creates a GroupService with the given repositories.
func NewGroupService(
	groupRepo domain.GroupRepository,
	jrRepo domain.GroupJoinRequestRepository,
	availRepo domain.AvailabilityRepository,
	userRepo domain.UserRepository,
) domain.GroupService {
	return &groupService{
		groupRepo: groupRepo,
		jrRepo:    jrRepo,
		availRepo: availRepo,
		userRepo:  userRepo,
	}
}

func (s *groupService) FormOrJoin(ctx context.Context, slotID int64, memberIDs []string) (*domain.Group, error) {
	if len(memberIDs) == 0 {
		return nil, fmt.Errorf("%w: no members to form a group with", domain.ErrInvalidInput)
	}

	now := time.Now()
	group := &domain.Group{
		SlotID:    slotID,
		Status:    domain.GroupTentative,
		CreatedAt: now,
	}
	members := make([]*domain.GroupMember, 0, len(memberIDs))
	for i, id := range memberIDs {
		role := domain.RoleMember
		if i == 0 {
			role = domain.RoleFounder
		}
		members = append(members, &domain.GroupMember{
			UserID:   id,
			Role:     role,
			Status:   domain.MemberConfirmed,
			JoinedAt: now,
		})
	}

	created, existing, err := s.groupRepo.CreateWithMembers(ctx, group, members)
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	if created {
		return group, nil
	}

	// A later mutual match at an already-grouped slot joins directly: the
	// member mutually matched with someone present, so the size cap that
	// gates request-based joins does not apply here.
	for _, id := range memberIDs {
		if err := s.groupRepo.AddConfirmedMember(ctx, existing.ID, id, domain.RoleMember, now); err != nil {
			return nil, fmt.Errorf("add member: %w", err)
		}
	}
	return s.groupRepo.GetBySlotID(ctx, slotID)
}

func (s *groupService) RequestJoin(ctx context.Context, groupID int64, requesterID string) (*domain.JoinRequestResult, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}

	members, err := s.groupRepo.ListConfirmedMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	// Membership first, then an existing pending request, then the size
	// cap: a member asking again hears "already in", not "full".
	currentSize := len(members)
	for _, m := range members {
		if m.Member.UserID == requesterID {
			return nil, domain.ErrAlreadyMember
		}
	}

	pending, err := s.jrRepo.HasPending(ctx, groupID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("check pending request: %w", err)
	}
	if pending {
		return nil, domain.ErrDuplicateJoinRequest
	}

	maxMin := 0
	for _, m := range members {
		if currentSize >= m.User.Preferences.MaxGroupSize {
			return nil, &domain.GroupFullError{MaxSize: m.User.Preferences.MaxGroupSize}
		}
		if m.User.Preferences.MinGroupSize > maxMin {
			maxMin = m.User.Preferences.MinGroupSize
		}
	}

	req := &domain.GroupJoinRequest{
		GroupID:     group.ID,
		RequesterID: requesterID,
		Status:      domain.JoinRequestPending,
		CreatedAt:   time.Now(),
	}
	if err := s.jrRepo.Create(ctx, req); err != nil {
		// The partial unique index catches a racing duplicate that the
		// HasPending check above did not see.
		if errors.Is(err, domain.ErrDuplicateJoinRequest) {
			return nil, domain.ErrDuplicateJoinRequest
		}
		return nil, fmt.Errorf("create join request: %w", err)
	}

	// Tentative is informational: the request stays pending, but the group
	// would still be below someone's comfort minimum even after this join.
	return &domain.JoinRequestResult{
		Request:   req,
		Tentative: currentSize+1 < maxMin,
	}, nil
}

func (s *groupService) RespondToJoinRequest(ctx context.Context, requestID int64, responderID string, accept bool) (*domain.GroupJoinRequest, error) {
	req, err := s.jrRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get join request: %w", err)
	}

	isMember, err := s.groupRepo.IsConfirmedMember(ctx, req.GroupID, responderID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !isMember {
		return nil, domain.ErrNotAMember
	}

	now := time.Now()
	if accept {
		// Accept re-checks the size cap and inserts the member in one
		// transaction; see GroupJoinRequestRepository.Accept.
		resolved, err := s.jrRepo.Accept(ctx, requestID, now)
		if err != nil {
			var full *domain.GroupFullError
			if errors.Is(err, domain.ErrAlreadyResolved) || errors.As(err, &full) {
				return nil, err
			}
			return nil, fmt.Errorf("accept join request: %w", err)
		}
		return resolved, nil
	}

	resolved, err := s.jrRepo.Decline(ctx, requestID, now)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyResolved) {
			return nil, domain.ErrAlreadyResolved
		}
		return nil, fmt.Errorf("decline join request: %w", err)
	}
	return resolved, nil
}

func (s *groupService) ListJoinRequestsForUser(ctx context.Context, userID string) ([]*domain.JoinRequestWithContext, error) {
	groupIDs, err := s.groupRepo.ListGroupIDsByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list member groups: %w", err)
	}
	if len(groupIDs) == 0 {
		return []*domain.JoinRequestWithContext{}, nil
	}

	requests, err := s.jrRepo.ListPendingByGroupIDs(ctx, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	result := make([]*domain.JoinRequestWithContext, 0, len(requests))
	groupsByID := make(map[int64]*domain.Group)
	for _, req := range requests {
		requester, err := s.userRepo.GetByID(ctx, req.RequesterID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get requester: %w", err)
		}
		group, ok := groupsByID[req.GroupID]
		if !ok {
			group, err = s.groupRepo.GetByID(ctx, req.GroupID)
			if err != nil {
				return nil, fmt.Errorf("get group: %w", err)
			}
			groupsByID[req.GroupID] = group
		}
		result = append(result, &domain.JoinRequestWithContext{
			Request:   req,
			Requester: requester,
			Group:     group,
		})
	}
	return result, nil
}

func (s *groupService) ListMyGroups(ctx context.Context, userID string) ([]*domain.GroupWithMembers, error) {
	groups, err := s.groupRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	result := make([]*domain.GroupWithMembers, 0, len(groups))
	for _, g := range groups {
		members, err := s.groupRepo.ListConfirmedMembers(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		slot, err := s.availRepo.GetByID(ctx, g.SlotID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				slot = nil
			} else {
				return nil, fmt.Errorf("get group slot: %w", err)
			}
		}
		result = append(result, &domain.GroupWithMembers{
			Group:   g,
			Members: members,
			Slot:    slot,
		})
	}
	return result, nil
}
