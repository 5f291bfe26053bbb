package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"neotogether/internal/domain"
)

type matchingService struct {
	exprRepo     domain.InterestExpressionRepository
	matchRepo    domain.MatchRepository
	availRepo    domain.AvailabilityRepository
	userRepo     domain.UserRepository
	groupService domain.GroupService
}

// NewMatchingService creates a MatchingService. The group service is invoked
// as a side effect of match creation.
func NewMatchingService(
	exprRepo domain.InterestExpressionRepository,
	matchRepo domain.MatchRepository,
	availRepo domain.AvailabilityRepository,
	userRepo domain.UserRepository,
	groupService domain.GroupService,
) domain.MatchingService {
	return &matchingService{
		exprRepo:     exprRepo,
		matchRepo:    matchRepo,
		availRepo:    availRepo,
		userRepo:     userRepo,
		groupService: groupService,
	}
}

func (s *matchingService) ExpressInterest(ctx context.Context, actorID, targetID string, slotID int64) (*domain.ExpressInterestResult, error) {
	if actorID == targetID {
		return nil, fmt.Errorf("%w: cannot express interest in yourself", domain.ErrInvalidInput)
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get target user: %w", err)
	}
	slot, err := s.availRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot.UserID != target.ID {
		return nil, fmt.Errorf("%w: slot does not belong to the target user", domain.ErrInvalidInput)
	}
	// Hidden slots are not discoverable, so they are not a valid target.
	if !slot.IsActive || !target.IsAvailable {
		return nil, domain.ErrNotFound
	}

	already, err := s.exprRepo.Exists(ctx, actorID, targetID, slotID)
	if err != nil {
		return nil, fmt.Errorf("check expression: %w", err)
	}
	if already {
		// Idempotent: re-report the current outcome without a second record
		// and without re-triggering matching.
		return s.currentOutcome(ctx, actorID, targetID, slotID)
	}

	expr := &domain.InterestExpression{
		ActorID:   actorID,
		TargetID:  targetID,
		SlotID:    slotID,
		CreatedAt: time.Now(),
	}
	if err := s.exprRepo.Create(ctx, expr); err != nil {
		if errors.Is(err, domain.ErrDuplicateExpression) {
			// A racing duplicate slipped past the Exists check.
			return s.currentOutcome(ctx, actorID, targetID, slotID)
		}
		return nil, fmt.Errorf("record expression: %w", err)
	}

	reciprocal, err := s.findReciprocal(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if !reciprocal {
		return &domain.ExpressInterestResult{MutualMatch: false}, nil
	}

	// The match is anchored to the slot of the later expression: this one.
	match := domain.NewMatch(actorID, targetID, slotID, time.Now())
	created, err := s.matchRepo.Create(ctx, match)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	if !created {
		// A concurrent reciprocal call won the insert; both report the same
		// mutual outcome.
		existing, err := s.matchRepo.GetByPairAndSlot(ctx, match.User1ID, match.User2ID, slotID)
		if err != nil {
			return nil, fmt.Errorf("get existing match: %w", err)
		}
		return &domain.ExpressInterestResult{MutualMatch: true, Match: existing}, nil
	}

	// The anchoring slot's owner hosts the group and becomes its founder.
	if _, err := s.groupService.FormOrJoin(ctx, slotID, []string{target.ID, actorID}); err != nil {
		return nil, fmt.Errorf("form group: %w", err)
	}
	return &domain.ExpressInterestResult{MutualMatch: true, Match: match}, nil
}

// findReciprocal reports whether the target has previously expressed interest
// toward the actor for a slot the actor currently holds, active and visible.
func (s *matchingService) findReciprocal(ctx context.Context, actorID, targetID string) (bool, error) {
	prior, err := s.exprRepo.ListByActorAndTarget(ctx, targetID, actorID)
	if err != nil {
		return false, fmt.Errorf("list prior expressions: %w", err)
	}
	if len(prior) == 0 {
		return false, nil
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return false, fmt.Errorf("get actor: %w", err)
	}
	if !actor.IsAvailable {
		return false, nil
	}
	for _, p := range prior {
		slot, err := s.availRepo.GetByID(ctx, p.SlotID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return false, fmt.Errorf("get prior slot: %w", err)
		}
		if slot.UserID == actorID && slot.IsActive {
			return true, nil
		}
	}
	return false, nil
}

// currentOutcome reports the mutual-match state for a duplicate expression.
func (s *matchingService) currentOutcome(ctx context.Context, actorID, targetID string, slotID int64) (*domain.ExpressInterestResult, error) {
	canonical := domain.NewMatch(actorID, targetID, slotID, time.Time{})
	match, err := s.matchRepo.GetByPairAndSlot(ctx, canonical.User1ID, canonical.User2ID, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.ExpressInterestResult{MutualMatch: false}, nil
		}
		return nil, fmt.Errorf("get match: %w", err)
	}
	return &domain.ExpressInterestResult{MutualMatch: true, Match: match}, nil
}

func (s *matchingService) ListSentExpressions(ctx context.Context, actorID string) ([]*domain.InterestExpression, error) {
	exprs, err := s.exprRepo.ListByActor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list expressions: %w", err)
	}
	if exprs == nil {
		exprs = []*domain.InterestExpression{}
	}
	return exprs, nil
}

func (s *matchingService) ListMatches(ctx context.Context, userID string) ([]*domain.MatchWithContext, error) {
	matches, err := s.matchRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	result := make([]*domain.MatchWithContext, 0, len(matches))
	usersByID := make(map[string]*domain.User)
	for _, m := range matches {
		otherID := m.OtherParticipant(userID)
		other, ok := usersByID[otherID]
		if !ok {
			other, err = s.userRepo.GetByID(ctx, otherID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, fmt.Errorf("get match participant: %w", err)
			}
			usersByID[otherID] = other
		}
		slot, err := s.availRepo.GetByID(ctx, m.SlotID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				slot = nil
			} else {
				return nil, fmt.Errorf("get match slot: %w", err)
			}
		}
		result = append(result, &domain.MatchWithContext{Match: m, OtherUser: other, Slot: slot})
	}
	return result, nil
}

func (s *matchingService) ProposeTime(ctx context.Context, matchID int64, proposerID string, datetime time.Time) (*domain.Match, error) {
	match, err := s.getParticipantMatch(ctx, matchID, proposerID)
	if err != nil {
		return nil, err
	}
	if match.Status == domain.MatchConfirmed {
		return nil, domain.ErrAlreadyConfirmed
	}
	if err := s.matchRepo.ProposeTime(ctx, matchID, proposerID, datetime); err != nil {
		if errors.Is(err, domain.ErrAlreadyConfirmed) {
			return nil, domain.ErrAlreadyConfirmed
		}
		return nil, fmt.Errorf("propose time: %w", err)
	}
	return s.matchRepo.GetByID(ctx, matchID)
}

func (s *matchingService) Confirm(ctx context.Context, matchID int64, confirmerID string) (*domain.Match, error) {
	match, err := s.getParticipantMatch(ctx, matchID, confirmerID)
	if err != nil {
		return nil, err
	}
	switch match.Status {
	case domain.MatchPending:
		return nil, domain.ErrNoProposalYet
	case domain.MatchConfirmed:
		return nil, domain.ErrAlreadyConfirmed
	}
	if match.ProposerID != nil && *match.ProposerID == confirmerID {
		return nil, domain.ErrSelfConfirmation
	}
	if err := s.matchRepo.Confirm(ctx, matchID, time.Now()); err != nil {
		if errors.Is(err, domain.ErrNoProposalYet) {
			return nil, domain.ErrNoProposalYet
		}
		return nil, fmt.Errorf("confirm match: %w", err)
	}
	return s.matchRepo.GetByID(ctx, matchID)
}

func (s *matchingService) getParticipantMatch(ctx context.Context, matchID int64, userID string) (*domain.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get match: %w", err)
	}
	if !match.HasParticipant(userID) {
		return nil, domain.ErrNotAParticipant
	}
	return match, nil
}
