package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"neotogether/internal/domain"
)

type availabilityService struct {
	availRepo domain.AvailabilityRepository
}

// NewAvailabilityService creates an AvailabilityService with the given repository.
func NewAvailabilityService(availRepo domain.AvailabilityRepository) domain.AvailabilityService {
	return &availabilityService{availRepo: availRepo}
}

func (s *availabilityService) Create(ctx context.Context, slot *domain.AvailabilitySlot) (*domain.AvailabilitySlot, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}
	slot.IsActive = true
	slot.CreatedAt = time.Now()
	if err := s.availRepo.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}
	return slot, nil
}

func (s *availabilityService) GetOwn(ctx context.Context, ownerID string, slotID int64) (*domain.AvailabilitySlot, error) {
	return s.getOwned(ctx, ownerID, slotID)
}

func (s *availabilityService) ListOwn(ctx context.Context, ownerID string) ([]*domain.AvailabilitySlot, error) {
	slots, err := s.availRepo.ListByUserID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	if slots == nil {
		slots = []*domain.AvailabilitySlot{}
	}
	return slots, nil
}

func (s *availabilityService) Update(ctx context.Context, ownerID string, slot *domain.AvailabilitySlot) (*domain.AvailabilitySlot, error) {
	existing, err := s.getOwned(ctx, ownerID, slot.ID)
	if err != nil {
		return nil, err
	}
	slot.UserID = existing.UserID
	slot.CreatedAt = existing.CreatedAt
	if err := slot.Validate(); err != nil {
		return nil, err
	}
	if err := s.availRepo.Update(ctx, slot); err != nil {
		return nil, fmt.Errorf("update slot: %w", err)
	}
	return slot, nil
}

func (s *availabilityService) Delete(ctx context.Context, ownerID string, slotID int64) error {
	if _, err := s.getOwned(ctx, ownerID, slotID); err != nil {
		return err
	}
	if err := s.availRepo.Delete(ctx, slotID); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

// getOwned loads the slot and hides other users' slots behind ErrNotFound.
func (s *availabilityService) getOwned(ctx context.Context, ownerID string, slotID int64) (*domain.AvailabilitySlot, error) {
	slot, err := s.availRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	return slot, nil
}
