package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"neotogether/internal/domain"
)

// coordKey groups slots into one location. Coordinates are rounded to five
// decimals (about one meter) so near-identical pins land on the same key.
type coordKey struct {
	lat int64
	lng int64
}

func keyFor(lat, lng float64) coordKey {
	return coordKey{
		lat: int64(math.Round(lat * 1e5)),
		lng: int64(math.Round(lng * 1e5)),
	}
}

// nearLocation applies the same-location tolerance used by the repository's
// near queries.
func nearLocation(aLat, aLng, bLat, bLng float64) bool {
	return math.Abs(aLat-bLat) <= 0.001 && math.Abs(aLng-bLng) <= 0.001
}

type discoveryService struct {
	availRepo domain.AvailabilityRepository
	userRepo  domain.UserRepository
}

// NewDiscoveryService creates a DiscoveryService with the given repositories.
func NewDiscoveryService(availRepo domain.AvailabilityRepository, userRepo domain.UserRepository) domain.DiscoveryService {
	return &discoveryService{availRepo: availRepo, userRepo: userRepo}
}

func (s *discoveryService) LocationsWithPeople(ctx context.Context, viewerID string) ([]*domain.LocationWithPeople, error) {
	slots, err := s.availRepo.ListVisible(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list visible slots: %w", err)
	}

	type bucket struct {
		slot   *domain.AvailabilitySlot
		people map[string]struct{}
	}
	buckets := make(map[coordKey]*bucket)
	order := make([]coordKey, 0)
	for _, sw := range slots {
		key := keyFor(sw.Slot.Latitude, sw.Slot.Longitude)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{slot: sw.Slot, people: make(map[string]struct{})}
			buckets[key] = b
			order = append(order, key)
		}
		// The oldest slot represents the location in listings.
		if sw.Slot.ID < b.slot.ID {
			b.slot = sw.Slot
		}
		b.people[sw.Slot.UserID] = struct{}{}
	}

	result := make([]*domain.LocationWithPeople, 0, len(buckets))
	for _, key := range order {
		b := buckets[key]
		result = append(result, &domain.LocationWithPeople{
			Slot:        b.slot,
			PeopleCount: len(b.people),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].PeopleCount != result[j].PeopleCount {
			return result[i].PeopleCount > result[j].PeopleCount
		}
		return result[i].Slot.ID < result[j].Slot.ID
	})
	return result, nil
}

func (s *discoveryService) PeopleAtLocation(ctx context.Context, viewerID string, slotID int64) ([]*domain.PersonAtLocation, error) {
	anchor, err := s.availRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get anchor slot: %w", err)
	}

	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("get viewer: %w", err)
	}
	viewerInterests := interestNameSet(viewer.Interests)

	// Overlap is judged against the viewer's own slots at this location, or
	// against the anchor itself when the viewer owns it.
	viewerSlots, err := s.availRepo.ListActiveByUserID(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list viewer slots: %w", err)
	}
	compare := make([]*domain.AvailabilitySlot, 0, len(viewerSlots))
	for _, vs := range viewerSlots {
		if nearLocation(vs.Latitude, vs.Longitude, anchor.Latitude, anchor.Longitude) {
			compare = append(compare, vs)
		}
	}

	now := time.Now()
	nearby, err := s.availRepo.ListVisibleNear(ctx, anchor.Latitude, anchor.Longitude, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list people near location: %w", err)
	}

	// One entry per person; a person with several slots here keeps the oldest.
	byUser := make(map[string]*domain.SlotWithOwner)
	for _, sw := range nearby {
		prev, ok := byUser[sw.Slot.UserID]
		if !ok || sw.Slot.ID < prev.Slot.ID {
			byUser[sw.Slot.UserID] = sw
		}
	}

	userIDs := make([]string, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	interestsByUser, err := s.userRepo.ListInterestsByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load interests: %w", err)
	}

	type ranked struct {
		entry *domain.PersonAtLocation
		tier  int
	}
	people := make([]ranked, 0, len(byUser))
	for _, sw := range byUser {
		entry := &domain.PersonAtLocation{
			User: sw.Owner,
			Slot: sw.Slot,
		}
		for _, in := range interestsByUser[sw.Owner.ID] {
			if _, shared := viewerInterests[in.Name]; shared {
				entry.SharedInterests = append(entry.SharedInterests, in.Name)
			} else {
				entry.OtherInterests = append(entry.OtherInterests, in.Name)
			}
		}
		sort.Strings(entry.SharedInterests)
		sort.Strings(entry.OtherInterests)

		for _, vs := range compare {
			if ok, windows := domain.Overlaps(vs, sw.Slot); ok {
				entry.TimesOverlap = true
				entry.OverlapWindows = append(entry.OverlapWindows, windows...)
			}
		}

		people = append(people, ranked{
			entry: entry,
			tier:  preferenceTier(viewer, sw.Owner, now),
		})
	}

	sort.Slice(people, func(i, j int) bool {
		a, b := people[i], people[j]
		if a.tier != b.tier {
			return a.tier < b.tier
		}
		if a.entry.TimesOverlap != b.entry.TimesOverlap {
			return a.entry.TimesOverlap
		}
		if len(a.entry.SharedInterests) != len(b.entry.SharedInterests) {
			return len(a.entry.SharedInterests) > len(b.entry.SharedInterests)
		}
		return a.entry.Slot.ID < b.entry.Slot.ID
	})

	result := make([]*domain.PersonAtLocation, 0, len(people))
	for _, p := range people {
		result = append(result, p.entry)
	}
	return result, nil
}

// preferenceTier ranks a candidate by how many of the two preference
// directions are satisfied: 1 when both the viewer's and the candidate's set
// criteria pass, 2 when exactly one direction does, 3 when neither does.
// Unset criteria always pass.
func preferenceTier(viewer, candidate *domain.User, now time.Time) int {
	viewerLikes := viewer.Preferences.Accepts(candidate, now)
	candidateLikes := candidate.Preferences.Accepts(viewer, now)
	switch {
	case viewerLikes && candidateLikes:
		return 1
	case viewerLikes || candidateLikes:
		return 2
	default:
		return 3
	}
}

func interestNameSet(interests []*domain.Interest) map[string]struct{} {
	set := make(map[string]struct{}, len(interests))
	for _, in := range interests {
		set[in.Name] = struct{}{}
	}
	return set
}
