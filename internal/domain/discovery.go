package domain

import "context"

// LocationWithPeople is one discovery listing entry: a representative slot
// for the location and the count of distinct people visible there.
// swagger:model LocationWithPeople
type LocationWithPeople struct {
	Slot        *AvailabilitySlot `json:"availability"`
	PeopleCount int               `json:"people_count"`
}

// PersonAtLocation is one person's entry in the ranked "who's here" view.
// swagger:model PersonAtLocation
type PersonAtLocation struct {
	User            *User             `json:"user"`
	Slot            *AvailabilitySlot `json:"availability"`
	SharedInterests []string          `json:"shared_interests"`
	OtherInterests  []string          `json:"other_interests"`
	TimesOverlap    bool              `json:"times_overlap"`
	OverlapWindows  []OverlapWindow   `json:"overlapping_times,omitempty"`
}

// DiscoveryService produces the ranked "who's here" listings. Results are
// recomputed on every read to reflect current visibility and preferences.
type DiscoveryService interface {
	LocationsWithPeople(ctx context.Context, viewerID string) ([]*LocationWithPeople, error)
	// PeopleAtLocation ranks everyone visible at the slot's location by
	// mutual preference tier, then overlap, shared interest count, and slot
	// creation order.
	PeopleAtLocation(ctx context.Context, viewerID string, slotID int64) ([]*PersonAtLocation, error)
}
