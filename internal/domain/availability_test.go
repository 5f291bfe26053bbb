package domain

import (
	"errors"
	"testing"
)

func validSlot() *AvailabilitySlot {
	return &AvailabilitySlot{
		UserID:       "user-1",
		LocationName: "Downtown Coffee Shop",
		Latitude:     40.7829,
		Longitude:    -73.9654,
		TimeStart:    "18:00",
		TimeEnd:      "20:00",
		RepeatDays:   []int{0, 2},
		IsActive:     true,
	}
}

func TestAvailabilitySlotValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *AvailabilitySlot)
		wantErr bool
	}{
		{name: "valid", mutate: func(s *AvailabilitySlot) {}, wantErr: false},
		{name: "missing location name", mutate: func(s *AvailabilitySlot) { s.LocationName = "" }, wantErr: true},
		{name: "latitude out of range", mutate: func(s *AvailabilitySlot) { s.Latitude = 91 }, wantErr: true},
		{name: "longitude out of range", mutate: func(s *AvailabilitySlot) { s.Longitude = -200 }, wantErr: true},
		{name: "start equals end", mutate: func(s *AvailabilitySlot) { s.TimeEnd = s.TimeStart }, wantErr: true},
		{name: "start after end", mutate: func(s *AvailabilitySlot) { s.TimeStart, s.TimeEnd = "20:00", "18:00" }, wantErr: true},
		{name: "malformed time", mutate: func(s *AvailabilitySlot) { s.TimeStart = "6pm" }, wantErr: true},
		{name: "hour out of range", mutate: func(s *AvailabilitySlot) { s.TimeStart = "25:00" }, wantErr: true},
		{name: "empty repeat days", mutate: func(s *AvailabilitySlot) { s.RepeatDays = nil }, wantErr: true},
		{name: "weekday out of range", mutate: func(s *AvailabilitySlot) { s.RepeatDays = []int{0, 7} }, wantErr: true},
		{name: "duplicate weekday", mutate: func(s *AvailabilitySlot) { s.RepeatDays = []int{3, 3} }, wantErr: true},
		{name: "non-positive radius", mutate: func(s *AvailabilitySlot) { r := 0; s.RadiusMeters = &r }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSlot()
			tt.mutate(s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("validation error should wrap ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestMatchPreferencesAccepts(t *testing.T) {
	min, max := 25, 35

	tests := []struct {
		name  string
		prefs MatchPreferences
		age   int
		gen   string
		want  bool
	}{
		{name: "unset accepts anyone", prefs: MatchPreferences{}, age: 99, gen: "male", want: true},
		{name: "inside bounds", prefs: MatchPreferences{MinAge: &min, MaxAge: &max}, age: 30, gen: "female", want: true},
		{name: "below min", prefs: MatchPreferences{MinAge: &min}, age: 24, gen: "female", want: false},
		{name: "above max", prefs: MatchPreferences{MaxAge: &max}, age: 40, gen: "female", want: false},
		{name: "gender in set", prefs: MatchPreferences{Genders: []string{"female"}}, age: 30, gen: "female", want: true},
		{name: "gender not in set", prefs: MatchPreferences{Genders: []string{"female"}}, age: 30, gen: "male", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.prefs.AcceptsAge(tt.age) && tt.prefs.AcceptsGender(tt.gen)
			if got != tt.want {
				t.Errorf("accepts = %v, want %v", got, tt.want)
			}
		})
	}
}
