package domain

import (
	"testing"
)

func slot(days []int, start, end string) *AvailabilitySlot {
	return &AvailabilitySlot{
		LocationName: "Central Park",
		TimeStart:    start,
		TimeEnd:      end,
		RepeatDays:   days,
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name      string
		a, b      *AvailabilitySlot
		want      bool
		wantDays  []int
		wantStart string
		wantEnd   string
	}{
		{
			name:      "partial time overlap on shared day",
			a:         slot([]int{0, 2}, "18:00", "20:00"),
			b:         slot([]int{0}, "19:00", "21:00"),
			want:      true,
			wantDays:  []int{0},
			wantStart: "19:00",
			wantEnd:   "20:00",
		},
		{
			name: "no shared days",
			a:    slot([]int{0, 2}, "18:00", "20:00"),
			b:    slot([]int{1, 3}, "18:00", "20:00"),
			want: false,
		},
		{
			name: "shared day but disjoint times",
			a:    slot([]int{4}, "08:00", "10:00"),
			b:    slot([]int{4}, "12:00", "14:00"),
			want: false,
		},
		{
			name: "zero-length intersection is no overlap",
			a:    slot([]int{5}, "08:00", "12:00"),
			b:    slot([]int{5}, "12:00", "16:00"),
			want: false,
		},
		{
			name:      "containment",
			a:         slot([]int{1, 2, 3}, "09:00", "17:00"),
			b:         slot([]int{2, 3, 6}, "12:00", "13:00"),
			want:      true,
			wantDays:  []int{2, 3},
			wantStart: "12:00",
			wantEnd:   "13:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, windows := Overlaps(tt.a, tt.b)
			if got != tt.want {
				t.Fatalf("Overlaps() = %v, want %v", got, tt.want)
			}
			if !tt.want {
				if windows != nil {
					t.Fatalf("expected no windows, got %v", windows)
				}
				return
			}
			if len(windows) != 1 {
				t.Fatalf("expected 1 window, got %d", len(windows))
			}
			w := windows[0]
			if w.Start != tt.wantStart || w.End != tt.wantEnd {
				t.Errorf("window = [%s, %s), want [%s, %s)", w.Start, w.End, tt.wantStart, tt.wantEnd)
			}
			if len(w.Days) != len(tt.wantDays) {
				t.Fatalf("window days = %v, want %v", w.Days, tt.wantDays)
			}
			for i, d := range tt.wantDays {
				if w.Days[i] != d {
					t.Errorf("window days = %v, want %v", w.Days, tt.wantDays)
				}
			}
		})
	}
}

func TestOverlapsSymmetry(t *testing.T) {
	pairs := []struct {
		a, b *AvailabilitySlot
	}{
		{slot([]int{0, 2}, "18:00", "20:00"), slot([]int{0}, "19:00", "21:00")},
		{slot([]int{1}, "06:00", "08:00"), slot([]int{1}, "08:00", "10:00")},
		{slot([]int{0, 1, 2, 3, 4, 5, 6}, "00:00", "23:59"), slot([]int{3}, "11:30", "12:45")},
		{slot([]int{6}, "10:00", "11:00"), slot([]int{5}, "10:00", "11:00")},
	}

	for _, p := range pairs {
		ab, _ := Overlaps(p.a, p.b)
		ba, _ := Overlaps(p.b, p.a)
		if ab != ba {
			t.Errorf("Overlaps(a,b)=%v but Overlaps(b,a)=%v for %v / %v", ab, ba, p.a, p.b)
		}
	}
}
