package domain

import (
	"testing"
	"time"
)

func TestNewMatchCanonicalPair(t *testing.T) {
	now := time.Now()

	m1 := NewMatch("user-b", "user-a", 7, now)
	m2 := NewMatch("user-a", "user-b", 7, now)

	if m1.User1ID != "user-a" || m1.User2ID != "user-b" {
		t.Fatalf("pair not canonical: got (%s, %s)", m1.User1ID, m1.User2ID)
	}
	if m1.User1ID != m2.User1ID || m1.User2ID != m2.User2ID {
		t.Fatalf("argument order changed the stored pair: %v vs %v", m1, m2)
	}
	if m1.Status != MatchPending {
		t.Errorf("new match status = %s, want %s", m1.Status, MatchPending)
	}
}

func TestMatchParticipants(t *testing.T) {
	m := NewMatch("alex", "jordan", 1, time.Now())

	if !m.HasParticipant("alex") || !m.HasParticipant("jordan") {
		t.Error("participants not recognized")
	}
	if m.HasParticipant("sam") {
		t.Error("non-participant recognized")
	}
	if got := m.OtherParticipant("alex"); got != "jordan" {
		t.Errorf("OtherParticipant(alex) = %s, want jordan", got)
	}
	if got := m.OtherParticipant("jordan"); got != "alex" {
		t.Errorf("OtherParticipant(jordan) = %s, want alex", got)
	}
}
