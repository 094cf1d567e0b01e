package auditlog

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
	"github.com/rinksidehq/rinkside-backend/pkg/enums"
)

func strPtr(s string) *string       { return &s }
func timePtr(t time.Time) *time.Time { return &t }

func TestSynthesizeOwnerAtCreationEmitsSingleEvent(t *testing.T) {
	created := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	member := &models.Member{
		ID:        uuid.New(),
		Email:     strPtr("owner@rink.com"),
		Role:      enums.MemberRoleOwner,
		JoinedAt:  timePtr(created),
		CreatedAt: created,
	}

	events := Synthesize(member, nil)
	if len(events) != 1 {
		t.Fatalf("expected only the added event, got %d", len(events))
	}
	if events[0].Action != "Member Added" {
		t.Fatalf("unexpected action %q", events[0].Action)
	}
	if events[0].Details != "owner@rink.com was added to the organization as owner" {
		t.Fatalf("unexpected details %q", events[0].Details)
	}
	if events[0].UserEmail != "System" {
		t.Fatalf("expected System actor, got %q", events[0].UserEmail)
	}
}

func TestSynthesizeFullLifecycle(t *testing.T) {
	created := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	joined := created.Add(24 * time.Hour)
	removed := created.Add(48 * time.Hour)
	inviter := uuid.New()
	member := &models.Member{
		ID:        uuid.New(),
		Email:     strPtr("coach@rink.com"),
		Role:      enums.MemberRoleCoach,
		InvitedAt: timePtr(created),
		JoinedAt:  timePtr(joined),
		InvitedBy: &inviter,
		CreatedAt: created,
		DeletedAt: timePtr(removed),
	}

	events := Synthesize(member, map[uuid.UUID]string{inviter: "admin@rink.com"})
	if len(events) != 3 {
		t.Fatalf("expected removed, joined and added events, got %d", len(events))
	}
	SortEvents(events)

	if events[0].Action != "Member Removed" || !events[0].Timestamp.Equal(removed) {
		t.Fatalf("expected removal first, got %+v", events[0])
	}
	if events[0].Details != "coach@rink.com was removed from the organization" {
		t.Fatalf("unexpected removal details %q", events[0].Details)
	}
	if events[0].UserEmail != "admin@rink.com" {
		t.Fatalf("removal actor should be the inviter, got %q", events[0].UserEmail)
	}

	if events[1].Action != "Member Joined" || !events[1].Timestamp.Equal(joined) {
		t.Fatalf("expected join second, got %+v", events[1])
	}
	if events[1].Details != "coach@rink.com accepted their invitation and joined" {
		t.Fatalf("unexpected join details %q", events[1].Details)
	}
	// the member themselves is the actor on the join event
	if events[1].UserEmail != "coach@rink.com" {
		t.Fatalf("join actor should be the member, got %q", events[1].UserEmail)
	}

	if events[2].Action != "Member Added" || !events[2].Timestamp.Equal(created) {
		t.Fatalf("expected creation event last, got %+v", events[2])
	}
}

func TestSynthesizePendingInviteUsesInvitedWording(t *testing.T) {
	created := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	member := &models.Member{
		ID:        uuid.New(),
		Email:     strPtr("pending@rink.com"),
		Role:      enums.MemberRoleCoach,
		InvitedAt: timePtr(created),
		CreatedAt: created,
	}

	events := Synthesize(member, nil)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].Action != "Member Invited" {
		t.Fatalf("unexpected action %q", events[0].Action)
	}
	if events[0].Details != "pending@rink.com was invited to join as coach" {
		t.Fatalf("unexpected details %q", events[0].Details)
	}
}

func TestSynthesizeDisplayNameFallbacks(t *testing.T) {
	created := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	withUsername := &models.Member{
		ID:        uuid.New(),
		Username:  strPtr("coach-sam"),
		Role:      enums.MemberRoleCoach,
		CreatedAt: created,
	}
	events := Synthesize(withUsername, nil)
	if events[0].Details != "coach-sam was invited to join as coach" {
		t.Fatalf("expected username fallback, got %q", events[0].Details)
	}

	anonymous := &models.Member{ID: uuid.New(), Role: enums.MemberRoleCoach, CreatedAt: created}
	events = Synthesize(anonymous, nil)
	if events[0].Details != "Unknown User was invited to join as coach" {
		t.Fatalf("expected unknown-user fallback, got %q", events[0].Details)
	}
}

func TestSynthesizeUnresolvedInviterFallsBackToSystem(t *testing.T) {
	inviter := uuid.New()
	member := &models.Member{
		ID:        uuid.New(),
		Email:     strPtr("coach@rink.com"),
		Role:      enums.MemberRoleCoach,
		InvitedBy: &inviter,
		CreatedAt: time.Now().UTC(),
	}

	events := Synthesize(member, map[uuid.UUID]string{})
	if events[0].UserEmail != "System" {
		t.Fatalf("unresolved inviter must fall back to System, got %q", events[0].UserEmail)
	}
}

func TestSortEventsBreaksTimestampTies(t *testing.T) {
	ts := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	memberA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	memberB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	events := []Event{
		{Kind: EventInvited, MemberID: memberB, Timestamp: ts},
		{Kind: EventRemoved, MemberID: memberB, Timestamp: ts},
		{Kind: EventJoined, MemberID: memberB, Timestamp: ts},
		{Kind: EventJoined, MemberID: memberA, Timestamp: ts},
		{Kind: EventInvited, MemberID: memberA, Timestamp: ts.Add(time.Minute)},
	}
	SortEvents(events)

	if events[0].Timestamp != ts.Add(time.Minute) {
		t.Fatalf("newest timestamp must sort first")
	}
	if events[1].Kind != EventRemoved {
		t.Fatalf("removal outranks join at equal timestamps, got %q", events[1].Kind)
	}
	if events[2].Kind != EventJoined || events[2].MemberID != memberA {
		t.Fatalf("equal kind ties break on member id, got %+v", events[2])
	}
	if events[3].Kind != EventJoined || events[3].MemberID != memberB {
		t.Fatalf("expected second join next, got %+v", events[3])
	}
	if events[4].Kind != EventInvited {
		t.Fatalf("invite sorts last at equal timestamps, got %q", events[4].Kind)
	}
}
