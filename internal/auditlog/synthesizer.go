package auditlog

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
)

// EventKind identifies which lifecycle transition an event describes.
type EventKind string

const (
	EventRemoved EventKind = "removed"
	EventJoined  EventKind = "joined"
	EventInvited EventKind = "invited"
)

// kindPriority orders events that share a timestamp: a removal outranks a
// join outranks an invite.
var kindPriority = map[EventKind]int{
	EventRemoved: 0,
	EventJoined:  1,
	EventInvited: 2,
}

const systemActor = "System"

// Event is a synthesized, non-persisted audit record derived from a member
// row's timestamps.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"-"`
	MemberID  uuid.UUID `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	UserEmail string    `json:"user_email"`
}

// Synthesize derives up to three events per member row. The checks are
// independent: a removed member that also joined still gets all three.
func Synthesize(member *models.Member, inviterEmails map[uuid.UUID]string) []Event {
	if member == nil {
		return nil
	}

	displayName := member.DisplayName()
	actor := systemActor
	if member.InvitedBy != nil {
		if email, ok := inviterEmails[*member.InvitedBy]; ok && email != "" {
			actor = email
		}
	}

	var events []Event

	if member.DeletedAt != nil {
		events = append(events, Event{
			ID:        fmt.Sprintf("%s-removed", member.ID),
			Kind:      EventRemoved,
			MemberID:  member.ID,
			Timestamp: *member.DeletedAt,
			Action:    "Member Removed",
			Details:   fmt.Sprintf("%s was removed from the organization", displayName),
			UserEmail: actor,
		})
	}

	// joined_at equal to created_at means the row was created already joined
	// (the owner at org creation); that must not emit a second event
	if member.JoinedAt != nil && !member.JoinedAt.Equal(member.CreatedAt) {
		events = append(events, Event{
			ID:        fmt.Sprintf("%s-joined", member.ID),
			Kind:      EventJoined,
			MemberID:  member.ID,
			Timestamp: *member.JoinedAt,
			Action:    "Member Joined",
			Details:   fmt.Sprintf("%s accepted their invitation and joined", displayName),
			UserEmail: displayName,
		})
	}

	action := "Member Invited"
	details := fmt.Sprintf("%s was invited to join as %s", displayName, member.Role)
	if member.JoinedAt != nil {
		action = "Member Added"
		details = fmt.Sprintf("%s was added to the organization as %s", displayName, member.Role)
	}
	events = append(events, Event{
		ID:        fmt.Sprintf("%s-invited", member.ID),
		Kind:      EventInvited,
		MemberID:  member.ID,
		Timestamp: member.CreatedAt,
		Action:    action,
		Details:   details,
		UserEmail: actor,
	})

	return events
}

// SortEvents orders events newest first. Equal timestamps fall back to kind
// priority and then member id so pagination stays deterministic.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.After(events[j].Timestamp)
		}
		if kindPriority[events[i].Kind] != kindPriority[events[j].Kind] {
			return kindPriority[events[i].Kind] < kindPriority[events[j].Kind]
		}
		return events[i].MemberID.String() < events[j].MemberID.String()
	})
}
