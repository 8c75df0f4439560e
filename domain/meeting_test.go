package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleMeeting() Meeting {
	return Meeting{
		ID:        "m-1",
		Title:     "Standup",
		CreatorID: "creator-id",
		Expected: []Participant{
			{Email: "bob@example.com", InviteID: "invite-bob"},
		},
		Waiting: []Participant{
			{Email: "dan@example.com", InviteID: "invite-dan"},
		},
		Admitted: []Participant{
			{Email: "alice@example.com", InviteID: "creator-id"},
		},
	}
}

// partitioned checks that no email sits in two sets at once.
func partitioned(req *require.Assertions, m Meeting) {
	seen := map[string]int{}
	for _, set := range [][]Participant{m.Expected, m.Waiting, m.Admitted} {
		for _, p := range set {
			seen[p.Email]++
		}
	}
	for email, count := range seen {
		req.Equal(1, count, "email %s appears in %d sets", email, count)
	}
}

func TestMeeting_Classify_PriorityOrder(t *testing.T) {
	req := require.New(t)
	meeting := sampleMeeting()

	req.Equal(PlacementAdmitted, meeting.Classify("alice@example.com"))
	req.Equal(PlacementWaiting, meeting.Classify("dan@example.com"))
	req.Equal(PlacementExpected, meeting.Classify("bob@example.com"))
	req.Equal(PlacementNone, meeting.Classify("carol@example.com"))

	// Given a stale duplicate present in both Waiting and Expected
	meeting.Expected = append(meeting.Expected, Participant{Email: "dan@example.com"})

	// Then waiting wins: the stale expected entry must not re-queue dan
	req.Equal(PlacementWaiting, meeting.Classify("dan@example.com"))
}

func TestMeeting_MoveToWaiting(t *testing.T) {
	req := require.New(t)
	meeting := sampleMeeting()

	// When an expected participant moves to the waiting room
	moved, ok := meeting.MoveToWaiting("bob@example.com")

	// Then the descriptor travels unchanged and the partition holds
	req.True(ok)
	req.Equal("invite-bob", moved.InviteID)
	req.Empty(meeting.Expected)
	req.Equal(PlacementWaiting, meeting.Classify("bob@example.com"))
	partitioned(req, meeting)

	// When the same move happens again
	_, ok = meeting.MoveToWaiting("bob@example.com")

	// Then it is refused without duplicating the entry
	req.False(ok)
	req.Len(meeting.Waiting, 2)
	partitioned(req, meeting)
}

func TestMeeting_MoveToWaiting_UnknownEmail(t *testing.T) {
	req := require.New(t)
	meeting := sampleMeeting()

	_, ok := meeting.MoveToWaiting("carol@example.com")

	req.False(ok)
	partitioned(req, meeting)
}

func TestMeeting_Approve(t *testing.T) {
	req := require.New(t)
	meeting := sampleMeeting()

	// When a waiting participant is approved
	approved, ok := meeting.Approve("dan@example.com")

	// Then the descriptor moves into the admitted set exactly once
	req.True(ok)
	req.Equal("invite-dan", approved.InviteID)
	req.Empty(meeting.Waiting)
	req.Equal(PlacementAdmitted, meeting.Classify("dan@example.com"))
	partitioned(req, meeting)

	// When approved again
	_, ok = meeting.Approve("dan@example.com")

	// Then nothing changes: idempotent, no duplicate
	req.False(ok)
	req.Len(meeting.Admitted, 2)
	partitioned(req, meeting)
}

func TestMeeting_Approve_NotWaiting(t *testing.T) {
	req := require.New(t)
	meeting := sampleMeeting()

	// An expected-but-not-waiting email cannot be approved
	_, ok := meeting.Approve("bob@example.com")

	req.False(ok)
	req.Equal(PlacementExpected, meeting.Classify("bob@example.com"))
	partitioned(req, meeting)
}

func TestMeeting_AdmitCreator_Idempotent(t *testing.T) {
	req := require.New(t)
	meeting := sampleMeeting()
	creator := Participant{Email: "alice@example.com", InviteID: "creator-id"}

	meeting.AdmitCreator(creator)
	meeting.AdmitCreator(creator)

	req.Len(meeting.Admitted, 1)
	partitioned(req, meeting)
}

func TestMeeting_IsCreator(t *testing.T) {
	req := require.New(t)
	meeting := sampleMeeting()

	// By resolved user id
	req.True(meeting.IsCreator(Identity{UserID: "creator-id"}))
	// By creator descriptor email
	req.True(meeting.IsCreator(Identity{Email: "alice@example.com"}))
	// A guest matches neither
	req.False(meeting.IsCreator(Identity{Email: "bob@example.com", UserID: "someone-else"}))
	req.False(meeting.IsCreator(Identity{}))
}
