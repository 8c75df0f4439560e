package e2e

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"meet-lab/infrastructure/ws"
)

type testAdmissionSuite struct {
	BaseWsSuite
}

func TestAdmissionSuite(t *testing.T) {
	suite.Run(t, &testAdmissionSuite{})
}

// Full waiting-room flow against a live coordinator: alice schedules a
// meeting inviting bob, joins as creator, bob lands in the waiting room,
// alice approves him, then ends the meeting for everyone.
func (s *testAdmissionSuite) TestWaitingRoomFlow() {
	aliceEmail := fmt.Sprintf("alice-%s@example.com", uuid.NewString()[:8])
	bobEmail := fmt.Sprintf("bob-%s@example.com", uuid.NewString()[:8])
	var meetingID string

	s.Run("Step 0: Register the creator and schedule a meeting", func() {
		var user map[string]string
		s.PostJSON("/api/users", map[string]string{
			"email": aliceEmail,
			"name":  "Alice",
		}, &user)
		s.Require().NotEmpty(user["id"])

		var meeting map[string]any
		s.PostJSON("/api/meetings/schedule", map[string]any{
			"creator_email": aliceEmail,
			"title":         "Quarterly sync",
			"scheduled_at":  time.Now().Add(time.Hour).Format(time.RFC3339),
			"participants":  []string{bobEmail},
		}, &meeting)
		meetingID = meeting["meeting_id"].(string)
		s.Require().NotEmpty(meetingID)
	})

	alice := s.Connect(s.T(), "alice")
	defer alice.Close()
	bob := s.Connect(s.T(), "bob")
	defer bob.Close()

	s.Run("Step 1: Creator joins the room", func() {
		alice.Send(ws.TypeJoinRoom, meetingID, ws.JoinPayload{Email: aliceEmail})
		alice.Expect(ws.TypeCreatorJoined)
	})

	s.Run("Step 2: Invited guest lands in the waiting room", func() {
		bob.Send(ws.TypeJoinRoom, meetingID, ws.JoinPayload{Email: bobEmail})

		envelope := bob.Expect(ws.TypeUserWaiting)
		var waiting struct {
			Email string `json:"email"`
		}
		s.Require().NoError(json.Unmarshal(envelope.Payload, &waiting))
		s.Require().Equal(bobEmail, waiting.Email)

		// The live creator is told who is waiting.
		alice.Expect(ws.TypeUserWaiting)
	})

	s.Run("Step 3: Creator approves the guest", func() {
		alice.Send(ws.TypeApproveUser, meetingID, ws.ApprovePayload{Email: bobEmail})

		envelope := bob.Expect(ws.TypeUserApproved)
		var approved struct {
			Email        string `json:"email"`
			Participants []struct {
				Email string `json:"email"`
			} `json:"participants"`
		}
		s.Require().NoError(json.Unmarshal(envelope.Payload, &approved))
		s.Require().Equal(bobEmail, approved.Email)
		s.Require().Len(approved.Participants, 2)
	})

	s.Run("Step 4: Creator ends the meeting for everyone", func() {
		alice.Send(ws.TypeEndMeeting, meetingID, struct{}{})
		bob.Expect(ws.TypeMeetingEnded)
		alice.Expect(ws.TypeMeetingEnded)
	})
}

// An email that was never invited must be rejected with an opaque error.
func (s *testAdmissionSuite) TestUninvitedGuestIsRejected() {
	creatorEmail := fmt.Sprintf("host-%s@example.com", uuid.NewString()[:8])

	var user map[string]string
	s.PostJSON("/api/users", map[string]string{"email": creatorEmail, "name": "Host"}, &user)

	var meeting map[string]string
	s.PostJSON("/api/meetings", map[string]string{
		"creator_email": creatorEmail,
		"title":         "Private call",
	}, &meeting)
	meetingID := meeting["meeting_id"]
	s.Require().NotEmpty(meetingID)

	carol := s.Connect(s.T(), "carol")
	defer carol.Close()

	carol.Send(ws.TypeJoinRoom, meetingID, ws.JoinPayload{Email: "carol@example.com"})
	envelope := carol.Expect(ws.TypeError)

	var payload ws.ErrorPayload
	s.Require().NoError(json.Unmarshal(envelope.Payload, &payload))
	s.Require().NotEmpty(payload.Message)
}
