package ws

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"

	"meet-lab/domain"
	"meet-lab/domain/event"
)

// Envelope is the structure of every C2S (client to server) and S2C
// (server to client) websocket message.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	MeetingID string          `json:"meeting_id,omitempty"`
}

// Inbound message types.
const (
	TypeJoinRoom      = "join-room"
	TypeSignal        = "signal"
	TypeSendingSignal = "sending-signal"
	TypeApproveUser   = "approve-user"
	TypeEndMeeting    = "end-meeting"
)

// Outbound message types.
const (
	TypeConnected     = "connected"
	TypeCreatorJoined = "creator-joined"
	TypeAlreadyJoined = "already-joined"
	TypeNewPeer       = "new-peer"
	TypeUserWaiting   = "user-waiting"
	TypeUserApproved  = "user-approved"
	TypeUserSignal    = "user-signal"
	TypeMeetingEnded  = "meeting-ended"
	TypeError         = "error"
)

type JoinPayload struct {
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

type SendingSignalPayload struct {
	UserToCall string          `json:"user_to_call"`
	Signal     json.RawMessage `json:"signal"`
}

type ApprovePayload struct {
	Email string `json:"email"`
}

type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// participantView is the wire shape of a participant. The invite link is
// deliberately absent: links carry join tokens and belong in mails only.
type participantView struct {
	Email    string `json:"email"`
	InviteID string `json:"invite_id"`
}

type creatorJoinedPayload struct {
	Email string `json:"email"`
}

type newPeerPayload struct {
	PeerID       string            `json:"peer_id"`
	Email        string            `json:"email"`
	Participants []participantView `json:"participants"`
}

type userWaitingPayload struct {
	Email          string            `json:"email"`
	ConnectionID   string            `json:"connection_id"`
	WaitingMembers []participantView `json:"waiting_members"`
}

type userApprovedPayload struct {
	Email        string            `json:"email"`
	Participants []participantView `json:"participants"`
}

type userSignalPayload struct {
	CallerID string          `json:"caller_id"`
	Signal   json.RawMessage `json:"signal"`
}

func toViews(participants []domain.Participant) []participantView {
	return lo.Map(participants, func(p domain.Participant, _ int) participantView {
		return participantView{Email: p.Email, InviteID: p.InviteID}
	})
}

// EncodeEvent translates a domain event into its wire envelope.
func EncodeEvent(e event.DomainEvent) (Envelope, error) {
	var payload any
	switch ev := e.(type) {
	case event.CreatorJoined:
		payload = creatorJoinedPayload{Email: ev.Email}
	case event.PeerJoined:
		payload = newPeerPayload{
			PeerID:       ev.PeerID,
			Email:        ev.Email,
			Participants: toViews(ev.Participants),
		}
	case event.UserWaiting:
		payload = userWaitingPayload{
			Email:          ev.Email,
			ConnectionID:   ev.ConnectionID,
			WaitingMembers: toViews(ev.WaitingMembers),
		}
	case event.UserApproved:
		payload = userApprovedPayload{
			Email:        ev.Email,
			Participants: toViews(ev.Participants),
		}
	case event.MeetingEnded:
		payload = struct{}{}
	case event.SignalBroadcast:
		// Opaque blob, forwarded as-is.
		return Envelope{
			Type:      ev.Name(),
			Payload:   ev.Data,
			MeetingID: string(ev.MeetingID()),
		}, nil
	case event.DirectSignal:
		payload = userSignalPayload{CallerID: ev.CallerID, Signal: ev.Data}
	default:
		return Envelope{}, fmt.Errorf("no wire encoding for event %q", e.Name())
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s payload: %w", e.Name(), err)
	}
	return Envelope{Type: e.Name(), Payload: raw, MeetingID: string(e.MeetingID())}, nil
}

// NewErrorEnvelope builds the S2C error message from a client-safe string.
func NewErrorEnvelope(message string) Envelope {
	raw, _ := json.Marshal(ErrorPayload{Message: message})
	return Envelope{Type: TypeError, Payload: raw}
}
