package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"meet-lab/auth"
	"meet-lab/domain"
	"meet-lab/domain/event"
	"meet-lab/errors"
	"meet-lab/observability"
	"meet-lab/relay"
	"meet-lab/services"
)

// Budget for one inbound command, including its turn on the meeting inbox.
const requestTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  maxMessageSize,
	WriteBufferSize: maxMessageSize,

	// The frontend origin is enforced by the reverse proxy in deployment;
	// the coordinator itself accepts any origin.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler owns the websocket endpoint: it upgrades connections, assigns
// connection ids, and dispatches inbound envelopes to the services.
type Handler struct {
	log          *slog.Logger
	admission    *services.AdmissionService
	relay        *relay.Relay
	monitoring   *observability.Monitoring
	issuer       *auth.TokenIssuer
	requireToken bool
	bufferSize   int
}

func NewHandler(log *slog.Logger, admission *services.AdmissionService,
	relay *relay.Relay, monitoring *observability.Monitoring,
	issuer *auth.TokenIssuer, requireToken bool, bufferSize int) *Handler {
	return &Handler{
		log:          log,
		admission:    admission,
		relay:        relay,
		monitoring:   monitoring,
		issuer:       issuer,
		requireToken: requireToken,
		bufferSize:   bufferSize,
	}
}

// ServeWs upgrades the HTTP request and runs the connection's pumps. The
// server greets every connection with its assigned id; clients echo it as
// their peer id during call signaling.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	client := newClient(uuid.NewString(), conn, h.log, h.bufferSize)
	h.monitoring.ConnectionOpened()
	h.log.Debug("Connection opened", "connection_id", client.ID)

	go client.writePump()

	raw, _ := json.Marshal(ConnectedPayload{ConnectionID: client.ID})
	client.Enqueue(Envelope{Type: TypeConnected, Payload: raw})

	client.readPump(h.dispatch, h.disconnect)
}

func (h *Handler) disconnect(client *Client) {
	h.admission.Unregister(client.ID)
	h.log.Debug("Connection closed", "connection_id", client.ID)
}

// dispatch routes one inbound envelope. A panic in a handler kills only the
// offending command, not the connection.
func (h *Handler) dispatch(client *Client, envelope Envelope) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Panic while handling message",
				"connection_id", client.ID, "type", envelope.Type, "panic", r)
			client.Enqueue(NewErrorEnvelope(errors.SafeMessage(errors.ErrWorkerPanic)))
		}
	}()

	if err := h.handle(client, envelope); err != nil {
		h.log.Warn("Command failed",
			"connection_id", client.ID, "type", envelope.Type, "error", err)
		client.Enqueue(NewErrorEnvelope(errors.SafeMessage(err)))
	}
}

func (h *Handler) handle(client *Client, envelope Envelope) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch envelope.Type {
	case TypeJoinRoom:
		return h.handleJoin(ctx, client, envelope)
	case TypeSignal:
		return h.handleSignal(client, envelope)
	case TypeSendingSignal:
		return h.handleSendingSignal(client, envelope)
	case TypeApproveUser:
		return h.handleApprove(ctx, client, envelope)
	case TypeEndMeeting:
		return h.handleEndMeeting(ctx, client)
	default:
		h.log.Debug("Unknown message type ignored",
			"connection_id", client.ID, "type", envelope.Type)
		return nil
	}
}

func (h *Handler) handleJoin(ctx context.Context, client *Client, envelope Envelope) error {
	var payload JoinPayload
	if len(envelope.Payload) > 0 {
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return err
		}
	}
	meetingID := domain.MeetingID(envelope.MeetingID)
	identity := domain.Identity{Email: payload.Email}

	if h.requireToken {
		claims, err := h.issuer.Validate(payload.Token, meetingID)
		if err != nil {
			return err
		}
		// The token is the identity authority, not the client's claim.
		identity.Email = claims.Email
	}

	result, err := h.admission.Join(ctx, client.ID, meetingID, identity, newConnectionSink(client))
	if err != nil {
		return err
	}
	client.bindRoom(meetingID, identity)

	switch result.Outcome {
	case services.JoinAdmitted:
		// The room got new-peer; the joiner itself gets the roster.
		e, err := EncodeEvent(event.PeerJoined{
			Meeting:      meetingID,
			PeerID:       client.ID,
			Email:        identity.Email,
			Participants: result.Meeting.Admitted,
		})
		if err != nil {
			return err
		}
		e.Type = TypeAlreadyJoined
		client.Enqueue(e)
	case services.JoinWaiting:
		e, err := EncodeEvent(event.UserWaiting{
			Meeting:        meetingID,
			Email:          identity.Email,
			ConnectionID:   client.ID,
			WaitingMembers: result.Meeting.Waiting,
		})
		if err != nil {
			return err
		}
		client.Enqueue(e)
	}
	return nil
}

func (h *Handler) handleSignal(client *Client, envelope Envelope) error {
	meetingID, _ := client.room()
	if meetingID == "" {
		return errors.ErrUnauthorized
	}
	h.relay.Broadcast(meetingID, event.SignalBroadcast{
		Meeting: meetingID,
		FromID:  client.ID,
		Data:    envelope.Payload,
	}, client.ID)
	return nil
}

func (h *Handler) handleSendingSignal(client *Client, envelope Envelope) error {
	meetingID, _ := client.room()
	if meetingID == "" {
		return errors.ErrUnauthorized
	}
	var payload SendingSignalPayload
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		return err
	}
	h.relay.RelaySignal(client.ID, meetingID, payload.UserToCall, payload.Signal)
	return nil
}

func (h *Handler) handleApprove(ctx context.Context, client *Client, envelope Envelope) error {
	meetingID, identity := client.room()
	if meetingID == "" {
		return errors.ErrUnauthorized
	}
	var payload ApprovePayload
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		return err
	}
	_, err := h.admission.Approve(ctx, meetingID, identity, payload.Email)
	return err
}

func (h *Handler) handleEndMeeting(ctx context.Context, client *Client) error {
	meetingID, identity := client.room()
	if meetingID == "" {
		return errors.ErrUnauthorized
	}
	return h.admission.EndMeeting(ctx, meetingID, identity)
}
