package services

import (
	"context"
	stderrors "errors"
	"log/slog"

	"meet-lab/contract"
	"meet-lab/domain"
	"meet-lab/domain/event"
	"meet-lab/errors"
	"meet-lab/observability"
	"meet-lab/relay"
	"meet-lab/repositories"
	"meet-lab/runtime"
)

type JoinOutcome int

const (
	JoinCreator JoinOutcome = iota
	JoinAdmitted
	JoinWaiting
)

type JoinResult struct {
	Outcome JoinOutcome
	Meeting domain.Meeting
}

// AdmissionService implements the admission contracts: join classification
// in fixed priority order (creator, admitted, waiting, expected), creator
// approval, and meeting teardown. Every mutating operation runs on the
// meeting's serial inbox; the store's conditional transitions are the second
// line of defense against races.
type AdmissionService struct {
	log         *slog.Logger
	store       repositories.IMeetingRepository
	directory   repositories.IUserDirectory
	registry    contract.IRegistry
	relay       *relay.Relay
	coordinator *runtime.Coordinator
	monitoring  *observability.Monitoring
}

func NewAdmissionService(log *slog.Logger, store repositories.IMeetingRepository,
	directory repositories.IUserDirectory, registry contract.IRegistry,
	relay *relay.Relay, coordinator *runtime.Coordinator,
	monitoring *observability.Monitoring) *AdmissionService {
	return &AdmissionService{
		log:         log,
		store:       store,
		directory:   directory,
		registry:    registry,
		relay:       relay,
		coordinator: coordinator,
		monitoring:  monitoring,
	}
}

// Join classifies the identity against the meeting record and transitions
// state accordingly. Priority order is load-bearing: waiting-room membership
// is checked before expected-participant membership so a stale duplicate is
// treated as already waiting, never re-queued.
func (s *AdmissionService) Join(ctx context.Context, connectionID string,
	meetingID domain.MeetingID, identity domain.Identity, sink contract.EventSink) (JoinResult, error) {

	var result JoinResult
	err := s.coordinator.Execute(ctx, meetingID, func() error {
		meeting, err := s.store.Find(meetingID)
		if err != nil {
			return err
		}

		ident := s.resolve(identity)

		if meeting.IsCreator(ident) {
			// No state mutation: the creator is pre-admitted at creation
			// time, joining only attaches the live connection.
			s.registry.Register(connectionID, meetingID, ident, sink, true)
			s.relay.Broadcast(meetingID, event.CreatorJoined{
				Meeting: meetingID,
				Email:   ident.Email,
			})
			s.monitoring.Admission()
			result = JoinResult{Outcome: JoinCreator, Meeting: meeting}
			return nil
		}

		switch meeting.Classify(ident.Email) {
		case domain.PlacementAdmitted:
			// Rejoin case: the descriptor is already in the participant
			// set, only the room needs to learn about the new peer.
			s.registry.Register(connectionID, meetingID, ident, sink, false)
			s.relay.Broadcast(meetingID, event.PeerJoined{
				Meeting:      meetingID,
				PeerID:       connectionID,
				Email:        ident.Email,
				Participants: meeting.Admitted,
			}, connectionID)
			s.monitoring.Admission()
			result = JoinResult{Outcome: JoinAdmitted, Meeting: meeting}
			return nil

		case domain.PlacementWaiting:
			s.registry.Register(connectionID, meetingID, ident, sink, false)
			s.notifyCreatorOfWaiting(meeting, ident.Email, connectionID)
			s.monitoring.Waiting()
			result = JoinResult{Outcome: JoinWaiting, Meeting: meeting}
			return nil

		case domain.PlacementExpected:
			updated, err := s.store.MoveToWaiting(meetingID, ident.Email)
			if err != nil && !stderrors.Is(err, errors.ErrConflict) {
				return err
			}
			// A lost race on the conditional move means someone else
			// already queued this identity; that IS the expected end
			// state, so we fall through to the waiting case.
			s.registry.Register(connectionID, meetingID, ident, sink, false)
			s.notifyCreatorOfWaiting(updated, ident.Email, connectionID)
			s.monitoring.Waiting()
			result = JoinResult{Outcome: JoinWaiting, Meeting: updated}
			return nil

		default:
			s.monitoring.Rejection()
			return errors.ErrNotInvited
		}
	})
	return result, err
}

// Approve moves a waiting participant into the admitted set. Only the
// meeting creator may approve; re-approving an already admitted email is
// treated as success.
func (s *AdmissionService) Approve(ctx context.Context, meetingID domain.MeetingID,
	requester domain.Identity, targetEmail string) (domain.Meeting, error) {

	var approved domain.Meeting
	err := s.coordinator.Execute(ctx, meetingID, func() error {
		meeting, err := s.store.Find(meetingID)
		if err != nil {
			return err
		}
		if !meeting.IsCreator(s.resolve(requester)) {
			return errors.ErrUnauthorized
		}

		updated, err := s.store.Approve(meetingID, targetEmail)
		if err != nil && !stderrors.Is(err, errors.ErrConflict) {
			return err
		}
		approved = updated

		if connectionID, ok := s.registry.FindByEmail(meetingID, targetEmail); ok {
			s.relay.ToConnection(connectionID, event.UserApproved{
				Meeting:      meetingID,
				Email:        targetEmail,
				Participants: updated.Admitted,
			})
		}
		s.relay.Broadcast(meetingID, event.UserApproved{
			Meeting:      meetingID,
			Email:        targetEmail,
			Participants: updated.Admitted,
		})
		s.monitoring.Admission()
		return nil
	})
	return approved, err
}

// EndMeeting deletes the record, tells every live connection the meeting
// ended, and unsubscribes the whole room.
func (s *AdmissionService) EndMeeting(ctx context.Context, meetingID domain.MeetingID,
	requester domain.Identity) error {

	return s.coordinator.Execute(ctx, meetingID, func() error {
		meeting, err := s.store.Find(meetingID)
		if err != nil {
			return err
		}
		if !meeting.IsCreator(s.resolve(requester)) {
			return errors.ErrUnauthorized
		}

		if err := s.store.Delete(meetingID); err != nil {
			return err
		}

		s.relay.Broadcast(meetingID, event.MeetingEnded{Meeting: meetingID})
		dropped := s.registry.DropRoom(meetingID)
		s.log.Info("Meeting ended",
			"meeting_id", meetingID, "dropped_connections", len(dropped))
		return nil
	})
}

// Unregister removes a disconnected connection from the live index. The
// meeting record keeps its participant descriptor untouched.
func (s *AdmissionService) Unregister(connectionID string) {
	s.registry.Unregister(connectionID)
	s.monitoring.ConnectionClosed()
}

// notifyCreatorOfWaiting pushes the updated waiting list to the creator's
// live connection, if any.
func (s *AdmissionService) notifyCreatorOfWaiting(meeting domain.Meeting, email, connectionID string) {
	creatorConn, ok := s.registry.FindCreatorConnection(meeting.ID)
	if !ok {
		return
	}
	s.relay.ToConnection(creatorConn, event.UserWaiting{
		Meeting:        meeting.ID,
		Email:          email,
		ConnectionID:   connectionID,
		WaitingMembers: meeting.Waiting,
	})
}

// resolve fills in the user id behind a claimed email when the directory
// knows it. A missing directory entry is fine (guests); anything else is
// only logged because admission must not depend on directory availability.
func (s *AdmissionService) resolve(identity domain.Identity) domain.Identity {
	if identity.Email == "" || identity.UserID != "" {
		return identity
	}
	user, err := s.directory.FindByEmail(identity.Email)
	switch {
	case err == nil:
		identity.UserID = user.ID
	case !stderrors.Is(err, errors.ErrUserNotFound):
		s.log.Warn("User directory lookup failed", "email", identity.Email, "error", err)
	}
	return identity
}
