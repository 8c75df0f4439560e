package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"meet-lab/auth"
	"meet-lab/domain"
	"meet-lab/notification"
	"meet-lab/repositories"
)

// ScheduleRequest is the inbound shape for a scheduled meeting. Emails are
// validated up front; one malformed address rejects the whole request
// instead of silently dropping an invitee.
type ScheduleRequest struct {
	CreatorEmail string    `json:"creator_email" validate:"required,email"`
	Title        string    `json:"title" validate:"required"`
	ScheduledAt  time.Time `json:"scheduled_at" validate:"required"`
	Participants []string  `json:"participants" validate:"required,min=1,dive,email"`
}

// SchedulingService creates meeting records: instant ones with an empty
// guest list, and scheduled ones with per-participant invitations. Creators
// must exist in the user directory; invitees need no account.
type SchedulingService struct {
	log       *slog.Logger
	store     repositories.IMeetingRepository
	directory repositories.IUserDirectory
	validate  *validator.Validate
	issuer    *auth.TokenIssuer
	gateway   notification.INotificationGateway
	frontend  string
}

func NewSchedulingService(log *slog.Logger, store repositories.IMeetingRepository,
	directory repositories.IUserDirectory, issuer *auth.TokenIssuer,
	gateway notification.INotificationGateway, frontendURL string) *SchedulingService {
	return &SchedulingService{
		log:       log,
		store:     store,
		directory: directory,
		validate:  validator.New(),
		issuer:    issuer,
		gateway:   gateway,
		frontend:  frontendURL,
	}
}

// CreateInstant creates a meeting that starts now, with the creator as its
// only participant. Guests are admitted later through the waiting room.
func (s *SchedulingService) CreateInstant(creatorEmail, title string) (domain.Meeting, error) {
	creator, err := s.directory.FindByEmail(creatorEmail)
	if err != nil {
		return domain.Meeting{}, err
	}
	if title == "" {
		title = "Instant meeting"
	}

	meeting := domain.Meeting{
		ID:          domain.MeetingID(uuid.NewString()),
		Title:       title,
		CreatorID:   creator.ID,
		ScheduledAt: time.Now(),
	}
	meeting.Link = s.roomLink(meeting.ID)
	meeting.AdmitCreator(domain.Participant{
		Email:      creator.Email,
		InviteID:   creator.ID,
		InviteLink: meeting.Link,
	})

	if err := s.store.Save(meeting); err != nil {
		return domain.Meeting{}, err
	}
	s.log.Info("Instant meeting created", "meeting_id", meeting.ID, "creator", creator.ID)
	return meeting, nil
}

// Schedule creates a future meeting with one invitation per expected
// participant. Each invitee gets a unique invite id and join link; mails
// go out fire-and-forget so a slow relay never delays meeting creation.
func (s *SchedulingService) Schedule(request ScheduleRequest) (domain.Meeting, error) {
	if err := s.validate.Struct(request); err != nil {
		return domain.Meeting{}, fmt.Errorf("invalid schedule request: %w", err)
	}
	creator, err := s.directory.FindByEmail(request.CreatorEmail)
	if err != nil {
		return domain.Meeting{}, err
	}

	meetingID := domain.MeetingID(uuid.NewString())
	expected := lo.Map(lo.Uniq(request.Participants), func(email string, _ int) domain.Participant {
		inviteID := uuid.NewString()
		return domain.Participant{
			Email:      email,
			InviteID:   inviteID,
			InviteLink: s.inviteLink(meetingID, email, inviteID),
		}
	})

	meeting := domain.Meeting{
		ID:          meetingID,
		Title:       request.Title,
		Link:        s.roomLink(meetingID),
		CreatorID:   creator.ID,
		ScheduledAt: request.ScheduledAt,
		Expected:    expected,
	}
	meeting.AdmitCreator(domain.Participant{
		Email:      creator.Email,
		InviteID:   creator.ID,
		InviteLink: meeting.Link,
	})

	if err := s.store.Save(meeting); err != nil {
		return domain.Meeting{}, err
	}
	s.log.Info("Meeting scheduled",
		"meeting_id", meeting.ID, "invitees", len(expected), "at", request.ScheduledAt)

	go s.sendInvites(meeting, creator.Name)
	return meeting, nil
}

func (s *SchedulingService) sendInvites(meeting domain.Meeting, creatorName string) {
	for _, p := range meeting.Expected {
		err := s.gateway.SendInvite(notification.Invite{
			Email:       p.Email,
			JoinLink:    p.InviteLink,
			Title:       meeting.Title,
			CreatorName: creatorName,
			ScheduledAt: meeting.ScheduledAt,
		})
		if err != nil {
			// Delivery failures are logged, never surfaced: the invite
			// link stays valid and can be shared out of band.
			s.log.Error("Failed to send invitation",
				"meeting_id", meeting.ID, "email", p.Email, "error", err)
		}
	}
}

func (s *SchedulingService) roomLink(meetingID domain.MeetingID) string {
	return fmt.Sprintf("%s/meeting-room/%s", s.frontend, meetingID)
}

// inviteLink builds the personalised join URL for one invitee. When a token
// issuer is configured the link also carries a signed join token.
func (s *SchedulingService) inviteLink(meetingID domain.MeetingID, email, inviteID string) string {
	link := fmt.Sprintf("%s/meeting-room/%s?participant=%s", s.frontend, meetingID, inviteID)
	if s.issuer == nil {
		return link
	}
	token, err := s.issuer.Generate(meetingID, email, inviteID)
	if err != nil {
		s.log.Error("Failed to mint join token", "meeting_id", meetingID, "email", email, "error", err)
		return link
	}
	return link + "&token=" + token
}
