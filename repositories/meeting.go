//go:generate go run go.uber.org/mock/mockgen -source=meeting.go -destination=../mocks/mock_meeting_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/vmihailenco/msgpack/v5"

	"meet-lab/domain"
	"meet-lab/errors"
)

const meetingKeyPrefix = "meeting:"

type IMeetingRepository interface {
	Find(id domain.MeetingID) (domain.Meeting, error)
	Save(meeting domain.Meeting) error
	MoveToWaiting(id domain.MeetingID, email string) (domain.Meeting, error)
	Approve(id domain.MeetingID, email string) (domain.Meeting, error)
	Delete(id domain.MeetingID) error
}

// MeetingRepository persists meeting records in BadgerDB under
// "meeting:{id}" keys, msgpack-encoded. The conditional transitions run as
// single read-modify-write transactions: Badger's optimistic concurrency
// turns a lost race into badger.ErrConflict, which we map to
// errors.ErrConflict so callers can treat it as the expected end state.
type MeetingRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMeetingRepository(db *badger.DB, log *slog.Logger) MeetingRepository {
	return MeetingRepository{db: db, log: log}
}

// diskMeeting is the storage-level shape of a meeting record, kept separate
// from the domain aggregate so the codec never leaks into domain types.
type diskMeeting struct {
	ID          string            `msgpack:"id"`
	Title       string            `msgpack:"title"`
	Link        string            `msgpack:"link"`
	CreatorID   string            `msgpack:"creator_id"`
	ScheduledAt int64             `msgpack:"scheduled_at"`
	Expected    []diskParticipant `msgpack:"expected"`
	Waiting     []diskParticipant `msgpack:"waiting"`
	Admitted    []diskParticipant `msgpack:"admitted"`
}

type diskParticipant struct {
	Email      string `msgpack:"email"`
	InviteID   string `msgpack:"invite_id"`
	InviteLink string `msgpack:"invite_link"`
}

func (m MeetingRepository) Find(id domain.MeetingID) (domain.Meeting, error) {
	var meeting domain.Meeting
	err := m.db.View(func(txn *badger.Txn) error {
		found, err := readMeeting(txn, id)
		if err != nil {
			return err
		}
		meeting = found
		return nil
	})
	return meeting, mapStoreError(err)
}

func (m MeetingRepository) Save(meeting domain.Meeting) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		return writeMeeting(txn, meeting)
	})
	return mapStoreError(err)
}

// MoveToWaiting moves email from Expected to Waiting in one transaction.
// Guard: if the email already sits in the waiting room nothing is written
// and errors.ErrConflict is returned together with the current record, so a
// duplicate concurrent join resolves to the already-waiting case.
func (m MeetingRepository) MoveToWaiting(id domain.MeetingID, email string) (domain.Meeting, error) {
	var meeting domain.Meeting
	var lostGuard bool
	err := m.db.Update(func(txn *badger.Txn) error {
		found, err := readMeeting(txn, id)
		if err != nil {
			return err
		}
		if _, moved := found.MoveToWaiting(email); !moved {
			meeting = found
			if found.Classify(email) == domain.PlacementWaiting {
				lostGuard = true
				return nil
			}
			return errors.ErrNotInvited
		}
		meeting = found
		return writeMeeting(txn, found)
	})
	if err != nil {
		return domain.Meeting{}, mapStoreError(err)
	}
	if lostGuard {
		return meeting, errors.ErrConflict
	}
	return meeting, nil
}

// Approve moves email from Waiting to Admitted, idempotent against
// re-approval: an already admitted email reports errors.ErrConflict with
// the unchanged record.
func (m MeetingRepository) Approve(id domain.MeetingID, email string) (domain.Meeting, error) {
	var meeting domain.Meeting
	var alreadyAdmitted bool
	err := m.db.Update(func(txn *badger.Txn) error {
		found, err := readMeeting(txn, id)
		if err != nil {
			return err
		}
		if _, moved := found.Approve(email); !moved {
			meeting = found
			if found.Classify(email) == domain.PlacementAdmitted {
				alreadyAdmitted = true
				return nil
			}
			return errors.ErrNotWaiting
		}
		meeting = found
		return writeMeeting(txn, found)
	})
	if err != nil {
		return domain.Meeting{}, mapStoreError(err)
	}
	if alreadyAdmitted {
		return meeting, errors.ErrConflict
	}
	return meeting, nil
}

func (m MeetingRepository) Delete(id domain.MeetingID) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		key := []byte(meetingKeyPrefix + string(id))
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	return mapStoreError(err)
}

func readMeeting(txn *badger.Txn, id domain.MeetingID) (domain.Meeting, error) {
	item, err := txn.Get([]byte(meetingKeyPrefix + string(id)))
	if err != nil {
		return domain.Meeting{}, err
	}
	var disk diskMeeting
	err = item.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, &disk)
	})
	if err != nil {
		return domain.Meeting{}, err
	}
	return toMeeting(disk), nil
}

func writeMeeting(txn *badger.Txn, meeting domain.Meeting) error {
	data, err := msgpack.Marshal(fromMeeting(meeting))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set([]byte(meetingKeyPrefix+string(meeting.ID)), data)
}

// mapStoreError translates storage-level failures into the coordinator's
// taxonomy. Domain sentinels pass through untouched.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return errors.ErrMeetingNotFound
	case stderrors.Is(err, badger.ErrConflict):
		return errors.ErrConflict
	case stderrors.Is(err, errors.ErrNotInvited),
		stderrors.Is(err, errors.ErrNotWaiting),
		stderrors.Is(err, errors.ErrMeetingNotFound):
		return err
	default:
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
}

func fromMeeting(meeting domain.Meeting) diskMeeting {
	return diskMeeting{
		ID:          string(meeting.ID),
		Title:       meeting.Title,
		Link:        meeting.Link,
		CreatorID:   meeting.CreatorID,
		ScheduledAt: meeting.ScheduledAt.UnixNano(),
		Expected:    fromParticipants(meeting.Expected),
		Waiting:     fromParticipants(meeting.Waiting),
		Admitted:    fromParticipants(meeting.Admitted),
	}
}

func toMeeting(disk diskMeeting) domain.Meeting {
	return domain.Meeting{
		ID:          domain.MeetingID(disk.ID),
		Title:       disk.Title,
		Link:        disk.Link,
		CreatorID:   disk.CreatorID,
		ScheduledAt: time.Unix(0, disk.ScheduledAt).UTC(),
		Expected:    toParticipants(disk.Expected),
		Waiting:     toParticipants(disk.Waiting),
		Admitted:    toParticipants(disk.Admitted),
	}
}

func fromParticipants(set []domain.Participant) []diskParticipant {
	return lo.Map(set, func(p domain.Participant, _ int) diskParticipant {
		return diskParticipant{Email: p.Email, InviteID: p.InviteID, InviteLink: p.InviteLink}
	})
}

func toParticipants(set []diskParticipant) []domain.Participant {
	return lo.Map(set, func(p diskParticipant, _ int) domain.Participant {
		return domain.Participant{Email: p.Email, InviteID: p.InviteID, InviteLink: p.InviteLink}
	})
}
