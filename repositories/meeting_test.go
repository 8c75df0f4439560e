package repositories

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"meet-lab/domain"
	"meet-lab/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// SetupTestDB initializes a temporary Badger instance for testing
func SetupTestDB(t *testing.T) (*badger.DB, func()) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)

	return db, func() {
		db.Close()
	}
}

func storedMeeting() domain.Meeting {
	return domain.Meeting{
		ID:          "m-1",
		Title:       "Planning",
		Link:        "https://meet.example.com/meeting-room/m-1",
		CreatorID:   "creator-id",
		ScheduledAt: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		Expected: []domain.Participant{
			{Email: "bob@example.com", InviteID: "invite-bob", InviteLink: "https://x/bob"},
		},
		Admitted: []domain.Participant{
			{Email: "alice@example.com", InviteID: "creator-id"},
		},
	}
}

func TestMeetingRepository_SaveAndFind(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	repo := NewMeetingRepository(db, testLogger())

	meeting := storedMeeting()
	req.NoError(repo.Save(meeting))

	found, err := repo.Find(meeting.ID)
	req.NoError(err)
	req.Equal(meeting, found)
}

func TestMeetingRepository_Find_Unknown(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	repo := NewMeetingRepository(db, testLogger())

	_, err := repo.Find("ghost")
	req.ErrorIs(err, errors.ErrMeetingNotFound)
}

func TestMeetingRepository_MoveToWaiting(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	repo := NewMeetingRepository(db, testLogger())
	req.NoError(repo.Save(storedMeeting()))

	// When an expected participant moves to the waiting room
	updated, err := repo.MoveToWaiting("m-1", "bob@example.com")

	// Then the persisted record reflects the transition
	req.NoError(err)
	req.Equal(domain.PlacementWaiting, updated.Classify("bob@example.com"))
	persisted, err := repo.Find("m-1")
	req.NoError(err)
	req.Empty(persisted.Expected)
	req.Len(persisted.Waiting, 1)

	// When the same move is replayed (duplicate join)
	again, err := repo.MoveToWaiting("m-1", "bob@example.com")

	// Then the guard reports the conflict with the current record
	req.ErrorIs(err, errors.ErrConflict)
	req.Len(again.Waiting, 1)
}

func TestMeetingRepository_MoveToWaiting_Uninvited(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	repo := NewMeetingRepository(db, testLogger())
	req.NoError(repo.Save(storedMeeting()))

	_, err := repo.MoveToWaiting("m-1", "carol@example.com")
	req.ErrorIs(err, errors.ErrNotInvited)

	// State untouched
	persisted, err := repo.Find("m-1")
	req.NoError(err)
	req.Len(persisted.Expected, 1)
	req.Empty(persisted.Waiting)
}

func TestMeetingRepository_Approve(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	repo := NewMeetingRepository(db, testLogger())
	req.NoError(repo.Save(storedMeeting()))
	_, err := repo.MoveToWaiting("m-1", "bob@example.com")
	req.NoError(err)

	// When the waiting participant is approved
	updated, err := repo.Approve("m-1", "bob@example.com")

	// Then the transition is persisted
	req.NoError(err)
	req.Equal(domain.PlacementAdmitted, updated.Classify("bob@example.com"))
	persisted, err := repo.Find("m-1")
	req.NoError(err)
	req.Empty(persisted.Waiting)
	req.Len(persisted.Admitted, 2)

	// Re-approval reports conflict, state unchanged
	_, err = repo.Approve("m-1", "bob@example.com")
	req.ErrorIs(err, errors.ErrConflict)
}

func TestMeetingRepository_Approve_NotWaiting(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	repo := NewMeetingRepository(db, testLogger())
	req.NoError(repo.Save(storedMeeting()))

	// bob is still expected, not waiting
	_, err := repo.Approve("m-1", "bob@example.com")
	req.ErrorIs(err, errors.ErrNotWaiting)
}

func TestMeetingRepository_Delete(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	repo := NewMeetingRepository(db, testLogger())
	req.NoError(repo.Save(storedMeeting()))

	req.NoError(repo.Delete("m-1"))

	_, err := repo.Find("m-1")
	req.ErrorIs(err, errors.ErrMeetingNotFound)

	// Deleting twice reports the missing record
	req.ErrorIs(repo.Delete("m-1"), errors.ErrMeetingNotFound)
}
