package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"meet-lab/errors"
)

func TestUserDirectory_CreateAndLookup(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	directory := NewUserDirectory(db)

	id, err := directory.CreateUser("alice@example.com", "Alice")
	req.NoError(err)
	req.NotEmpty(id)

	// Lookup works in both directions
	byEmail, err := directory.FindByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(id, byEmail.ID)
	req.Equal("Alice", byEmail.Name)

	byID, err := directory.FindByID(id)
	req.NoError(err)
	req.Equal("alice@example.com", byID.Email)
}

func TestUserDirectory_UnknownUser(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	directory := NewUserDirectory(db)

	_, err := directory.FindByEmail("ghost@example.com")
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = directory.FindByID("no-such-id")
	req.ErrorIs(err, errors.ErrUserNotFound)
}
