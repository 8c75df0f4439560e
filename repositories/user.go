//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_directory.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"meet-lab/errors"
)

// IUserDirectory is the narrow identity collaborator the coordinator
// consumes: resolve a creator's email to a user id and back. Account
// management itself lives outside this service.
type IUserDirectory interface {
	FindByEmail(email string) (User, error)
	FindByID(id string) (User, error)
	CreateUser(email, name string) (string, error)
}

type User struct {
	ID        string `msgpack:"id"`
	Email     string `msgpack:"email"`
	Name      string `msgpack:"name"`
	CreatedAt int64  `msgpack:"created_at"`
}

type UserDirectory struct {
	db *badger.DB
}

func NewUserDirectory(db *badger.DB) IUserDirectory {
	return &UserDirectory{db: db}
}

// CreateUser persists a directory entry under both the email and the id key
// so lookups stay O(1) in either direction.
func (u *UserDirectory) CreateUser(email, name string) (string, error) {
	newID := uuid.NewString()
	user := User{
		ID:        newID,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().Unix(),
	}

	data, err := msgpack.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte("user:"+email), data); err != nil {
			return err
		}
		return txn.Set([]byte("userid:"+newID), data)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return newID, nil
}

func (u *UserDirectory) FindByEmail(email string) (User, error) {
	return u.find("user:" + email)
}

func (u *UserDirectory) FindByID(id string) (User, error) {
	return u.find("userid:" + id)
}

func (u *UserDirectory) find(key string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &user)
		})
	})
	switch {
	case err == nil:
		return user, nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return User{}, errors.ErrUserNotFound
	default:
		return User{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
}
