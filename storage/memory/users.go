package memory

import (
	"context"
	"sync"
	"time"

	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/user"
)

// UserDirectory is an in-memory read-only user lookup for development and
// tests. Records are seeded up front; there is no CRUD surface here.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[int]user.User
}

var _ user.Directory = (*UserDirectory)(nil)

func NewUserDirectory(seed ...user.User) *UserDirectory {
	dir := &UserDirectory{users: make(map[int]user.User, len(seed))}
	for _, usr := range seed {
		dir.users[usr.ID] = usr
	}
	return dir
}

// Add seeds one record, assigning an id if missing.
func (dir *UserDirectory) Add(usr user.User) user.User {
	dir.mu.Lock()
	defer dir.mu.Unlock()
	if usr.ID == 0 {
		usr.ID = len(dir.users) + 1
	}
	dir.users[usr.ID] = usr
	return usr
}

func (dir *UserDirectory) GetUserByID(_ context.Context, id int) (user.User, error) {
	dir.mu.RLock()
	defer dir.mu.RUnlock()
	if usr, ok := dir.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (dir *UserDirectory) GetUserByUsernameOrEmail(_ context.Context, uname string) (user.User, error) {
	uname = core.CleanString(uname, true /* lower */)
	dir.mu.RLock()
	defer dir.mu.RUnlock()
	for _, usr := range dir.users {
		if usr.Username == uname || usr.Email == uname {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (dir *UserDirectory) SetLastLogin(_ context.Context, usr user.User) (user.User, error) {
	dir.mu.Lock()
	defer dir.mu.Unlock()
	stored, ok := dir.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	stored.LastLogin = time.Now().UTC()
	dir.users[usr.ID] = stored
	return stored, nil
}
