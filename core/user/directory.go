package user

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not found")

// Directory is the read-only user/tenant lookup consumed at login and refresh.
// Implementations must return ErrNotFound for unknown users.
type Directory interface {
	GetUserByID(ctx context.Context, id int) (User, error)
	GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
	// SetLastLogin records a successful authentication; best effort.
	SetLastLogin(ctx context.Context, usr User) (User, error)
}
