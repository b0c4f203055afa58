package identity

import (
	"context"
)

// UserRepository mirrors user records into relational storage. Insert
// returns claims.ErrDuplicate when the id or email is already taken.
type UserRepository interface {
	Insert(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]*User, error)
}
