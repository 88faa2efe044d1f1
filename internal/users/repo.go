package users

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "user not found" }

type Repo interface {
	Upsert(ctx context.Context, user User) error
	GetByExternalID(ctx context.Context, externalID string) (User, error)
	DeleteByExternalID(ctx context.Context, externalID string) error
}
