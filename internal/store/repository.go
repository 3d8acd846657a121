// Package store defines the persistence contracts of the registration flow.
// Adapters live in store/memory and store/pg.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// User is a persisted account created from an openid profile.
type User struct {
	ID             int64
	Username       string
	Name           string
	Email          string
	PasswordHash   string
	Role           string
	Balance        int64
	SexID          int
	CurrencyID     int
	LanguageCode   string
	OpenIDIdentity string
	CreatedAt      time.Time
}

// Image is the metadata row of a stored picture.
type Image struct {
	ID         int64
	UserID     int64
	ObjectType string
	ObjectID   int64
	Width      int
	Height     int
	MimeType   string
	Type       string
	CreatedAt  time.Time
}

type UserRepository interface {
	// CreateUser stores u and returns its id. Two users may not share a
	// non-empty email (ErrDuplicateEmail).
	CreateUser(ctx context.Context, u *User) (int64, error)
	GetUserByIdentity(ctx context.Context, identity string) (*User, error)
}

type ImageRepository interface {
	CreateImage(ctx context.Context, img *Image) (int64, error)
	DeleteImage(ctx context.Context, id int64) error
}
