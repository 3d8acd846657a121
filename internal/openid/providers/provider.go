// Package providers implements the per-provider strategies that turn a
// brokerage profile into a username, a provisioning record and optional
// post-registration work.
//
// A provider never talks to the brokerage; it reads the profile through a
// Source, which is normally the broker that resolved it.
package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

var (
	ErrIdentityFieldMissing = errors.New("cannot determine openid provider")
	ErrUnknownProvider      = errors.New("unknown openid provider")
	ErrWrongIdentity        = errors.New("wrong identity")
	ErrEmailRequired        = errors.New("provider profile has no email")
)

// Source exposes the current brokerage profile to a provider.
type Source interface {
	Profile() openid.Profile
	IdentityFieldName() string
}

// IdentityURL reads the identity field of src's profile.
func IdentityURL(src Source) string {
	return src.Profile().String(src.IdentityFieldName())
}

// StaticSource is a Source over a stored profile, used to resume a parked
// registration without a live broker.
type StaticSource struct {
	Fields        openid.Profile
	IdentityField string
}

func (s StaticSource) Profile() openid.Profile   { return s.Fields }
func (s StaticSource) IdentityFieldName() string { return s.IdentityField }

// AvatarImporter fetches a remote picture and stores it for a user.
type AvatarImporter interface {
	Import(ctx context.Context, userID int64, url string) error
}

// Provider is one identity provider strategy.
type Provider interface {
	Name() string
	UsernamePrefix() string
	// NeedsExtraForm reports whether the profile lacks data (usually email)
	// that the user has to supply before an account can be created.
	NeedsExtraForm() bool
	GenerateUsername(preferred string) (string, error)
	GenerateUserData(rc openid.RequestContext) (*openid.Record, error)
	// OnRegister runs after the record is persisted; rc.UserID is set.
	OnRegister(ctx context.Context, rc openid.RequestContext, avatars AvatarImporter) error
}

// Option tunes providers built by the dispatcher.
type Option func(*settings)

type settings struct {
	passwordLength int
	now            func() time.Time
}

func defaultSettings() settings {
	return settings{passwordLength: openid.DefaultPasswordLength, now: time.Now}
}

// WithPasswordLength sets the generated password length.
func WithPasswordLength(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.passwordLength = n
		}
	}
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// base carries the behaviour shared by every provider.
type base struct {
	src       Source
	cfg       settings
	name      string
	prefix    string
	needsForm bool
}

func (b *base) Name() string           { return b.name }
func (b *base) UsernamePrefix() string { return b.prefix }
func (b *base) NeedsExtraForm() bool   { return b.needsForm }

func (b *base) OnRegister(context.Context, openid.RequestContext, AvatarImporter) error {
	return nil
}

func (b *base) profile() openid.Profile { return b.src.Profile() }
func (b *base) identity() string        { return IdentityURL(b.src) }

func (b *base) username(id string) string { return b.prefix + "_" + id }

func (b *base) wrongIdentity() error {
	return fmt.Errorf("%w for %s: %q", ErrWrongIdentity, b.name, b.identity())
}

// record builds the shared part of a provisioning record. An empty name
// falls back to the username.
func (b *base) record(rc openid.RequestContext, username, email, name string) (*openid.Record, error) {
	pw, err := openid.GeneratePassword(b.cfg.passwordLength)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	rec := openid.NewRecord(rc, pw, b.cfg.now())
	rec.Username = username
	rec.Email = email
	rec.Name = strings.TrimSpace(name)
	if rec.Name == "" {
		rec.Name = username
	}
	rec.OpenIDIdentity = b.identity()
	return rec, nil
}

// segmentAfter returns what follows marker in identity, without slashes at
// either end. ok is false when marker is absent or nothing follows it.
func segmentAfter(identity, marker string) (string, bool) {
	i := strings.Index(identity, marker)
	if i < 0 {
		return "", false
	}
	rest := strings.Trim(identity[i+len(marker):], "/")
	return rest, rest != ""
}

func trimScheme(s string) string {
	s = strings.TrimPrefix(s, "https://")
	return strings.TrimPrefix(s, "http://")
}
