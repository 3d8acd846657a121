// Package registration provisions accounts from successful openid
// authentications, including the deferred path for profiles that need
// the supplementary form.
package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/openidgate/internal/audit"
	"github.com/dropDatabas3/openidgate/internal/cache"
	"github.com/dropDatabas3/openidgate/internal/email"
	"github.com/dropDatabas3/openidgate/internal/metrics"
	"github.com/dropDatabas3/openidgate/internal/observability/logger"
	"github.com/dropDatabas3/openidgate/internal/openid"
	"github.com/dropDatabas3/openidgate/internal/openid/providers"
	"github.com/dropDatabas3/openidgate/internal/security/password"
	"github.com/dropDatabas3/openidgate/internal/store"
	"github.com/dropDatabas3/openidgate/internal/util"
	"github.com/dropDatabas3/openidgate/internal/validation"
)

var (
	ErrProvisioning   = errors.New("cannot provision user")
	ErrNotRegistrable = errors.New("result is not registrable")
	ErrEmailRequired  = errors.New("email is required")
)

const pendingKeyPrefix = "pending:"

// Authenticated is what Register needs from a broker after Authenticate.
type Authenticated interface {
	providers.Source
	Name() string
	Provider() providers.Provider
}

type Config struct {
	PendingTTL     time.Duration
	PasswordLength int
	HashParams     password.Params
}

type Service struct {
	cfg     Config
	users   store.UserRepository
	pending cache.Client
	tickets *Tickets
	mailer  email.Sender
	avatars providers.AvatarImporter
}

type Option func(*Service)

func WithMailer(m email.Sender) Option { return func(s *Service) { s.mailer = m } }

func WithAvatarImporter(a providers.AvatarImporter) Option {
	return func(s *Service) { s.avatars = a }
}

func New(cfg Config, users store.UserRepository, pending cache.Client, tickets *Tickets, opts ...Option) *Service {
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = 30 * time.Minute
	}
	if cfg.PasswordLength <= 0 {
		cfg.PasswordLength = openid.DefaultPasswordLength
	}
	if cfg.HashParams == (password.Params{}) {
		cfg.HashParams = password.Default
	}
	s := &Service{cfg: cfg, users: users, pending: pending, tickets: tickets}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register provisions the user behind a SUCCESS result. It returns res with
// the stored record as identity, or a new FAILURE_DUPLICATE_EMAIL result.
func (s *Service) Register(ctx context.Context, auth Authenticated, res *openid.Result, rc openid.RequestContext) (*openid.Result, error) {
	if res == nil || res.Code() != openid.Success || auth.Provider() == nil {
		return nil, ErrNotRegistrable
	}
	return s.provision(ctx, auth.Provider(), res, rc, "")
}

type parked struct {
	Brokerage     string         `json:"brokerage"`
	IdentityField string         `json:"identity_field"`
	Provider      string         `json:"provider"`
	Profile       openid.Profile `json:"profile"`
}

// Defer parks the profile of a SUCCESS_NEED_EXTRA_DATA result and returns
// the signed ticket the client completes the registration with.
func (s *Service) Defer(ctx context.Context, auth Authenticated) (string, error) {
	p := auth.Provider()
	if p == nil {
		return "", ErrNotRegistrable
	}
	raw, err := json.Marshal(parked{
		Brokerage:     auth.Name(),
		IdentityField: auth.IdentityFieldName(),
		Provider:      p.Name(),
		Profile:       auth.Profile(),
	})
	if err != nil {
		return "", fmt.Errorf("encode pending profile: %w", err)
	}
	id := uuid.NewString()
	if err := s.pending.Set(ctx, pendingKeyPrefix+id, string(raw), s.cfg.PendingTTL); err != nil {
		return "", fmt.Errorf("park pending profile: %w", err)
	}
	ticket, err := s.tickets.Sign(id, auth.Name(), s.cfg.PendingTTL)
	if err != nil {
		_ = s.pending.Delete(ctx, pendingKeyPrefix+id)
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	metrics.Registrations.WithLabelValues(p.Name(), "deferred").Inc()
	audit.Log(ctx, audit.EventRegistrationDeferred, logger.Provider(p.Name()), logger.Brokerage(auth.Name()))
	logger.From(ctx).Info("registration deferred",
		logger.Component("registration"), logger.Provider(p.Name()), logger.Identity(providers.IdentityURL(auth)))
	return ticket, nil
}

// Complete finishes a deferred registration with the email the user typed.
// A ticket can be completed once. A duplicate email leaves it usable.
func (s *Service) Complete(ctx context.Context, ticket, mail string, rc openid.RequestContext) (*openid.Result, error) {
	mail = strings.TrimSpace(mail)
	if !validation.ValidEmail(mail) {
		return nil, ErrEmailRequired
	}
	id, err := s.tickets.Verify(ticket)
	if err != nil {
		return nil, err
	}
	raw, err := s.pending.Take(ctx, pendingKeyPrefix+id)
	if cache.IsNotFound(err) {
		return nil, ErrTicketInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("load pending profile: %w", err)
	}
	var pk parked
	if err := json.Unmarshal([]byte(raw), &pk); err != nil {
		return nil, fmt.Errorf("decode pending profile: %w", err)
	}

	src := providers.StaticSource{Fields: pk.Profile, IdentityField: pk.IdentityField}
	p, err := providers.ByIdentity(src, s.providerOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvisioning, err)
	}
	res := openid.NewResult(openid.Success, openid.BrokerProfile{Profile: pk.Profile}.Map())
	out, err := s.provision(ctx, p, res, rc, mail)
	if err == nil && out.Code() == openid.FailureDuplicateEmail {
		// the ticket stays usable so the user can type another email
		if perr := s.pending.Set(ctx, pendingKeyPrefix+id, raw, s.cfg.PendingTTL); perr != nil {
			logger.From(ctx).Warn("pending profile not restored", logger.Component("registration"), logger.Err(perr))
		}
	}
	return out, err
}

func (s *Service) providerOptions() []providers.Option {
	return []providers.Option{providers.WithPasswordLength(s.cfg.PasswordLength)}
}

func (s *Service) provision(ctx context.Context, p providers.Provider, res *openid.Result, rc openid.RequestContext, mail string) (*openid.Result, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("registration"), logger.Provider(p.Name()))

	rec, err := p.GenerateUserData(rc)
	if err != nil {
		metrics.Registrations.WithLabelValues(p.Name(), "failed").Inc()
		log.Warn("provider rejected profile", logger.Err(err))
		audit.Log(ctx, audit.EventRegistrationRejected, logger.Provider(p.Name()), logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrProvisioning, err)
	}
	if mail != "" {
		rec.Email = mail
	}
	hash, err := password.Hash(s.cfg.HashParams, rec.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	uid, err := s.users.CreateUser(ctx, &store.User{
		Username:       rec.Username,
		Name:           rec.Name,
		Email:          rec.Email,
		PasswordHash:   hash,
		Role:           rec.Role,
		Balance:        rec.Balance,
		SexID:          rec.SexID,
		CurrencyID:     rec.CurrencyID,
		LanguageCode:   rec.LanguageCode,
		OpenIDIdentity: rec.OpenIDIdentity,
		CreatedAt:      rec.CreatedAt,
	})
	if errors.Is(err, store.ErrDuplicateEmail) {
		metrics.Registrations.WithLabelValues(p.Name(), "duplicate").Inc()
		log.Info("duplicate email", logger.Email(util.MaskEmail(rec.Email)))
		return openid.NewResult(openid.FailureDuplicateEmail, res.Identity(), "A user with this email already exists"), nil
	}
	if err != nil {
		metrics.Registrations.WithLabelValues(p.Name(), "failed").Inc()
		return nil, fmt.Errorf("create user: %w", err)
	}

	identity := rec.Map()
	identity["id"] = uid
	res.WithIdentity(identity)
	metrics.Registrations.WithLabelValues(p.Name(), "created").Inc()
	log.Info("user registered", logger.UserID(uid), logger.Username(rec.Username))
	audit.Log(ctx, audit.EventUserRegistered, logger.UserID(uid), logger.Provider(p.Name()), logger.Identity(rec.OpenIDIdentity))

	s.sendPassword(ctx, rec, p.Name())

	rc.UserID = uid
	if err := p.OnRegister(ctx, rc, s.avatars); err != nil {
		log.Warn("post-registration hook failed", logger.UserID(uid), logger.Err(err))
	}
	return res, nil
}

func (s *Service) sendPassword(ctx context.Context, rec *openid.Record, provider string) {
	if s.mailer == nil || rec.Email == "" {
		return
	}
	subject, html, text, err := email.PasswordMail{Username: rec.Username, Password: rec.Password, Provider: provider}.Render()
	if err == nil {
		err = s.mailer.Send(ctx, rec.Email, subject, html, text)
	}
	if err != nil {
		logger.From(ctx).Warn("password mail not sent", logger.Component("registration"), logger.Email(util.MaskEmail(rec.Email)), logger.Err(err))
	}
}
