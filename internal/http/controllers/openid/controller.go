// Package openid contains the controllers of the openid broker routes.
package openid

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/openidgate/internal/http/dto/openid"
	httperrors "github.com/dropDatabas3/openidgate/internal/http/errors"
	"github.com/dropDatabas3/openidgate/internal/observability/logger"
	"github.com/dropDatabas3/openidgate/internal/openid"
	"github.com/dropDatabas3/openidgate/internal/openid/broker"
	"github.com/dropDatabas3/openidgate/internal/openid/providers"
	"github.com/dropDatabas3/openidgate/internal/registration"
)

// BrokerFactory builds a fresh broker per request.
type BrokerFactory interface {
	New(name string) (*broker.Broker, error)
	Names() []string
}

// Registrar is the subset of registration.Service used here.
type Registrar interface {
	Register(ctx context.Context, auth registration.Authenticated, res *openid.Result, rc openid.RequestContext) (*openid.Result, error)
	Defer(ctx context.Context, auth registration.Authenticated) (string, error)
	Complete(ctx context.Context, ticket, mail string, rc openid.RequestContext) (*openid.Result, error)
}

type Controller struct {
	brokers BrokerFactory
	reg     Registrar
}

func NewController(brokers BrokerFactory, reg Registrar) *Controller {
	return &Controller{brokers: brokers, reg: reg}
}

// Callback maneja POST|GET /v1/auth/openid/{brokerage}/callback
func (c *Controller) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "brokerage")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("OpenID.Callback"), logger.Brokerage(name))

	token := strings.TrimSpace(r.FormValue("token"))
	if token == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("token is required"))
		return
	}

	b, err := c.brokers.New(name)
	if errors.Is(err, broker.ErrUnknownBrokerage) {
		httperrors.WriteError(w, httperrors.ErrUnknownBrokerage.WithDetail(name))
		return
	}
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	res := b.Authenticate(ctx, token)
	switch res.Code() {
	case openid.Success:
		out, err := c.reg.Register(ctx, b, res, requestContext(r))
		if err != nil {
			log.Warn("registration failed", logger.Err(err))
			httperrors.WriteError(w, mapRegistrationError(err))
			return
		}
		writeResult(w, out)
	case openid.SuccessNeedExtraData:
		ticket, err := c.reg.Defer(ctx, b)
		if err != nil {
			log.Error("cannot defer registration", logger.Err(err))
			httperrors.WriteError(w, mapRegistrationError(err))
			return
		}
		writeJSON(w, http.StatusAccepted, dto.PendingResponse{
			Code:     int(res.Code()),
			Status:   res.Code().String(),
			Ticket:   ticket,
			Provider: b.Provider().Name(),
		})
	default:
		writeResult(w, res)
	}
}

// Complete maneja POST /v1/auth/openid/complete
func (c *Controller) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("OpenID.Complete"))

	var req dto.CompleteRequest
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if strings.TrimSpace(req.Ticket) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("ticket is required"))
		return
	}

	res, err := c.reg.Complete(ctx, req.Ticket, req.Email, requestContext(r))
	if err != nil {
		log.Info("registration not completed", logger.Err(err))
		httperrors.WriteError(w, mapRegistrationError(err))
		return
	}
	writeResult(w, res)
}

// Providers maneja GET /v1/auth/openid/providers
func (c *Controller) Providers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.ProvidersResponse{
		Providers:  providers.Names(),
		Brokerages: c.brokers.Names(),
	})
}

func requestContext(r *http.Request) openid.RequestContext {
	return openid.RequestContext{AcceptLanguage: r.Header.Get("Accept-Language")}
}

func mapRegistrationError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, registration.ErrTicketInvalid):
		return httperrors.ErrTicketExpired.WithCause(err)
	case errors.Is(err, registration.ErrEmailRequired):
		return httperrors.ErrInvalidEmail.WithCause(err)
	case errors.Is(err, registration.ErrProvisioning), errors.Is(err, registration.ErrNotRegistrable):
		return httperrors.ErrProvisioning.WithDetail(err.Error()).WithCause(err)
	default:
		return httperrors.FromError(err)
	}
}

func writeResult(w http.ResponseWriter, res *openid.Result) {
	status := http.StatusOK
	switch {
	case res.Code() == openid.FailureDuplicateEmail:
		status = http.StatusConflict
	case !res.IsValid():
		status = http.StatusUnauthorized
	}
	body := dto.ResultResponse{
		Code:     int(res.Code()),
		Status:   res.Code().String(),
		Messages: res.Messages(),
	}
	if res.IsValid() {
		body.Identity = res.Identity()
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
