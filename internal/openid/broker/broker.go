// Package broker performs the token verification round trip against an
// identity brokerage (Loginza, Rpxnow) and turns the answer into an
// openid.Result.
package broker

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dropDatabas3/openidgate/internal/metrics"
	"github.com/dropDatabas3/openidgate/internal/observability/logger"
	"github.com/dropDatabas3/openidgate/internal/openid"
	"github.com/dropDatabas3/openidgate/internal/openid/providers"
)

// MsgInvalidResponse is the failure message for profiles rejected by a
// brokerage's validity check.
const MsgInvalidResponse = "Error received from provider"

// Options describes a brokerage endpoint.
type Options struct {
	Protocol      string
	Host          string
	Path          string
	Method        string
	IdentityField string
	Params        *openid.Params
}

func (o Options) clone() Options {
	o.Params = o.Params.Clone()
	return o
}

// Brokerage supplies the endpoint and response handling of one brokerage.
type Brokerage interface {
	Name() string
	Options() Options
	// NormalizeUserData decodes a raw response into {profile: ...}.
	NormalizeUserData(body []byte) (openid.BrokerProfile, error)
	IsValid(p openid.BrokerProfile) bool
}

// Broker runs one authentication. It keeps the profile and provider of the
// last call, so a Broker must not be shared between concurrent requests.
type Broker struct {
	brokerage    Brokerage
	opts         Options
	client       HTTPClient
	profile      openid.BrokerProfile
	provider     providers.Provider
	providerOpts []providers.Option
}

type Option func(*Broker)

// WithHTTPClient replaces the lazily built default client.
func WithHTTPClient(c HTTPClient) Option {
	return func(b *Broker) { b.client = c }
}

// WithProviderOptions forwards options to every provider the broker resolves.
func WithProviderOptions(opts ...providers.Option) Option {
	return func(b *Broker) { b.providerOpts = append(b.providerOpts, opts...) }
}

// WithEndpoint overrides protocol and host, leaving empty values alone.
func WithEndpoint(protocol, host string) Option {
	return func(b *Broker) {
		if protocol != "" {
			b.opts.Protocol = protocol
		}
		if host != "" {
			b.opts.Host = host
		}
	}
}

// WithParam sets a request parameter on top of the brokerage defaults.
func WithParam(name, value string) Option {
	return func(b *Broker) { b.opts.Params.Set(name, value) }
}

func New(bk Brokerage, opts ...Option) *Broker {
	b := &Broker{brokerage: bk, opts: bk.Options().clone()}
	if b.opts.Params == nil {
		b.opts.Params = openid.NewParams()
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Broker) Name() string { return b.brokerage.Name() }

func (b *Broker) SetParam(name, value string) { b.opts.Params.Set(name, value) }

// URI renders protocol://host/path[?params] with params in insertion order.
func (b *Broker) URI() string {
	var sb strings.Builder
	proto := b.opts.Protocol
	if proto == "" {
		proto = "http"
	}
	sb.WriteString(proto)
	sb.WriteString("://")
	sb.WriteString(b.opts.Host)
	if !strings.HasPrefix(b.opts.Path, "/") {
		sb.WriteByte('/')
	}
	sb.WriteString(b.opts.Path)
	if q := b.opts.Params.Encode(); q != "" {
		sb.WriteByte('?')
		sb.WriteString(q)
	}
	return sb.String()
}

// Source implementation, read by providers.

func (b *Broker) Profile() openid.Profile   { return b.profile.Profile }
func (b *Broker) IdentityFieldName() string { return b.opts.IdentityField }
func (b *Broker) IdentityURL() string       { return providers.IdentityURL(b) }

// BrokerProfile returns the normalized profile of the last call.
func (b *Broker) BrokerProfile() openid.BrokerProfile { return b.profile }

// SetProfile installs a profile without a round trip.
func (b *Broker) SetProfile(p openid.BrokerProfile) {
	b.profile = p
	b.provider = nil
}

// Provider returns the provider resolved by the last call, or nil.
func (b *Broker) Provider() providers.Provider { return b.provider }

func (b *Broker) ResolveProviderByIdentity() (providers.Provider, error) {
	p, err := providers.ByIdentity(b, b.providerOpts...)
	if err != nil {
		return nil, err
	}
	b.provider = p
	metrics.ProviderResolutions.WithLabelValues(p.Name()).Inc()
	return p, nil
}

func (b *Broker) ResolveProviderByName(name string) (providers.Provider, error) {
	p, err := providers.ByName(name, b, b.providerOpts...)
	if err != nil {
		return nil, err
	}
	b.provider = p
	return p, nil
}

// Authenticate verifies token with the brokerage. Every failure is folded
// into a Failure result carrying one message; it never returns an error.
func (b *Broker) Authenticate(ctx context.Context, token string) (res *openid.Result) {
	log := logger.From(ctx).With(logger.Component("openid.broker"), logger.Brokerage(b.Name()))
	defer func() {
		if r := recover(); r != nil {
			log.Error("broker panic", zap.Any("panic", r))
			res = openid.NewResult(openid.Failure, nil, fmt.Sprintf("unexpected broker failure: %v", r))
		}
		metrics.ObserveAuth(b.Name(), int(res.Code()))
	}()

	b.provider = nil
	b.profile = openid.BrokerProfile{}
	b.SetParam("token", token)

	body, err := b.send(ctx, log)
	if err != nil {
		log.Warn("brokerage request failed", logger.Err(err))
		return openid.NewResult(openid.Failure, nil, err.Error())
	}

	profile, err := b.brokerage.NormalizeUserData(body)
	if err != nil {
		log.Warn("brokerage response not decodable", logger.Err(err))
		return openid.NewResult(openid.Failure, nil, fmt.Sprintf("cannot decode brokerage response: %v", err))
	}
	if !b.brokerage.IsValid(profile) {
		log.Warn("brokerage rejected token")
		return openid.NewResult(openid.Failure, nil, MsgInvalidResponse)
	}
	b.profile = profile

	p, err := b.ResolveProviderByIdentity()
	if err != nil {
		log.Warn("provider not resolved", logger.Identity(b.IdentityURL()), logger.Err(err))
		return openid.NewResult(openid.Failure, nil, err.Error())
	}

	code := openid.Success
	if p.NeedsExtraForm() {
		code = openid.SuccessNeedExtraData
	}
	log.Debug("openid authenticated", logger.Provider(p.Name()), logger.Identity(b.IdentityURL()), logger.ResultCode(int(code)))
	return openid.NewResult(code, profile.Map())
}

func (b *Broker) send(ctx context.Context, log *zap.Logger) ([]byte, error) {
	if b.client == nil {
		b.client = NewHTTPClient()
	}
	method := strings.ToUpper(b.opts.Method)
	if method == "" {
		method = http.MethodPost
	}
	uri := b.URI()

	req, err := http.NewRequestWithContext(ctx, method, uri, bytes.NewReader(nil))
	if err != nil {
		return nil, fmt.Errorf("openid broker did not respond: %w", err)
	}
	for _, h := range brokerHeaders {
		req.Header.Set(h[0], h[1])
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openid broker did not respond: %w", err)
	}
	defer resp.Body.Close()

	log.Debug("brokerage responded", logger.Method(method), logger.Path(b.opts.Path), logger.Status(resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("openid broker responded with status %d", resp.StatusCode)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("openid broker response unreadable: %w", err)
	}
	return body, nil
}
