package broker

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dropDatabas3/openidgate/internal/openid/providers"
)

var ErrUnknownBrokerage = errors.New("unknown brokerage")

// Endpoint overrides a brokerage's defaults. Zero values keep the default.
type Endpoint struct {
	Protocol string
	Host     string
	APIKey   string
	Params   map[string]string
}

// Factory builds a fresh Broker per request for the enabled brokerages.
type Factory struct {
	endpoints    map[string]Endpoint
	client       HTTPClient
	providerOpts []providers.Option
}

func NewFactory(endpoints map[string]Endpoint, client HTTPClient, providerOpts ...providers.Option) *Factory {
	return &Factory{endpoints: endpoints, client: client, providerOpts: providerOpts}
}

// Names lists the enabled brokerages, sorted.
func (f *Factory) Names() []string {
	out := make([]string, 0, len(f.endpoints))
	for n := range f.endpoints {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (f *Factory) New(name string) (*Broker, error) {
	ep, ok := f.endpoints[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBrokerage, name)
	}
	var bk Brokerage
	switch name {
	case BrokerageLoginza:
		bk = Loginza{}
	case BrokerageRpxnow:
		bk = Rpxnow{APIKey: ep.APIKey}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBrokerage, name)
	}

	opts := []Option{WithEndpoint(ep.Protocol, ep.Host), WithProviderOptions(f.providerOpts...)}
	if f.client != nil {
		opts = append(opts, WithHTTPClient(f.client))
	}
	keys := make([]string, 0, len(ep.Params))
	for k := range ep.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		opts = append(opts, WithParam(k, ep.Params[k]))
	}
	return New(bk, opts...), nil
}
