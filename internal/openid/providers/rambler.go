package providers

import (
	"strings"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

const ramblerIdentityMarker = "id.rambler.ru/users/"

type rambler struct{ base }

func newRambler(src Source, cfg settings) (Provider, error) {
	return &rambler{base{src: src, cfg: cfg, name: "Rambler", prefix: "rb"}}, nil
}

func (p *rambler) GenerateUsername(string) (string, error) {
	id, ok := segmentAfter(p.identity(), ramblerIdentityMarker)
	if !ok || strings.Contains(id, "/") {
		return "", p.wrongIdentity()
	}
	return p.username(id), nil
}

func (p *rambler) GenerateUserData(rc openid.RequestContext) (*openid.Record, error) {
	username, err := p.GenerateUsername("")
	if err != nil {
		return nil, err
	}
	return p.record(rc, username, username+"@rambler.ru", "")
}
