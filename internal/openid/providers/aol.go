package providers

import (
	"strings"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

const aolIdentityMarker = "openid.aol.com/"

type aol struct{ base }

func newAol(src Source, cfg settings) (Provider, error) {
	return &aol{base{src: src, cfg: cfg, name: "Aol", prefix: "aol"}}, nil
}

func (p *aol) GenerateUsername(string) (string, error) {
	id, ok := segmentAfter(p.identity(), aolIdentityMarker)
	if !ok || strings.Contains(id, "/") {
		return "", p.wrongIdentity()
	}
	return p.username(id), nil
}

func (p *aol) GenerateUserData(rc openid.RequestContext) (*openid.Record, error) {
	username, err := p.GenerateUsername("")
	if err != nil {
		return nil, err
	}
	return p.record(rc, username, username+"@aol.com", p.profile().FirstNonEmpty("displayName"))
}
