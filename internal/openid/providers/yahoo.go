package providers

import (
	"strings"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

const yahooEmailDomain = "@yahoo.com"

// yahoo identities are opaque (https://me.yahoo.com/a/...), the username
// comes from the profile email instead.
type yahoo struct{ base }

func newYahoo(src Source, cfg settings) (Provider, error) {
	return &yahoo{base{src: src, cfg: cfg, name: "Yahoo", prefix: "yh"}}, nil
}

func (p *yahoo) GenerateUsername(string) (string, error) {
	email := p.profile().String("email")
	local, ok := strings.CutSuffix(email, yahooEmailDomain)
	if !ok || local == "" || strings.Contains(local, "@") {
		return "", p.wrongIdentity()
	}
	return p.username(local), nil
}

func (p *yahoo) GenerateUserData(rc openid.RequestContext) (*openid.Record, error) {
	username, err := p.GenerateUsername("")
	if err != nil {
		return nil, err
	}
	prof := p.profile()
	return p.record(rc, username, prof.String("email"), prof.FirstNonEmpty("displayName"))
}
