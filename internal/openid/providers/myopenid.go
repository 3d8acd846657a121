package providers

import (
	"net/url"
	"strings"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

const myopenidHostSuffix = ".myopenid.com"

type myopenid struct{ base }

func newMyOpenid(src Source, cfg settings) (Provider, error) {
	return &myopenid{base{src: src, cfg: cfg, name: "MyOpenid", prefix: "mo"}}, nil
}

func (p *myopenid) GenerateUsername(string) (string, error) {
	u, err := url.Parse(p.identity())
	if err != nil {
		return "", p.wrongIdentity()
	}
	id := strings.TrimSuffix(u.Hostname(), myopenidHostSuffix)
	if id == "" || id == u.Hostname() || strings.Contains(id, ".") {
		return "", p.wrongIdentity()
	}
	return p.username(id), nil
}

func (p *myopenid) GenerateUserData(rc openid.RequestContext) (*openid.Record, error) {
	username, err := p.GenerateUsername("")
	if err != nil {
		return nil, err
	}
	prof := p.profile()
	email := prof.String("email")
	if email == "" {
		email = username + "@myopenid.com"
	}
	return p.record(rc, username, email, prof.FirstNonEmpty("displayName", "name.full_name"))
}
