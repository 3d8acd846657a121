package providers

import (
	"net/url"
	"path"
	"strings"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

type facebook struct{ base }

func newFacebook(src Source, cfg settings) (Provider, error) {
	return &facebook{base{src: src, cfg: cfg, name: "Facebook", prefix: "fb"}}, nil
}

// GenerateUsername accepts both http://www.facebook.com/profile.php?id=<n>
// and http://www.facebook.com/<alias>.
func (p *facebook) GenerateUsername(string) (string, error) {
	u, err := url.Parse(p.identity())
	if err != nil || !strings.Contains(u.Host, "facebook.com") {
		return "", p.wrongIdentity()
	}
	if id := u.Query().Get("id"); id != "" {
		return p.username(id), nil
	}
	seg := path.Base(strings.TrimRight(u.Path, "/"))
	if seg == "" || seg == "." || seg == "/" || seg == "profile.php" {
		return "", p.wrongIdentity()
	}
	return p.username(seg), nil
}

func (p *facebook) GenerateUserData(rc openid.RequestContext) (*openid.Record, error) {
	username, err := p.GenerateUsername("")
	if err != nil {
		return nil, err
	}
	prof := p.profile()
	return p.record(rc, username, prof.String("email"), prof.FirstNonEmpty("name.full_name", "displayName"))
}
