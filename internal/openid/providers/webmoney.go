package providers

import (
	"strings"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

const webmoneyHostSuffix = ".wmkeeper.com"

type webmoney struct{ base }

func newWebmoney(src Source, cfg settings) (Provider, error) {
	return &webmoney{base{src: src, cfg: cfg, name: "Webmoney", prefix: "wm", needsForm: true}}, nil
}

// GenerateUsername takes the WMID from https://<wmid>.wmkeeper.com/.
func (p *webmoney) GenerateUsername(string) (string, error) {
	id, _, ok := strings.Cut(trimScheme(p.identity()), webmoneyHostSuffix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", p.wrongIdentity()
	}
	return p.username(id), nil
}

func (p *webmoney) GenerateUserData(rc openid.RequestContext) (*openid.Record, error) {
	username, err := p.GenerateUsername("")
	if err != nil {
		return nil, err
	}
	return p.record(rc, username, "", "")
}
