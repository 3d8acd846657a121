package providers

import (
	"strings"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

const loginzaHostSuffix = ".loginza.ru"

// loginza is Loginza's own OpenID, http://<user>.loginza.ru/.
type loginza struct{ base }

func newLoginza(src Source, cfg settings) (Provider, error) {
	return &loginza{base{src: src, cfg: cfg, name: "Loginza", prefix: "lg"}}, nil
}

func (p *loginza) GenerateUsername(string) (string, error) {
	id, _, ok := strings.Cut(trimScheme(p.identity()), loginzaHostSuffix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", p.wrongIdentity()
	}
	return p.username(id), nil
}

func (p *loginza) GenerateUserData(rc openid.RequestContext) (*openid.Record, error) {
	username, err := p.GenerateUsername("")
	if err != nil {
		return nil, err
	}
	prof := p.profile()
	return p.record(rc, username, prof.String("email"), prof.FirstNonEmpty("name.full_name"))
}
