package providers

import (
	"fmt"
	"strings"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

type google struct{ base }

func newGoogle(src Source, cfg settings) (Provider, error) {
	return &google{base{src: src, cfg: cfg, name: "Google", prefix: "gl"}}, nil
}

// GenerateUsername uses preferred when given, otherwise the local part of
// the profile email. Google identities carry no readable user id.
func (p *google) GenerateUsername(preferred string) (string, error) {
	if preferred = strings.TrimSpace(preferred); preferred != "" {
		return p.username(preferred), nil
	}
	email := p.profile().String("email")
	local, _, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "", fmt.Errorf("%w: Google", ErrEmailRequired)
	}
	return p.username(local), nil
}

func (p *google) GenerateUserData(rc openid.RequestContext) (*openid.Record, error) {
	prof := p.profile()
	username, err := p.GenerateUsername(prof.FirstNonEmpty("preferredUsername", "nickname"))
	if err != nil {
		return nil, err
	}
	return p.record(rc, username, prof.String("email"), prof.FirstNonEmpty("name.formatted", "name.full_name"))
}
