package providers

import (
	"strings"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

const vkontakteIdentityMarker = "vkontakte.ru/"

type vkontakte struct{ base }

func newVkontakte(src Source, cfg settings) (Provider, error) {
	return &vkontakte{base{src: src, cfg: cfg, name: "Vkontakte", prefix: "vk"}}, nil
}

func (p *vkontakte) GenerateUsername(string) (string, error) {
	id, ok := segmentAfter(p.identity(), vkontakteIdentityMarker)
	if !ok || strings.Contains(id, "/") {
		return "", p.wrongIdentity()
	}
	return p.username(id), nil
}

func (p *vkontakte) GenerateUserData(rc openid.RequestContext) (*openid.Record, error) {
	username, err := p.GenerateUsername("")
	if err != nil {
		return nil, err
	}
	prof := p.profile()
	email := prof.String("email")
	if email == "" {
		email = username + "@vkontakte.ru"
	}
	name := prof.FirstNonEmpty("name.full_name")
	if name == "" {
		name = strings.TrimSpace(prof.Nested("name", "first_name") + " " + prof.Nested("name", "last_name"))
	}
	if name == "" {
		name = prof.String("nickname")
	}
	return p.record(rc, username, email, name)
}
