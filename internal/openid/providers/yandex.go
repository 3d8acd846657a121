package providers

import (
	"strings"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

const yandexIdentityMarker = "openid.yandex.ru/"

type yandex struct{ base }

func newYandex(src Source, cfg settings) (Provider, error) {
	return &yandex{base{src: src, cfg: cfg, name: "Yandex", prefix: "ya"}}, nil
}

func (p *yandex) user() (string, error) {
	user, ok := segmentAfter(p.identity(), yandexIdentityMarker)
	if !ok || strings.Contains(user, "/") {
		return "", p.wrongIdentity()
	}
	return user, nil
}

func (p *yandex) GenerateUsername(string) (string, error) {
	user, err := p.user()
	if err != nil {
		return "", err
	}
	return p.username(user), nil
}

func (p *yandex) GenerateUserData(rc openid.RequestContext) (*openid.Record, error) {
	user, err := p.user()
	if err != nil {
		return nil, err
	}
	return p.record(rc, p.username(user), user+"@yandex.ru", "")
}
