package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

const (
	mailruIdentityMarker = "my.mail.ru/"
	mailruAvatarURL      = "http://avt.foto.mail.ru/%s/%s/_avatar.jpg"
)

// mailru identities look like http://my.mail.ru/<domain>/<user>/, where
// domain is the mailbox domain without ".ru" (mail, inbox, bk, list).
type mailru struct{ base }

func newMailRu(src Source, cfg settings) (Provider, error) {
	return &mailru{base{src: src, cfg: cfg, name: "MailRu", prefix: "ml"}}, nil
}

// account splits the identity into mailbox domain and user.
func (p *mailru) account() (domain, user string, err error) {
	rest, ok := segmentAfter(p.identity(), mailruIdentityMarker)
	if !ok {
		return "", "", p.wrongIdentity()
	}
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", p.wrongIdentity()
	}
	return parts[0], parts[1], nil
}

func (p *mailru) GenerateUsername(string) (string, error) {
	domain, user, err := p.account()
	if err != nil {
		return "", err
	}
	return p.username(user + "_" + domain), nil
}

// Email is the mailbox behind the identity, empty when it cannot be parsed.
func (p *mailru) Email() string {
	domain, user, err := p.account()
	if err != nil {
		return ""
	}
	return user + "@" + domain + ".ru"
}

func (p *mailru) GenerateUserData(rc openid.RequestContext) (*openid.Record, error) {
	username, err := p.GenerateUsername("")
	if err != nil {
		return nil, err
	}
	return p.record(rc, username, p.Email(), "")
}

func (p *mailru) OnRegister(ctx context.Context, rc openid.RequestContext, avatars AvatarImporter) error {
	if avatars == nil {
		return nil
	}
	domain, user, err := p.account()
	if err != nil {
		return err
	}
	return avatars.Import(ctx, rc.UserID, fmt.Sprintf(mailruAvatarURL, domain, user))
}
