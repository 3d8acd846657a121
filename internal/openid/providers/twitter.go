package providers

import (
	"context"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

const twitterIdentityMarker = "twitter.com/"

// twitter profiles never include an email, so registration goes through
// the extra form.
type twitter struct{ base }

func newTwitter(src Source, cfg settings) (Provider, error) {
	return &twitter{base{src: src, cfg: cfg, name: "Twitter", prefix: "tw", needsForm: true}}, nil
}

func (p *twitter) GenerateUsername(string) (string, error) {
	id, ok := segmentAfter(p.identity(), twitterIdentityMarker)
	if !ok {
		return "", p.wrongIdentity()
	}
	return p.username(id), nil
}

func (p *twitter) GenerateUserData(rc openid.RequestContext) (*openid.Record, error) {
	username, err := p.GenerateUsername("")
	if err != nil {
		return nil, err
	}
	return p.record(rc, username, "", p.profile().FirstNonEmpty("name.full_name"))
}

func (p *twitter) OnRegister(ctx context.Context, rc openid.RequestContext, avatars AvatarImporter) error {
	photo := p.profile().String("photo")
	if photo == "" || avatars == nil {
		return nil
	}
	return avatars.Import(ctx, rc.UserID, photo)
}
