package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

var fixedNow = time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)

func resolve(t *testing.T, s Source) Provider {
	t.Helper()
	p, err := ByIdentity(s, WithPasswordLength(10), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return p
}

func TestAol(t *testing.T) {
	p := resolve(t, src("http://openid.aol.com/johndoe"))
	u, err := p.GenerateUsername("")
	require.NoError(t, err)
	require.Equal(t, "aol_johndoe", u)

	rec, err := p.GenerateUserData(openid.RequestContext{AcceptLanguage: "en-US"})
	require.NoError(t, err)
	require.Equal(t, "aol_johndoe@aol.com", rec.Email)
	require.Equal(t, "aol_johndoe", rec.Name)
	require.Equal(t, "en", rec.LanguageCode)
	require.Len(t, rec.Password, 10)
	require.Equal(t, fixedNow, rec.CreatedAt)
	require.Equal(t, "http://openid.aol.com/johndoe", rec.OpenIDIdentity)
}

func TestAol_WrongIdentity(t *testing.T) {
	p, err := ByName("Aol", src("http://aol.example.com/johndoe"))
	require.NoError(t, err)
	_, err = p.GenerateUsername("")
	require.True(t, errors.Is(err, ErrWrongIdentity))
	require.Contains(t, err.Error(), "Aol")
}

func TestMailRu(t *testing.T) {
	p := resolve(t, src("http://my.mail.ru/mail/johndoe"))
	m := p.(*mailru)
	domain, user, err := m.account()
	require.NoError(t, err)
	require.Equal(t, "johndoe", user)
	require.Equal(t, "mail", domain)
	require.Equal(t, "johndoe@mail.ru", m.Email())

	u, err := p.GenerateUsername("")
	require.NoError(t, err)
	require.Equal(t, "ml_johndoe_mail", u)

	rec, err := p.GenerateUserData(openid.RequestContext{})
	require.NoError(t, err)
	require.Equal(t, "johndoe@mail.ru", rec.Email)
	require.Equal(t, "ml_johndoe_mail", rec.Name)
}

type recordingImporter struct {
	userID int64
	url    string
	err    error
}

func (r *recordingImporter) Import(_ context.Context, userID int64, url string) error {
	r.userID, r.url = userID, url
	return r.err
}

func TestMailRu_OnRegisterImportsAvatar(t *testing.T) {
	p := resolve(t, src("http://my.mail.ru/inbox/jane/"))
	imp := &recordingImporter{}
	require.NoError(t, p.OnRegister(context.Background(), openid.RequestContext{UserID: 7}, imp))
	require.Equal(t, int64(7), imp.userID)
	require.Equal(t, "http://avt.foto.mail.ru/inbox/jane/_avatar.jpg", imp.url)

	imp.err = errors.New("boom")
	require.Error(t, p.OnRegister(context.Background(), openid.RequestContext{UserID: 7}, imp))
}

func TestGoogle(t *testing.T) {
	p := resolve(t, src("https://www.google.com/accounts/o8/id?id=abc",
		"email", "jane.doe@gmail.com",
		"name", map[string]any{"formatted": "Jane Doe"}))

	u, err := p.GenerateUsername("")
	require.NoError(t, err)
	require.Equal(t, "gl_jane.doe", u)

	u, err = p.GenerateUsername("jd")
	require.NoError(t, err)
	require.Equal(t, "gl_jd", u)

	rec, err := p.GenerateUserData(openid.RequestContext{})
	require.NoError(t, err)
	require.Equal(t, "jane.doe@gmail.com", rec.Email)
	require.Equal(t, "Jane Doe", rec.Name)
}

func TestGoogle_WithoutEmail(t *testing.T) {
	p := resolve(t, src("https://www.google.com/accounts/o8/id?id=abc"))
	_, err := p.GenerateUserData(openid.RequestContext{})
	require.True(t, errors.Is(err, ErrEmailRequired))
}

func TestTwitter(t *testing.T) {
	p := resolve(t, src("http://twitter.com/johndoe",
		"photo", "http://a0.twimg.com/johndoe.png",
		"name", map[string]any{"full_name": "John Doe"}))
	require.True(t, p.NeedsExtraForm())

	rec, err := p.GenerateUserData(openid.RequestContext{})
	require.NoError(t, err)
	require.Equal(t, "tw_johndoe", rec.Username)
	require.Empty(t, rec.Email)
	require.Equal(t, "John Doe", rec.Name)

	imp := &recordingImporter{}
	require.NoError(t, p.OnRegister(context.Background(), openid.RequestContext{UserID: 3}, imp))
	require.Equal(t, "http://a0.twimg.com/johndoe.png", imp.url)
}

func TestTwitter_NoPhotoSkipsImport(t *testing.T) {
	p := resolve(t, src("http://twitter.com/johndoe"))
	imp := &recordingImporter{}
	require.NoError(t, p.OnRegister(context.Background(), openid.RequestContext{UserID: 3}, imp))
	require.Empty(t, imp.url)
}

func TestUsernames(t *testing.T) {
	cases := []struct {
		name string
		s    StaticSource
		want string
	}{
		{"vkontakte", src("http://vkontakte.ru/id12345"), "vk_id12345"},
		{"yandex", src("http://openid.yandex.ru/johndoe/"), "ya_johndoe"},
		{"facebook id", src("http://www.facebook.com/profile.php?id=1000"), "fb_1000"},
		{"facebook alias", src("http://www.facebook.com/johndoe"), "fb_johndoe"},
		{"myopenid", src("http://johndoe.myopenid.com/"), "mo_johndoe"},
		{"yahoo", src("https://me.yahoo.com/a/xyz", "email", "johndoe@yahoo.com"), "yh_johndoe"},
		{"webmoney", src("https://123456789012.wmkeeper.com/"), "wm_123456789012"},
		{"loginza", src("http://johndoe.loginza.ru/"), "lg_johndoe"},
		{"rambler", src("https://id.rambler.ru/users/johndoe/"), "rb_johndoe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := resolve(t, tc.s)
			u, err := p.GenerateUsername("")
			require.NoError(t, err)
			require.Equal(t, tc.want, u)
		})
	}
}

func TestFabricatedEmails(t *testing.T) {
	rec, err := resolve(t, src("http://openid.yandex.ru/johndoe/")).GenerateUserData(openid.RequestContext{})
	require.NoError(t, err)
	require.Equal(t, "johndoe@yandex.ru", rec.Email)

	rec, err = resolve(t, src("https://id.rambler.ru/users/johndoe/")).GenerateUserData(openid.RequestContext{})
	require.NoError(t, err)
	require.Equal(t, "rb_johndoe@rambler.ru", rec.Email)

	rec, err = resolve(t, src("http://vkontakte.ru/id1", "email", "v@example.com")).GenerateUserData(openid.RequestContext{})
	require.NoError(t, err)
	require.Equal(t, "v@example.com", rec.Email)
}

func TestWrongIdentities(t *testing.T) {
	cases := []struct {
		name string
		s    StaticSource
	}{
		{"Yahoo", src("https://me.yahoo.com/a/xyz", "email", "johndoe@gmail.com")},
		{"Webmoney", src("https://wmkeeper.com/")},
		{"Loginza", src("http://loginza.ru/")},
		{"Rambler", src("http://rambler.ru/johndoe")},
		{"Twitter", src("http://twitter.com/")},
		{"Yahoo", src("https://me.yahoo.com/a/xyz", "email", "a@yahoo.com.evil")},
		{"Aol", src("http://openid.aol.com/a/b")},
		{"MailRu", src("http://my.mail.ru/johndoe")},
		{"Yandex", src("http://openid.yandex.ru/a/b")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ByName(tc.name, tc.s)
			require.NoError(t, err)
			_, err = p.GenerateUserData(openid.RequestContext{})
			require.True(t, errors.Is(err, ErrWrongIdentity), "got %v", err)
		})
	}
}

func TestExtraFormProviders(t *testing.T) {
	want := map[string]bool{"Twitter": true, "Webmoney": true}
	for _, name := range Names() {
		p, err := ByName(name, src("x"))
		require.NoError(t, err)
		require.Equal(t, want[name], p.NeedsExtraForm(), name)
	}
}
