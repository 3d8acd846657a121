package providers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

func src(identity string, extra ...any) StaticSource {
	p := openid.Profile{"identity": identity}
	for i := 0; i+1 < len(extra); i += 2 {
		p[extra[i].(string)] = extra[i+1]
	}
	return StaticSource{Fields: p, IdentityField: "identity"}
}

func TestByIdentity_ResolvesEachMarker(t *testing.T) {
	cases := []struct {
		identity string
		want     string
	}{
		{"https://www.google.com/accounts/o8/id?id=AItOawk", "Google"},
		{"http://vkontakte.ru/id12345", "Vkontakte"},
		{"http://my.mail.ru/mail/johndoe/", "MailRu"},
		{"http://openid.yandex.ru/johndoe/", "Yandex"},
		{"http://www.facebook.com/profile.php?id=1000", "Facebook"},
		{"http://twitter.com/johndoe", "Twitter"},
		{"http://johndoe.myopenid.com/", "MyOpenid"},
		{"http://openid.aol.com/johndoe", "Aol"},
		{"https://me.yahoo.com/a/xyz", "Yahoo"},
		{"https://123456789012.wmkeeper.com/", "Webmoney"},
		{"http://johndoe.loginza.ru/", "Loginza"},
		{"https://id.rambler.ru/users/johndoe/", "Rambler"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			p, err := ByIdentity(src(tc.identity))
			require.NoError(t, err)
			require.Equal(t, tc.want, p.Name())
		})
	}
}

func TestByIdentity_FirstRuleWins(t *testing.T) {
	// contains both "yandex.ru" and "google"; google comes first.
	p, err := ByIdentity(src("http://openid.yandex.ru/google/"))
	require.NoError(t, err)
	require.Equal(t, "Google", p.Name())

	// "mail.ru" precedes "loginza".
	p, err = ByIdentity(src("http://my.mail.ru/mail/loginza"))
	require.NoError(t, err)
	require.Equal(t, "MailRu", p.Name())
}

func TestByIdentity_MarkerAtStart(t *testing.T) {
	p, err := ByIdentity(src("twitter.com/johndoe"))
	require.NoError(t, err)
	require.Equal(t, "Twitter", p.Name())
}

func TestByIdentity_MissingField(t *testing.T) {
	s := StaticSource{Fields: openid.Profile{"email": "x@y.z"}, IdentityField: "identifier"}
	_, err := ByIdentity(s)
	require.True(t, errors.Is(err, ErrIdentityFieldMissing))
	require.Contains(t, err.Error(), "identifier field does not exist")
}

func TestByIdentity_Unknown(t *testing.T) {
	_, err := ByIdentity(src("http://example.org/someone"))
	require.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestByIdentity_MalformedIdentityFailsLater(t *testing.T) {
	for _, id := range []string{
		"http://my.mail.ru/johndoe",
		"http://foto.mail.ru/mail/johndoe",
		"http://openid.yandex.ru/a/b",
	} {
		t.Run(id, func(t *testing.T) {
			p, err := ByIdentity(src(id))
			require.NoError(t, err)
			_, err = p.GenerateUsername("")
			require.True(t, errors.Is(err, ErrWrongIdentity))
			_, err = p.GenerateUserData(openid.RequestContext{})
			require.True(t, errors.Is(err, ErrWrongIdentity))
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			p, err := ByName(name, src("x"))
			require.NoError(t, err)
			require.Equal(t, name, p.Name())
		})
	}

	_, err := ByName("google", src("x"))
	require.True(t, errors.Is(err, ErrUnknownProvider), "name match is case-sensitive")
	_, err = ByName("Rpxnow", src("x"))
	require.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestByIdentity_FreshInstances(t *testing.T) {
	s := src("http://openid.aol.com/johndoe")
	a, err := ByIdentity(s)
	require.NoError(t, err)
	b, err := ByIdentity(s)
	require.NoError(t, err)
	require.NotSame(t, a, b)
}
