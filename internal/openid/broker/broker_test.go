package broker

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

func brokerageServer(t *testing.T, status int, body string, seen *http.Request) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = *r.Clone(context.Background())
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func hostOf(t *testing.T, srv *httptest.Server) string {
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u.Host
}

func TestLoginza_SuccessResolvesProvider(t *testing.T) {
	var seen http.Request
	srv := brokerageServer(t, 200, `{"identity":"http://openid.aol.com/johndoe","provider":"aol"}`, &seen)
	b := New(Loginza{}, WithEndpoint("http", hostOf(t, srv)))

	res := b.Authenticate(context.Background(), "tok123")

	require.Equal(t, openid.Success, res.Code(), res.Messages())
	require.Equal(t, "Aol", b.Provider().Name())
	profile := res.Identity()["profile"].(map[string]any)
	require.Equal(t, "http://openid.aol.com/johndoe", profile["identity"])

	require.Equal(t, http.MethodPost, seen.Method)
	require.Equal(t, "/api/authinfo", seen.URL.Path)
	require.Equal(t, "tok123", seen.URL.Query().Get("token"))
	require.Equal(t, "gzip,deflate", seen.Header.Get("Accept-Encoding"))
	require.Equal(t, "ru,en-us;q=0.7,en;q=0.3", seen.Header.Get("Accept-Language"))
	require.Contains(t, seen.Header.Get("User-Agent"), "Firefox/3.0.19")
}

func TestAuthenticate_NeedsExtraData(t *testing.T) {
	srv := brokerageServer(t, 200, `{"identity":"http://twitter.com/johndoe"}`, nil)
	b := New(Loginza{}, WithEndpoint("http", hostOf(t, srv)))

	res := b.Authenticate(context.Background(), "t")
	require.Equal(t, openid.SuccessNeedExtraData, res.Code())
	require.Equal(t, "Twitter", b.Provider().Name())
}

func TestAuthenticate_MalformedIdentityStillSucceeds(t *testing.T) {
	for _, body := range []string{
		`{"identity":"http://my.mail.ru/johndoe"}`,
		`{"identity":"http://foto.mail.ru/mail/johndoe"}`,
		`{"identity":"http://openid.yandex.ru/a/b"}`,
	} {
		srv := brokerageServer(t, 200, body, nil)
		b := New(Loginza{}, WithEndpoint("http", hostOf(t, srv)))

		res := b.Authenticate(context.Background(), "t")
		require.Equal(t, openid.Success, res.Code(), res.Messages())
		require.NotNil(t, b.Provider())
		_, err := b.Provider().GenerateUsername("")
		require.Error(t, err)
	}
}

func TestRpxnow_Success(t *testing.T) {
	var seen http.Request
	srv := brokerageServer(t, 200, `{"stat":"ok","profile":{"identifier":"http://my.mail.ru/mail/johndoe","email":"johndoe@mail.ru"}}`, &seen)
	b := New(Rpxnow{APIKey: "k1"}, WithEndpoint("http", hostOf(t, srv)))

	res := b.Authenticate(context.Background(), "abc")
	require.Equal(t, openid.Success, res.Code(), res.Messages())
	require.Equal(t, "MailRu", b.Provider().Name())
	require.Equal(t, "apiKey=k1&format=json&token=abc", seen.URL.RawQuery)
}

func TestRpxnow_ErrIsInvalid(t *testing.T) {
	srv := brokerageServer(t, 200, `{"stat":"fail","err":{"code":2,"msg":"Data not found"}}`, nil)
	b := New(Rpxnow{}, WithEndpoint("http", hostOf(t, srv)))

	res := b.Authenticate(context.Background(), "abc")
	require.Equal(t, openid.Failure, res.Code())
	require.Equal(t, []string{MsgInvalidResponse}, res.Messages())
}

func TestLoginza_ErrorEnvelopeIsInvalid(t *testing.T) {
	srv := brokerageServer(t, 200, `{"error_type":"token_validation","error_message":"Empty token value."}`, nil)
	b := New(Loginza{}, WithEndpoint("http", hostOf(t, srv)))

	res := b.Authenticate(context.Background(), "")
	require.Equal(t, openid.Failure, res.Code())
	require.Equal(t, []string{MsgInvalidResponse}, res.Messages())
}

func TestAuthenticate_MissingIdentityField(t *testing.T) {
	srv := brokerageServer(t, 200, `{"email":"x@y.z"}`, nil)
	b := New(Loginza{}, WithEndpoint("http", hostOf(t, srv)))

	res := b.Authenticate(context.Background(), "t")
	require.Equal(t, openid.Failure, res.Code())
	require.Len(t, res.Messages(), 1)
	require.Contains(t, res.Messages()[0], "identity field does not exist")
}

func TestAuthenticate_UnknownProvider(t *testing.T) {
	srv := brokerageServer(t, 200, `{"identity":"http://example.org/me"}`, nil)
	b := New(Loginza{}, WithEndpoint("http", hostOf(t, srv)))

	res := b.Authenticate(context.Background(), "t")
	require.Equal(t, openid.Failure, res.Code())
	require.Contains(t, res.Messages()[0], "unknown openid provider")
}

func TestAuthenticate_BadJSON(t *testing.T) {
	srv := brokerageServer(t, 200, `<html>oops</html>`, nil)
	b := New(Loginza{}, WithEndpoint("http", hostOf(t, srv)))

	res := b.Authenticate(context.Background(), "t")
	require.Equal(t, openid.Failure, res.Code())
	require.Len(t, res.Messages(), 1)
}

func TestAuthenticate_Non2xx(t *testing.T) {
	srv := brokerageServer(t, 502, `bad gateway`, nil)
	b := New(Loginza{}, WithEndpoint("http", hostOf(t, srv)))

	res := b.Authenticate(context.Background(), "t")
	require.Equal(t, openid.Failure, res.Code())
	require.Equal(t, "openid broker responded with status 502", res.Messages()[0])
}

type failingClient struct{}

func (failingClient) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestAuthenticate_TransportError(t *testing.T) {
	b := New(Loginza{}, WithHTTPClient(failingClient{}))
	res := b.Authenticate(context.Background(), "t")
	require.Equal(t, openid.Failure, res.Code())
	require.Equal(t, []string{"openid broker did not respond: connection refused"}, res.Messages())
}

type panickingClient struct{}

func (panickingClient) Do(*http.Request) (*http.Response, error) { panic("kaboom") }

func TestAuthenticate_NeverPanics(t *testing.T) {
	b := New(Loginza{}, WithHTTPClient(panickingClient{}))
	res := b.Authenticate(context.Background(), "t")
	require.Equal(t, openid.Failure, res.Code())
	require.Len(t, res.Messages(), 1)
}

func TestAuthenticate_GzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write([]byte(`{"identity":"http://openid.yandex.ru/johndoe/"}`))
		_ = gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	b := New(Loginza{}, WithEndpoint("http", hostOf(t, srv)))
	res := b.Authenticate(context.Background(), "t")
	require.Equal(t, openid.Success, res.Code(), res.Messages())
	require.Equal(t, "Yandex", b.Provider().Name())
}

func TestAuthenticate_FollowsOneRedirectOnly(t *testing.T) {
	var final *httptest.Server
	final = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/hop" {
			http.Redirect(w, r, final.URL+"/api/authinfo", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte(`{"identity":"http://openid.aol.com/x"}`))
	}))
	defer final.Close()

	one := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL+"/api/authinfo", http.StatusFound)
	}))
	defer one.Close()
	b := New(Loginza{}, WithEndpoint("http", hostOf(t, one)))
	require.Equal(t, openid.Success, b.Authenticate(context.Background(), "t").Code())

	two := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL+"/hop", http.StatusFound)
	}))
	defer two.Close()
	b = New(Loginza{}, WithEndpoint("http", hostOf(t, two)))
	res := b.Authenticate(context.Background(), "t")
	require.Equal(t, openid.Failure, res.Code())
	require.True(t, strings.HasPrefix(res.Messages()[0], "openid broker did not respond"))
}

func TestURI(t *testing.T) {
	b := New(Rpxnow{APIKey: "k"})
	require.Equal(t, "https://rpxnow.com/api/v2/auth_info?apiKey=k&format=json", b.URI())

	b.SetParam("token", "t1")
	b.SetParam("token", "t2")
	u, err := url.Parse(b.URI())
	require.NoError(t, err)
	require.Equal(t, "https", u.Scheme)
	require.Equal(t, "rpxnow.com", u.Host)
	require.Equal(t, "/api/v2/auth_info", u.Path)
	require.Equal(t, []string{"t2"}, u.Query()["token"])

	require.Equal(t, "http://loginza.ru/api/authinfo", New(Loginza{}).URI())
}

func TestResolveProviderByName(t *testing.T) {
	b := New(Loginza{})
	b.SetProfile(openid.BrokerProfile{Profile: openid.Profile{"identity": "http://twitter.com/jd"}})
	p, err := b.ResolveProviderByName("Twitter")
	require.NoError(t, err)
	require.Same(t, p, b.Provider())

	_, err = b.ResolveProviderByName("Nope")
	require.Error(t, err)
}

func TestFactory(t *testing.T) {
	f := NewFactory(map[string]Endpoint{
		BrokerageLoginza: {},
		BrokerageRpxnow:  {APIKey: "secret", Host: "rpx.local", Params: map[string]string{"extra": "1"}},
	}, nil)
	require.Equal(t, []string{"loginza", "rpxnow"}, f.Names())

	b, err := f.New(BrokerageRpxnow)
	require.NoError(t, err)
	require.Equal(t, "https://rpx.local/api/v2/auth_info?apiKey=secret&format=json&extra=1", b.URI())

	_, err = f.New("openid")
	require.True(t, errors.Is(err, ErrUnknownBrokerage))
}
