package registration

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/openidgate/internal/cache"
	"github.com/dropDatabas3/openidgate/internal/openid"
	"github.com/dropDatabas3/openidgate/internal/openid/broker"
	"github.com/dropDatabas3/openidgate/internal/security/password"
	"github.com/dropDatabas3/openidgate/internal/store/memory"
)

type sentMail struct{ to, subject, text string }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, _, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, text})
	return nil
}

type fakeAvatars struct {
	userID int64
	url    string
}

func (f *fakeAvatars) Import(_ context.Context, userID int64, url string) error {
	f.userID, f.url = userID, url
	return errors.New("avatar host down")
}

var fastHash = password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}

type fixture struct {
	svc     *Service
	users   *memory.Store
	mailer  *fakeMailer
	avatars *fakeAvatars
}

func newFixture() fixture {
	f := fixture{users: memory.New(), mailer: &fakeMailer{}, avatars: &fakeAvatars{}}
	f.svc = New(Config{PendingTTL: time.Minute, PasswordLength: 12, HashParams: fastHash},
		f.users, cache.NewMemory("test", 0), NewTickets([]byte("secret")),
		WithMailer(f.mailer), WithAvatarImporter(f.avatars))
	return f
}

// authenticated returns a broker that resolved the given identity, as after
// a successful Authenticate.
func authenticated(t *testing.T, profile openid.Profile) (*broker.Broker, *openid.Result) {
	t.Helper()
	b := broker.New(broker.Loginza{})
	bp := openid.BrokerProfile{Profile: profile}
	b.SetProfile(bp)
	p, err := b.ResolveProviderByIdentity()
	require.NoError(t, err)
	code := openid.Success
	if p.NeedsExtraForm() {
		code = openid.SuccessNeedExtraData
	}
	return b, openid.NewResult(code, bp.Map())
}

func TestRegister_MailRu(t *testing.T) {
	f := newFixture()
	b, res := authenticated(t, openid.Profile{"identity": "http://my.mail.ru/mail/johndoe"})

	out, err := f.svc.Register(context.Background(), b, res, openid.RequestContext{AcceptLanguage: "ru-RU"})
	require.NoError(t, err)
	require.Equal(t, openid.Success, out.Code())

	id := out.Identity()
	require.Equal(t, "ml_johndoe_mail", id["username"])
	require.Equal(t, "johndoe@mail.ru", id["email"])
	require.Equal(t, "ru", id["language_code"])
	require.NotZero(t, id["id"])
	require.NotContains(t, id, "password")

	users := f.users.Users()
	require.Len(t, users, 1)
	require.True(t, strings.HasPrefix(users[0].PasswordHash, "$argon2id$"))

	require.Len(t, f.mailer.sent, 1)
	require.Equal(t, "johndoe@mail.ru", f.mailer.sent[0].to)

	// the avatar hook ran with the new id; its failure did not fail registration
	require.Equal(t, id["id"], f.avatars.userID)
	require.Equal(t, "http://avt.foto.mail.ru/mail/johndoe/_avatar.jpg", f.avatars.url)
}

func TestRegister_MailedPasswordMatchesHash(t *testing.T) {
	f := newFixture()
	b, res := authenticated(t, openid.Profile{"identity": "http://openid.yandex.ru/jd/"})
	_, err := f.svc.Register(context.Background(), b, res, openid.RequestContext{})
	require.NoError(t, err)

	text := f.mailer.sent[0].text
	i := strings.Index(text, "Password: ")
	require.GreaterOrEqual(t, i, 0)
	pw := strings.TrimSpace(text[i+len("Password: "):])
	require.Len(t, pw, 12)
	require.True(t, password.Verify(pw, f.users.Users()[0].PasswordHash))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b, res := authenticated(t, openid.Profile{"identity": "http://my.mail.ru/mail/johndoe"})
	_, err := f.svc.Register(ctx, b, res, openid.RequestContext{})
	require.NoError(t, err)

	b, res = authenticated(t, openid.Profile{"identity": "http://my.mail.ru/mail/johndoe/"})
	out, err := f.svc.Register(ctx, b, res, openid.RequestContext{})
	require.NoError(t, err)
	require.Equal(t, openid.FailureDuplicateEmail, out.Code())
	require.Len(t, f.users.Users(), 1)
}

func TestRegister_ProviderError(t *testing.T) {
	f := newFixture()
	b, res := authenticated(t, openid.Profile{"identity": "https://www.google.com/accounts/o8/id?id=x"})
	_, err := f.svc.Register(context.Background(), b, res, openid.RequestContext{})
	require.True(t, errors.Is(err, ErrProvisioning))
	require.Empty(t, f.users.Users())
}

func TestRegister_RejectsNonSuccess(t *testing.T) {
	f := newFixture()
	b, _ := authenticated(t, openid.Profile{"identity": "http://twitter.com/jd"})
	_, err := f.svc.Register(context.Background(), b, openid.NewResult(openid.SuccessNeedExtraData, nil), openid.RequestContext{})
	require.True(t, errors.Is(err, ErrNotRegistrable))
}

func TestDeferComplete_Twitter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b, res := authenticated(t, openid.Profile{
		"identity": "http://twitter.com/johndoe",
		"photo":    "http://a0.twimg.com/jd.png",
	})
	require.Equal(t, openid.SuccessNeedExtraData, res.Code())

	ticket, err := f.svc.Defer(ctx, b)
	require.NoError(t, err)
	require.NotEmpty(t, ticket)

	_, err = f.svc.Complete(ctx, ticket, "not-an-email", openid.RequestContext{})
	require.True(t, errors.Is(err, ErrEmailRequired))

	out, err := f.svc.Complete(ctx, ticket, "jd@example.com", openid.RequestContext{AcceptLanguage: "en"})
	require.NoError(t, err)
	require.Equal(t, openid.Success, out.Code())
	require.Equal(t, "tw_johndoe", out.Identity()["username"])
	require.Equal(t, "jd@example.com", out.Identity()["email"])
	require.Equal(t, "http://a0.twimg.com/jd.png", f.avatars.url)

	_, err = f.svc.Complete(ctx, ticket, "jd@example.com", openid.RequestContext{})
	require.True(t, errors.Is(err, ErrTicketInvalid), "a ticket completes once")
}

func TestComplete_DuplicateEmailKeepsTicket(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b, res := authenticated(t, openid.Profile{"identity": "http://my.mail.ru/mail/taken"})
	_, err := f.svc.Register(ctx, b, res, openid.RequestContext{})
	require.NoError(t, err)

	b, _ = authenticated(t, openid.Profile{"identity": "http://twitter.com/jdoe"})
	ticket, err := f.svc.Defer(ctx, b)
	require.NoError(t, err)

	out, err := f.svc.Complete(ctx, ticket, "taken@mail.ru", openid.RequestContext{})
	require.NoError(t, err)
	require.Equal(t, openid.FailureDuplicateEmail, out.Code())

	out, err = f.svc.Complete(ctx, ticket, "fresh@example.com", openid.RequestContext{})
	require.NoError(t, err)
	require.Equal(t, openid.Success, out.Code())
	require.Equal(t, "tw_jdoe", out.Identity()["username"])
	require.Len(t, f.users.Users(), 2)

	_, err = f.svc.Complete(ctx, ticket, "other@example.com", openid.RequestContext{})
	require.True(t, errors.Is(err, ErrTicketInvalid))
}

func TestRegister_MalformedMailRuIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"identity":"http://my.mail.ru/johndoe"}`))
	}))
	defer srv.Close()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	b := broker.New(broker.Loginza{}, broker.WithEndpoint("http", u.Host))
	res := b.Authenticate(context.Background(), "tok")
	require.Equal(t, openid.Success, res.Code(), res.Messages())
	require.Equal(t, "MailRu", b.Provider().Name())

	f := newFixture()
	_, err = f.svc.Register(context.Background(), b, res, openid.RequestContext{})
	require.True(t, errors.Is(err, ErrProvisioning))
	require.Empty(t, f.users.Users())
}

func TestComplete_ForgedTicket(t *testing.T) {
	f := newFixture()
	other := NewTickets([]byte("other-secret"))
	forged, err := other.Sign("abc", "loginza", time.Minute)
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), forged, "a@b.c", openid.RequestContext{})
	require.True(t, errors.Is(err, ErrTicketInvalid))
}

func TestTickets_Expiry(t *testing.T) {
	tk := NewTickets([]byte("s"))
	base := time.Now()
	tk.now = func() time.Time { return base }
	raw, err := tk.Sign("id1", "rpxnow", time.Minute)
	require.NoError(t, err)

	id, err := tk.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "id1", id)

	tk.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = tk.Verify(raw)
	require.True(t, errors.Is(err, ErrTicketInvalid))
}
