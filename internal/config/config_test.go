package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TICKET_SECRET", "s3cret")
	c, err := Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, "memory", c.Cache.Kind)
	require.Equal(t, 8, c.OpenID.PasswordLength)
	require.Equal(t, 30*time.Minute, Duration(c.OpenID.PendingTTL))
	require.Contains(t, c.Brokers, "loginza")
	require.True(t, c.Brokers["loginza"].IsEnabled())
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	p := writeYAML(t, `
app:
  app_env: prod
openid:
  ticket_secret: from-file
  password_length: 10
brokers:
  rpxnow:
    api_key: file-key
    params:
      extra: "1"
  loginza:
    enabled: false
webdav:
  default_server: static
  servers:
    static: {host: static.local, port: 80}
storage:
  dsn: postgres://u:p@localhost/db
`)
	t.Setenv("RPXNOW_API_KEY", "env-key")
	t.Setenv("WEBDAV_SERVERS", "static=static.local:8081,backup=dav.local")

	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "prod", c.App.Env)
	require.Equal(t, "postgres", c.Storage.Driver)
	require.Equal(t, 10, c.OpenID.PasswordLength)
	require.Equal(t, "env-key", c.Brokers["rpxnow"].APIKey)
	require.Equal(t, "1", c.Brokers["rpxnow"].Params["extra"])
	require.False(t, c.Brokers["loginza"].IsEnabled())
	require.Equal(t, DAVServer{Host: "static.local", Port: 8081}, c.WebDAV.Servers["static"])
	require.Equal(t, DAVServer{Host: "dav.local"}, c.WebDAV.Servers["backup"])
}

func TestLoad_Invalid(t *testing.T) {
	p := writeYAML(t, `
openid:
  pending_ttl: forever
brokers:
  openid: {}
storage:
  driver: postgres
rate:
  enabled: true
  max_requests: -1
`)
	_, err := Load(p)
	require.Error(t, err)
	for _, want := range []string{
		"openid.pending_ttl",
		`unknown brokerage "openid"`,
		"ticket_secret is required",
		"storage.dsn is required",
		"rate.max_requests must be > 0",
	} {
		require.ErrorContains(t, err, want)
	}
}

func TestParseKVList(t *testing.T) {
	require.Equal(t, map[string]string{"a": "1", "b": "x=y"}, parseKVList(" a=1, b=x=y ,c=, =d", ","))
	require.Empty(t, parseKVList("", ","))
}
