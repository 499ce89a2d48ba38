package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	s, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, ":4000", s.Server.Listen)
	assert.Equal(t, DriverMemory, s.Store.Driver)
	assert.Equal(t, 5, s.Rewards.PostingPoints)
	assert.True(t, s.GeneratedSecret)
	assert.Len(t, s.Session.Secret, 64)
	require.Len(t, s.Badges, 1)
	assert.Equal(t, "stargazer", s.Badges[0].Name)
}

func TestLoadFileDecodesSections(t *testing.T) {
	p := writeFile(t, `
[server]
listen = "127.0.0.1:9000"
request_timeout_ms = 2500

[store]
driver = "Postgres"
dsn = "postgres://localhost/social"

[session]
secret = "s3cret"
ttl_minutes = 30

[rewards]
posting_badge = "poster"
posting_points = 3

[[badge]]
name = "poster"
logo = "/p.png"
threshold = 10

[[badge]]
name = "sunset"
logo = "/s.png"
threshold = 4
hashtags = ["sunset", "dusk"]
`)
	s, err := LoadFile(p)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", s.Server.Listen)
	assert.Equal(t, 2500, s.Server.TimeoutMS)
	assert.Equal(t, DriverPostgres, s.Store.Driver)
	assert.Equal(t, "s3cret", s.Session.Secret)
	assert.False(t, s.GeneratedSecret)
	assert.Equal(t, "postd_session", s.Session.CookieName)
	assert.Equal(t, "poster", s.Rewards.PostingBadge)
	require.Len(t, s.Badges, 2)
	assert.Equal(t, []string{"sunset", "dusk"}, s.Badges[1].Hashtags)
}

func TestEnvOverridesFile(t *testing.T) {
	p := writeFile(t, "[server]\nlisten = \":1\"\n")
	t.Setenv("SERVER_LISTEN_ADDRESS", ":2")
	t.Setenv("SESSION_SECRET", "from-env")
	t.Setenv("RELAY_TARGETS", "a:1, b:2,")

	s, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, ":2", s.Server.Listen)
	assert.Equal(t, "from-env", s.Session.Secret)
	assert.Equal(t, []string{"a:1", "b:2"}, s.Relay.Targets)
}

func TestLoadUsesAppSettings(t *testing.T) {
	p := writeFile(t, "[rewards]\nposting_points = 9\n")
	t.Setenv("APP_SETTINGS", p)

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9, s.Rewards.PostingPoints)
}

func TestLoadFileRejectsBadToml(t *testing.T) {
	_, err := LoadFile(writeFile(t, "[server\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Settings)
		want string
	}{
		{"unknown driver", func(s *Settings) { s.Store.Driver = "mongo" }, `unknown driver "mongo"`},
		{"postgres without dsn", func(s *Settings) { s.Store.Driver = "postgres" }, "dsn required"},
		{"half tls", func(s *Settings) { s.Server.TLSCert = "c.pem" }, "must be set together"},
		{"zero threshold", func(s *Settings) { s.Badges[0].Threshold = 0 }, "threshold must be > 0"},
		{"duplicate badge", func(s *Settings) {
			s.Badges = append(s.Badges, Badge{Name: " stargazer ", Threshold: 1})
		}, "duplicate name"},
		{"unnamed badge", func(s *Settings) { s.Badges[0].Name = "" }, "name required"},
		{"posting points", func(s *Settings) { s.Rewards.PostingPoints = 0 }, "posting_points"},
		{"relay key", func(s *Settings) {
			s.Relay.Targets = []string{"x:1"}
			s.Relay.AES256Hex = "abc"
		}, "aes256_key_hex"},
		{"relay tls", func(s *Settings) {
			s.Relay.Targets = []string{"x:1"}
			s.Relay.TLS = true
		}, "client_cert"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Defaults()
			s.Session.Secret = "x"
			tc.mut(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateKeepsConfiguredSecret(t *testing.T) {
	s := Defaults()
	s.Session.Secret = "fixed"
	require.NoError(t, s.Validate())
	assert.Equal(t, "fixed", s.Session.Secret)
	assert.False(t, s.GeneratedSecret)
}
