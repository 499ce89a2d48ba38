package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// DefaultPath is read when APP_SETTINGS is unset.
const DefaultPath = "settings.toml"

// Load reads the file named by APP_SETTINGS (or DefaultPath), applies
// environment overrides and validates the result. A missing file yields defaults.
func Load() (Settings, error) {
	return LoadFile(envOr("APP_SETTINGS", DefaultPath))
}

func LoadFile(path string) (Settings, error) {
	s := Defaults()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Settings{}, err
	default:
		if err := Decode(b, &s); err != nil {
			return Settings{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	s.applyEnv()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Decode unmarshals TOML over s, so fields absent from b keep their current values.
func Decode(b []byte, s *Settings) error {
	seeded := s.Badges
	s.Badges = nil
	if err := toml.Unmarshal(b, s); err != nil {
		return err
	}
	if s.Badges == nil {
		s.Badges = seeded
	}
	return nil
}

func (s *Settings) applyEnv() {
	s.Server.Listen = envOr("SERVER_LISTEN_ADDRESS", s.Server.Listen)
	s.Server.TLSCert = envOr("SSL_SERVER_CERTIFICATE", s.Server.TLSCert)
	s.Server.TLSKey = envOr("SSL_SERVER_KEY", s.Server.TLSKey)
	s.Store.Driver = envOr("STORE_DRIVER", s.Store.Driver)
	s.Store.DSN = envOr("DATABASE_URL", s.Store.DSN)
	s.Session.Secret = envOr("SESSION_SECRET", s.Session.Secret)
	s.Session.CookieName = envOr("SESSION_COOKIE_NAME", s.Session.CookieName)
	if v := os.Getenv("RELAY_TARGETS"); v != "" {
		s.Relay.Targets = splitCSV(v)
	}
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}
