package manifest

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Validate normalizes s in place and rejects settings the server cannot run with.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Server.Listen) == "" {
		return errors.New("server: listen address required")
	}
	if (s.Server.TLSCert == "") != (s.Server.TLSKey == "") {
		return errors.New("server: tls_cert and tls_key must be set together")
	}
	if s.Server.TimeoutMS < 0 {
		return errors.New("server: request_timeout_ms must be >= 0")
	}

	s.Store.Driver = strings.ToLower(strings.TrimSpace(s.Store.Driver))
	switch s.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(s.Store.DSN) == "" {
			return errors.New("store: dsn required for driver=postgres")
		}
	default:
		return fmt.Errorf("store: unknown driver %q", s.Store.Driver)
	}

	if strings.TrimSpace(s.Session.CookieName) == "" {
		return errors.New("session: cookie_name required")
	}
	if s.Session.TTLMinutes <= 0 {
		return errors.New("session: ttl_minutes must be > 0")
	}
	if s.Session.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("session: generate secret: %w", err)
		}
		s.Session.Secret = secret
		s.GeneratedSecret = true
	}

	if s.Rewards.PostingPoints <= 0 {
		return errors.New("rewards: posting_points must be > 0")
	}

	if err := s.Relay.validate(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(s.Badges))
	for i, b := range s.Badges {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			return fmt.Errorf("badge %d: name required", i)
		}
		if b.Threshold <= 0 {
			return fmt.Errorf("badge %d (%s): threshold must be > 0", i, name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("badge %d: duplicate name %q", i, name)
		}
		seen[name] = struct{}{}
		s.Badges[i].Name = name
	}
	return nil
}

func (r Relay) validate() error {
	if len(r.Targets) == 0 {
		return nil
	}
	switch strings.ToLower(r.Compress) {
	case "", "snappy":
	default:
		return fmt.Errorf("relay: unknown compress %q", r.Compress)
	}
	if k := strings.TrimSpace(r.AES256Hex); k != "" {
		if _, err := hex.DecodeString(k); err != nil || len(k) != 64 {
			return errors.New("relay: aes256_key_hex must be 32 bytes (64 hex)")
		}
	}
	if r.TLS && (r.ClientCert == "" || r.ClientKey == "" || r.CA == "") {
		return errors.New("relay tls: client_cert, client_key, and ca are required when tls=true")
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
