package manifest

// Settings is the top-level settings file.
type Settings struct {
	Server  Server  `toml:"server"`
	Store   Store   `toml:"store"`
	Session Session `toml:"session"`
	Rewards Rewards `toml:"rewards"`
	Relay   Relay   `toml:"relay"`
	Badges  []Badge `toml:"badge"`

	// GeneratedSecret is set by Validate when no session secret was configured.
	GeneratedSecret bool `toml:"-"`
}

type Server struct {
	Listen    string `toml:"listen"`
	TLSCert   string `toml:"tls_cert"`
	TLSKey    string `toml:"tls_key"`
	TimeoutMS int    `toml:"request_timeout_ms"` // response wait only; 0 waits for the handler
}

// TLS reports whether both certificate and key are configured.
func (s Server) TLS() bool { return s.TLSCert != "" && s.TLSKey != "" }

type Store struct {
	Driver string `toml:"driver"` // "memory" | "postgres"
	DSN    string `toml:"dsn"`
}

type Session struct {
	CookieName string `toml:"cookie_name"`
	Secret     string `toml:"secret"`
	TTLMinutes int    `toml:"ttl_minutes"`
	Secure     bool   `toml:"secure"`
}

type Rewards struct {
	PostingBadge  string `toml:"posting_badge"`
	PostingPoints int    `toml:"posting_points"`
}

// Relay configures the activity publisher. An empty target list disables it.
type Relay struct {
	Targets       []string          `toml:"targets"`
	TLS           bool              `toml:"tls"`
	ClientCert    string            `toml:"client_cert"`
	ClientKey     string            `toml:"client_key"`
	CA            string            `toml:"ca"`
	Compress      string            `toml:"compress"` // "" | "snappy"
	AES256Hex     string            `toml:"aes256_key_hex"`
	StaticHeaders map[string]string `toml:"static_headers"`
}

// Badge seeds a reward badge definition at startup.
type Badge struct {
	Name      string   `toml:"name"`
	Logo      string   `toml:"logo"`
	Threshold int      `toml:"threshold"`
	Hashtags  []string `toml:"hashtags"`
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Defaults returns the settings used when no file is present.
func Defaults() Settings {
	return Settings{
		Server:  Server{Listen: ":4000"},
		Store:   Store{Driver: DriverMemory},
		Session: Session{CookieName: "postd_session", TTLMinutes: 24 * 60},
		Rewards: Rewards{PostingBadge: "stargazer", PostingPoints: 5},
		Badges: []Badge{
			{Name: "stargazer", Logo: "/badges/stargazer.png", Threshold: 25},
		},
	}
}
