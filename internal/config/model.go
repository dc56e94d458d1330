// internal/config/model.go
//
// Typed configuration model for Pursuit.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                           – dotenv values,
//   • `conf/global.yaml`                        – primary static file,
//   • `PURSUIT_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs—only plain strings.
//
// Validation happens immediately after unmarshal; the binary fails fast
// if required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml`
//     tags unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`DSN`) lives in YAML so operators can tweak host, port,
// or flags without touching Vault.  The *password* may be a literal or a
// `vault:` reference resolved at load time; it is substituted into the
// DSN's single %s verb.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"required"`
	Password string `koanf:"password" validate:"required"`
}

//
// GeoIP section (optional)
//

// GeoIP points at a MaxMind city database.  When the path is empty the
// request-info middleware skips geolocation and records UA data only.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

//
// Guard section (companion client)
//

// Guard configures the device-local session guard: where the API lives,
// where the plaintext secret is kept on disk, and how often the guard
// re-checks that the keyfile is still present.
type Guard struct {
	BaseURL         string        `koanf:"base_url" validate:"required,url"`
	Keyfile         string        `koanf:"keyfile"  validate:"required"`
	RecheckInterval time.Duration `koanf:"recheck_interval"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or PURSUIT_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // PURSUIT_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the process lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Guard    Guard    `koanf:"guard"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
