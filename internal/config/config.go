// Package config loads the tool configuration from an optional YAML file and
// ACCREQ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aretw0/accreq/pkg/domain"
	"github.com/aretw0/accreq/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ACCREQ_HTTP_ADDR.
const EnvPrefix = "ACCREQ"

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
	SessionFile   = "file"
)

// Config holds application configuration.
type Config struct {
	Site     domain.SiteConfiguration `mapstructure:"site" yaml:"site"`
	HTTP     HTTPConfig               `mapstructure:"http" yaml:"http"`
	Database DatabaseConfig           `mapstructure:"database" yaml:"database"`
	Session  SessionConfig            `mapstructure:"session" yaml:"session"`
	Redis    RedisConfig              `mapstructure:"redis" yaml:"redis"`
	Log      LogConfig                `mapstructure:"log" yaml:"log"`
	Identity IdentityConfig           `mapstructure:"identity" yaml:"identity"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is sqlite3 or postgres.
	Driver      string `mapstructure:"driver" yaml:"driver"`
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate" yaml:"auto_migrate"`
}

type SessionConfig struct {
	// Backend is memory, file or redis.
	Backend    string        `mapstructure:"backend" yaml:"backend"`
	CookieName string        `mapstructure:"cookie_name" yaml:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Secure     bool          `mapstructure:"secure" yaml:"secure"`
	// Dir holds the session files of the file backend.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// EncryptionKey (base64, 32 bytes) seals sessions at rest when set.
	EncryptionKey string   `mapstructure:"encryption_key" yaml:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys" yaml:"fallback_keys"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	// Format is text or json.
	Format string `mapstructure:"format" yaml:"format"`
}

type IdentityConfig struct {
	// Header carries the username authenticated by the fronting proxy. Empty
	// disables it; only set it behind a proxy that strips the header from
	// client requests.
	Header string `mapstructure:"header" yaml:"header"`
}

const identityHeaderComment = "trusted verbatim; set only behind a proxy that strips it from client requests, empty disables"

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.base_url", "http://localhost:8080")
	v.SetDefault("site.script_path", "")
	v.SetDefault("site.tool_name", "Account Creation Assistance")
	v.SetDefault("site.enforce_oauth", false)
	v.SetDefault("site.created_template_id", 0)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "accreq.db")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("session.backend", SessionMemory)
	v.SetDefault("session.cookie_name", "accreq_session")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.secure", false)
	v.SetDefault("session.dir", ".accreq/sessions")
	v.SetDefault("session.encryption_key", "")
	v.SetDefault("session.fallback_keys", []string{})

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "accreq:session:")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("identity.header", "")
}

// Load reads configuration from path (or ACCREQ_CONFIG, or ./accreq.yaml when
// present) and the environment. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("accreq")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// AllSettings resolves env overrides for every key that has a default.
	c, err := decode(v.AllSettings())
	if err != nil {
		return nil, err
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func decode(settings map[string]any) (*Config, error) {
	var c Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &c,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(settings); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func (c *Config) normalize() {
	c.Site.ScriptPath = strings.TrimRight(c.Site.ScriptPath, "/")
	c.Site.BaseURL = strings.TrimRight(c.Site.BaseURL, "/")
}

// Validate rejects settings the tool cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported %q", c.Database.Driver))
	}
	switch c.Session.Backend {
	case SessionMemory, SessionRedis, SessionFile:
	default:
		errs = append(errs, fmt.Errorf("session.backend: unsupported %q", c.Session.Backend))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported %q", c.Log.Format))
	}
	if c.Site.ScriptPath != "" && !strings.HasPrefix(c.Site.ScriptPath, "/") {
		errs = append(errs, fmt.Errorf("site.script_path: must start with '/', got %q", c.Site.ScriptPath))
	}
	if c.Session.EncryptionKey != "" {
		if _, err := middleware.ParseKeys(c.Session.EncryptionKey, c.Session.FallbackKeys); err != nil {
			errs = append(errs, fmt.Errorf("session: %w", err))
		}
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookie_name: must not be empty"))
	}
	return errors.Join(errs...)
}

// Dump writes the effective configuration as YAML with secrets masked.
func Dump(c *Config, w io.Writer) error {
	redacted := *c
	if redacted.Redis.Password != "" {
		redacted.Redis.Password = "********"
	}
	if redacted.Session.EncryptionKey != "" {
		redacted.Session.EncryptionKey = "********"
	}
	if n := len(c.Session.FallbackKeys); n > 0 {
		redacted.Session.FallbackKeys = make([]string, n)
		for i := range redacted.Session.FallbackKeys {
			redacted.Session.FallbackKeys[i] = "********"
		}
	}
	if c.Database.Driver == "postgres" && strings.Contains(c.Database.DSN, "password") {
		redacted.Database.DSN = "********"
	}

	var doc yaml.Node
	if err := doc.Encode(&redacted); err != nil {
		return err
	}
	commentKey(&doc, identityHeaderComment, "identity", "header")

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

// commentKey attaches a line comment to the value found under path.
func commentKey(n *yaml.Node, comment string, path ...string) {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for i, key := range path {
		if n.Kind != yaml.MappingNode {
			return
		}
		var next *yaml.Node
		for j := 0; j+1 < len(n.Content); j += 2 {
			if n.Content[j].Value == key {
				next = n.Content[j+1]
				break
			}
		}
		if next == nil {
			return
		}
		if i == len(path)-1 {
			next.LineComment = comment
			return
		}
		n = next
	}
}
