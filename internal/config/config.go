package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Config holds the configuration for the Foodgram server and its dependencies.
type Config struct {
	// Listen is the address the Foodgram server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the public base URL of the server, used for pagination links and media URLs.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// SessionKey is the key used to sign session cookies.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Media holds the configuration of the uploaded image store.
	Media *MediaConfig `yaml:"media" mapstructure:"media"`
	// Pagination holds the page size limits of list endpoints.
	Pagination *PaginationConfig `yaml:"pagination" mapstructure:"pagination"`
	// Cache holds the catalog cache configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
	// Email holds the configuration for new recipe notifications.
	Email *EmailConfig `yaml:"email" mapstructure:"email"`
	// WebPush holds the configuration for browser push notifications.
	WebPush *WebPushConfig `yaml:"webpush" mapstructure:"webpush"`
	// OIDC holds the single sign-on configuration.
	OIDC *OIDCConfig `yaml:"oidc" mapstructure:"oidc"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// MediaConfig holds the configuration of the image store.
type MediaConfig struct {
	// Path is the directory uploaded recipe images are written to.
	Path string `yaml:"path" mapstructure:"path"`
	// MaxWidth and MaxHeight bound stored images. Larger images are scaled down.
	MaxWidth  int `yaml:"max_width" mapstructure:"max_width"`
	MaxHeight int `yaml:"max_height" mapstructure:"max_height"`
	// PruneInterval is how often images without a recipe are removed. 0 disables pruning.
	PruneInterval time.Duration `yaml:"prune_interval" mapstructure:"prune_interval"`
	// PruneGrace protects images younger than this from pruning.
	PruneGrace time.Duration `yaml:"prune_grace" mapstructure:"prune_grace"`
}

// PaginationConfig holds the page size limits.
type PaginationConfig struct {
	// PageSize is used when the client sends no limit.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`
	// MaxPageSize caps the limit a client may request.
	MaxPageSize int `yaml:"max_page_size" mapstructure:"max_page_size"`
}

// CacheConfig holds the configuration for the cache engine.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the Redis server if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TTL is the lifetime of cached catalog entries in seconds.
	TTL int `yaml:"ttl" mapstructure:"ttl"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// EmailConfig holds the SMTP settings used to notify followers about new recipes.
type EmailConfig struct {
	// Enabled indicates whether email notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// SMTPHost is the SMTP server host.
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	// SMTPPort is the SMTP server port.
	SMTPPort int `yaml:"smtp_port" mapstructure:"smtp_port"`
	// Username is the SMTP username.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the SMTP password.
	Password string `yaml:"password" mapstructure:"password"`
	// FromEmail is the sender address.
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	// FromName is the sender display name.
	FromName string `yaml:"from_name" mapstructure:"from_name"`
	// UseTLS enables STARTTLS.
	UseTLS bool `yaml:"use_tls" mapstructure:"use_tls"`
	// UseSSL enables implicit TLS.
	UseSSL bool `yaml:"use_ssl" mapstructure:"use_ssl"`
	// InsecureSkipVerify disables certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// WebPushConfig holds the VAPID settings for browser push notifications.
type WebPushConfig struct {
	// Enabled indicates whether push notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// VAPIDEmail is the contact address sent to push services.
	VAPIDEmail string `yaml:"vapid_email" mapstructure:"vapid_email"`
	// PublicKey is the VAPID public key handed to browsers.
	PublicKey string `yaml:"public_key" mapstructure:"public_key"`
	// PrivateKey is the VAPID private key.
	PrivateKey string `yaml:"private_key" mapstructure:"private_key"`
}

// OIDCConfig holds the OpenID Connect single sign-on configuration.
type OIDCConfig struct {
	// Enabled indicates whether sign in with the identity provider is offered.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Issuer is the URL of the identity provider.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// ClientID is the OAuth2 client id.
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	// ClientSecret is the OAuth2 client secret.
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	// RedirectURL is the callback URL registered with the provider.
	// Defaults to <server_url>/api/auth/oidc/callback/.
	RedirectURL string `yaml:"redirect_url" mapstructure:"redirect_url"`
	// AdminGroup grants admin rights to members of this group claim.
	AdminGroup string `yaml:"admin_group" mapstructure:"admin_group"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
// A missing config file is not an error, defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("FOODGRAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.foodgram")
		v.AddConfigPath("/etc/foodgram")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with the FOODGRAM_ prefix override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:8000")
	v.SetDefault("server_url", "http://localhost:8000")
	v.SetDefault("session_max_age", 1209600) // two weeks
	v.SetDefault("session_key", "")

	v.SetDefault("database.path", "./data/foodgram.db")

	v.SetDefault("media.path", "./data/media")
	v.SetDefault("media.max_width", 1920)
	v.SetDefault("media.max_height", 1080)
	v.SetDefault("media.prune_interval", "24h")
	v.SetDefault("media.prune_grace", "1h")

	v.SetDefault("pagination.page_size", 10)
	v.SetDefault("pagination.max_page_size", 10)

	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 300)

	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "identicon")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 80)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.from_name", "Foodgram")
	v.SetDefault("email.use_tls", true)

	v.SetDefault("webpush.enabled", false)

	v.SetDefault("oidc.enabled", false)
}

func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing foodgram config")
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}

	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Media == nil || c.Media.Path == "" {
		return fmt.Errorf("media path is required")
	}
	if c.Media.MaxWidth < 0 || c.Media.MaxHeight < 0 {
		return fmt.Errorf("media max width and height must not be negative")
	}
	if c.Media.PruneInterval < 0 || c.Media.PruneGrace < 0 {
		return fmt.Errorf("media prune interval and grace must not be negative")
	}

	if c.Pagination == nil {
		c.Pagination = &PaginationConfig{PageSize: 10, MaxPageSize: 10}
	}
	if c.Pagination.PageSize < 1 {
		return fmt.Errorf("page size must be at least 1")
	}
	if c.Pagination.MaxPageSize < c.Pagination.PageSize {
		return fmt.Errorf("max page size must not be smaller than the page size")
	}

	if c.Cache != nil {
		switch c.Cache.Type {
		case CacheTypeMemory:
		case CacheTypeRedis:
			if c.Cache.RedisURL == "" {
				return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
			}
		case "":
			return fmt.Errorf("cache type is required when cache is enabled")
		default:
			return fmt.Errorf("unknown cache type %q", c.Cache.Type)
		}
		if c.Cache.TTL < 0 {
			return fmt.Errorf("cache ttl must not be negative")
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory, // Default to in-memory cache if not enabled
			TTL:  300,
		}
	}

	if c.Gravatar != nil && c.Gravatar.Enabled {
		if c.Gravatar.DefaultImage != "" && !validGravatarDefaults[c.Gravatar.DefaultImage] {
			return fmt.Errorf("invalid gravatar default image %q", c.Gravatar.DefaultImage)
		}
		if c.Gravatar.Rating != "" && !validGravatarRatings[c.Gravatar.Rating] {
			return fmt.Errorf("invalid gravatar rating %q", c.Gravatar.Rating)
		}
		if c.Gravatar.Size != 0 && (c.Gravatar.Size < 1 || c.Gravatar.Size > 2048) {
			return fmt.Errorf("gravatar size must be between 1 and 2048")
		}
	}

	if c.Email != nil && c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("SMTP host is required when email notifications are enabled") //nolint:staticcheck
		}
		if c.Email.FromEmail == "" {
			return fmt.Errorf("sender address is required when email notifications are enabled")
		}
		if c.Email.SMTPPort < 1 || c.Email.SMTPPort > 65535 {
			return fmt.Errorf("invalid SMTP port %d", c.Email.SMTPPort)
		}
		if c.Email.UseTLS && c.Email.UseSSL {
			return fmt.Errorf("use_tls and use_ssl are mutually exclusive")
		}
	}

	if c.WebPush != nil && c.WebPush.Enabled {
		if c.WebPush.PublicKey == "" || c.WebPush.PrivateKey == "" {
			return fmt.Errorf("VAPID keys are required when push notifications are enabled, run generate-vapid-keys") //nolint:staticcheck
		}
		if c.WebPush.VAPIDEmail == "" {
			return fmt.Errorf("VAPID email is required when push notifications are enabled") //nolint:staticcheck
		}
	}

	if c.OIDC != nil && c.OIDC.Enabled {
		if c.OIDC.Issuer == "" || c.OIDC.ClientID == "" || c.OIDC.ClientSecret == "" {
			return fmt.Errorf("OIDC issuer, client id and client secret are required when single sign-on is enabled") //nolint:staticcheck
		}
		if c.OIDC.RedirectURL == "" {
			c.OIDC.RedirectURL = c.ServerURL + "/api/auth/oidc/callback/"
		}
	}

	return nil
}

var validGravatarDefaults = map[string]bool{
	"404": true, "mp": true, "identicon": true, "monsterid": true,
	"wavatar": true, "retro": true, "robohash": true, "blank": true,
}

var validGravatarRatings = map[string]bool{"g": true, "pg": true, "r": true, "x": true}

func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}

	if c.Cache != nil {
		c.Cache.RedisURL = strings.TrimSpace(c.Cache.RedisURL)
	}

	if c.OIDC != nil {
		c.OIDC.Issuer = urlSanitize(c.OIDC.Issuer)
	}

	if c.Email != nil {
		c.Email.SMTPHost = strings.TrimSpace(c.Email.SMTPHost)
		c.Email.FromEmail = strings.TrimSpace(c.Email.FromEmail)
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}
