package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"3000"`

	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Auth      AuthConfig      `mapstructure:",squash"`
	CORS      CORSConfig      `mapstructure:",squash"`
	Steadfast SteadfastConfig `mapstructure:",squash"`
	Dispatch  DispatchConfig  `mapstructure:",squash"`
	SMTP      SMTPConfig      `mapstructure:",squash"`
	Telemetry TelemetryConfig `mapstructure:",squash"`
}

// DatabaseConfig holds database connection details.
type DatabaseConfig struct {
	// URL is the PostgreSQL DSN. When empty the in-memory stores are used.
	URL string `mapstructure:"DATABASE_URL"`
	// WakeupDelay is how long to wait before re-pinging a sleeping database.
	WakeupDelay time.Duration `mapstructure:"DB_WAKEUP_DELAY" default:"2s"`
}

// RedisConfig holds the Redis connection used for dispatch leases and caching.
type RedisConfig struct {
	// URL in the format redis://[:password@]host[:port][/database]. Empty means in-process cache.
	URL string `mapstructure:"REDIS_URL"`
	// TrackingCacheTTL bounds how long courier tracking payloads are reused.
	TrackingCacheTTL time.Duration `mapstructure:"TRACKING_CACHE_TTL" default:"60s"`
}

// AuthConfig holds the JWT verification settings.
type AuthConfig struct {
	// JWTSecret is the HS256 key shared with the identity service.
	JWTSecret string `mapstructure:"JWT_SECRET" required:"true"`
}

// CORSConfig lists the frontends allowed to call the API.
type CORSConfig struct {
	// FrontendURL is the primary deployed storefront.
	FrontendURL string `mapstructure:"FRONTEND_URL"`
	// ExtraOrigins is a comma separated list of additional origins.
	ExtraOrigins string `mapstructure:"CORS_ORIGINS" default:"https://petalpearl.netlify.app,http://localhost:8080,http://localhost:5173,http://localhost:3000"`
}

// AllowedOrigins returns the de-duplicated origin list in the format fiber's cors middleware expects.
func (c CORSConfig) AllowedOrigins() string {
	seen := make(map[string]bool)
	var origins []string
	for _, o := range append([]string{c.FrontendURL}, strings.Split(c.ExtraOrigins, ",")...) {
		o = strings.TrimSpace(o)
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	return strings.Join(origins, ",")
}

// SteadfastConfig holds the credentials for the Steadfast courier API.
type SteadfastConfig struct {
	// BaseURL is the API root, e.g. https://portal.packzy.com/api/v1.
	BaseURL string `mapstructure:"STEADFAST_BASE_URL" required:"true"`
	// APIKey is sent in the Api-Key header.
	APIKey string `mapstructure:"STEADFAST_API_KEY" required:"true"`
	// Secret is sent in the Secret-Key header.
	Secret string `mapstructure:"STEADFAST_SECRET" required:"true"`
	// Timeout bounds a single courier call.
	Timeout time.Duration `mapstructure:"COURIER_TIMEOUT" default:"10s"`
}

// DispatchConfig tunes the order dispatch workflow.
type DispatchConfig struct {
	// LeaseTTL is how long a dispatch holds the per-order lease. Keep it above COURIER_TIMEOUT.
	LeaseTTL time.Duration `mapstructure:"DISPATCH_LEASE_TTL" default:"30s"`
	// EventBuffer is the capacity of the order event queue.
	EventBuffer int `mapstructure:"EVENT_BUFFER" default:"256"`
}

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string `mapstructure:"SMTP_HOST"`
	Port     int    `mapstructure:"SMTP_PORT" default:"587"`
	Secure   bool   `mapstructure:"SMTP_SECURE" default:"false"`
	User     string `mapstructure:"SMTP_USER"`
	Password string `mapstructure:"SMTP_PASS"`
	// From overrides the sender; defaults to the authenticated user.
	From string `mapstructure:"SMTP_FROM"`
	// AdminEmails is a comma separated list of store operator addresses.
	AdminEmails string `mapstructure:"ADMIN_EMAILS"`
}

// AdminRecipients splits AdminEmails into addresses.
func (c SMTPConfig) AdminRecipients() []string {
	var out []string
	for _, addr := range strings.Split(c.AdminEmails, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// TelemetryConfig toggles OpenTelemetry exporters.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"OTEL_ENABLED" default:"false"`
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME" default:"petal-pearl-api"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	processTags(v, &config)

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags walks the struct fields, binding env keys and registering defaults in Viper.
func processTags(v *viper.Viper, config interface{}) {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			processTags(v, val.Field(i).Addr().Interface())
			continue
		}

		key := field.Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		_ = v.BindEnv(key)

		if defaultValue := field.Tag.Get("default"); defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && isZero(val.Field(i)) {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
