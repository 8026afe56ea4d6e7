package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations use
// timex.Duration so both "24h" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	CookieName            string         `json:"cookie_name"`
	CookieSecure          *bool          `json:"cookie_secure"`
	AuditSink             string         `json:"audit_sink"`
	RedisAddr             string         `json:"redis_addr"`
	RedisPassword         string         `json:"redis_password"`
	RedisStream           string         `json:"redis_stream"`
	CORSAllowedOrigins    []string       `json:"cors_allowed_origins"`
	GinMode               string         `json:"gin_mode"`
	LogFormat             string         `json:"log_format"`
	LogLevel              string         `json:"log_level"`
}

// parseJson overlays config with the file named by -c/-config (or
// $GOPHAUTH_CONFIG). Keys missing from the file leave the current value.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	overlay(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.CookieName, c.CookieName)
	overlay(&config.AuditSink, c.AuditSink)
	overlay(&config.RedisAddr, c.RedisAddr)
	overlay(&config.RedisPassword, c.RedisPassword)
	overlay(&config.RedisStream, c.RedisStream)
	overlay(&config.GinMode, c.GinMode)
	overlay(&config.LogFormat, c.LogFormat)
	overlay(&config.LogLevel, c.LogLevel)

	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}

	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
