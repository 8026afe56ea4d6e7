package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded when present; variables already set in the process
// environment win over it.
var envFile = ".env"

// parseEnv overlays Config with environment variables:
//
//	HTTP_ADDRESS, GRPC_ADDRESS, DATABASE_DSN, SECRET_KEY,
//	TOKEN_VALIDITY (Go duration, e.g. "12h"), COOKIE_NAME, COOKIE_SECURE,
//	AUDIT_SINK, REDIS_ADDR, REDIS_PASSWORD, REDIS_STREAM,
//	CORS_ALLOWED_ORIGINS (comma separated), GIN_MODE, LOG_FORMAT, LOG_LEVEL
func parseEnv(c *Config) error {
	_ = godotenv.Load(envFile)

	setString(&c.EndpointAddrHTTP, "HTTP_ADDRESS")
	setString(&c.EndpointAddrGRPC, "GRPC_ADDRESS")
	setString(&c.DatabaseDSN, "DATABASE_DSN")
	setString(&c.SecretKey, "SECRET_KEY")
	setString(&c.CookieName, "COOKIE_NAME")
	setString(&c.AuditSink, "AUDIT_SINK")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setString(&c.RedisStream, "REDIS_STREAM")
	setString(&c.GinMode, "GIN_MODE")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.LogLevel, "LOG_LEVEL")

	if v, ok := os.LookupEnv("TOKEN_VALIDITY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_VALIDITY: %w", err)
		}
		c.TokenValidityDuration = d
	}

	if v, ok := os.LookupEnv("COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = b
	}

	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		c.CORSAllowedOrigins = splitList(v)
	}

	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
