package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags overlays config with command-line flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-g string   gRPC health bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      token validity, minutes
//	-m string   audit sink: none, postgres or redis
//	-r string   redis address for the redis audit sink
//
// Only these flags are parsed; -c/-config belongs to parseJson.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-m", "-r"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AuditSink, "m", config.AuditSink, "audit sink (none, postgres, redis)")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")

	validity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*validity) * time.Minute
		}
	})
	return nil
}
