// Package config resolves command-line flags whose defaults come from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/and161185/bankprep/internal/errs"
)

// Environment variable names.
const (
	EnvAddr         = "BANKPREP_ADDR"
	EnvStore        = "BANKPREP_STORE"
	EnvJWTKey       = "BANKPREP_JWT_KEY"
	EnvAccessTTL    = "BANKPREP_ACCESS_TTL"
	EnvTutorURL     = "BANKPREP_TUTOR_URL"
	EnvTutorModel   = "BANKPREP_TUTOR_MODEL"
	EnvTutorTimeout = "BANKPREP_TUTOR_TIMEOUT"
	EnvKafkaBrokers = "BANKPREP_KAFKA_BROKERS"
	EnvKafkaTopic   = "BANKPREP_KAFKA_TOPIC"
)

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: %s: %w", p, err)
		}
	}
	return nil
}

// Tutor holds the language-model endpoint settings. The API key is read by
// the tutor client itself.
type Tutor struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Server is the HTTP API configuration.
type Server struct {
	Addr            string
	StoreURL        string
	JWTKey          string
	AccessTTL       time.Duration
	ShutdownTimeout time.Duration
	Tutor           Tutor
	KafkaBrokers    []string
	KafkaTopic      string
	Dev             bool
}

func env(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(getenv func(string) string, key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseServer parses args (without the program name).
func ParseServer(args []string, getenv func(string) string, output io.Writer) (Server, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	var cfg Server
	var brokers string
	set := flag.NewFlagSet("bankprep-server", flag.ContinueOnError)
	set.SetOutput(output)
	set.StringVar(&cfg.Addr, "addr", env(getenv, EnvAddr, ":8080"), "listen address")
	set.StringVar(&cfg.StoreURL, "store", env(getenv, EnvStore, "memory://"), "storage URL (memory://, sqlite://PATH, redis://..., postgres://...)")
	set.StringVar(&cfg.JWTKey, "jwt-key", env(getenv, EnvJWTKey, ""), "HS256 signing key (required)")
	set.DurationVar(&cfg.AccessTTL, "access-ttl", envDuration(getenv, EnvAccessTTL, 24*time.Hour), "access token TTL")
	set.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 5*time.Second, "graceful shutdown timeout")
	set.StringVar(&cfg.Tutor.BaseURL, "tutor-url", env(getenv, EnvTutorURL, ""), "tutor API base URL")
	set.StringVar(&cfg.Tutor.Model, "tutor-model", env(getenv, EnvTutorModel, ""), "tutor model name")
	set.DurationVar(&cfg.Tutor.Timeout, "tutor-timeout", envDuration(getenv, EnvTutorTimeout, 60*time.Second), "tutor request timeout")
	set.StringVar(&brokers, "kafka-brokers", env(getenv, EnvKafkaBrokers, ""), "comma-separated Kafka brokers; empty disables Kafka")
	set.StringVar(&cfg.KafkaTopic, "kafka-topic", env(getenv, EnvKafkaTopic, ""), "event topic")
	set.BoolVar(&cfg.Dev, "dev", false, "development logging")
	if err := set.Parse(args); err != nil {
		return Server{}, err
	}
	cfg.KafkaBrokers = splitList(brokers)
	if cfg.JWTKey == "" {
		return Server{}, fmt.Errorf("config: missing jwt signing key (-jwt-key or %s): %w", EnvJWTKey, errs.ErrConfiguration)
	}
	return cfg, nil
}

// Dir returns the per-user configuration directory for local clients.
func Dir(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "bankprep")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "bankprep")
}

// DefaultCLIStore is the store used by the CLI when no -store flag is given.
func DefaultCLIStore(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	return env(getenv, EnvStore, "sqlite://"+filepath.Join(Dir(getenv), "bankprep.db"))
}
