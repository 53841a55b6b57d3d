package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"github.com/subosito/gotenv"
)

// DefaultEnvFile is loaded when present; it never overrides variables that
// are already set in the process environment.
const DefaultEnvFile = ".env"

// Options selects the configuration sources.
type Options struct {
	// Path is an optional JSON or YAML config file.
	Path string
	// EnvFile is a dotenv file loaded into the process environment before
	// lookup. A missing file is ignored.
	EnvFile string
	// Lookuper overrides the environment lookup (tests).
	Lookuper envconfig.Lookuper
}

// Load reads the config file (if any), overlays the environment and
// validates the result. Every failure is returned as *Error.
func Load(ctx context.Context, opts Options) (*Config, error) {
	var cfg Config

	if p := strings.TrimSpace(opts.Path); p != "" {
		if err := parseFile(p, &cfg); err != nil {
			return nil, &Error{Problems: []string{fmt.Sprintf("config file %s: %v", p, err)}}
		}
	}

	if f := strings.TrimSpace(opts.EnvFile); f != "" {
		if err := gotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Problems: []string{fmt.Sprintf("env file %s: %v", f, err)}}
		}
	}

	l := opts.Lookuper
	if l == nil {
		l = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &cfg, l); err != nil {
		return nil, &Error{Problems: []string{fmt.Sprintf("parsing env vars: %v", err)}}
	}

	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseFile(path string, out *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("trailing data")
		}
		return err
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.Telegram.APIHash = strings.TrimSpace(cfg.Telegram.APIHash)
	cfg.Telegram.Phone = strings.TrimSpace(cfg.Telegram.Phone)
	cfg.Telegram.SessionFile = strings.TrimSpace(cfg.Telegram.SessionFile)
	cfg.Channels.Source = strings.TrimSpace(cfg.Channels.Source)
	cfg.Channels.Target = strings.TrimSpace(cfg.Channels.Target)
	cfg.Notify.BotToken = strings.TrimSpace(cfg.Notify.BotToken)
	cfg.Ledger.Driver = strings.ToLower(strings.TrimSpace(cfg.Ledger.Driver))
	cfg.Ledger.Path = strings.TrimSpace(cfg.Ledger.Path)
	cfg.Ledger.AuditFile = strings.TrimSpace(cfg.Ledger.AuditFile)
}
