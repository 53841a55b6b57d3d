// Package app wires configuration, logging, storage and the Telegram client
// into a single relay run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sethvargo/go-envconfig"

	"chanrelay/internal/config"
	"chanrelay/internal/console"
	"chanrelay/internal/forwarder"
	"chanrelay/internal/ledger"
	"chanrelay/internal/messenger"
	"chanrelay/internal/messenger/telegram"
	"chanrelay/internal/notifier"
	logx "chanrelay/pkg/logx"
)

// ClientFactory builds the messaging client for a loaded config.
type ClientFactory func(cfg *config.Config, log logx.Logger) (messenger.Client, error)

// NotifierFactory builds the operator notifier.
type NotifierFactory func(cfg notifier.Config, log logx.Logger) (notifier.Notifier, error)

// Options configures one Run. The zero value runs against the real
// environment, terminal and Telegram.
type Options struct {
	ConfigPath string
	EnvFile    string
	Lookuper   envconfig.Lookuper

	// LogWriter, when set, receives all logs as JSON instead of the
	// configured console and file sinks.
	LogWriter io.Writer

	Prompter    forwarder.Prompter
	NewClient   ClientFactory
	NewNotifier NotifierFactory
	Sleep       forwarder.SleepFunc
}

// Result is the outcome of one Run.
type Result struct {
	Status Status
	RunID  string
	Report forwarder.Report
	Err    error
}

// Line is the one-line summary printed at exit and sent to systemd.
func (r Result) Line() string {
	switch r.Status {
	case StatusOK:
		return "ok: " + r.Report.String()
	case StatusAuthRequired:
		return "auth required: run chanrelay once from a terminal to log in"
	default:
		if r.Err == nil {
			return r.Status.String()
		}
		return r.Status.String() + ": " + r.Err.Error()
	}
}

// Run executes one relay run and never panics on expected failures; the
// outcome is reported through Result.
func Run(ctx context.Context, opts Options) Result {
	res := Result{RunID: uuid.NewString()}

	cfg, err := config.Load(ctx, config.Options{
		Path:     opts.ConfigPath,
		EnvFile:  opts.EnvFile,
		Lookuper: opts.Lookuper,
	})
	if err != nil {
		bootLog := bootLogger(opts).With(logx.String("comp", "config"))
		bootLog.Error("configuration error", logx.Err(err))
		res.Status, res.Err = StatusConfigError, err
		return res
	}

	log, closeLog := newLogger(cfg, opts)
	defer closeLog()
	log = log.With(logx.String("run_id", res.RunID))
	log.Info("relay run starting",
		logx.String("source", cfg.Channels.Source),
		logx.String("target", cfg.Channels.Target),
		logx.String("ledger", cfg.Ledger.Driver))

	led, err := ledger.Open(ledger.Config{
		Driver:      cfg.Ledger.Driver,
		Path:        cfg.Ledger.Path,
		AuditPath:   cfg.Ledger.AuditFile,
		BusyTimeout: cfg.Ledger.BusyTimeoutDuration(),
	}, log.With(logx.String("comp", "ledger")))
	if err != nil {
		log.Error("failed to open ledger", logx.Err(err))
		res.Status, res.Err = StatusError, fmt.Errorf("open ledger: %w", err)
		return res
	}
	defer func() {
		if err := led.Close(); err != nil {
			log.Warn("ledger close failed", logx.Err(err))
		}
	}()
	led.Load(ctx)

	notif := buildNotifier(cfg, opts, log.With(logx.String("comp", "notifier")))

	newClient := opts.NewClient
	if newClient == nil {
		newClient = newTelegramClient
	}
	client, err := newClient(cfg, log.With(logx.String("comp", "telegram")))
	if err != nil {
		log.Error("failed to create Telegram client", logx.Err(err))
		res.Status, res.Err = StatusError, err
		return res
	}

	prompt := opts.Prompter
	if prompt == nil {
		prompt = console.Std()
	}

	fw := forwarder.New(forwarder.Config{
		Source:         cfg.Channels.Source,
		Target:         cfg.Channels.Target,
		Window:         cfg.Relay.Window,
		FirstRunWindow: cfg.Relay.FirstRunWindow,
		Delay:          cfg.Relay.DelayDuration(),
		Cooldown:       cfg.Relay.CooldownDuration(),
		RunID:          res.RunID,
	}, client, led, prompt, log.With(logx.String("comp", "forwarder")),
		forwarder.WithNotifier(notif),
		forwarder.WithSleep(opts.Sleep),
	)

	res.Report, res.Err = fw.Run(ctx)
	res.Status = statusOf(res.Err)

	fields := []logx.Field{
		logx.String("status", res.Status.String()),
		logx.Int("fetched", res.Report.Fetched),
		logx.Int("forwarded", res.Report.Forwarded),
		logx.Int("failed", res.Report.Failed),
		logx.Int("ledger_size", led.Len()),
	}
	if res.Err != nil {
		log.Error("relay run finished with error", append(fields, logx.Err(res.Err))...)
	} else {
		log.Info("relay run finished", fields...)
	}
	return res
}

func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, forwarder.ErrAuthRequired):
		return StatusAuthRequired
	case errors.Is(err, forwarder.ErrAuthFailed):
		return StatusAuthFailed
	case config.IsConfigError(err):
		return StatusConfigError
	default:
		return StatusError
	}
}

func bootLogger(opts Options) logx.Logger {
	if opts.LogWriter != nil {
		return logx.NewWriter(opts.LogWriter, "INFO")
	}
	return logx.NewConsole("INFO")
}

func newLogger(cfg *config.Config, opts Options) (logx.Logger, func()) {
	if opts.LogWriter != nil {
		return logx.NewWriter(opts.LogWriter, cfg.Logging.Level), func() {}
	}
	file := strings.TrimSpace(cfg.Logging.File)
	svc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: true,
		File: logx.FileConfig{
			Enabled: file != "",
			Path:    file,
		},
	})
	return log, func() { _ = svc.Close() }
}

func buildNotifier(cfg *config.Config, opts Options, log logx.Logger) notifier.Notifier {
	ncfg := notifier.Config{
		Token:    cfg.Notify.BotToken,
		ChatID:   cfg.Notify.ChatID,
		ThreadID: cfg.Notify.ThreadID,
		Source:   cfg.Channels.Source + " → " + cfg.Channels.Target,
	}
	newNotifier := opts.NewNotifier
	if newNotifier == nil {
		newNotifier = notifier.New
	}
	n, err := newNotifier(ncfg, log)
	if err != nil {
		log.Warn("operator notifications unavailable", logx.Err(err))
		return notifier.Nop{}
	}
	if cfg.Notify.Enabled() {
		log.Debug("operator notifications enabled", logx.Int64("chat_id", cfg.Notify.ChatID))
	}
	return n
}

func newTelegramClient(cfg *config.Config, log logx.Logger) (messenger.Client, error) {
	c, err := telegram.New(telegram.Config{
		AppID:       cfg.Telegram.APIID,
		AppHash:     cfg.Telegram.APIHash,
		Phone:       cfg.Telegram.Phone,
		SessionFile: cfg.Telegram.SessionFile,
	}, log)
	if err != nil {
		return nil, err
	}
	return c, nil
}
