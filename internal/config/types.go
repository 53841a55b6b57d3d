package config

// Config is the complete, validated configuration of one relay run.
//
// Every field can come from the optional config file (json keys below) and
// from the environment (env tags). The environment wins when both are set.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Channels ChannelsConfig `json:"channels"`
	Notify   NotifyConfig   `json:"notify"`
	Ledger   LedgerConfig   `json:"ledger"`
	Relay    RelayConfig    `json:"relay"`
	Logging  LoggingConfig  `json:"logging"`
}

// TelegramConfig holds the user-account credentials used to read the source
// channel and forward into the target.
type TelegramConfig struct {
	APIID   int    `json:"api_id" env:"API_ID,overwrite"`
	APIHash string `json:"api_hash" env:"API_HASH,overwrite"`
	Phone   string `json:"phone" env:"PHONE_NUMBER,overwrite"`

	// SessionFile is owned by the Telegram client library.
	SessionFile string `json:"session_file,omitempty" env:"SESSION_FILE,overwrite,default=user_session.json"`
}

// ChannelsConfig names the source and target. Accepted forms: "name",
// "@name", "t.me/name", "https://t.me/name".
type ChannelsConfig struct {
	Source string `json:"source" env:"SOURCE_CHANNEL,overwrite"`
	Target string `json:"target" env:"TARGET_CHANNEL,overwrite"`
}

// NotifyConfig configures the operator notification bot. Both fields must be
// set to enable notifications; both empty disables them.
type NotifyConfig struct {
	BotToken string `json:"bot_token,omitempty" env:"BOT_TOKEN,overwrite"`
	ChatID   int64  `json:"chat_id,omitempty" env:"NOTIFY_CHAT_ID,overwrite"`
	ThreadID int    `json:"thread_id,omitempty" env:"NOTIFY_THREAD_ID,overwrite"`
}

// Enabled reports whether operator notifications are configured.
func (n NotifyConfig) Enabled() bool { return n.BotToken != "" && n.ChatID != 0 }

// LedgerConfig controls where relayed message IDs are persisted.
//
// Driver values:
//   - "json": flat JSON array of integers at Path (default)
//   - "sqlite": SQLite database file at Path
type LedgerConfig struct {
	Driver string `json:"driver,omitempty" env:"LEDGER_DRIVER,overwrite,default=json"`
	Path   string `json:"path,omitempty" env:"FORWARDED_MESSAGES_FILE,overwrite,default=forwarded_messages.json"`

	// AuditFile is the relay audit journal for the json driver.
	// Empty means "<path without ext>.audit.jsonl"; "-" disables it.
	AuditFile string `json:"audit_file,omitempty" env:"AUDIT_FILE,overwrite"`

	// BusyTimeout is a Go duration string (sqlite only).
	BusyTimeout string `json:"busy_timeout,omitempty" env:"LEDGER_BUSY_TIMEOUT,overwrite"`
}

// RelayConfig tunes the relay loop.
//
// All durations are Go duration strings (e.g. "500ms", "2s", "1m").
type RelayConfig struct {
	Window         int `json:"window,omitempty" env:"RELAY_WINDOW,overwrite,default=50"`
	FirstRunWindow int `json:"first_run_window,omitempty" env:"FIRST_RUN_WINDOW,overwrite,default=1"`

	// Delay separates successive successful relays.
	Delay string `json:"delay,omitempty" env:"RELAY_DELAY,overwrite,default=2s"`
	// RateLimitCooldown is the pause after a relay rejected for rate limiting.
	RateLimitCooldown string `json:"rate_limit_cooldown,omitempty" env:"RATE_LIMIT_COOLDOWN,overwrite,default=60s"`
}

type LoggingConfig struct {
	Level string `json:"level,omitempty" env:"LOG_LEVEL,overwrite,default=INFO"`
	// File enables a JSON log file next to the console output.
	File string `json:"file,omitempty" env:"LOG_FILE,overwrite"`
}
