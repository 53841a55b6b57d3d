package ledger

import (
	"context"
	"errors"
	"strings"

	logx "chanrelay/pkg/logx"
)

// Store is the persistence API behind a Ledger.
type Store interface {
	// LoadIDs returns every persisted ID. A store that does not exist yet
	// returns (nil, nil).
	LoadIDs(ctx context.Context) ([]int, error)
	// ReplaceIDs overwrites the persisted set with ids.
	ReplaceIDs(ctx context.Context, ids []int) error
	AppendAudit(ctx context.Context, e AuditEntry) error
	Close() error
}

// OpenStore initializes the configured store.
func OpenStore(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "json":
		return openJSON(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown ledger driver: " + driver)
	}
}
