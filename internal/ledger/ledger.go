package ledger

import (
	"context"
	"sort"

	logx "chanrelay/pkg/logx"
)

// Set is an unordered set of relayed message IDs.
// The zero value is an empty, usable set.
type Set struct {
	ids map[int]struct{}
}

func NewSet(ids ...int) *Set {
	s := &Set{ids: make(map[int]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s *Set) Has(id int) bool {
	if s == nil || s.ids == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

func (s *Set) Add(id int) {
	if s.ids == nil {
		s.ids = map[int]struct{}{}
	}
	s.ids[id] = struct{}{}
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns the members in ascending order.
func (s *Set) IDs() []int {
	if s == nil {
		return nil
	}
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Ledger is the in-memory relayed-ID set bound to its backing store.
//
// It is not safe for concurrent use; one run owns one Ledger.
type Ledger struct {
	store Store
	log   logx.Logger
	set   *Set
}

// Open opens the configured store. Call Load before use.
func Open(cfg Config, log logx.Logger) (*Ledger, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	st, err := OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}
	return New(st, log), nil
}

// New wraps an already opened store.
func New(st Store, log logx.Logger) *Ledger {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Ledger{store: st, log: log, set: NewSet()}
}

// Load replaces the in-memory set with the persisted one. An absent,
// unreadable or malformed store means "no history": the set is left empty
// and the problem is logged, never returned.
func (l *Ledger) Load(ctx context.Context) *Set {
	ids, err := l.store.LoadIDs(ctx)
	if err != nil {
		l.log.Warn("ledger unreadable; starting with empty history", logx.Err(err))
		ids = nil
	}
	l.set = NewSet(ids...)
	l.log.Debug("ledger loaded", logx.Int("ids", l.set.Len()))
	return l.set
}

// IsFirstRun reports whether no message has ever been relayed.
func (l *Ledger) IsFirstRun() bool { return l.set.Len() == 0 }

func (l *Ledger) Contains(id int) bool { return l.set.Has(id) }

func (l *Ledger) Add(id int) { l.set.Add(id) }

func (l *Ledger) Len() int { return l.set.Len() }


// Save overwrites the backing store with the current set.
func (l *Ledger) Save(ctx context.Context) error {
	ids := l.set.IDs()
	if err := l.store.ReplaceIDs(ctx, ids); err != nil {
		return err
	}
	l.log.Debug("ledger saved", logx.Int("ids", len(ids)))
	return nil
}

// Audit appends a relay record. Best-effort: failures are logged only.
func (l *Ledger) Audit(ctx context.Context, e AuditEntry) {
	if err := l.store.AppendAudit(ctx, e); err != nil {
		l.log.Debug("audit append failed", logx.Err(err), logx.Int("message_id", e.MessageID))
	}
}

func (l *Ledger) Close() error { return l.store.Close() }
