package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "chanrelay/pkg/logx"
)

// jsonStore keeps the ledger in a flat file.
//
// Files:
//   - <path>                    JSON array of integers
//   - <prefix>.audit.jsonl      append-only audit journal (optional)
//
// Writes go to <path>.tmp first and are renamed over <path>, so a crash
// mid-write leaves the previous ledger intact.
type jsonStore struct {
	log logx.Logger

	mu sync.Mutex

	path      string
	auditPath string
	auditFile *os.File
	closed    bool
}

func openJSON(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("ledger path is required for json driver")
	}

	auditPath := strings.TrimSpace(cfg.AuditPath)
	switch auditPath {
	case "-":
		auditPath = ""
	case "":
		base := strings.TrimSuffix(path, filepath.Ext(path))
		auditPath = base + ".audit.jsonl"
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	return &jsonStore{log: log, path: path, auditPath: auditPath}, nil
}

func (s *jsonStore) LoadIDs(ctx context.Context) ([]int, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil, nil
	}

	var ids []int
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, fmt.Errorf("malformed ledger %s: %w", s.path, err)
	}
	return ids, nil
}

func (s *jsonStore) ReplaceIDs(ctx context.Context, ids []int) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if ids == nil {
		ids = []int{}
	}

	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *jsonStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.auditPath == "" {
		return nil
	}
	if s.auditFile == nil {
		af, err := os.OpenFile(s.auditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		s.auditFile = af
	}
	return json.NewEncoder(s.auditFile).Encode(e)
}

func (s *jsonStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.auditFile == nil {
		return nil
	}
	err := s.auditFile.Close()
	s.auditFile = nil
	return err
}
