package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	logx "chanrelay/pkg/logx"
)

func openJSONLedger(t *testing.T, path string) *Ledger {
	t.Helper()
	l, err := Open(Config{Driver: "json", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestSet(t *testing.T) {
	var zero Set
	if zero.Has(1) || zero.Len() != 0 {
		t.Fatalf("zero set should be empty")
	}
	zero.Add(3)
	if !zero.Has(3) {
		t.Fatalf("expected 3 after Add")
	}

	s := NewSet(5, 1, 3, 1)
	if s.Len() != 3 {
		t.Fatalf("len=%d want 3", s.Len())
	}
	if got := s.IDs(); !reflect.DeepEqual(got, []int{1, 3, 5}) {
		t.Fatalf("ids=%v want [1 3 5]", got)
	}
}

func TestLoadMissingFileIsFirstRun(t *testing.T) {
	l := openJSONLedger(t, filepath.Join(t.TempDir(), "forwarded_messages.json"))

	if set := l.Load(context.Background()); set.Len() != 0 {
		t.Fatalf("len=%d want 0", set.Len())
	}
	if !l.IsFirstRun() {
		t.Fatalf("expected first run")
	}
}

func TestLoadMalformedFileIsEmpty(t *testing.T) {
	for name, content := range map[string]string{
		"garbage":     "not json at all",
		"object":      `{"ids":[1,2]}`,
		"mixed array": `[1,"two",3]`,
		"null":        "null",
		"blank":       "  \n",
		"truncated":   "[1,2,",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ledger.json")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}

			l := openJSONLedger(t, path)
			l.Load(context.Background())
			if !l.IsFirstRun() {
				t.Fatalf("content %q: expected empty history", content)
			}
		})
	}
}

func TestLoadUnreadableFileIsEmpty(t *testing.T) {
	// A directory where the file should be cannot be read as a ledger.
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}

	l := openJSONLedger(t, path)
	l.Load(context.Background())
	if !l.IsFirstRun() {
		t.Fatalf("expected empty history")
	}
}

func TestJSONSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.json")
	ctx := context.Background()

	l := openJSONLedger(t, path)
	l.Load(ctx)
	for _, id := range []int{103, 101, 102} {
		l.Add(id)
	}
	if err := l.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "[101,102,103]" {
		t.Fatalf("file=%s want [101,102,103]", b)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file must be renamed away (stat err=%v)", err)
	}

	again := openJSONLedger(t, path)
	again.Load(ctx)
	if again.IsFirstRun() || again.Len() != 3 {
		t.Fatalf("reloaded len=%d want 3", again.Len())
	}
	if !again.Contains(102) || again.Contains(104) {
		t.Fatalf("membership mismatch after reload")
	}
}

func TestSaveEmptyWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	l := openJSONLedger(t, path)
	l.Load(context.Background())
	if err := l.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "[]" {
		t.Fatalf("file=%q want []", b)
	}
}

func TestJSONAuditJournal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.json")
	l := openJSONLedger(t, path)

	l.Audit(context.Background(), AuditEntry{At: time.Now(), RunID: "r1", MessageID: 7, Source: "@a", Target: "@b", OK: true})
	l.Audit(context.Background(), AuditEntry{At: time.Now(), RunID: "r1", MessageID: 8, Source: "@a", Target: "@b", Class: "rate_limited", Error: "flood"})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "ledger.audit.jsonl"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()

	var got []AuditEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("entries=%d want 2", len(got))
	}
	if !got[0].OK || got[1].Class != "rate_limited" {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestJSONAuditDisabled(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(Config{Driver: "json", Path: filepath.Join(dir, "ledger.json"), AuditPath: "-"}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	l.Audit(context.Background(), AuditEntry{MessageID: 1})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "ledger.audit.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("journal should not exist (stat err=%v)", err)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	l, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	l.Load(ctx)
	if !l.IsFirstRun() {
		t.Fatalf("new database should be empty")
	}

	l.Add(101)
	l.Add(102)
	if err := l.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	l.Add(103)
	if err := l.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	l.Audit(ctx, AuditEntry{RunID: "r", MessageID: 103, Source: "@a", Target: "@b", OK: true})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	again, err := Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if got := again.Load(ctx).IDs(); !reflect.DeepEqual(got, []int{101, 102, 103}) {
		t.Fatalf("ids=%v want [101 102 103]", got)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "etcd", Path: "x"}, logx.Nop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
