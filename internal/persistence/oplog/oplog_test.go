package oplog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"hamletcraft.dev/internal/sim/village"
)

// readLines decompresses the single journal file matching pattern and
// returns its JSON lines.
func readLines(t *testing.T, dir, pattern string) [][]byte {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil || len(matches) != 1 {
		t.Fatalf("glob %s: %v matches=%v", pattern, err, matches)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	var out [][]byte
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		out = append(out, append([]byte(nil), sc.Bytes()...))
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	return out
}

func readAudits(t *testing.T, dir string) []village.AuditEntry {
	t.Helper()
	var out []village.AuditEntry
	for _, line := range readLines(t, dir, "audit-*.jsonl.zst") {
		var e village.AuditEntry
		if err := json.Unmarshal(line, &e); err != nil {
			t.Fatalf("line %q: %v", line, err)
		}
		out = append(out, e)
	}
	return out
}

func TestAuditLogAppendsJSONLines(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLog(dir)

	for i := 0; i < 3; i++ {
		err := l.WriteAudit(village.AuditEntry{Tick: uint64(i), ClientID: "C1", Op: "PLACE", OK: true})
		if err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries := readAudits(t, dir)
	if len(entries) != 3 {
		t.Fatalf("read %d entries", len(entries))
	}
	for i, e := range entries {
		if e.Tick != uint64(i) || e.Op != "PLACE" || !e.OK {
			t.Fatalf("entry %d = %+v", i, e)
		}
	}
}

func TestAuditLogReopenAppends(t *testing.T) {
	dir := t.TempDir()

	l := NewAuditLog(dir)
	if err := l.WriteAudit(village.AuditEntry{Tick: 1}); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	// A restart within the same hour appends a second zstd frame.
	l2 := NewAuditLog(dir)
	if err := l2.WriteAudit(village.AuditEntry{Tick: 2}); err != nil {
		t.Fatal(err)
	}
	if err := l2.Close(); err != nil {
		t.Fatal(err)
	}

	entries := readAudits(t, dir)
	if len(entries) != 2 || entries[0].Tick != 1 || entries[1].Tick != 2 {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestEconLogAppends(t *testing.T) {
	dir := t.TempDir()
	l := NewEconLog(dir)

	if err := l.WriteEcon(village.EconEntry{Tick: 40, Income: 6, Multiplier: 1}); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	lines := readLines(t, dir, "econ-*.jsonl.zst")
	if len(lines) != 1 {
		t.Fatalf("read %d lines", len(lines))
	}
	var e village.EconEntry
	if err := json.Unmarshal(lines[0], &e); err != nil {
		t.Fatal(err)
	}
	if e.Tick != 40 || e.Income != 6 {
		t.Fatalf("entry = %+v", e)
	}
}

func TestCloseWithoutWritesIsNoop(t *testing.T) {
	l := NewAuditLog(t.TempDir())
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
