// Package oplog keeps the village's append-only event journals: the
// client command audit trail and the economy interval log. Entries are
// newline-delimited JSON in hourly zstd files under the world's logs
// directory; a restart within the same hour appends a fresh zstd frame
// to the existing file.
package oplog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"hamletcraft.dev/internal/sim/village"
)

// journal is one hourly-rotated stream. The sim loop is the only
// writer in practice, but the mutex keeps Close safe from main.
type journal struct {
	dir  string
	name string

	mu   sync.Mutex
	hour time.Time
	file *os.File
	enc  *zstd.Encoder
}

func (j *journal) append(entry any) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Hour)
	if j.enc == nil || !now.Equal(j.hour) {
		if err := j.closeLocked(); err != nil {
			return err
		}
		if err := j.openLocked(now); err != nil {
			return err
		}
	}
	if _, err := j.enc.Write(line); err != nil {
		return err
	}
	// Each entry should survive a crash, so push it through to the file.
	return j.enc.Flush()
}

func (j *journal) openLocked(hour time.Time) error {
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(j.dir, j.name+"-"+hour.Format("2006-01-02-15")+".jsonl.zst")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.file, j.enc, j.hour = f, enc, hour
	return nil
}

func (j *journal) closeLocked() error {
	if j.enc == nil {
		return nil
	}
	encErr := j.enc.Close()
	fileErr := j.file.Close()
	j.file, j.enc = nil, nil
	j.hour = time.Time{}
	if encErr != nil {
		return encErr
	}
	return fileErr
}

func (j *journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

// AuditLog records every mutating client command.
type AuditLog struct{ journal }

func NewAuditLog(dir string) *AuditLog {
	return &AuditLog{journal{dir: dir, name: "audit"}}
}

func (l *AuditLog) WriteAudit(entry village.AuditEntry) error { return l.append(entry) }

// EconLog records one entry per applied income interval.
type EconLog struct{ journal }

func NewEconLog(dir string) *EconLog {
	return &EconLog{journal{dir: dir, name: "econ"}}
}

func (l *EconLog) WriteEcon(entry village.EconEntry) error { return l.append(entry) }
