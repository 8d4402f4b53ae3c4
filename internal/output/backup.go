package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Entry is one raw accepted batch with its acceptance timestamp.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Data      string `json:"data"`
}

// Backup accumulates accepted batch text for the whole run and rewrites the
// snapshot file wholesale on each save. Entries are never trimmed.
type Backup struct {
	mu      sync.Mutex
	entries []Entry
}

// NewBackup returns an empty Backup.
func NewBackup() *Backup {
	return &Backup{}
}

// Add records one accepted batch, stamped with the current time in RFC 3339.
func (b *Backup) Add(data string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, Entry{
		Timestamp: time.Now().Format(time.RFC3339),
		Data:      data,
	})
}

// Len returns the number of recorded entries.
func (b *Backup) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Save rewrites the full snapshot. The JSON array is written to a temp file
// in the target directory and renamed into place so a crash mid-write never
// leaves a truncated snapshot.
func (b *Backup) Save(path string) error {
	b.mu.Lock()
	entries := make([]Entry, len(b.entries))
	copy(entries, b.entries)
	b.mu.Unlock()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return eris.Wrap(err, "output: marshal backup")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "output: create backup temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "output: write backup")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "output: close backup temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "output: rename backup into place")
	}

	zap.L().Info("backup saved",
		zap.String("path", path),
		zap.Int("entries", len(entries)),
	)
	return nil
}
