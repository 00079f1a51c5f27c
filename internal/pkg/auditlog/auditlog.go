// Package auditlog keeps capped, append-only JSON array documents on disk.
package auditlog

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/jsonfile"
)

const (
	WebhookLogLimit    = 200
	ConversionLogLimit = 1000
)

// CappedLog retains only the most recent max entries. Appends from one
// process are serialized; the whole document is rewritten on each append.
type CappedLog struct {
	path string
	max  int
	mu   sync.Mutex
}

func New(path string, limit int) *CappedLog {
	if limit <= 0 {
		limit = 1
	}
	return &CappedLog{path: path, max: limit}
}

func (l *CappedLog) Path() string {
	return l.path
}

// Append adds entry and trims the document to the cap.
func (l *CappedLog) Append(entry interface{}) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.load()
	entries = append(entries, encoded)
	if len(entries) > l.max {
		entries = entries[len(entries)-l.max:]
	}
	return jsonfile.Write(l.path, entries)
}

// Entries returns the stored entries, oldest first.
func (l *CappedLog) Entries() []json.RawMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *CappedLog) load() []json.RawMessage {
	var entries []json.RawMessage
	if _, err := jsonfile.Read(l.path, &entries); err != nil {
		log.Warnf("[AuditLog] Starting fresh, unreadable log %s: %v", l.path, err)
		return nil
	}
	return entries
}
