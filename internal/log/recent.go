// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"
)

// DefaultRecentSize is the number of entries kept by the daemon's recent log ring.
const DefaultRecentSize = 200

// Entry is one structured log record kept in memory.
type Entry struct {
	Time    time.Time              `json:"time"`
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// Recent is an io.Writer that parses JSON log lines into a bounded ring of entries.
type Recent struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewRecent returns a ring holding at most size entries.
func NewRecent(size int) *Recent {
	if size <= 0 {
		size = DefaultRecentSize
	}
	return &Recent{entries: make([]Entry, size)}
}

// Write implements io.Writer. Lines that are not JSON objects are skipped.
func (r *Recent) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var fields map[string]interface{}
		if err := json.Unmarshal(line, &fields); err != nil {
			continue
		}
		r.add(toEntry(fields))
	}
	return len(p), nil
}

// Entries returns the buffered entries, oldest first.
func (r *Recent) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Entry, r.next)
		copy(out, r.entries[:r.next])
		return out
	}
	out := make([]Entry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	out = append(out, r.entries[:r.next]...)
	return out
}

func (r *Recent) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = e
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
}

func toEntry(fields map[string]interface{}) Entry {
	e := Entry{}
	if v, ok := fields["time"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			e.Time = ts
		}
	}
	if v, ok := fields["level"].(string); ok {
		e.Level = v
	}
	if v, ok := fields["message"].(string); ok {
		e.Message = v
	}
	delete(fields, "time")
	delete(fields, "level")
	delete(fields, "message")
	if len(fields) > 0 {
		e.Fields = fields
	}
	return e
}
