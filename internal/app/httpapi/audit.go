package httpapi

import (
	"net/http"
	"sync"
	"time"
)

// auditEntry records one attributed mutation against the pool.
type auditEntry struct {
	Time   time.Time `json:"time"`
	Caller string    `json:"caller"`
	Path   string    `json:"path"`
	Method string    `json:"method"`
	Status int       `json:"status"`
}

// auditLog is a bounded in-memory trail of attributed requests, newest last.
type auditLog struct {
	mu      sync.Mutex
	entries []auditEntry
	max     int
}

func newAuditLog(max int) *auditLog {
	if max <= 0 {
		max = 200
	}
	return &auditLog{max: max}
}

func (l *auditLog) add(entry auditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

func (l *auditLog) list() []auditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]auditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

type auditRecorder struct {
	http.ResponseWriter
	status int
}

func (r *auditRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// middleware records every attributed request after it completes.
func (l *auditLog) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &auditRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		l.add(auditEntry{
			Time:   time.Now().UTC(),
			Caller: CallerFrom(r.Context()),
			Path:   r.URL.Path,
			Method: r.Method,
			Status: rec.status,
		})
	})
}
