// Package audit appends immutable records of state-changing actions.
//
// Appends are best-effort: a failed write is counted and logged, never
// returned to the caller. A degraded audit store must not fail or roll back
// the business action it describes.
package audit

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/SebastianInformatico/cotraq-api/internal/auth"
	"github.com/SebastianInformatico/cotraq-api/internal/ids"
	"github.com/SebastianInformatico/cotraq-api/internal/obs"
)

// Action verbs follow a small convention shared with the reporting side.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionLogin  = "LOGIN"
)

// Entry is one append-only fact. ActorID is nil for system-initiated actions.
type Entry struct {
	ID         string         `json:"id"`
	ActorID    *string        `json:"actor_id,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Store is the append-only persistence surface. Nothing in this package
// reads the trail back.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
}

// Recorder writes audit entries.
type Recorder struct {
	store Store
	now   func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(r *Recorder) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRecorder constructs a Recorder.
func NewRecorder(store Store, opts ...Option) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("audit: store is required")
	}
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Record appends one entry. The actor defaults from the context identity
// when unset (an explicit actor wins). The append is fire-and-forget: on
// failure the fault is logged and counted, and the caller's request proceeds
// unaffected. Do not change this into a propagating write.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}
	if entry.ActorID == nil {
		if identity, ok := auth.IdentityFromContext(ctx); ok {
			entry.ActorID = &identity.ID
		}
	}
	if err := r.store.Append(ctx, &entry); err != nil {
		obs.AuditAppendFailed()
		obs.LogError("audit append failed", map[string]any{
			"audit_id":    entry.ID,
			"action":      entry.Action,
			"entity_type": entry.EntityType,
			"entity_id":   entry.EntityID,
			"error":       err.Error(),
		})
	}
}

// FromRequest captures the caller's network origin and client identifier.
func FromRequest(r *http.Request) (ip, userAgent string) {
	if r == nil {
		return "", ""
	}
	return clientIP(r), r.UserAgent()
}

func clientIP(r *http.Request) string {
	// X-Forwarded-For support (first IP)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
