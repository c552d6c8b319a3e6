// Package session keeps interactive workspaces alive between HTTP requests.
//
// A [Session] wraps one [workspace.Workspace] with an expiry that slides
// forward on every access. Workspaces hold decoded images in memory, so
// sessions are process-local; the [Store] interface leaves room for other
// backends.
//
// # Usage
//
//	store := session.NewMemoryStore()
//	sess := session.New(workspace.New(), session.DefaultTTL)
//	store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, id)
//	if err != nil {
//	    // ErrNotFound or ErrExpired
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/imagecombiner/pkg/workspace"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("expired")
)

// DefaultTTL is how long an idle session lives.
const DefaultTTL = time.Hour

// Session is a workspace with an idle timeout.
type Session struct {
	ID        string
	Workspace *workspace.Workspace
	TTL       time.Duration
	CreatedAt time.Time
	ExpiresAt time.Time
}

// New creates a session for ws. The session ID is the workspace ID.
func New(ws *workspace.Workspace, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		ID:        ws.ID(),
		Workspace: ws,
		TTL:       ttl,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID and extends its expiry.
	// Returns ErrNotFound if the session doesn't exist and ErrExpired if it has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)

	// Len returns the number of stored sessions.
	Len() int
}
