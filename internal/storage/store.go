package storage

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Snapshot is the persisted view of an active session. It is best-effort
// bookkeeping only; the in-memory session table remains authoritative.
type Snapshot struct {
	ID           string               `json:"id"`
	Participants []ParticipantProfile `json:"participants"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ParticipantProfile is one participant slot within a snapshot.
type ParticipantProfile struct {
	Nickname   string `json:"nickname"`
	Gender     string `json:"gender"`
	Preference string `json:"preference"`
	Connected  bool   `json:"connected"`
}

// SessionStore abstracts session snapshot persistence.
type SessionStore interface {
	SaveSession(ctx context.Context, snap Snapshot) error
	DeleteSession(ctx context.Context, id string) error
	PurgeStale(ctx context.Context, olderThan time.Time) (int64, error)
}

// NewNoopStore builds a store that drops all writes. Used when no database
// is configured.
func NewNoopStore(reason string) SessionStore {
	logrus.WithField("reason", reason).Warn("session snapshots disabled, using noop store")
	return noopStore{}
}

type noopStore struct{}

func (noopStore) SaveSession(ctx context.Context, snap Snapshot) error       { return nil }
func (noopStore) DeleteSession(ctx context.Context, id string) error         { return nil }
func (noopStore) PurgeStale(ctx context.Context, t time.Time) (int64, error) { return 0, nil }
