// Package draft persists the wizard snapshot across the payment excursion.
// The slot is the only state shared across that boundary, so it carries the
// snapshot, the touched-field set, and the per-attempt id together.
package draft

import (
	"context"
	"errors"
	"time"

	"mcmarket/wizard"
)

// ErrNoDraft signals that the slot is empty: cleared, expired, or never
// written. Callers must treat this as "cannot resume", not as a crash.
var ErrNoDraft = errors.New("draft: no draft saved")

// Draft is the serialized form of an in-flight listing attempt.
type Draft struct {
	Snapshot  wizard.FormSnapshot `json:"snapshot"`
	Touched   []string            `json:"touched"`
	AttemptID string              `json:"attemptId"`
	SavedAt   time.Time           `json:"savedAt"`
}

// Store is the persistence bridge. Save overwrites (last write wins), Load
// returns ErrNoDraft on an empty slot, Clear is idempotent.
type Store interface {
	Save(ctx context.Context, sessionID string, d Draft) error
	Load(ctx context.Context, sessionID string) (Draft, error)
	Clear(ctx context.Context, sessionID string) error
}
