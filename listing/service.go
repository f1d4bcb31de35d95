package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mcmarket/wizard"
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pool is the subset of pgxpool.Pool the coordinator needs.
type Pool interface {
	TxBeginner
	Querier
}

// CommitRepository defines the data access required by the coordinator.
type CommitRepository interface {
	InsertCommitMarker(ctx context.Context, tx pgx.Tx, key string) error
	Create(ctx context.Context, tx pgx.Tx, params CreateParams) (Record, error)
	FindByAuthorityID(ctx context.Context, q Querier, authorityID string) (Record, error)
}

// Coordinator converts a finalized snapshot into exactly one persisted
// listing. The commit marker insert and the listing insert share one
// transaction, so either both exist or neither does, and a second commit for
// the same authority observes the marker instead of creating a duplicate.
type Coordinator struct {
	pool Pool
	repo CommitRepository
}

func NewCoordinator(pool Pool, repo CommitRepository) *Coordinator {
	if repo == nil {
		repo = NewRepository()
	}
	return &Coordinator{pool: pool, repo: repo}
}

// Commit persists the snapshot as a listing in moderation. Re-commits for an
// already-committed authority return the existing listing id.
func (c *Coordinator) Commit(ctx context.Context, snap wizard.FormSnapshot) (string, error) {
	authorityID := snap.AuthorityID()
	if authorityID == "" {
		return "", wizard.ErrIdentifierRequired
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("listing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = c.repo.InsertCommitMarker(ctx, tx, "listing-commit:"+authorityID)
	if errors.Is(err, ErrDuplicateCommitKey) {
		// The marker insert aborted this transaction; read the existing
		// listing outside it.
		existing, findErr := c.repo.FindByAuthorityID(ctx, c.pool, authorityID)
		if findErr != nil {
			return "", fmt.Errorf("listing: resolve committed listing for %s: %w", authorityID, findErr)
		}
		return existing.ID, nil
	}
	if err != nil {
		return "", err
	}

	rec, err := c.repo.Create(ctx, tx, ParamsFromSnapshot(snap))
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("listing: commit tx: %w", err)
	}

	return rec.ID, nil
}
