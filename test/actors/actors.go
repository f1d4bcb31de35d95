package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mcmarket/listing"
	"mcmarket/payment"
	"mcmarket/wizard"
)

// Seller hammers the coordinator with the same finalized snapshot, the way
// replayed success returns and duplicate tabs would. Every call must observe
// the same listing id.
func Seller(ctx context.Context, coord *listing.Coordinator, snap wizard.FormSnapshot, stop <-chan struct{}) error {
	var firstID string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		id, err := coord.Commit(ctx, snap)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			// Chaos terminates backends at random; a dropped connection is
			// expected, a wrong answer is not.
			time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
			continue
		}
		if firstID == "" {
			firstID = id
		} else if id != firstID {
			return fmt.Errorf("seller: commit returned a second listing %s, already had %s", id, firstID)
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Returner replays the same success return signal against a live session,
// mimicking a seller mashing reload on the return URL. Only committed and
// already-committed outcomes are legal.
func Returner(ctx context.Context, mgr *payment.Manager, s *wizard.Session, sig payment.Signal, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		outcome, err := mgr.Resume(ctx, s, sig)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("returner: resume: %w", err)
		}
		switch outcome.Kind {
		case payment.OutcomeCommitted, payment.OutcomeDuplicate:
		default:
			return fmt.Errorf("returner: unexpected outcome %d reason=%q", outcome.Kind, outcome.Reason)
		}
		time.Sleep(time.Duration(15+rand.Intn(35)) * time.Millisecond)
	}
}

// Browser reads listings by authority id while commits race, checking reads
// never error on a half-written row.
func Browser(ctx context.Context, pool *pgxpool.Pool, authorityID string, stop <-chan struct{}) error {
	repo := listing.NewRepository()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := repo.FindByAuthorityID(ctx, pool, authorityID)
		if err != nil && !errors.Is(err, listing.ErrListingNotFound) {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
			continue
		}
		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}

// OutboxWorker consumes pending outbox messages with SKIP LOCKED and marks
// them processed, with a simulated flake to exercise the retry counter.
func OutboxWorker(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			time.Sleep(50 * time.Millisecond)
			continue
		}
		rows, err := tx.Query(ctx, `SELECT id FROM outbox WHERE status='pending' ORDER BY created_at FOR UPDATE SKIP LOCKED LIMIT 10`)
		if err != nil {
			_ = tx.Rollback(ctx)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		ids := make([]string, 0, 10)
		for rows.Next() {
			var id string
			_ = rows.Scan(&id)
			ids = append(ids, id)
		}
		rows.Close()
		for _, id := range ids {
			if rand.Intn(10) == 0 {
				_, _ = tx.Exec(ctx, `UPDATE outbox SET attempts=attempts+1 WHERE id=$1`, id)
				continue
			}
			_, _ = tx.Exec(ctx, `UPDATE outbox SET status='processed' WHERE id=$1`, id)
		}
		_ = tx.Commit(ctx)
		time.Sleep(100 * time.Millisecond)
	}
}
