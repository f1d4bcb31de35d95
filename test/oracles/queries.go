package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

// All returns the invariant checks run against the live database while actors
// hammer the commit path. Every query returns rows only on violation.
func All() []Oracle {
	return []Oracle{
		{
			// The core guarantee: replayed success returns must never
			// produce a second listing for the same authority.
			Name: "O1_one_listing_per_authority",
			SQL: `SELECT mc_number, COUNT(*) FROM listings WHERE mc_number <> ''
                  GROUP BY mc_number HAVING COUNT(*) > 1
                  UNION ALL
                  SELECT dot_number, COUNT(*) FROM listings WHERE mc_number = '' AND dot_number <> ''
                  GROUP BY dot_number HAVING COUNT(*) > 1`,
		},
		{
			// Marker and listing are written in one transaction: a listing
			// without its marker means the idempotency key can be re-won.
			Name: "O2_listing_without_marker",
			SQL: `SELECT l.id, l.mc_number FROM listings l
                  WHERE NOT EXISTS (
                      SELECT 1 FROM commit_markers m
                      WHERE m.key = 'listing-commit:' || COALESCE(NULLIF(l.mc_number, ''), l.dot_number))`,
		},
		{
			Name: "O3_marker_without_listing",
			SQL: `SELECT m.key FROM commit_markers m
                  WHERE NOT EXISTS (
                      SELECT 1 FROM listings l
                      WHERE m.key = 'listing-commit:' || COALESCE(NULLIF(l.mc_number, ''), l.dot_number))`,
		},
		{
			Name: "O4_creation_event_exactly_once",
			SQL: `SELECT l.id, COUNT(e.id) FROM listings l
                  LEFT JOIN listing_events e ON e.listing_id = l.id AND e.type = 'LISTING_CREATED'
                  GROUP BY l.id HAVING COUNT(e.id) <> 1`,
		},
		{
			Name: "O5_outbox_message_exactly_once",
			SQL: `SELECT l.id, COUNT(o.id) FROM listings l
                  LEFT JOIN outbox o ON o.topic = 'listing.created'
                       AND o.payload->>'listing_id' = l.id::text
                  GROUP BY l.id HAVING COUNT(o.id) <> 1`,
		},
		{
			Name: "O6_outbox_not_stuck",
			SQL: `SELECT id, topic, attempts FROM outbox
                  WHERE status NOT IN ('processed', 'dead')
                    AND now() - created_at > interval '5 minutes'`,
		},
		{
			// Every listing enters moderation: pending_review, queued for
			// review, non-negative price.
			Name: "O7_entry_state",
			SQL: `SELECT id, status, price FROM listings
                  WHERE created_at > now() - interval '1 hour'
                    AND (status <> 'pending_review' OR submitted_for_review = false OR price < 0)`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and a sample
// row) or an empty name when all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
