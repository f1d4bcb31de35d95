package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateCommitKey signals the commit marker already exists: a
	// listing for this authority was committed by an earlier evaluation.
	ErrDuplicateCommitKey = errors.New("listing: duplicate commit key")
	// ErrListingNotFound is returned when no listing row exists.
	ErrListingNotFound = errors.New("listing: not found")
)

// Querier is satisfied by both pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// InsertCommitMarker reserves the durable, identifier-keyed commit marker
// inside the active transaction. The unique constraint is what makes the
// at-most-one-listing guarantee hold across fresh page loads and tabs.
func (r *Repository) InsertCommitMarker(ctx context.Context, tx pgx.Tx, key string) error {
	if key == "" {
		return fmt.Errorf("listing: empty commit marker key")
	}
	_, err := tx.Exec(ctx, `INSERT INTO commit_markers (key) VALUES ($1)`, key)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCommitKey
		}
		return fmt.Errorf("listing: insert commit marker: %w", err)
	}
	return nil
}

const listingColumns = `id, mc_number, dot_number, title, description, price, state, city, legal_name,
power_units, drivers, safety_rating, years_active, amazon_status, factoring_enabled,
include_contact_info, status, submitted_for_review, created_at, updated_at`

// Create inserts the listing row inside the active transaction, together with
// its creation event and the outbox message for downstream consumers.
func (r *Repository) Create(ctx context.Context, tx pgx.Tx, params CreateParams) (Record, error) {
	if params.MCNumber == "" && params.DOTNumber == "" {
		return Record{}, fmt.Errorf("listing: authority identifier required")
	}

	insertSQL := `
INSERT INTO listings (mc_number, dot_number, title, description, price, state, city, legal_name,
                      power_units, drivers, safety_rating, years_active, amazon_status,
                      factoring_enabled, include_contact_info, status, submitted_for_review)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,'pending_review',true)
RETURNING ` + listingColumns

	rec, err := scanRecord(tx.QueryRow(ctx, insertSQL,
		params.MCNumber,
		params.DOTNumber,
		params.Title,
		params.Description,
		params.Price,
		params.State,
		params.City,
		params.LegalName,
		params.PowerUnits,
		params.Drivers,
		params.SafetyRating,
		params.YearsActive,
		params.AmazonStatus,
		params.FactoringEnabled,
		params.IncludeContactInfo,
	))
	if err != nil {
		return Record{}, fmt.Errorf("listing: insert: %w", err)
	}

	eventPayload := map[string]any{
		"listing_id": rec.ID,
		"mc_number":  rec.MCNumber,
		"price":      rec.Price,
		"status":     string(rec.Status),
	}
	if err := insertEvent(ctx, tx, rec.ID, "LISTING_CREATED", eventPayload); err != nil {
		return Record{}, err
	}

	outboxPayload := map[string]any{
		"listing_id": rec.ID,
		"mc_number":  rec.MCNumber,
		"status":     string(rec.Status),
	}
	if err := enqueueOutbox(ctx, tx, "listing.created", outboxPayload); err != nil {
		return Record{}, err
	}

	return rec, nil
}

// FindByAuthorityID returns the listing committed for the given identifier.
func (r *Repository) FindByAuthorityID(ctx context.Context, q Querier, authorityID string) (Record, error) {
	findSQL := `SELECT ` + listingColumns + ` FROM listings WHERE mc_number = $1 OR dot_number = $1 LIMIT 1`
	rec, err := scanRecord(q.QueryRow(ctx, findSQL, authorityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrListingNotFound
		}
		return Record{}, fmt.Errorf("listing: find by authority id: %w", err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.MCNumber,
		&rec.DOTNumber,
		&rec.Title,
		&rec.Description,
		&rec.Price,
		&rec.State,
		&rec.City,
		&rec.LegalName,
		&rec.PowerUnits,
		&rec.Drivers,
		&rec.SafetyRating,
		&rec.YearsActive,
		&rec.AmazonStatus,
		&rec.FactoringEnabled,
		&rec.IncludeContactInfo,
		&rec.Status,
		&rec.SubmittedForReview,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func insertEvent(ctx context.Context, tx pgx.Tx, listingID string, eventType string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("listing: marshal event payload: %w", err)
	}
	const q = `INSERT INTO listing_events (listing_id, type, payload) VALUES ($1, $2, $3::jsonb)`
	if _, err := tx.Exec(ctx, q, listingID, eventType, body); err != nil {
		return fmt.Errorf("listing: insert event: %w", err)
	}
	return nil
}

func enqueueOutbox(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("listing: marshal outbox payload: %w", err)
	}
	const q = `INSERT INTO outbox (topic, payload) VALUES ($1, $2::jsonb)`
	if _, err := tx.Exec(ctx, q, topic, body); err != nil {
		return fmt.Errorf("listing: enqueue outbox: %w", err)
	}
	return nil
}
