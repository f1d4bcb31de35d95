package listing

import (
	"strconv"
	"strings"
	"time"

	"mcmarket/wizard"
)

// Status represents the lifecycle of a listing record.
type Status string

const (
	// StatusPendingReview is the entry state for the payment-gated path:
	// money has moved, so the listing goes to moderation, never to draft.
	StatusPendingReview Status = "pending_review"
	StatusActive        Status = "active"
	StatusRejected      Status = "rejected"
	StatusSold          Status = "sold"
)

// Record mirrors the listings table.
type Record struct {
	ID                 string
	MCNumber           string
	DOTNumber          string
	Title              string
	Description        string
	Price              float64
	State              string
	City               string
	LegalName          string
	PowerUnits         int
	Drivers            int
	SafetyRating       string
	YearsActive        int
	AmazonStatus       string
	FactoringEnabled   bool
	IncludeContactInfo bool
	Status             Status
	SubmittedForReview bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CreateParams contains the write parameters for creating a listing.
type CreateParams struct {
	MCNumber           string
	DOTNumber          string
	Title              string
	Description        string
	Price              float64
	State              string
	City               string
	LegalName          string
	PowerUnits         int
	Drivers            int
	SafetyRating       string
	YearsActive        int
	AmazonStatus       string
	FactoringEnabled   bool
	IncludeContactInfo bool
}

// ParamsFromSnapshot maps a finalized wizard snapshot onto the persistence
// shape. Malformed numeric input falls back to zero instead of failing; enum
// fields are normalized to the casing the persistence API expects.
func ParamsFromSnapshot(snap wizard.FormSnapshot) CreateParams {
	return CreateParams{
		MCNumber:           snap.MCNumber,
		DOTNumber:          snap.DOTNumber,
		Title:              snap.Title,
		Description:        snap.Description,
		Price:              parsePrice(snap.Price),
		State:              snap.ListState,
		City:               snap.ListCity,
		LegalName:          snap.LegalName,
		PowerUnits:         snap.PowerUnits,
		Drivers:            snap.Drivers,
		SafetyRating:       normalizeRating(snap.SafetyRating),
		YearsActive:        snap.YearsActive,
		AmazonStatus:       normalizeAmazon(snap.AmazonSetup),
		FactoringEnabled:   snap.FactoringEnabled,
		IncludeContactInfo: snap.IncludeContactInfo,
	}
}

// parsePrice parses a decimal string leniently: currency symbols, thousands
// separators, and garbage all degrade to 0 rather than erroring.
func parsePrice(raw string) float64 {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func normalizeRating(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "satisfactory":
		return "SATISFACTORY"
	case "conditional":
		return "CONDITIONAL"
	case "unsatisfactory":
		return "UNSATISFACTORY"
	default:
		return "NOT_RATED"
	}
}

func normalizeAmazon(setup bool) string {
	if setup {
		return "SETUP_COMPLETE"
	}
	return "NOT_SETUP"
}
