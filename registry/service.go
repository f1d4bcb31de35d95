package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mcmarket/wizard"
)

const yearLength = 365.25 * 24 * time.Hour

// Service runs lookups against the carrier registry and merges normalized
// results into the form store. Failures leave the snapshot untouched.
type Service struct {
	client Client
	now    func() time.Time
}

func NewService(client Client) *Service {
	return &Service{
		client: client,
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Lookup queries the registry, preferring the MC identifier over DOT, and
// merges the derived fields into the form. Only registry-origin fields the
// seller has not edited are auto-filled; repeated lookups with identical
// input are idempotent.
func (s *Service) Lookup(ctx context.Context, id Identifier, form *wizard.FormStore) (CarrierRecord, error) {
	var (
		rec  CarrierRecord
		used string
		err  error
	)
	switch {
	case id.MC != "":
		used = id.MC
		rec, err = s.client.ByMCNumber(ctx, id.MC)
	case id.DOT != "":
		used = id.DOT
		rec, err = s.client.ByDOTNumber(ctx, id.DOT)
	default:
		return CarrierRecord{}, wizard.ErrIdentifierRequired
	}
	if err != nil {
		return CarrierRecord{}, err
	}

	form.FillFromRegistry(wizard.RegistryFill{
		LegalName:        rec.LegalName,
		DBAName:          rec.DBAName,
		Address:          displayAddress(rec.PhysicalAddress, rec.HQCity, rec.HQState),
		City:             rec.HQCity,
		State:            rec.HQState,
		Phone:            rec.Phone,
		PowerUnits:       rec.TotalPowerUnits,
		Drivers:          rec.TotalDrivers,
		MCS150Date:       rec.MCS150Date,
		SafetyRating:     classifyRating(rec.SafetyRating),
		YearsActive:      s.yearsActive(rec.MCS150Date),
		Insurance:        rec.InsuranceOnFile,
		CargoTypes:       rec.CargoTypes,
		AllowedToOperate: rec.AllowedToOperate == "Y",
		Title:            fmt.Sprintf("%s - MC #%s", rec.LegalName, used),
	})
	return rec, nil
}

// displayAddress joins the present parts of street, city, and state.
func displayAddress(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, ", ")
}

// classifyRating maps the registry's free-form safety rating onto the coarse
// classes the marketplace displays.
func classifyRating(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	// "unsatisfactory" contains "satisfactory", so it must match first.
	case strings.Contains(lower, "unsatisfactory"):
		return "unsatisfactory"
	case strings.Contains(lower, "satisfactory"):
		return "satisfactory"
	case strings.Contains(lower, "conditional"):
		return "conditional"
	default:
		return "not-rated"
	}
}

// yearsActive derives whole years since the MCS-150 date, discarding zero or
// negative results. Unparseable dates yield 0.
func (s *Service) yearsActive(mcs150 string) int {
	if mcs150 == "" {
		return 0
	}
	t, err := time.Parse("2006-01-02", mcs150)
	if err != nil {
		return 0
	}
	years := int(s.now().Sub(t) / yearLength)
	if years <= 0 {
		return 0
	}
	return years
}
