package wizard

// FormSnapshot is the single source of truth for an in-progress listing. It is
// the value that crosses the payment excursion boundary, so every field must
// survive a JSON round trip with its type intact.
type FormSnapshot struct {
	// Authority identifiers. At least one is required before a registry
	// lookup or a payment excursion can start.
	MCNumber  string `json:"mcNumber"`
	DOTNumber string `json:"dotNumber"`

	// Registry-derived fields. Filled by the enricher, never overwritten
	// once the seller has edited them by hand.
	LegalName        string   `json:"legalName"`
	DBAName          string   `json:"dbaName"`
	Address          string   `json:"address"`
	City             string   `json:"city"`
	State            string   `json:"state"`
	Phone            string   `json:"phone"`
	PowerUnits       int      `json:"powerUnits"`
	Drivers          int      `json:"drivers"`
	MCS150Date       string   `json:"mcs150Date"`
	SafetyRating     string   `json:"safetyRating"`
	YearsActive      int      `json:"yearsActive"`
	InsuranceOnFile  string   `json:"insuranceOnFile"`
	CargoTypes       []string `json:"cargoTypes"`
	AllowedToOperate bool     `json:"allowedToOperate"`

	// Listing fields entered by the seller. Price stays a decimal string
	// until commit time, where it is parsed leniently.
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ListState   string `json:"listState"`
	ListCity    string `json:"listCity"`

	// Feature toggles.
	AmazonSetup        bool `json:"amazonSetup"`
	FactoringEnabled   bool `json:"factoringEnabled"`
	IncludeContactInfo bool `json:"includeContactInfo"`

	// References to uploaded documents (step 4).
	Documents []string `json:"documents"`

	// Set after a successful registry lookup. Display concern only; the
	// state machine never branches on it.
	LookupDone bool `json:"lookupDone"`
}

// AuthorityID returns the identifier the listing is keyed by, preferring the
// MC number over the DOT number.
func (s FormSnapshot) AuthorityID() string {
	if s.MCNumber != "" {
		return s.MCNumber
	}
	return s.DOTNumber
}

// HasIdentifier reports whether at least one authority identifier is present.
func (s FormSnapshot) HasIdentifier() bool {
	return s.MCNumber != "" || s.DOTNumber != ""
}

// Field names used for touched-field tracking. Only fields the registry can
// fill need a name; everything else is always seller-owned.
const (
	FieldLegalName    = "legalName"
	FieldDBAName      = "dbaName"
	FieldAddress      = "address"
	FieldCity         = "city"
	FieldState        = "state"
	FieldPhone        = "phone"
	FieldPowerUnits   = "powerUnits"
	FieldDrivers      = "drivers"
	FieldMCS150Date   = "mcs150Date"
	FieldSafetyRating = "safetyRating"
	FieldYearsActive  = "yearsActive"
	FieldInsurance    = "insuranceOnFile"
	FieldCargoTypes   = "cargoTypes"
	FieldTitle        = "title"
)

// Status tracks the terminal outcome of the payment excursion for a session.
type Status string

const (
	StatusIdle             Status = "idle"
	StatusAwaitingRedirect Status = "awaiting_redirect"
	StatusCommitted        Status = "committed"
	StatusFailed           Status = "failed"
)
