package wizard

import "sync"

// FormUpdate carries a shallow partial update of the snapshot. Nil pointers
// leave the corresponding field untouched.
type FormUpdate struct {
	MCNumber  *string `json:"mcNumber,omitempty"`
	DOTNumber *string `json:"dotNumber,omitempty"`

	LegalName    *string  `json:"legalName,omitempty"`
	DBAName      *string  `json:"dbaName,omitempty"`
	Address      *string  `json:"address,omitempty"`
	City         *string  `json:"city,omitempty"`
	State        *string  `json:"state,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	PowerUnits   *int     `json:"powerUnits,omitempty"`
	Drivers      *int     `json:"drivers,omitempty"`
	MCS150Date   *string  `json:"mcs150Date,omitempty"`
	SafetyRating *string  `json:"safetyRating,omitempty"`
	Insurance    *string  `json:"insuranceOnFile,omitempty"`
	CargoTypes   []string `json:"cargoTypes,omitempty"`

	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *string `json:"price,omitempty"`
	ListState   *string `json:"listState,omitempty"`
	ListCity    *string `json:"listCity,omitempty"`

	AmazonSetup        *bool `json:"amazonSetup,omitempty"`
	FactoringEnabled   *bool `json:"factoringEnabled,omitempty"`
	IncludeContactInfo *bool `json:"includeContactInfo,omitempty"`

	Documents []string `json:"documents,omitempty"`
}

// RegistryFill holds the values a successful registry lookup wants to merge
// into the snapshot. The store only applies entries whose target field has not
// been edited by the seller.
type RegistryFill struct {
	LegalName        string
	DBAName          string
	Address          string
	City             string
	State            string
	Phone            string
	PowerUnits       int
	Drivers          int
	MCS150Date       string
	SafetyRating     string
	YearsActive      int
	Insurance        string
	CargoTypes       []string
	AllowedToOperate bool
	Title            string
}

// FormStore is a pure value holder for the wizard snapshot. It performs no
// validation; guards live in the navigator and in the excursion manager.
type FormStore struct {
	mu      sync.Mutex
	snap    FormSnapshot
	touched map[string]bool
}

func NewFormStore() *FormStore {
	return &FormStore{touched: make(map[string]bool)}
}

// Get returns a copy of the current snapshot.
func (f *FormStore) Get() FormSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

// Apply shallow-merges a seller edit into the snapshot and records which
// registry-fillable fields were touched, so later lookups cannot clobber them.
func (f *FormStore) Apply(u FormUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()

	setStr := func(dst *string, src *string, field string) {
		if src != nil {
			*dst = *src
			if field != "" {
				f.touched[field] = true
			}
		}
	}
	setInt := func(dst *int, src *int, field string) {
		if src != nil {
			*dst = *src
			if field != "" {
				f.touched[field] = true
			}
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	setStr(&f.snap.MCNumber, u.MCNumber, "")
	setStr(&f.snap.DOTNumber, u.DOTNumber, "")

	setStr(&f.snap.LegalName, u.LegalName, FieldLegalName)
	setStr(&f.snap.DBAName, u.DBAName, FieldDBAName)
	setStr(&f.snap.Address, u.Address, FieldAddress)
	setStr(&f.snap.City, u.City, FieldCity)
	setStr(&f.snap.State, u.State, FieldState)
	setStr(&f.snap.Phone, u.Phone, FieldPhone)
	setInt(&f.snap.PowerUnits, u.PowerUnits, FieldPowerUnits)
	setInt(&f.snap.Drivers, u.Drivers, FieldDrivers)
	setStr(&f.snap.MCS150Date, u.MCS150Date, FieldMCS150Date)
	setStr(&f.snap.SafetyRating, u.SafetyRating, FieldSafetyRating)
	setStr(&f.snap.InsuranceOnFile, u.Insurance, FieldInsurance)
	if u.CargoTypes != nil {
		f.snap.CargoTypes = u.CargoTypes
		f.touched[FieldCargoTypes] = true
	}

	setStr(&f.snap.Title, u.Title, FieldTitle)
	setStr(&f.snap.Description, u.Description, "")
	setStr(&f.snap.Price, u.Price, "")
	setStr(&f.snap.ListState, u.ListState, "")
	setStr(&f.snap.ListCity, u.ListCity, "")

	setBool(&f.snap.AmazonSetup, u.AmazonSetup)
	setBool(&f.snap.FactoringEnabled, u.FactoringEnabled)
	setBool(&f.snap.IncludeContactInfo, u.IncludeContactInfo)

	if u.Documents != nil {
		f.snap.Documents = u.Documents
	}
}

// FillFromRegistry merges lookup results into the snapshot. Fields the seller
// already edited keep their value; only untouched registry-origin fields are
// written. AllowedToOperate and LookupDone are registry-owned and always set.
func (f *FormStore) FillFromRegistry(fill RegistryFill) {
	f.mu.Lock()
	defer f.mu.Unlock()

	set := func(dst *string, val, field string) {
		if !f.touched[field] {
			*dst = val
		}
	}
	set(&f.snap.LegalName, fill.LegalName, FieldLegalName)
	set(&f.snap.DBAName, fill.DBAName, FieldDBAName)
	set(&f.snap.Address, fill.Address, FieldAddress)
	set(&f.snap.City, fill.City, FieldCity)
	set(&f.snap.State, fill.State, FieldState)
	set(&f.snap.Phone, fill.Phone, FieldPhone)
	set(&f.snap.MCS150Date, fill.MCS150Date, FieldMCS150Date)
	set(&f.snap.SafetyRating, fill.SafetyRating, FieldSafetyRating)
	set(&f.snap.InsuranceOnFile, fill.Insurance, FieldInsurance)
	set(&f.snap.Title, fill.Title, FieldTitle)
	if !f.touched[FieldPowerUnits] {
		f.snap.PowerUnits = fill.PowerUnits
	}
	if !f.touched[FieldDrivers] {
		f.snap.Drivers = fill.Drivers
	}
	if !f.touched[FieldYearsActive] {
		f.snap.YearsActive = fill.YearsActive
	}
	if !f.touched[FieldCargoTypes] {
		f.snap.CargoTypes = fill.CargoTypes
	}
	f.snap.AllowedToOperate = fill.AllowedToOperate
	f.snap.LookupDone = true
}

// Touched returns the names of seller-edited fields in no particular order.
func (f *FormStore) Touched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.touched))
	for k := range f.touched {
		out = append(out, k)
	}
	return out
}

// Replace swaps in a rehydrated snapshot and its touched set. Used only when
// resuming from the persistence bridge after the payment excursion.
func (f *FormStore) Replace(snap FormSnapshot, touched []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap
	f.touched = make(map[string]bool, len(touched))
	for _, k := range touched {
		f.touched[k] = true
	}
}
