package registry

import "errors"

var (
	// ErrNotFound signals the registry has no carrier for the identifier.
	ErrNotFound = errors.New("registry: carrier not found")
	// ErrUpstream signals a transport or server failure at the registry.
	ErrUpstream = errors.New("registry: upstream failure")
)

// CarrierRecord mirrors the carrier registry's response shape.
type CarrierRecord struct {
	LegalName        string   `json:"legalName"`
	DBAName          string   `json:"dbaName"`
	PhysicalAddress  string   `json:"physicalAddress"`
	HQCity           string   `json:"hqCity"`
	HQState          string   `json:"hqState"`
	Phone            string   `json:"phone"`
	TotalPowerUnits  int      `json:"totalPowerUnits"`
	TotalDrivers     int      `json:"totalDrivers"`
	MCS150Date       string   `json:"mcs150Date"`
	AllowedToOperate string   `json:"allowedToOperate"`
	SafetyRating     string   `json:"safetyRating"`
	InsuranceOnFile  string   `json:"insuranceOnFile"`
	CargoTypes       []string `json:"cargoTypes"`
	DOTNumber        string   `json:"dotNumber"`
}

// Identifier carries the two accepted authority identifier formats. At least
// one must be set; MC wins when both are present.
type Identifier struct {
	MC  string
	DOT string
}
