package wizard

import (
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestFormStore_ApplyShallowMerge(t *testing.T) {
	store := NewFormStore()

	store.Apply(FormUpdate{
		MCNumber: strPtr("123456"),
		Title:    strPtr("My Authority"),
		Price:    strPtr("15000"),
	})
	store.Apply(FormUpdate{
		ListState: strPtr("TX"),
	})

	snap := store.Get()
	if snap.MCNumber != "123456" {
		t.Fatalf("expected mc number to persist, got %q", snap.MCNumber)
	}
	if snap.Title != "My Authority" || snap.Price != "15000" || snap.ListState != "TX" {
		t.Fatalf("expected merged snapshot, got %+v", snap)
	}
}

func TestFormStore_LookupDoesNotClobberTouchedFields(t *testing.T) {
	store := NewFormStore()

	// Seller edits the legal name and title by hand first.
	store.Apply(FormUpdate{
		LegalName: strPtr("Custom Name Inc"),
		Title:     strPtr("Hand-written title"),
	})

	store.FillFromRegistry(RegistryFill{
		LegalName:  "Acme Trucking LLC",
		State:      "TX",
		PowerUnits: 12,
		Title:      "Acme Trucking LLC - MC #123456",
	})

	snap := store.Get()
	if snap.LegalName != "Custom Name Inc" {
		t.Fatalf("lookup overwrote seller-edited legal name: %q", snap.LegalName)
	}
	if snap.Title != "Hand-written title" {
		t.Fatalf("lookup overwrote seller-edited title: %q", snap.Title)
	}
	if snap.State != "TX" || snap.PowerUnits != 12 {
		t.Fatalf("expected untouched fields to be auto-filled, got %+v", snap)
	}
	if !snap.LookupDone {
		t.Fatal("expected lookup flag to be set")
	}
}

func TestFormStore_RepeatedFillIsIdempotent(t *testing.T) {
	store := NewFormStore()
	fill := RegistryFill{
		LegalName:   "Acme Trucking LLC",
		State:       "TX",
		PowerUnits:  12,
		CargoTypes:  []string{"general freight"},
		YearsActive: 6,
		Title:       "Acme Trucking LLC - MC #123456",
	}

	store.FillFromRegistry(fill)
	first := store.Get()
	store.FillFromRegistry(fill)
	second := store.Get()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated lookup merge drifted:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestFormStore_ReplaceRestoresTouchedSet(t *testing.T) {
	store := NewFormStore()
	store.Apply(FormUpdate{LegalName: strPtr("Edited Co")})
	snap := store.Get()
	touched := store.Touched()

	restored := NewFormStore()
	restored.Replace(snap, touched)
	restored.FillFromRegistry(RegistryFill{LegalName: "Registry Co"})

	if got := restored.Get().LegalName; got != "Edited Co" {
		t.Fatalf("touched set lost across replace: legal name %q", got)
	}
}

func TestFormStore_BoolAndDocumentUpdates(t *testing.T) {
	store := NewFormStore()
	store.Apply(FormUpdate{
		AmazonSetup:      boolPtr(true),
		FactoringEnabled: boolPtr(true),
		PowerUnits:       intPtr(5),
		Documents:        []string{"doc-1.pdf"},
	})

	snap := store.Get()
	if !snap.AmazonSetup || !snap.FactoringEnabled {
		t.Fatalf("expected toggles set, got %+v", snap)
	}
	if snap.PowerUnits != 5 {
		t.Fatalf("expected power units 5, got %d", snap.PowerUnits)
	}
	if len(snap.Documents) != 1 || snap.Documents[0] != "doc-1.pdf" {
		t.Fatalf("expected document reference, got %v", snap.Documents)
	}
}

func TestFormSnapshot_AuthorityID(t *testing.T) {
	snap := FormSnapshot{MCNumber: "123456", DOTNumber: "987654"}
	if snap.AuthorityID() != "123456" {
		t.Fatalf("expected MC preferred, got %q", snap.AuthorityID())
	}
	snap = FormSnapshot{DOTNumber: "987654"}
	if snap.AuthorityID() != "987654" {
		t.Fatalf("expected DOT fallback, got %q", snap.AuthorityID())
	}
	if (FormSnapshot{}).HasIdentifier() {
		t.Fatal("empty snapshot must not report an identifier")
	}
}
