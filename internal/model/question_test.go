package model

import "testing"

func TestCollectionFromProvenance(t *testing.T) {
	tests := []struct {
		tag        string
		collection string
		ok         bool
	}{
		{"calc_pages_1-3", "calc", true},
		{"calc_page_4", "calc", true},
		{"intro_pages_vol1_pages_1-3", "intro_pages_vol1", true},
		{"intro_pages_vol1_page_3", "intro_pages_vol1", true},
		{"_pages_1-3", "", false},
		{"a verbatim excerpt", "", false},
	}

	for _, tt := range tests {
		collection, ok := CollectionFromProvenance(tt.tag)
		if collection != tt.collection || ok != tt.ok {
			t.Errorf("CollectionFromProvenance(%q) = %q, %v; want %q, %v", tt.tag, collection, ok, tt.collection, tt.ok)
		}
	}
}

func TestWorkUnitIDRoundTrip(t *testing.T) {
	for _, name := range []string{"algebra", "intro_pages_vol1", "notes_page_two"} {
		unit := WorkUnit{Collection: name, StartPage: 4, EndPage: 6}
		got, ok := CollectionFromProvenance(unit.ID())
		if !ok || got != name {
			t.Errorf("ID %q resolved to %q, want %q", unit.ID(), got, name)
		}
	}
}
