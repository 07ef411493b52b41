package models

import "testing"

func TestCatalogEntryAvailableTo(t *testing.T) {
	tests := []struct {
		name   string
		entry  CatalogEntry
		tier   Tier
		want   bool
	}{
		{"free model to anonymous", CatalogEntry{Status: StatusActive, IsFree: true}, TierAnonymous, true},
		{"free model to free", CatalogEntry{Status: StatusActive, IsFree: true}, TierFree, true},
		{"free model to enterprise", CatalogEntry{Status: StatusActive, IsFree: true}, TierEnterprise, true},
		{"pro model to free", CatalogEntry{Status: StatusActive, IsPro: true}, TierFree, false},
		{"pro model to pro", CatalogEntry{Status: StatusActive, IsPro: true}, TierPro, true},
		{"pro model to enterprise", CatalogEntry{Status: StatusActive, IsPro: true}, TierEnterprise, true},
		{"enterprise model to pro", CatalogEntry{Status: StatusActive, IsEnterprise: true}, TierPro, false},
		{"new model hidden from everyone", CatalogEntry{Status: StatusNew, IsFree: true}, TierEnterprise, false},
		{"inactive model hidden", CatalogEntry{Status: StatusInactive, IsFree: true}, TierFree, false},
		{"disabled model hidden", CatalogEntry{Status: StatusDisabled, IsFree: true}, TierFree, false},
		{"no flags set", CatalogEntry{Status: StatusActive}, TierEnterprise, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.AvailableTo(tt.tier); got != tt.want {
				t.Errorf("AvailableTo(%s) = %t, want %t", tt.tier, got, tt.want)
			}
		})
	}
}

// Higher tiers must always see a superset of lower tiers.
func TestTierAccessMonotonic(t *testing.T) {
	entries := []CatalogEntry{
		{ModelID: "a", Status: StatusActive, IsFree: true},
		{ModelID: "b", Status: StatusActive, IsPro: true},
		{ModelID: "c", Status: StatusActive, IsEnterprise: true},
		{ModelID: "d", Status: StatusActive, IsFree: true, IsPro: true},
		{ModelID: "e", Status: StatusNew, IsFree: true},
		{ModelID: "f", Status: StatusActive},
	}
	order := []Tier{TierAnonymous, TierFree, TierPro, TierEnterprise}

	for i := 1; i < len(order); i++ {
		lower, higher := order[i-1], order[i]
		for _, e := range entries {
			if e.AvailableTo(lower) && !e.AvailableTo(higher) {
				t.Errorf("model %s available to %s but not to %s", e.ModelID, lower, higher)
			}
		}
	}
}
