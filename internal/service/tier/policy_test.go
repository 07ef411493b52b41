package tier

import (
	"testing"
	"time"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
)

func testSnapshot() []models.CatalogEntry {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return []models.CatalogEntry{
		{ModelID: "free-a", Status: models.StatusActive, IsFree: true, LastSyncedAt: at},
		{ModelID: "pro-b", Status: models.StatusActive, IsPro: true, LastSyncedAt: at},
		{ModelID: "ent-c", Status: models.StatusActive, IsEnterprise: true, LastSyncedAt: at},
		{ModelID: "new-d", Status: models.StatusNew, IsFree: true, LastSyncedAt: at},
		{ModelID: "inactive-e", Status: models.StatusInactive, IsFree: true, LastSyncedAt: at},
	}
}

func TestNewPolicyLoadsAllTiers(t *testing.T) {
	p, err := NewPolicy()
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	for _, tierName := range []models.Tier{models.TierAnonymous, models.TierFree, models.TierPro, models.TierEnterprise} {
		if _, ok := p.defaults.Tiers[string(tierName)]; !ok {
			t.Errorf("missing defaults for tier %s", tierName)
		}
	}
}

func TestResolveModelAccess(t *testing.T) {
	p, err := NewPolicy()
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	snapshot := testSnapshot()

	tests := []struct {
		tier models.Tier
		want []string
	}{
		{models.TierAnonymous, []string{"free-a"}},
		{models.TierFree, []string{"free-a"}},
		{models.TierPro, []string{"free-a", "pro-b"}},
		{models.TierEnterprise, []string{"ent-c", "free-a", "pro-b"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			res := p.Resolve(tt.tier, snapshot)
			if len(res.AllowedModelIDs) != len(tt.want) {
				t.Fatalf("AllowedModelIDs = %v, want %v", res.AllowedModelIDs, tt.want)
			}
			for i, id := range tt.want {
				if res.AllowedModelIDs[i] != id {
					t.Errorf("AllowedModelIDs[%d] = %q, want %q", i, res.AllowedModelIDs[i], id)
				}
			}
		})
	}
}

func TestResolveUnknownTierGetsAnonymousTreatment(t *testing.T) {
	p, err := NewPolicy()
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}

	res := p.Resolve(models.Tier("platinum"), testSnapshot())
	if res.Tier != models.TierAnonymous {
		t.Errorf("Tier = %s, want %s", res.Tier, models.TierAnonymous)
	}
	if res.CanUseServerSearch {
		t.Error("unknown tier should not get server search")
	}
	if res.CanSyncConversations {
		t.Error("unknown tier should not get conversation sync")
	}
}

func TestResolveFeatureFlagsMonotonic(t *testing.T) {
	p, err := NewPolicy()
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	snapshot := testSnapshot()
	order := []models.Tier{models.TierAnonymous, models.TierFree, models.TierPro, models.TierEnterprise}

	for i := 1; i < len(order); i++ {
		lower := p.Resolve(order[i-1], snapshot)
		higher := p.Resolve(order[i], snapshot)

		if lower.CanUseServerSearch && !higher.CanUseServerSearch {
			t.Errorf("%s has server search but %s does not", order[i-1], order[i])
		}
		if lower.CanSyncConversations && !higher.CanSyncConversations {
			t.Errorf("%s can sync but %s cannot", order[i-1], order[i])
		}
		if lower.Limits.Chat > higher.Limits.Chat {
			t.Errorf("chat limit decreases from %s to %s", order[i-1], order[i])
		}
		if lower.MaxTokensPerRequest > higher.MaxTokensPerRequest {
			t.Errorf("token ceiling decreases from %s to %s", order[i-1], order[i])
		}
		if len(lower.AllowedModelIDs) > len(higher.AllowedModelIDs) {
			t.Errorf("model set shrinks from %s to %s", order[i-1], order[i])
		}
	}
}

func TestResolveAnonymousRestrictions(t *testing.T) {
	p, err := NewPolicy()
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}

	res := p.Resolve(models.TierAnonymous, testSnapshot())
	if res.CanUseServerSearch {
		t.Error("anonymous must not get server search")
	}
	if res.CanSyncConversations {
		t.Error("anonymous must not get conversation sync")
	}
	if res.Limits.Search != 0 {
		t.Errorf("anonymous search limit = %d, want 0", res.Limits.Search)
	}
}

func TestAllowsModel(t *testing.T) {
	res := &Resolution{AllowedModelIDs: []string{"a", "c", "m"}}

	if !res.AllowsModel("c") {
		t.Error("AllowsModel(c) = false, want true")
	}
	if res.AllowsModel("b") {
		t.Error("AllowsModel(b) = true, want false")
	}
	if res.AllowsModel("") {
		t.Error("AllowsModel(\"\") = true, want false")
	}
}

// Identical (tier, snapshot) pairs must return identical resolutions,
// cached or not.
func TestResolveDeterministic(t *testing.T) {
	p, err := NewPolicy()
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	snapshot := testSnapshot()

	first := p.Resolve(models.TierPro, snapshot)
	second := p.Resolve(models.TierPro, snapshot)
	if first != second {
		// Pointer equality proves the memoization path was taken.
		t.Error("expected cached resolution on second call")
	}
}
