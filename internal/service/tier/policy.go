// Package tier resolves a subscription tier into the feature flags,
// model allow-list and rate ceilings that every tier-gated operation
// consults.
package tier

import (
	"embed"
	"fmt"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gopkg.in/yaml.v3"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
)

//go:embed config/*.yaml
var configFiles embed.FS

// RateWindow is the accounting window for requests_per_hour ceilings.
const RateWindow = time.Hour

// tierDefaults is the YAML shape of config/tiers.yaml
type tierDefaults struct {
	Tiers map[string]struct {
		RequestsPerHour struct {
			Chat   int `yaml:"chat"`
			Search int `yaml:"search"`
			Sync   int `yaml:"sync"`
		} `yaml:"requests_per_hour"`
		MaxTokensPerRequest  int  `yaml:"max_tokens_per_request"`
		CanSyncConversations bool `yaml:"can_sync_conversations"`
		CanUseServerSearch   bool `yaml:"can_use_server_search"`
	} `yaml:"tiers"`
}

// Limits holds per-endpoint-class request ceilings for one tier.
type Limits struct {
	Chat   int
	Search int
	Sync   int
}

// Resolution is the full answer for one (tier, catalog snapshot) pair.
// It is a pure function of its inputs, which makes it safe to cache.
type Resolution struct {
	Tier                 models.Tier
	AllowedModelIDs      []string // sorted
	Limits               Limits
	MaxTokensPerRequest  int
	CanSyncConversations bool
	CanUseServerSearch   bool
}

// AllowsModel reports whether the model id is in the allow-list.
func (r *Resolution) AllowsModel(modelID string) bool {
	i := sort.SearchStrings(r.AllowedModelIDs, modelID)
	return i < len(r.AllowedModelIDs) && r.AllowedModelIDs[i] == modelID
}

// Policy resolves tiers against catalog snapshots. Resolutions are
// memoized per (tier, snapshot version); the cache invalidates
// implicitly because a sync that changes the catalog changes the
// snapshot version.
type Policy struct {
	defaults tierDefaults
	cache    *gocache.Cache
}

// NewPolicy loads the embedded per-tier defaults.
func NewPolicy() (*Policy, error) {
	data, err := configFiles.ReadFile("config/tiers.yaml")
	if err != nil {
		return nil, fmt.Errorf("read tier defaults: %w", err)
	}

	var defaults tierDefaults
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return nil, fmt.Errorf("unmarshal tier defaults: %w", err)
	}

	for _, t := range []models.Tier{models.TierAnonymous, models.TierFree, models.TierPro, models.TierEnterprise} {
		if _, ok := defaults.Tiers[string(t)]; !ok {
			return nil, fmt.Errorf("tier defaults missing tier %q", t)
		}
	}

	return &Policy{
		defaults: defaults,
		cache:    gocache.New(15*time.Minute, 5*time.Minute),
	}, nil
}

// Resolve computes the resolution for a tier against a catalog
// snapshot. Identical inputs always yield identical outputs.
func (p *Policy) Resolve(tier models.Tier, snapshot []models.CatalogEntry) *Resolution {
	key := fmt.Sprintf("%s|%s", tier, snapshotVersion(snapshot))
	if v, ok := p.cache.Get(key); ok {
		return v.(*Resolution)
	}

	res := p.resolve(tier, snapshot)
	p.cache.Set(key, res, gocache.DefaultExpiration)
	return res
}

func (p *Policy) resolve(tier models.Tier, snapshot []models.CatalogEntry) *Resolution {
	d, ok := p.defaults.Tiers[string(tier)]
	if !ok {
		// Unknown tiers get the most restricted treatment
		d = p.defaults.Tiers[string(models.TierAnonymous)]
		tier = models.TierAnonymous
	}

	allowed := make([]string, 0, len(snapshot))
	for i := range snapshot {
		if snapshot[i].AvailableTo(tier) {
			allowed = append(allowed, snapshot[i].ModelID)
		}
	}
	sort.Strings(allowed)

	return &Resolution{
		Tier:            tier,
		AllowedModelIDs: allowed,
		Limits: Limits{
			Chat:   d.RequestsPerHour.Chat,
			Search: d.RequestsPerHour.Search,
			Sync:   d.RequestsPerHour.Sync,
		},
		MaxTokensPerRequest:  d.MaxTokensPerRequest,
		CanSyncConversations: d.CanSyncConversations,
		CanUseServerSearch:   d.CanUseServerSearch,
	}
}

// snapshotVersion derives a cache key component from a catalog
// snapshot. Any sync that touches the catalog moves some
// last_synced_at forward, so (count, active count, max sync time)
// identifies the snapshot well enough for a short-lived cache.
func snapshotVersion(snapshot []models.CatalogEntry) string {
	var latest time.Time
	active := 0
	for i := range snapshot {
		if snapshot[i].LastSyncedAt.After(latest) {
			latest = snapshot[i].LastSyncedAt
		}
		if snapshot[i].Status == models.StatusActive {
			active++
		}
	}
	return fmt.Sprintf("%d:%d:%d", len(snapshot), active, latest.UnixNano())
}
