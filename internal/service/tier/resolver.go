package tier

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/repositories"
)

const snapshotKey = "catalog-snapshot"

// Resolver combines the static tier policy with live catalog
// snapshots. The snapshot is cached briefly so per-request resolution
// does not hit the store on every call; a sync's changes become
// visible within the cache TTL.
type Resolver struct {
	policy      *Policy
	catalogRepo repositories.CatalogRepository
	snapshots   *gocache.Cache
}

// NewResolver creates a resolver over the catalog repository.
func NewResolver(policy *Policy, catalogRepo repositories.CatalogRepository) *Resolver {
	return &Resolver{
		policy:      policy,
		catalogRepo: catalogRepo,
		snapshots:   gocache.New(30*time.Second, time.Minute),
	}
}

// ResolveFor resolves a tier against the current catalog.
func (r *Resolver) ResolveFor(ctx context.Context, t models.Tier) (*Resolution, error) {
	snapshot, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return r.policy.Resolve(t, snapshot), nil
}

// Snapshot returns the cached catalog entries.
func (r *Resolver) Snapshot(ctx context.Context) ([]models.CatalogEntry, error) {
	return r.snapshot(ctx)
}

func (r *Resolver) snapshot(ctx context.Context) ([]models.CatalogEntry, error) {
	if v, ok := r.snapshots.Get(snapshotKey); ok {
		return v.([]models.CatalogEntry), nil
	}

	entries, err := r.catalogRepo.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	r.snapshots.Set(snapshotKey, entries, gocache.DefaultExpiration)
	return entries, nil
}
