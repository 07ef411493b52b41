package models

import "time"

// ModelStatus is the lifecycle state of a catalog entry.
//
// Entries are created as StatusNew when first seen in the external
// catalog, promoted to StatusActive by an operator, moved to
// StatusInactive when they disappear from a later sync, and
// StatusDisabled when explicitly shut off. Entries are never deleted:
// historical messages reference model ids.
type ModelStatus string

const (
	StatusNew      ModelStatus = "new"
	StatusActive   ModelStatus = "active"
	StatusInactive ModelStatus = "inactive"
	StatusDisabled ModelStatus = "disabled"
)

// CatalogEntry mirrors one model from the external registry.
//
// Tier flags are independent capability booleans, not an ordinal enum:
// a model can be both pro and enterprise at once. The tier lattice in
// the policy layer depends on set inclusion over these flags.
type CatalogEntry struct {
	ModelID         string      `json:"model_id" db:"model_id"`
	Name            string      `json:"name" db:"name"`
	Description     string      `json:"description" db:"description"`
	ContextLength   int         `json:"context_length" db:"context_length"`
	PromptPrice     string      `json:"prompt_price" db:"prompt_price"`
	CompletionPrice string      `json:"completion_price" db:"completion_price"`
	Status          ModelStatus `json:"status" db:"status"`
	IsFree          bool        `json:"is_free" db:"is_free"`
	IsPro           bool        `json:"is_pro" db:"is_pro"`
	IsEnterprise    bool        `json:"is_enterprise" db:"is_enterprise"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	LastSyncedAt    time.Time   `json:"last_synced_at" db:"last_synced_at"`
}

// AvailableTo reports whether the entry is usable by the given tier.
// Only active models are ever exposed.
func (e *CatalogEntry) AvailableTo(tier Tier) bool {
	if e.Status != StatusActive {
		return false
	}
	switch tier {
	case TierEnterprise:
		return e.IsFree || e.IsPro || e.IsEnterprise
	case TierPro:
		return e.IsFree || e.IsPro
	case TierFree, TierAnonymous:
		return e.IsFree
	default:
		return false
	}
}

// SyncStatus is the outcome of a catalog sync run.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
)

// SyncRun records one reconciliation of the external catalog.
type SyncRun struct {
	ID             string     `json:"id" db:"id"`
	Status         SyncStatus `json:"status" db:"status"`
	Added          int        `json:"added" db:"added"`
	Updated        int        `json:"updated" db:"updated"`
	MarkedInactive int        `json:"marked_inactive" db:"marked_inactive"`
	DurationMs     int64      `json:"duration_ms" db:"duration_ms"`
	Error          string     `json:"error,omitempty" db:"error"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
}
