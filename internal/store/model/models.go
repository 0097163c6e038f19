package model

import (
	"database/sql"
	"time"
)

// Catalog entry sources.
const (
	SourceUpstream = "upstream"
	SourceCustom   = "custom"
)

// Provider represents an upstream LLM service the gateway can route to.
type Provider struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"` // 'openai', 'anthropic', 'ollama', ...
	BaseURL   string    `db:"base_url" json:"base_url"`
	IsEnabled bool      `db:"is_enabled" json:"is_enabled"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Catalog is the provider's merged model catalog (upstream-discovered
	// plus custom identifiers), in stored order. Joined, not a column.
	Catalog []CatalogEntry `db:"-" json:"catalog,omitempty"`
}

// CatalogEntry is one callable model identifier known for a provider.
type CatalogEntry struct {
	ProviderID string    `db:"provider_id" json:"provider_id"`
	ModelName  string    `db:"model_name" json:"model_name"`
	Source     string    `db:"source" json:"source"` // upstream | custom
	Position   int       `db:"position" json:"position"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Model is a unified model exposed by the gateway under a canonical name.
type Model struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"` // canonical, e.g. "gpt-4o"
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Association binds a unified model to a provider-side model name and
// carries the routing metadata the gateway consumes.
type Association struct {
	ID                string    `db:"id" json:"id"`
	ModelID           string    `db:"model_id" json:"model_id"`
	ProviderID        string    `db:"provider_id" json:"provider_id"`
	ProviderModelName string    `db:"provider_model_name" json:"provider_model_name"` // case-sensitive
	SupportsStream    bool      `db:"supports_stream" json:"supports_stream"`
	SupportsTools     bool      `db:"supports_tools" json:"supports_tools"`
	SupportsVision    bool      `db:"supports_vision" json:"supports_vision"`
	Weight            int       `db:"weight" json:"weight"`     // > 0
	Priority          int       `db:"priority" json:"priority"` // >= 0
	Enabled           bool      `db:"enabled" json:"enabled"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ModelAlias is a manually stored alias for a model. Canonical and derived
// aliases are recomputed from models/associations and never persisted.
type ModelAlias struct {
	ID        string    `db:"id" json:"id"`
	ModelID   string    `db:"model_id" json:"model_id"`
	Alias     string    `db:"alias" json:"alias"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// APIKey is a console credential.
type APIKey struct {
	ID         string       `db:"id" json:"id"`
	Name       string       `db:"name" json:"name"`
	KeyHash    string       `db:"key_hash" json:"-"`            // Never return hash
	KeyPrefix  string       `db:"key_prefix" json:"key_prefix"` // Display only
	LastUsedAt sql.NullTime `db:"last_used_at" json:"last_used_at,omitempty"`
	IsActive   bool         `db:"is_active" json:"is_active"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// AuditEvent records a destructive console operation.
type AuditEvent struct {
	ID             string    `db:"id" json:"id"`
	Actor          string    `db:"actor" json:"actor"`
	TargetResource string    `db:"target_resource" json:"target_resource"`
	Action         string    `db:"action" json:"action"`
	DetailsJSON    string    `db:"details_json" json:"details_json"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
