package store

import (
	"context"

	"github.com/nulzo/prism-console/internal/store/model"
)

type contextKey string

const (
	ContextKeyAPIKey contextKey = "api_key"
	ContextKeyActor  contextKey = "actor"
)

// Repository is the main contract for the data layer.
type Repository interface {
	Providers() ProviderRepository
	Models() ModelRepository
	Associations() AssociationRepository
	Aliases() AliasRepository
	APIKeys() APIKeyRepository
	Audit() AuditRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

type ProviderRepository interface {
	// List returns all providers with their merged catalogs, in stored order.
	List(ctx context.Context) ([]model.Provider, error)
	// Get returns a single provider with its catalog.
	Get(ctx context.Context, id string) (*model.Provider, error)
	// ReplaceUpstreamCatalog swaps a provider's upstream-discovered entries,
	// leaving custom entries untouched.
	ReplaceUpstreamCatalog(ctx context.Context, providerID string, names []string) error
	// AddCustomCatalogEntry appends a custom model identifier.
	AddCustomCatalogEntry(ctx context.Context, providerID, modelName string) error
	// RemoveCustomCatalogEntry deletes a custom model identifier.
	RemoveCustomCatalogEntry(ctx context.Context, providerID, modelName string) error
}

type ModelRepository interface {
	// List returns all unified models.
	List(ctx context.Context) ([]model.Model, error)
	// Get returns a single model by ID.
	Get(ctx context.Context, id string) (*model.Model, error)
}

type AssociationRepository interface {
	// List returns all associations, optionally scoped to one model.
	List(ctx context.Context, modelID string) ([]model.Association, error)
	// Get returns a single association by ID.
	Get(ctx context.Context, id string) (*model.Association, error)
	// Create inserts a new association.
	Create(ctx context.Context, a *model.Association) error
	// Delete removes an association. Returns the number of rows removed so
	// callers can detect targets that vanished since preview.
	Delete(ctx context.Context, id string) (int64, error)
	// BatchDelete removes many associations, returning the removed count.
	BatchDelete(ctx context.Context, ids []string) (int64, error)
	// SetEnabled flips the enabled flag.
	SetEnabled(ctx context.Context, id string, enabled bool) error
}

type AliasRepository interface {
	// ListByModel returns the manually stored aliases for a model.
	ListByModel(ctx context.Context, modelID string) ([]model.ModelAlias, error)
	// Create stores a manual alias.
	Create(ctx context.Context, alias *model.ModelAlias) error
	// Delete removes a manual alias by model and literal alias string.
	Delete(ctx context.Context, modelID, alias string) (int64, error)
}

type APIKeyRepository interface {
	// GetByHash retrieves a key by its hashed value (for auth).
	GetByHash(ctx context.Context, hash string) (*model.APIKey, error)
	// Create issues a new API key.
	Create(ctx context.Context, key *model.APIKey) error
	// UpdateUsage bumps the last-used timestamp.
	UpdateUsage(ctx context.Context, id string) error
}

type AuditRepository interface {
	// Log records an audit event.
	Log(ctx context.Context, event *model.AuditEvent) error
	// GetRecent returns the last N audit events.
	GetRecent(ctx context.Context, limit int) ([]model.AuditEvent, error)
}
