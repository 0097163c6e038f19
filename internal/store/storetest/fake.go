// Package storetest provides an in-memory store.Repository for tests.
package storetest

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nulzo/prism-console/internal/store"
	"github.com/nulzo/prism-console/internal/store/model"
)

// Fake is a mutex-guarded in-memory Repository. Order of providers, catalog
// entries and associations follows insertion order, matching the sqlite
// implementation's stored order.
type Fake struct {
	mu           sync.Mutex
	providers    []model.Provider
	models       []model.Model
	associations []model.Association
	aliases      []model.ModelAlias
	apiKeys      []model.APIKey
	events       []model.AuditEvent
}

func New() *Fake {
	return &Fake{}
}

// Seed helpers

func (f *Fake) AddProvider(p model.Provider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers = append(f.providers, p)
}

func (f *Fake) AddModel(m model.Model) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models = append(f.models, m)
}

func (f *Fake) AddAssociation(a model.Association) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.associations = append(f.associations, a)
}

func (f *Fake) AddAlias(a model.ModelAlias) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aliases = append(f.aliases, a)
}

// store.Repository

func (f *Fake) Providers() store.ProviderRepository       { return (*fakeProviders)(f) }
func (f *Fake) Models() store.ModelRepository             { return (*fakeModels)(f) }
func (f *Fake) Associations() store.AssociationRepository { return (*fakeAssociations)(f) }
func (f *Fake) Aliases() store.AliasRepository            { return (*fakeAliases)(f) }
func (f *Fake) APIKeys() store.APIKeyRepository           { return (*fakeAPIKeys)(f) }
func (f *Fake) Audit() store.AuditRepository              { return (*fakeAudit)(f) }

func (f *Fake) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	return fn(f)
}

func (f *Fake) Close() error { return nil }

type fakeProviders Fake

func (f *fakeProviders) List(ctx context.Context) ([]model.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Provider, len(f.providers))
	copy(out, f.providers)
	return out, nil
}

func (f *fakeProviders) Get(ctx context.Context, id string) (*model.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.providers {
		if f.providers[i].ID == id {
			p := f.providers[i]
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProviders) ReplaceUpstreamCatalog(ctx context.Context, providerID string, names []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.providers {
		if f.providers[i].ID != providerID {
			continue
		}
		var kept []model.CatalogEntry
		for _, e := range f.providers[i].Catalog {
			if e.Source == model.SourceCustom {
				kept = append(kept, e)
			}
		}
		entries := make([]model.CatalogEntry, 0, len(names)+len(kept))
		for pos, name := range names {
			entries = append(entries, model.CatalogEntry{
				ProviderID: providerID,
				ModelName:  name,
				Source:     model.SourceUpstream,
				Position:   pos,
			})
		}
		f.providers[i].Catalog = append(entries, kept...)
		return nil
	}
	return sql.ErrNoRows
}

func (f *fakeProviders) AddCustomCatalogEntry(ctx context.Context, providerID, modelName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.providers {
		if f.providers[i].ID != providerID {
			continue
		}
		for _, e := range f.providers[i].Catalog {
			if e.ModelName == modelName {
				return fmt.Errorf("catalog entry %s already exists", modelName)
			}
		}
		f.providers[i].Catalog = append(f.providers[i].Catalog, model.CatalogEntry{
			ProviderID: providerID,
			ModelName:  modelName,
			Source:     model.SourceCustom,
			Position:   len(f.providers[i].Catalog),
		})
		return nil
	}
	return sql.ErrNoRows
}

func (f *fakeProviders) RemoveCustomCatalogEntry(ctx context.Context, providerID, modelName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.providers {
		if f.providers[i].ID != providerID {
			continue
		}
		kept := f.providers[i].Catalog[:0]
		for _, e := range f.providers[i].Catalog {
			if e.ModelName == modelName && e.Source == model.SourceCustom {
				continue
			}
			kept = append(kept, e)
		}
		f.providers[i].Catalog = kept
		return nil
	}
	return nil
}

type fakeModels Fake

func (f *fakeModels) List(ctx context.Context) ([]model.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Model, len(f.models))
	copy(out, f.models)
	return out, nil
}

func (f *fakeModels) Get(ctx context.Context, id string) (*model.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.models {
		if f.models[i].ID == id {
			m := f.models[i]
			return &m, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeAssociations Fake

func (f *fakeAssociations) List(ctx context.Context, modelID string) ([]model.Association, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Association
	for _, a := range f.associations {
		if modelID == "" || a.ModelID == modelID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssociations) Get(ctx context.Context, id string) (*model.Association, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.associations {
		if f.associations[i].ID == id {
			a := f.associations[i]
			return &a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAssociations) Create(ctx context.Context, a *model.Association) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.associations {
		if existing.ID == a.ID {
			return fmt.Errorf("association %s already exists", a.ID)
		}
	}
	f.associations = append(f.associations, *a)
	return nil
}

func (f *fakeAssociations) Delete(ctx context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.associations {
		if f.associations[i].ID == id {
			f.associations = append(f.associations[:i], f.associations[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeAssociations) BatchDelete(ctx context.Context, ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	var removed int64
	kept := f.associations[:0]
	for _, a := range f.associations {
		if _, ok := drop[a.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	f.associations = kept
	return removed, nil
}

func (f *fakeAssociations) SetEnabled(ctx context.Context, id string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.associations {
		if f.associations[i].ID == id {
			f.associations[i].Enabled = enabled
			f.associations[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeAliases Fake

func (f *fakeAliases) ListByModel(ctx context.Context, modelID string) ([]model.ModelAlias, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ModelAlias
	for _, a := range f.aliases {
		if a.ModelID == modelID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeAliases) Create(ctx context.Context, alias *model.ModelAlias) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.aliases {
		if a.ModelID == alias.ModelID && a.Alias == alias.Alias {
			return fmt.Errorf("alias %s already exists", alias.Alias)
		}
	}
	f.aliases = append(f.aliases, *alias)
	return nil
}

func (f *fakeAliases) Delete(ctx context.Context, modelID, alias string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.aliases {
		if f.aliases[i].ModelID == modelID && f.aliases[i].Alias == alias {
			f.aliases = append(f.aliases[:i], f.aliases[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeAPIKeys Fake

func (f *fakeAPIKeys) GetByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.apiKeys {
		if f.apiKeys[i].KeyHash == hash && f.apiKeys[i].IsActive {
			k := f.apiKeys[i]
			return &k, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAPIKeys) Create(ctx context.Context, key *model.APIKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKeys = append(f.apiKeys, *key)
	return nil
}

func (f *fakeAPIKeys) UpdateUsage(ctx context.Context, id string) error {
	return nil
}

type fakeAudit Fake

func (f *fakeAudit) Log(ctx context.Context, event *model.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeAudit) GetRecent(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.AuditEvent, len(f.events))
	copy(out, f.events)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
