// Package reconcile computes and applies the difference between the stored
// association set and what the provider catalogs plus model templates imply
// should exist.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/prism-console/internal/store"
	"github.com/nulzo/prism-console/internal/store/model"
	"github.com/nulzo/prism-console/internal/template"
	"go.uber.org/zap"
)

// Defaults for associations created by apply. The gateway requires a
// positive weight and a non-negative priority; new associations start
// disabled until verified.
const (
	DefaultWeight   = 100
	DefaultPriority = 1
)

// Snapshot is the immutable input both preview passes run over. Every
// invocation loads a fresh one; nothing here is cached between calls.
type Snapshot struct {
	Providers    []model.Provider
	Models       []model.Model
	Associations []model.Association
	Templates    map[string]*template.Template // keyed by model id
}

// AdditionItem proposes one association that does not exist yet.
type AdditionItem struct {
	ModelID           string `json:"model_id"`
	ModelName         string `json:"model_name"`
	ProviderID        string `json:"provider_id"`
	ProviderName      string `json:"provider_name"`
	ProviderModelName string `json:"provider_model_name"`
}

// RemovalItem marks one association whose provider-side name is no longer in
// the provider's catalog.
type RemovalItem struct {
	AssociationID     string `json:"association_id"`
	ModelID           string `json:"model_id"`
	ProviderID        string `json:"provider_id"`
	ProviderModelName string `json:"provider_model_name"`
}

// Preview is the exact blast radius shown to the user before apply.
type Preview struct {
	Additions []AdditionItem `json:"additions"`
	Removals  []RemovalItem  `json:"removals"`
}

// Result counts what apply actually did. Skipped covers stale preview items
// whose target vanished (or appeared) between preview and apply.
type Result struct {
	Added   int      `json:"added"`
	Removed int      `json:"removed"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Engine loads snapshots from the store and applies previews back to it.
type Engine struct {
	repo   store.Repository
	logger *zap.Logger
}

func NewEngine(repo store.Repository, logger *zap.Logger) *Engine {
	return &Engine{repo: repo, logger: logger}
}

// Snapshot loads providers, models, associations and per-model templates in
// one pass.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	providers, err := e.repo.Providers().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load providers: %w", err)
	}

	models, err := e.repo.Models().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}

	associations, err := e.repo.Associations().List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load associations: %w", err)
	}

	byModel := make(map[string][]model.Association)
	for _, a := range associations {
		byModel[a.ModelID] = append(byModel[a.ModelID], a)
	}

	templates := make(map[string]*template.Template, len(models))
	for i := range models {
		m := &models[i]
		manual, err := e.repo.Aliases().ListByModel(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load aliases for %s: %w", m.ID, err)
		}
		templates[m.ID] = template.Build(m, byModel[m.ID], manual)
	}

	return &Snapshot{
		Providers:    providers,
		Models:       models,
		Associations: associations,
		Templates:    templates,
	}, nil
}

// pairKey identifies an association by provider and provider-side name,
// case-normalized. Catalog membership checks are case-insensitive even
// though alias matching is not.
func pairKey(providerID, providerModelName string) string {
	return strings.ToLower(providerID) + "\x00" + strings.ToLower(providerModelName)
}

// PreviewAdditions walks every provider catalog in stored order and proposes
// an association for each entry that is not associated yet and matches a
// model template literally. Output order is provider order, then catalog
// order, as received.
func PreviewAdditions(snap *Snapshot) []AdditionItem {
	existing := make(map[string]struct{}, len(snap.Associations))
	for _, a := range snap.Associations {
		existing[pairKey(a.ProviderID, a.ProviderModelName)] = struct{}{}
	}

	var items []AdditionItem
	for _, p := range snap.Providers {
		for _, entry := range p.Catalog {
			key := pairKey(p.ID, entry.ModelName)
			if _, ok := existing[key]; ok {
				continue
			}

			// First model whose template matches the literal entry wins;
			// the pair is then taken so later models cannot double-claim it.
			for _, m := range snap.Models {
				t := snap.Templates[m.ID]
				if t == nil || !t.Matches(entry.ModelName) {
					continue
				}
				items = append(items, AdditionItem{
					ModelID:           m.ID,
					ModelName:         m.Name,
					ProviderID:        p.ID,
					ProviderName:      p.Name,
					ProviderModelName: entry.ModelName,
				})
				existing[key] = struct{}{}
				break
			}
		}
	}

	return items
}

// PreviewRemovals marks every association whose provider-side name is absent
// from the provider's current catalog, case-normalized. A provider that
// disappeared entirely counts as an empty catalog, so catalog shrinkage
// invalidates historically-valid associations too.
func PreviewRemovals(snap *Snapshot) []RemovalItem {
	catalogs := make(map[string]map[string]struct{}, len(snap.Providers))
	for _, p := range snap.Providers {
		names := make(map[string]struct{}, len(p.Catalog))
		for _, entry := range p.Catalog {
			names[strings.ToLower(entry.ModelName)] = struct{}{}
		}
		catalogs[p.ID] = names
	}

	var items []RemovalItem
	for _, a := range snap.Associations {
		names := catalogs[a.ProviderID]
		if names != nil {
			if _, ok := names[strings.ToLower(a.ProviderModelName)]; ok {
				continue
			}
		}
		items = append(items, RemovalItem{
			AssociationID:     a.ID,
			ModelID:           a.ModelID,
			ProviderID:        a.ProviderID,
			ProviderModelName: a.ProviderModelName,
		})
	}

	return items
}

// Preview loads a fresh snapshot and computes both passes.
func (e *Engine) Preview(ctx context.Context) (*Preview, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Additions: PreviewAdditions(snap),
		Removals:  PreviewRemovals(snap),
	}, nil
}

// Apply mutates the store from an already-computed preview, never
// recomputing it, so what the user saw is exactly what runs. Each item is
// applied on its own: targets that vanished (or pairs that appeared) since
// the preview are skipped and counted, and one item's failure never blocks
// the rest.
func (e *Engine) Apply(ctx context.Context, preview *Preview) (*Result, error) {
	result := &Result{}
	if preview == nil {
		return result, nil
	}

	var current map[string]struct{}
	if len(preview.Additions) > 0 {
		associations, err := e.repo.Associations().List(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load associations: %w", err)
		}
		current = make(map[string]struct{}, len(associations))
		for _, a := range associations {
			current[pairKey(a.ProviderID, a.ProviderModelName)] = struct{}{}
		}
	}

	for _, item := range preview.Additions {
		if _, ok := current[pairKey(item.ProviderID, item.ProviderModelName)]; ok {
			result.Skipped++
			continue
		}

		now := time.Now()
		err := e.repo.Associations().Create(ctx, &model.Association{
			ID:                uuid.New().String(),
			ModelID:           item.ModelID,
			ProviderID:        item.ProviderID,
			ProviderModelName: item.ProviderModelName,
			SupportsStream:    true,
			Weight:            DefaultWeight,
			Priority:          DefaultPriority,
			Enabled:           false,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		if err != nil {
			e.logger.Warn("Failed to create association",
				zap.String("provider_id", item.ProviderID),
				zap.String("provider_model_name", item.ProviderModelName),
				zap.Error(err))
			result.Errors = append(result.Errors,
				fmt.Sprintf("add %s/%s: %v", item.ProviderID, item.ProviderModelName, err))
			continue
		}
		result.Added++
	}

	for _, item := range preview.Removals {
		removed, err := e.repo.Associations().Delete(ctx, item.AssociationID)
		if err != nil {
			e.logger.Warn("Failed to delete association",
				zap.String("association_id", item.AssociationID),
				zap.Error(err))
			result.Errors = append(result.Errors,
				fmt.Sprintf("remove %s: %v", item.AssociationID, err))
			continue
		}
		if removed == 0 {
			// Target vanished between preview and apply.
			result.Skipped++
			continue
		}
		result.Removed++
	}

	return result, nil
}
