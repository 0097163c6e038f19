// Package template builds and queries the alias set considered equivalent to
// a unified model for auto-association matching.
package template

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/prism-console/internal/core/domain"
	"github.com/nulzo/prism-console/internal/store"
	"github.com/nulzo/prism-console/internal/store/model"
)

// Provenance tags the origin of a template alias.
type Provenance string

const (
	ProvenanceCanonical Provenance = "canonical" // the model's canonical name
	ProvenanceDerived   Provenance = "derived"   // provider-side name of an existing association
	ProvenanceManual    Provenance = "manual"    // explicitly stored alias
)

// Item is one accepted alias with every provenance it carries.
type Item struct {
	Alias      string       `json:"alias"`
	Provenance []Provenance `json:"provenance"`
}

// Template is the full alias set for one model. It is an immutable snapshot;
// canonical and derived entries are recomputed on every build.
type Template struct {
	ModelID string
	items   map[string]*Item
	order   []string
}

// Build merges the canonical name, the provider-side names of the model's
// existing associations, and the stored manual aliases. Aliases are keyed by
// their literal spelling; the same spelling under several origins collapses
// into one item with merged provenance.
func Build(m *model.Model, associations []model.Association, manual []model.ModelAlias) *Template {
	t := &Template{
		ModelID: m.ID,
		items:   make(map[string]*Item),
	}

	t.add(m.Name, ProvenanceCanonical)
	for _, a := range associations {
		t.add(a.ProviderModelName, ProvenanceDerived)
	}
	for _, alias := range manual {
		t.add(alias.Alias, ProvenanceManual)
	}

	return t
}

func (t *Template) add(alias string, p Provenance) {
	if alias == "" {
		return
	}

	item, exists := t.items[alias]
	if !exists {
		t.items[alias] = &Item{Alias: alias, Provenance: []Provenance{p}}
		t.order = append(t.order, alias)
		return
	}

	for _, existing := range item.Provenance {
		if existing == p {
			return
		}
	}
	item.Provenance = append(item.Provenance, p)
}

// Matches reports whether candidate equals a stored alias. The comparison is
// case-sensitive: "GPT-4" and "gpt-4" are distinct aliases unless both exist.
func (t *Template) Matches(candidate string) bool {
	_, ok := t.items[candidate]
	return ok
}

// Items returns the aliases in merge order.
func (t *Template) Items() []Item {
	out := make([]Item, 0, len(t.order))
	for _, alias := range t.order {
		out = append(out, *t.items[alias])
	}
	return out
}

func (t *Template) lookup(alias string) *Item {
	return t.items[alias]
}

func hasProvenance(item *Item, p Provenance) bool {
	for _, existing := range item.Provenance {
		if existing == p {
			return true
		}
	}
	return false
}

// Service resolves templates against the store and owns manual alias edits.
type Service struct {
	repo store.Repository
}

func NewService(repo store.Repository) *Service {
	return &Service{repo: repo}
}

// Get builds the current template for a model from fresh store snapshots.
func (s *Service) Get(ctx context.Context, modelID string) (*Template, error) {
	m, err := s.repo.Models().Get(ctx, modelID)
	if err != nil {
		return nil, err
	}

	associations, err := s.repo.Associations().List(ctx, modelID)
	if err != nil {
		return nil, err
	}

	manual, err := s.repo.Aliases().ListByModel(ctx, modelID)
	if err != nil {
		return nil, err
	}

	return Build(m, associations, manual), nil
}

// AddManualAlias stores a new alias. The alias is rejected before any
// mutation if the literal spelling already exists under any provenance.
func (s *Service) AddManualAlias(ctx context.Context, modelID, alias string) error {
	t, err := s.Get(ctx, modelID)
	if err != nil {
		return err
	}

	if t.Matches(alias) {
		return domain.ErrDuplicateAlias
	}

	return s.repo.Aliases().Create(ctx, &model.ModelAlias{
		ID:        uuid.New().String(),
		ModelID:   modelID,
		Alias:     alias,
		CreatedAt: time.Now(),
	})
}

// RemoveManualAlias deletes a stored alias. Aliases whose only origin is
// canonical or derived are not removable.
func (s *Service) RemoveManualAlias(ctx context.Context, modelID, alias string) error {
	t, err := s.Get(ctx, modelID)
	if err != nil {
		return err
	}

	item := t.lookup(alias)
	if item == nil {
		return domain.ErrAliasNotFound
	}
	if !hasProvenance(item, ProvenanceManual) {
		return domain.ErrNotManual
	}

	removed, err := s.repo.Aliases().Delete(ctx, modelID, alias)
	if err != nil {
		return err
	}
	if removed == 0 {
		return domain.ErrAliasNotFound
	}
	return nil
}
