package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nulzo/prism-console/internal/store/model"
	"github.com/nulzo/prism-console/internal/store/storetest"
	"github.com/nulzo/prism-console/internal/template"
)

func buildSnapshot(providers []model.Provider, models []model.Model, associations []model.Association) *Snapshot {
	byModel := make(map[string][]model.Association)
	for _, a := range associations {
		byModel[a.ModelID] = append(byModel[a.ModelID], a)
	}
	templates := make(map[string]*template.Template, len(models))
	for i := range models {
		m := &models[i]
		templates[m.ID] = template.Build(m, byModel[m.ID], nil)
	}
	return &Snapshot{
		Providers:    providers,
		Models:       models,
		Associations: associations,
		Templates:    templates,
	}
}

func TestPreviewAdditionsMatchesLiterally(t *testing.T) {
	// The catalog carries "gpt-4o" and "GPT-4O-MINI". The template for the
	// gpt-4o model matches only the exact spelling, so the upper-cased mini
	// entry produces nothing.
	snap := buildSnapshot(
		[]model.Provider{{
			ID: "p1", Name: "OpenAI",
			Catalog: []model.CatalogEntry{
				{ProviderID: "p1", ModelName: "gpt-4o", Source: model.SourceUpstream},
				{ProviderID: "p1", ModelName: "GPT-4O-MINI", Source: model.SourceUpstream},
			},
		}},
		[]model.Model{
			{ID: "m1", Name: "gpt-4o"},
			{ID: "m2", Name: "gpt-4o-mini"},
		},
		nil,
	)

	items := PreviewAdditions(snap)

	require.Len(t, items, 1)
	assert.Equal(t, "m1", items[0].ModelID)
	assert.Equal(t, "p1", items[0].ProviderID)
	assert.Equal(t, "gpt-4o", items[0].ProviderModelName)
}

func TestPreviewAdditionsSkipsExistingPairs(t *testing.T) {
	// Existing pair membership is case-insensitive even though alias
	// matching is not: an association stored as "GPT-4o" blocks the
	// catalog's "gpt-4o" from being proposed again.
	snap := buildSnapshot(
		[]model.Provider{{
			ID: "p1", Name: "OpenAI",
			Catalog: []model.CatalogEntry{
				{ProviderID: "p1", ModelName: "gpt-4o", Source: model.SourceUpstream},
			},
		}},
		[]model.Model{{ID: "m1", Name: "gpt-4o"}},
		[]model.Association{
			{ID: "a1", ModelID: "m1", ProviderID: "p1", ProviderModelName: "GPT-4o"},
		},
	)

	assert.Empty(t, PreviewAdditions(snap))
}

func TestPreviewAdditionsFirstModelWins(t *testing.T) {
	// Two models whose templates both match the same catalog entry: only the
	// first in model order claims it, and the pair cannot be double-claimed.
	snap := buildSnapshot(
		[]model.Provider{{
			ID: "p1", Name: "OpenAI",
			Catalog: []model.CatalogEntry{
				{ProviderID: "p1", ModelName: "gpt-4o", Source: model.SourceUpstream},
			},
		}},
		[]model.Model{
			{ID: "m1", Name: "gpt-4o"},
			{ID: "m2", Name: "gpt-4o"},
		},
		nil,
	)

	items := PreviewAdditions(snap)

	require.Len(t, items, 1)
	assert.Equal(t, "m1", items[0].ModelID)
}

func TestPreviewAdditionsOrderFollowsCatalog(t *testing.T) {
	snap := buildSnapshot(
		[]model.Provider{
			{
				ID: "p1", Name: "OpenAI",
				Catalog: []model.CatalogEntry{
					{ProviderID: "p1", ModelName: "gpt-4o-mini", Source: model.SourceUpstream},
					{ProviderID: "p1", ModelName: "gpt-4o", Source: model.SourceUpstream},
				},
			},
			{
				ID: "p2", Name: "Azure",
				Catalog: []model.CatalogEntry{
					{ProviderID: "p2", ModelName: "gpt-4o", Source: model.SourceUpstream},
				},
			},
		},
		[]model.Model{
			{ID: "m1", Name: "gpt-4o"},
			{ID: "m2", Name: "gpt-4o-mini"},
		},
		nil,
	)

	items := PreviewAdditions(snap)

	require.Len(t, items, 3)
	assert.Equal(t, "gpt-4o-mini", items[0].ProviderModelName)
	assert.Equal(t, "p1", items[1].ProviderID)
	assert.Equal(t, "gpt-4o", items[1].ProviderModelName)
	assert.Equal(t, "p2", items[2].ProviderID)
}

func TestPreviewRemovals(t *testing.T) {
	snap := buildSnapshot(
		[]model.Provider{{
			ID: "p1", Name: "OpenAI",
			Catalog: []model.CatalogEntry{
				{ProviderID: "p1", ModelName: "GPT-4O", Source: model.SourceUpstream},
			},
		}},
		[]model.Model{{ID: "m1", Name: "gpt-4o"}},
		[]model.Association{
			// Still present in the catalog under different casing: kept.
			{ID: "a1", ModelID: "m1", ProviderID: "p1", ProviderModelName: "gpt-4o"},
			// Dropped from the catalog: removed.
			{ID: "a2", ModelID: "m1", ProviderID: "p1", ProviderModelName: "gpt-4-turbo"},
			// Provider gone entirely: treated as an empty catalog.
			{ID: "a3", ModelID: "m1", ProviderID: "p-gone", ProviderModelName: "gpt-4o"},
		},
	)

	items := PreviewRemovals(snap)

	require.Len(t, items, 2)
	assert.Equal(t, "a2", items[0].AssociationID)
	assert.Equal(t, "a3", items[1].AssociationID)
}

func TestEnginePreviewLoadsFreshSnapshot(t *testing.T) {
	repo := storetest.New()
	repo.AddProvider(model.Provider{
		ID: "p1", Name: "OpenAI",
		Catalog: []model.CatalogEntry{
			{ProviderID: "p1", ModelName: "gpt-4o", Source: model.SourceUpstream},
		},
	})
	repo.AddModel(model.Model{ID: "m1", Name: "gpt-4o"})

	engine := NewEngine(repo, zap.NewNop())

	preview, err := engine.Preview(context.Background())
	require.NoError(t, err)
	require.Len(t, preview.Additions, 1)
	assert.Empty(t, preview.Removals)

	// Mutate the store; a second preview reflects it without any caching.
	repo.AddAssociation(model.Association{
		ID: "a1", ModelID: "m1", ProviderID: "p1", ProviderModelName: "gpt-4o",
	})

	preview, err = engine.Preview(context.Background())
	require.NoError(t, err)
	assert.Empty(t, preview.Additions)
}

func TestApplyEmptyPreviewIsNoOp(t *testing.T) {
	repo := storetest.New()
	engine := NewEngine(repo, zap.NewNop())

	result, err := engine.Apply(context.Background(), &Preview{})
	require.NoError(t, err)
	assert.Equal(t, &Result{}, result)

	result, err = engine.Apply(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &Result{}, result)
}

func TestApplyCreatesAndRemoves(t *testing.T) {
	repo := storetest.New()
	repo.AddProvider(model.Provider{
		ID: "p1", Name: "OpenAI",
		Catalog: []model.CatalogEntry{
			{ProviderID: "p1", ModelName: "gpt-4o", Source: model.SourceUpstream},
		},
	})
	repo.AddModel(model.Model{ID: "m1", Name: "gpt-4o"})
	repo.AddAssociation(model.Association{
		ID: "a-old", ModelID: "m1", ProviderID: "p1", ProviderModelName: "gpt-4-turbo",
	})

	engine := NewEngine(repo, zap.NewNop())
	ctx := context.Background()

	preview, err := engine.Preview(ctx)
	require.NoError(t, err)
	require.Len(t, preview.Additions, 1)
	require.Len(t, preview.Removals, 1)

	result, err := engine.Apply(ctx, preview)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Removed)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Errors)

	associations, err := repo.Associations().List(ctx, "")
	require.NoError(t, err)
	require.Len(t, associations, 1)

	created := associations[0]
	assert.Equal(t, "gpt-4o", created.ProviderModelName)
	assert.Equal(t, DefaultWeight, created.Weight)
	assert.Equal(t, DefaultPriority, created.Priority)
	assert.False(t, created.Enabled)
}

func TestApplySkipsStaleItems(t *testing.T) {
	repo := storetest.New()
	repo.AddProvider(model.Provider{
		ID: "p1", Name: "OpenAI",
		Catalog: []model.CatalogEntry{
			{ProviderID: "p1", ModelName: "gpt-4o", Source: model.SourceUpstream},
		},
	})
	repo.AddModel(model.Model{ID: "m1", Name: "gpt-4o"})
	repo.AddAssociation(model.Association{
		ID: "a-old", ModelID: "m1", ProviderID: "p1", ProviderModelName: "gpt-4-turbo",
	})

	engine := NewEngine(repo, zap.NewNop())
	ctx := context.Background()

	preview, err := engine.Preview(ctx)
	require.NoError(t, err)

	// Between preview and apply: someone creates the proposed pair by hand
	// and deletes the to-be-removed association.
	repo.AddAssociation(model.Association{
		ID: "a-manual", ModelID: "m1", ProviderID: "p1", ProviderModelName: "gpt-4o",
	})
	_, err = repo.Associations().Delete(ctx, "a-old")
	require.NoError(t, err)

	result, err := engine.Apply(ctx, preview)
	require.NoError(t, err)
	assert.Zero(t, result.Added)
	assert.Zero(t, result.Removed)
	assert.Equal(t, 2, result.Skipped)
	assert.Empty(t, result.Errors)
}
