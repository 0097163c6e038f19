package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nulzo/prism-console/internal/store/model"
	"github.com/nulzo/prism-console/internal/store/storetest"
)

type fakeLister struct {
	models map[string][]string
	errs   map[string]error
}

func (f *fakeLister) ListUpstreamModels(ctx context.Context, providerID string) ([]string, error) {
	if err := f.errs[providerID]; err != nil {
		return nil, err
	}
	return f.models[providerID], nil
}

func TestMergeCatalog(t *testing.T) {
	current := []model.CatalogEntry{
		{ModelName: "gpt-4o", Source: model.SourceUpstream},
		{ModelName: "gpt-4-turbo", Source: model.SourceUpstream},
		{ModelName: "my-finetune", Source: model.SourceCustom},
	}
	live := []string{"gpt-4o", "gpt-4o-mini", "gpt-4o-mini", "my-finetune", "  ", ""}

	out := mergeCatalog(current, live)

	// "my-finetune" stays a custom entry, blanks and duplicates collapse.
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, out.names)
	assert.Equal(t, 1, out.added)   // gpt-4o-mini
	assert.Equal(t, 1, out.removed) // gpt-4-turbo
}

func TestMergeCatalogIsCaseExact(t *testing.T) {
	current := []model.CatalogEntry{
		{ModelName: "gpt-4o", Source: model.SourceUpstream},
	}

	out := mergeCatalog(current, []string{"GPT-4O"})

	assert.Equal(t, []string{"GPT-4O"}, out.names)
	assert.Equal(t, 1, out.added)
	assert.Equal(t, 1, out.removed)
}

func TestSyncProviderPreservesCustomEntries(t *testing.T) {
	repo := storetest.New()
	repo.AddProvider(model.Provider{
		ID: "p1", Name: "OpenAI",
		Catalog: []model.CatalogEntry{
			{ProviderID: "p1", ModelName: "gpt-4-turbo", Source: model.SourceUpstream},
			{ProviderID: "p1", ModelName: "my-finetune", Source: model.SourceCustom},
		},
	})

	lister := &fakeLister{models: map[string][]string{
		"p1": {"gpt-4o", "gpt-4o-mini"},
	}}
	syncer := NewSyncer(repo, lister, zap.NewNop())

	res, err := syncer.SyncProvider(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Discovered)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 1, res.Removed)

	p, err := repo.Providers().Get(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, p.Catalog, 3)
	assert.Equal(t, "gpt-4o", p.Catalog[0].ModelName)
	assert.Equal(t, model.SourceUpstream, p.Catalog[0].Source)
	assert.Equal(t, "gpt-4o-mini", p.Catalog[1].ModelName)
	assert.Equal(t, "my-finetune", p.Catalog[2].ModelName)
	assert.Equal(t, model.SourceCustom, p.Catalog[2].Source)
}

func TestSyncProviderUnknownProvider(t *testing.T) {
	syncer := NewSyncer(storetest.New(), &fakeLister{}, zap.NewNop())
	_, err := syncer.SyncProvider(context.Background(), "missing")
	assert.Error(t, err)
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	repo := storetest.New()
	repo.AddProvider(model.Provider{ID: "p1", Name: "OpenAI"})
	repo.AddProvider(model.Provider{ID: "p2", Name: "Broken"})
	repo.AddProvider(model.Provider{ID: "p3", Name: "Ollama"})

	lister := &fakeLister{
		models: map[string][]string{
			"p1": {"gpt-4o"},
			"p3": {"llama3:8b"},
		},
		errs: map[string]error{
			"p2": errors.New("gateway unreachable"),
		},
	}
	syncer := NewSyncer(repo, lister, zap.NewNop())

	results, err := syncer.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 1, results[0].Added)
	assert.Empty(t, results[0].Error)
	assert.Contains(t, results[1].Error, "gateway unreachable")
	assert.Equal(t, 1, results[2].Added)
}
