package template

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/prism-console/internal/core/domain"
	"github.com/nulzo/prism-console/internal/store/model"
	"github.com/nulzo/prism-console/internal/store/storetest"
)

func TestBuildMergesProvenance(t *testing.T) {
	m := &model.Model{ID: "m1", Name: "gpt-4o"}
	associations := []model.Association{
		{ID: "a1", ModelID: "m1", ProviderID: "p1", ProviderModelName: "gpt-4o"},
		{ID: "a2", ModelID: "m1", ProviderID: "p2", ProviderModelName: "openai/gpt-4o"},
	}
	manual := []model.ModelAlias{
		{ID: "al1", ModelID: "m1", Alias: "4o"},
	}

	tpl := Build(m, associations, manual)
	items := tpl.Items()

	require.Len(t, items, 3)

	assert.Equal(t, "gpt-4o", items[0].Alias)
	assert.Equal(t, []Provenance{ProvenanceCanonical, ProvenanceDerived}, items[0].Provenance)

	assert.Equal(t, "openai/gpt-4o", items[1].Alias)
	assert.Equal(t, []Provenance{ProvenanceDerived}, items[1].Provenance)

	assert.Equal(t, "4o", items[2].Alias)
	assert.Equal(t, []Provenance{ProvenanceManual}, items[2].Provenance)
}

func TestMatchesIsCaseSensitive(t *testing.T) {
	m := &model.Model{ID: "m1", Name: "gpt-4o"}
	tpl := Build(m, nil, []model.ModelAlias{{ModelID: "m1", Alias: "GPT-4O"}})

	assert.True(t, tpl.Matches("gpt-4o"))
	assert.True(t, tpl.Matches("GPT-4O"))
	assert.False(t, tpl.Matches("Gpt-4o"))
	assert.False(t, tpl.Matches("gpt-4o "))
}

func TestBuildSkipsEmptyAliases(t *testing.T) {
	m := &model.Model{ID: "m1", Name: "gpt-4o"}
	associations := []model.Association{
		{ID: "a1", ModelID: "m1", ProviderID: "p1", ProviderModelName: ""},
	}

	tpl := Build(m, associations, nil)

	assert.Len(t, tpl.Items(), 1)
	assert.False(t, tpl.Matches(""))
}

func TestAddManualAliasRejectsDuplicates(t *testing.T) {
	repo := storetest.New()
	repo.AddModel(model.Model{ID: "m1", Name: "gpt-4o"})
	repo.AddAssociation(model.Association{
		ID: "a1", ModelID: "m1", ProviderID: "p1", ProviderModelName: "openai/gpt-4o",
	})

	svc := NewService(repo)
	ctx := context.Background()

	// Collides with the canonical name.
	err := svc.AddManualAlias(ctx, "m1", "gpt-4o")
	assert.ErrorIs(t, err, domain.ErrDuplicateAlias)

	// Collides with a derived alias.
	err = svc.AddManualAlias(ctx, "m1", "openai/gpt-4o")
	assert.ErrorIs(t, err, domain.ErrDuplicateAlias)

	// Different casing is a different alias.
	require.NoError(t, svc.AddManualAlias(ctx, "m1", "GPT-4O"))

	tpl, err := svc.Get(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, tpl.Matches("GPT-4O"))
}

func TestRemoveManualAlias(t *testing.T) {
	repo := storetest.New()
	repo.AddModel(model.Model{ID: "m1", Name: "gpt-4o"})
	repo.AddAssociation(model.Association{
		ID: "a1", ModelID: "m1", ProviderID: "p1", ProviderModelName: "openai/gpt-4o",
	})
	repo.AddAlias(model.ModelAlias{
		ID: "al1", ModelID: "m1", Alias: "4o", CreatedAt: time.Now(),
	})

	svc := NewService(repo)
	ctx := context.Background()

	// Canonical and derived aliases are not removable.
	assert.ErrorIs(t, svc.RemoveManualAlias(ctx, "m1", "gpt-4o"), domain.ErrNotManual)
	assert.ErrorIs(t, svc.RemoveManualAlias(ctx, "m1", "openai/gpt-4o"), domain.ErrNotManual)

	assert.ErrorIs(t, svc.RemoveManualAlias(ctx, "m1", "nope"), domain.ErrAliasNotFound)

	require.NoError(t, svc.RemoveManualAlias(ctx, "m1", "4o"))

	tpl, err := svc.Get(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, tpl.Matches("4o"))
}

func TestRemoveManualAliasKeepsOtherProvenance(t *testing.T) {
	// An alias that is both derived and manual: removing the manual record
	// must leave the derived match intact on the next build.
	repo := storetest.New()
	repo.AddModel(model.Model{ID: "m1", Name: "gpt-4o"})
	repo.AddAssociation(model.Association{
		ID: "a1", ModelID: "m1", ProviderID: "p1", ProviderModelName: "4o",
	})
	repo.AddAlias(model.ModelAlias{
		ID: "al1", ModelID: "m1", Alias: "4o", CreatedAt: time.Now(),
	})

	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.RemoveManualAlias(ctx, "m1", "4o"))

	tpl, err := svc.Get(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, tpl.Matches("4o"))

	item := tpl.lookup("4o")
	require.NotNil(t, item)
	assert.Equal(t, []Provenance{ProvenanceDerived}, item.Provenance)
}
