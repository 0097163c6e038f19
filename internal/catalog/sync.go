// Package catalog keeps each provider's stored model catalog in step with
// the live list the gateway reports for it.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/nulzo/prism-console/internal/store"
	"github.com/nulzo/prism-console/internal/store/model"
	"go.uber.org/zap"
)

// UpstreamLister is the slice of the gateway client the syncer needs.
type UpstreamLister interface {
	ListUpstreamModels(ctx context.Context, providerID string) ([]string, error)
}

// SyncResult reports what one provider's sync did.
type SyncResult struct {
	ProviderID string `json:"provider_id"`
	Discovered int    `json:"discovered"`
	Added      int    `json:"added"`
	Removed    int    `json:"removed"`
	Error      string `json:"error,omitempty"`
}

// Syncer refreshes upstream-discovered catalog entries. Custom entries are
// manually curated and never touched.
type Syncer struct {
	repo    store.Repository
	gateway UpstreamLister
	logger  *zap.Logger
}

func NewSyncer(repo store.Repository, gateway UpstreamLister, logger *zap.Logger) *Syncer {
	return &Syncer{repo: repo, gateway: gateway, logger: logger}
}

// SyncProvider fetches the provider's live model list and replaces its
// upstream catalog entries with it, preserving upstream order.
func (s *Syncer) SyncProvider(ctx context.Context, providerID string) (*SyncResult, error) {
	p, err := s.repo.Providers().Get(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("provider %s not found: %w", providerID, err)
	}

	live, err := s.gateway.ListUpstreamModels(ctx, providerID)
	if err != nil {
		return nil, err
	}

	merged := mergeCatalog(p.Catalog, live)

	if err := s.repo.Providers().ReplaceUpstreamCatalog(ctx, providerID, merged.names); err != nil {
		return nil, fmt.Errorf("failed to store catalog for %s: %w", providerID, err)
	}

	s.logger.Info("Catalog synced",
		zap.String("provider_id", providerID),
		zap.Int("discovered", len(live)),
		zap.Int("added", merged.added),
		zap.Int("removed", merged.removed))

	return &SyncResult{
		ProviderID: providerID,
		Discovered: len(live),
		Added:      merged.added,
		Removed:    merged.removed,
	}, nil
}

// SyncAll refreshes every provider. One provider's failure is recorded in
// its result and never aborts the rest.
func (s *Syncer) SyncAll(ctx context.Context) ([]SyncResult, error) {
	providers, err := s.repo.Providers().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load providers: %w", err)
	}

	results := make([]SyncResult, 0, len(providers))
	for _, p := range providers {
		res, err := s.SyncProvider(ctx, p.ID)
		if err != nil {
			s.logger.Warn("Provider catalog sync failed",
				zap.String("provider_id", p.ID), zap.Error(err))
			results = append(results, SyncResult{ProviderID: p.ID, Error: err.Error()})
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

type mergeOutcome struct {
	names   []string
	added   int
	removed int
}

// mergeCatalog computes the new upstream name list. Live names already
// present as custom entries are dropped so curated identifiers keep their
// source tag; duplicates within the live list collapse to the first
// occurrence. Name identity here is exact: the reconcile layer handles case
// normalization, the catalog stores what upstream reports.
func mergeCatalog(current []model.CatalogEntry, live []string) mergeOutcome {
	custom := make(map[string]struct{})
	upstream := make(map[string]struct{})
	for _, e := range current {
		if e.Source == model.SourceCustom {
			custom[e.ModelName] = struct{}{}
		} else {
			upstream[e.ModelName] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(live))
	out := mergeOutcome{names: make([]string, 0, len(live))}
	for _, name := range live {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if _, isCustom := custom[name]; isCustom {
			continue
		}
		if _, existed := upstream[name]; !existed {
			out.added++
		}
		out.names = append(out.names, name)
	}

	for name := range upstream {
		if _, still := seen[name]; !still {
			out.removed++
		}
	}

	return out
}
