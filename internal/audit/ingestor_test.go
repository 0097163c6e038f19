package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nulzo/prism-console/internal/store/storetest"
)

func TestIngestorPersistsEvents(t *testing.T) {
	repo := storetest.New()
	ing := NewIngestor(zap.NewNop(), repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ing.Start(ctx)

	ing.Record("tester", "model/m1", "alias.add", map[string]string{"alias": "4o"})
	ing.Record("tester", "associations", "reconcile.apply", nil)
	ing.Stop()

	require.Eventually(t, func() bool {
		events, err := repo.Audit().GetRecent(context.Background(), 10)
		return err == nil && len(events) == 2
	}, 2*time.Second, 10*time.Millisecond)

	events, err := repo.Audit().GetRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "alias.add", events[0].Action)
	assert.Equal(t, "tester", events[0].Actor)
	assert.JSONEq(t, `{"alias":"4o"}`, events[0].DetailsJSON)
	assert.Equal(t, "{}", events[1].DetailsJSON)
}

func TestIngestorFlushesOnBatchSize(t *testing.T) {
	repo := storetest.New()
	ing := NewIngestor(zap.NewNop(), repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ing.Start(ctx)

	for i := 0; i < 25; i++ {
		ing.Record("tester", "associations", "association.delete", nil)
	}

	// Batch size is 20; the first batch lands without waiting for the
	// flush ticker or Stop.
	require.Eventually(t, func() bool {
		events, err := repo.Audit().GetRecent(context.Background(), 100)
		return err == nil && len(events) >= 20
	}, 2*time.Second, 10*time.Millisecond)

	ing.Stop()
	require.Eventually(t, func() bool {
		events, err := repo.Audit().GetRecent(context.Background(), 100)
		return err == nil && len(events) == 25
	}, 2*time.Second, 10*time.Millisecond)
}
