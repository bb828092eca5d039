package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsPlugin_CountsQueries(t *testing.T) {
	metrics := newTestAggregator()
	db := setupTestDB(t, NewMetricsPlugin(metrics))
	svc := NewMenuService(db)

	before := metrics.Snapshot().Database.Queries

	cat := mustCategory(t, svc, "Entradas", 1)
	mustDish(t, svc, cat.ID, "Pastel", "9.00", true)
	_, err := svc.Menu(context.Background())
	require.NoError(t, err)

	snap := metrics.Snapshot()
	assert.Greater(t, snap.Database.Queries, before)
	assert.GreaterOrEqual(t, snap.Database.AvgQueryTimeMs, 0.0)
}

func TestMetricsPlugin_Name(t *testing.T) {
	assert.Equal(t, "mandacafe:metrics", NewMetricsPlugin(newTestAggregator()).Name())
}
