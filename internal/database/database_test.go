package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

func openTestData(t *testing.T) *DB {
	t.Helper()
	db, err := OpenData(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func openTestCache(t *testing.T) *DB {
	t.Helper()
	db, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAndHealth(t *testing.T) {
	db := openTestData(t)
	require.NoError(t, db.Health(context.Background()))
	assert.NotEmpty(t, db.Path())
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestData(t)
	// Re-running migrations must be a no-op, not a failure.
	require.NoError(t, db.migrate(context.Background(), dataMigrations()))

	version, err := db.schemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestWithTxRollback(t *testing.T) {
	db := openTestData(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO places (id, name, category, city, updated_at)
			VALUES ('p1', 'Test', 'food', 'Hanoi', 0)`)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := NewPlaceDAO(db).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "rolled back insert must not persist")
}

func TestPlaceDAO(t *testing.T) {
	db := openTestData(t)
	dao := NewPlaceDAO(db)
	ctx := context.Background()

	place := types.PlaceRecord{
		ID:            "hanoi-oldquarter",
		Name:          "Old Quarter",
		Category:      types.CategoryAttraction,
		City:          "Hanoi",
		Latitude:      21.034,
		Longitude:     105.851,
		Rating:        4.6,
		PriceEstimate: 0,
	}
	require.NoError(t, dao.Upsert(ctx, place))

	got, err := dao.GetByID(ctx, place.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, place.Name, got.Name)
	assert.Equal(t, place.Category, got.Category)

	// Upsert with the same ID replaces, never duplicates.
	place.Rating = 4.8
	require.NoError(t, dao.Upsert(ctx, place))
	count, err := dao.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err = dao.GetByID(ctx, place.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.8, got.Rating)

	missing, err := dao.GetByID(ctx, "no-such-place")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPlaceDAOGetByCity(t *testing.T) {
	db := openTestData(t)
	dao := NewPlaceDAO(db)
	ctx := context.Background()

	batch := []types.PlaceRecord{
		{ID: "h1", Name: "Hotel Metropole", Category: types.CategoryLodging, City: "Hanoi", Rating: 4.9},
		{ID: "h2", Name: "Bun Cha Huong Lien", Category: types.CategoryFood, City: "Hanoi", Rating: 4.5},
		{ID: "d1", Name: "My Khe Beach", Category: types.CategoryAttraction, City: "Da Nang", Rating: 4.7},
	}
	require.NoError(t, dao.UpsertBatch(ctx, batch))

	hanoi, err := dao.GetByCity(ctx, "Hanoi")
	require.NoError(t, err)
	require.Len(t, hanoi, 2)
	assert.Equal(t, "Hotel Metropole", hanoi[0].Name, "results ordered by rating descending")

	// Unknown city is an empty result, not an error.
	nowhere, err := dao.GetByCity(ctx, "Atlantis")
	require.NoError(t, err)
	assert.NotNil(t, nowhere)
	assert.Empty(t, nowhere)
}

func samplePlan() *types.Plan {
	return &types.Plan{
		ID:          types.NewID(),
		Destination: "Hanoi",
		Days:        5,
		Travelers:   2,
		Itinerary: []types.DayEntry{
			{Day: 1, Morning: "Hoan Kiem Lake", Afternoon: "Old Quarter", Evening: "Dinner at Bun Cha Huong Lien", Night: "Rest at lodging"},
		},
		BudgetBreakdown: map[string]float64{"lodging": 4000000, "food": 3000000, "transport": 1500000, "activities": 1500000},
		TotalBudget:     10000000,
		GeneratedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestPlanDAOSaveAndGet(t *testing.T) {
	db := openTestData(t)
	dao := NewPlanDAO(db)
	ctx := context.Background()

	plan := samplePlan()
	require.NoError(t, dao.Save(ctx, plan))

	got, err := dao.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, plan.Destination, got.Destination)
	assert.Equal(t, plan.BudgetBreakdown, got.BudgetBreakdown)
	assert.Len(t, got.Itinerary, 1)

	missing, err := dao.GetByID(ctx, types.NewID())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPlanDAOAppendOnly(t *testing.T) {
	db := openTestData(t)
	dao := NewPlanDAO(db)
	ctx := context.Background()

	plan := samplePlan()
	require.NoError(t, dao.Save(ctx, plan))
	assert.Error(t, dao.Save(ctx, plan), "re-inserting an existing plan ID must fail")
}

func TestPlanDAOLatestSupersedes(t *testing.T) {
	db := openTestData(t)
	dao := NewPlanDAO(db)
	ctx := context.Background()

	older := samplePlan()
	older.GeneratedAt = time.Now().Add(-time.Hour)
	require.NoError(t, dao.Save(ctx, older))

	newer := samplePlan()
	newer.GeneratedAt = time.Now()
	require.NoError(t, dao.Save(ctx, newer))

	latest, err := dao.Latest(ctx, "Hanoi")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, newer.ID, latest.ID, "newest plan supersedes by timestamp")

	plans, err := dao.ListByDestination(ctx, "Hanoi", 10)
	require.NoError(t, err)
	assert.Len(t, plans, 2, "older plans are kept, never overwritten")

	none, err := dao.Latest(ctx, "Hue")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestAnalyticsDAO(t *testing.T) {
	db := openTestData(t)
	ctx := context.Background()

	plan := samplePlan()
	require.NoError(t, NewPlanDAO(db).Save(ctx, plan))

	dao := NewAnalyticsDAO(db)
	result := &types.AnalyticsResult{
		ID:                types.NewID(),
		PlanID:            plan.ID,
		DiversityScore:    0.72,
		BudgetUtilization: 0.95,
		PlacesAnalyzed:    18,
		Insights:          []string{"high lodging share", "good category spread"},
		GeneratedAt:       time.Now(),
	}
	require.NoError(t, dao.Save(ctx, result))

	got, err := dao.GetByPlanID(ctx, plan.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, result.ID, got.ID)
	assert.Equal(t, result.Insights, got.Insights)
	assert.Equal(t, 18, got.PlacesAnalyzed)

	missing, err := dao.GetByPlanID(ctx, types.NewID())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAnalyticsDAORejectsOrphan(t *testing.T) {
	db := openTestData(t)

	orphan := &types.AnalyticsResult{
		ID:          types.NewID(),
		PlanID:      types.NewID(),
		GeneratedAt: time.Now(),
	}
	assert.Error(t, NewAnalyticsDAO(db).Save(context.Background(), orphan),
		"analytics must reference an existing plan")
}

func TestCacheSchemaSeparateFromData(t *testing.T) {
	cacheDB := openTestCache(t)
	ctx := context.Background()

	// The cache database carries only the cache table.
	_, err := cacheDB.ExecContext(ctx,
		`INSERT INTO api_cache (cache_key, source, payload, created_at, expires_at)
		 VALUES ('k', 'places', X'00', 0, 1)`)
	require.NoError(t, err)

	var n int
	err = cacheDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM places`).Scan(&n)
	assert.Error(t, err, "durable tables must not exist in the cache database")
}
