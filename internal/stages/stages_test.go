package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/cache"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/database"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/fetch"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/pipeline"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/planning"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

func testRequest() types.Request {
	return types.Request{
		Destination: "Hanoi",
		Budget:      10000000,
		Days:        5,
		Travelers:   2,
		Preferences: []string{"culture", "food"},
	}
}

func hanoiPlaces() []types.PlaceRecord {
	return []types.PlaceRecord{
		{ID: "hn-lodge-1", Name: "Hotel Metropole", Category: types.CategoryLodging, City: "Hanoi", Rating: 4.9, PriceEstimate: 900000},
		{ID: "hn-lodge-2", Name: "Old Quarter Hostel", Category: types.CategoryLodging, City: "Hanoi", Rating: 4.2, PriceEstimate: 250000},
		{ID: "hn-food-1", Name: "Bun Cha Huong Lien", Category: types.CategoryFood, City: "Hanoi", Rating: 4.6, PriceEstimate: 80000, Metadata: "food street-food"},
		{ID: "hn-food-2", Name: "Cha Ca La Vong", Category: types.CategoryFood, City: "Hanoi", Rating: 4.3, PriceEstimate: 180000, Metadata: "food seafood"},
		{ID: "hn-attr-1", Name: "Hoan Kiem Lake", Category: types.CategoryAttraction, City: "Hanoi", Rating: 4.7, PriceEstimate: 0, Metadata: "culture walking"},
		{ID: "hn-attr-2", Name: "Temple of Literature", Category: types.CategoryAttraction, City: "Hanoi", Rating: 4.5, PriceEstimate: 30000, Metadata: "culture history"},
		{ID: "hn-attr-3", Name: "Old Quarter Walk", Category: types.CategoryAttraction, City: "Hanoi", Rating: 4.4, PriceEstimate: 0, Metadata: "culture food"},
	}
}

func placesJSON(t *testing.T, places []types.PlaceRecord) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"places": places})
	require.NoError(t, err)
	return payload
}

// staticSources returns fake sources serving fixed payloads, plus a counter
// map recording physical calls per source.
func staticSources(t *testing.T, places []types.PlaceRecord) (Sources, map[string]*int) {
	t.Helper()

	calls := map[string]*int{
		SourcePlaces:  new(int),
		SourceWeather: new(int),
		SourceSearch:  new(int),
	}

	weather, err := json.Marshal(WeatherReport{Summary: "humid, scattered showers", AverageTemp: 29.5, RainDays: 2})
	require.NoError(t, err)
	search, err := json.Marshal(map[string]any{"results": []SearchResult{
		{Title: "Hanoi food guide", Snippet: "Bun Cha Huong Lien is delicious and friendly, highly recommended"},
		{Title: "Hanoi sights", Snippet: "Hoan Kiem Lake is beautiful but crowded at weekends"},
	}})
	require.NoError(t, err)

	placesPayload := placesJSON(t, places)

	mk := func(name string, payload []byte) fetch.Source {
		return fetch.SourceFunc{
			SourceName: name,
			Fn: func(ctx context.Context, params map[string]string) ([]byte, error) {
				*calls[name]++
				return payload, nil
			},
		}
	}

	return Sources{
		Places:  mk(SourcePlaces, placesPayload),
		Weather: mk(SourceWeather, weather),
		Search:  mk(SourceSearch, search),
	}, calls
}

func failingSource(name string) fetch.Source {
	return fetch.SourceFunc{
		SourceName: name,
		Fn: func(ctx context.Context, params map[string]string) ([]byte, error) {
			return nil, types.NewError(types.FETCH_FAILED, fmt.Sprintf("source %s down", name))
		},
	}
}

func openDataDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.OpenData(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestClient(t *testing.T, opts ...fetch.ClientOption) *fetch.Client {
	t.Helper()
	return fetch.NewClient(cache.NewMemoryStore(), opts...)
}

func seedCollectorResult(pctx *pipeline.Context, out CollectorOutput) {
	pctx.Record(&pipeline.StageResult{
		Stage:   StageCollector,
		Status:  pipeline.StageStatusSuccess,
		Payload: out,
	})
}

func seedProcessorResult(pctx *pipeline.Context, out ProcessorOutput) {
	pctx.Record(&pipeline.StageResult{
		Stage:   StageProcessor,
		Status:  pipeline.StageStatusSuccess,
		Payload: out,
	})
}

func seedSignal(pctx *pipeline.Context, stage string, signals planning.SignalSet) {
	pctx.Record(&pipeline.StageResult{
		Stage:   stage,
		Status:  pipeline.StageStatusSuccess,
		Payload: signals,
	})
}
