package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/pipeline"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/planning"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

func TestRatingScorer(t *testing.T) {
	input := ProcessorOutput{Places: []types.PlaceRecord{
		{ID: "top", Name: "Top Rated", Category: types.CategoryAttraction, Rating: 5.0},
		{ID: "mid", Name: "Mid Rated", Category: types.CategoryAttraction, Rating: 2.5},
		{ID: "pref", Name: "Preferred", Category: types.CategoryFood, Rating: 2.5, Metadata: "food"},
	}}

	signals, err := RatingScorer{}.Score(context.Background(), testRequest(), input)
	require.NoError(t, err)

	assert.InDelta(t, 0.9, signals["top"], 1e-9)
	assert.InDelta(t, 0.45, signals["mid"], 1e-9)
	assert.Greater(t, signals["pref"], signals["mid"], "preference match earns a boost")
}

func TestLexiconScorerSparse(t *testing.T) {
	input := ProcessorOutput{
		Places: []types.PlaceRecord{
			{ID: "praised", Name: "Bun Cha Huong Lien", Category: types.CategoryFood},
			{ID: "panned", Name: "Tourist Bistro", Category: types.CategoryFood},
			{ID: "unknown", Name: "Quiet Corner", Category: types.CategoryFood},
		},
		Search: []SearchResult{
			{Title: "food guide", Snippet: "Bun Cha Huong Lien is delicious and friendly"},
			{Title: "warnings", Snippet: "Tourist Bistro is an overpriced tourist trap, avoid"},
		},
	}

	signals, err := LexiconScorer{}.Score(context.Background(), testRequest(), input)
	require.NoError(t, err)

	assert.Greater(t, signals["praised"], planning.NeutralScore)
	assert.Less(t, signals["panned"], planning.NeutralScore)
	_, mentioned := signals["unknown"]
	assert.False(t, mentioned, "unmentioned places stay unscored and read as neutral downstream")
}

func TestPreferenceScorer(t *testing.T) {
	input := ProcessorOutput{Places: []types.PlaceRecord{
		{ID: "both", Name: "Food Culture Tour", Category: types.CategoryAttraction, Metadata: "culture food"},
		{ID: "one", Name: "History Museum", Category: types.CategoryAttraction, Metadata: "culture"},
		{ID: "none", Name: "Airport Shuttle", Category: types.CategoryTransport},
	}}

	signals, err := PreferenceScorer{}.Score(context.Background(), testRequest(), input)
	require.NoError(t, err)

	assert.Equal(t, 1.0, signals["both"])
	assert.Equal(t, 0.5, signals["one"])
	assert.Equal(t, 0.0, signals["none"])
}

func TestPreferenceScorerNoPreferences(t *testing.T) {
	req := testRequest()
	req.Preferences = nil

	signals, err := PreferenceScorer{}.Score(context.Background(), req, ProcessorOutput{
		Places: hanoiPlaces(),
	})
	require.NoError(t, err)
	assert.Nil(t, signals, "without preferences everything is equally similar")
}

func TestPriceFitScorerBands(t *testing.T) {
	req := testRequest() // 10M over 5 days: 800k/day lodging share
	input := ProcessorOutput{Places: []types.PlaceRecord{
		{ID: "cheap", Name: "Budget Inn", Category: types.CategoryLodging, PriceEstimate: 300000},
		{ID: "fit", Name: "Mid Hotel", Category: types.CategoryLodging, PriceEstimate: 800000},
		{ID: "steep", Name: "Grand Palace", Category: types.CategoryLodging, PriceEstimate: 2000000},
		{ID: "unpriced", Name: "Mystery Stay", Category: types.CategoryLodging, PriceEstimate: 0},
	}}

	signals, err := PriceFitScorer{}.Score(context.Background(), req, input)
	require.NoError(t, err)

	assert.Equal(t, 1.0, signals["cheap"], "well under the share is a perfect fit")
	assert.InDelta(t, 2.0/3.0, signals["fit"], 1e-9)
	assert.Equal(t, 0.0, signals["steep"], "more than double the share does not fit")
	_, scored := signals["unpriced"]
	assert.False(t, scored, "unknown prices stay neutral")
}

func TestScoringStageDegradesWithoutProcessor(t *testing.T) {
	stage := NewScoringStage(StageRecommendation, RatingScorer{})
	assert.False(t, stage.Fatal())
	assert.Equal(t, []string{StageProcessor}, stage.Dependencies())

	_, err := stage.Run(context.Background(), pipeline.NewContext(testRequest()))
	require.Error(t, err)
	assert.Equal(t, types.STAGE_FAILED, types.CodeOf(err))
}

func TestScoringStageProducesSignalSet(t *testing.T) {
	stage := NewScoringStage(StageRecommendation, RatingScorer{})
	pctx := pipeline.NewContext(testRequest())
	seedProcessorResult(pctx, ProcessorOutput{Places: hanoiPlaces()})

	result, err := stage.Run(context.Background(), pctx)
	require.NoError(t, err)
	assert.Equal(t, StageRecommendation, result.Stage)

	signals, ok := result.Payload.(planning.SignalSet)
	require.True(t, ok)
	assert.Len(t, signals, len(hanoiPlaces()))
}
