package stages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/database"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/fetch"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/pipeline"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// Stage names of the default pipeline topology.
const (
	StageCollector      = "collector"
	StageProcessor      = "processor"
	StageRecommendation = "recommendation"
	StageSentiment      = "sentiment"
	StageSimilarity     = "similarity"
	StagePrice          = "price"
	StagePlanner        = "planner"
	StageAnalytics      = "analytics"
)

// Source names used for cache keys and per-source TTLs.
const (
	SourcePlaces  = "places"
	SourceWeather = "weather"
	SourceSearch  = "search"
)

// WeatherReport is the parsed weather payload for a destination.
type WeatherReport struct {
	Summary     string  `json:"summary"`
	AverageTemp float64 `json:"average_temp"`
	RainDays    int     `json:"rain_days"`
}

// SearchResult is one free-text search hit about the destination, used by
// the sentiment stage.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// CollectorOutput is the collector stage's payload.
type CollectorOutput struct {
	Places  []types.PlaceRecord
	Weather *WeatherReport
	Search  []SearchResult

	// Offline marks that places came from the persistent store instead of an
	// external fetch.
	Offline bool
}

// Sources bundles the external sources the collector pulls from.
type Sources struct {
	Places  fetch.Source
	Weather fetch.Source
	Search  fetch.Source
}

// Collector is the pipeline's entry stage. It fetches raw place, weather,
// and search data for the destination. Place data is mandatory; weather and
// search failures only degrade downstream signal quality. When the fetch
// client is offline, or the places fetch fails after retries, the collector
// falls back to place records already in the persistent store and marks the
// run offline-generated.
type Collector struct {
	client  *fetch.Client
	sources Sources
	places  *database.PlaceDAO
	logger  *slog.Logger
}

// NewCollector creates the collector stage.
func NewCollector(client *fetch.Client, sources Sources, places *database.PlaceDAO, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{client: client, sources: sources, places: places, logger: logger}
}

func (c *Collector) Name() string           { return StageCollector }
func (c *Collector) Dependencies() []string { return nil }
func (c *Collector) Fatal() bool            { return true }

// Run collects raw data for the request's destination.
func (c *Collector) Run(ctx context.Context, pctx *pipeline.Context) (*pipeline.StageResult, error) {
	req := pctx.Request
	params := map[string]string{"city": req.Destination}

	out := CollectorOutput{}
	var diagnostics []string

	payload, err := c.client.Get(ctx, c.sources.Places, params)
	if err != nil {
		// Offline mode and an exhausted fetch both land here: stored places
		// keep the run alive, the original failure only when the store is
		// empty too.
		stored, storeErr := c.places.GetByCity(ctx, req.Destination)
		if storeErr != nil {
			return nil, storeErr
		}
		if len(stored) == 0 {
			if errors.Is(err, fetch.ErrOffline) {
				return nil, types.NewError(types.PLAN_INSUFFICIENT_DATA,
					fmt.Sprintf("offline and no stored places for %q", req.Destination))
			}
			return nil, err
		}
		if errors.Is(err, fetch.ErrOffline) {
			c.logger.InfoContext(ctx, "collector running offline from stored places",
				"destination", req.Destination,
				"places", len(stored),
			)
		} else {
			c.logger.WarnContext(ctx, "places fetch failed, serving stored places",
				"destination", req.Destination,
				"places", len(stored),
				"error", err,
			)
			diagnostics = append(diagnostics, fmt.Sprintf("places fetch failed: %v", err))
		}
		out.Places = stored
		out.Offline = true
		diagnostics = append(diagnostics, "offline-generated: places served from local store")
	} else {
		places, parseErr := parsePlacesPayload(payload)
		if parseErr != nil {
			return nil, parseErr
		}
		out.Places = places
	}

	// Weather and search are enrichment only. Their absence is a diagnostic,
	// never a failure.
	if weather, err := c.fetchWeather(ctx, params); err != nil {
		diagnostics = append(diagnostics, fmt.Sprintf("weather unavailable: %v", err))
	} else {
		out.Weather = weather
	}

	// Search results depend on the whole request shape; the fingerprint keeps
	// the cache key identical for semantically identical requests.
	searchParams := req.Fingerprint()
	if results, err := c.fetchSearch(ctx, searchParams); err != nil {
		diagnostics = append(diagnostics, fmt.Sprintf("search unavailable: %v", err))
	} else {
		out.Search = results
	}

	status := pipeline.StageStatusSuccess
	if len(diagnostics) > 0 {
		status = pipeline.StageStatusPartial
	}

	return &pipeline.StageResult{
		Stage:       StageCollector,
		Status:      status,
		Payload:     out,
		Diagnostics: diagnostics,
	}, nil
}

func (c *Collector) fetchWeather(ctx context.Context, params map[string]string) (*WeatherReport, error) {
	payload, err := c.client.Get(ctx, c.sources.Weather, params)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, errors.New("empty weather payload")
	}
	var report WeatherReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Collector) fetchSearch(ctx context.Context, params map[string]string) ([]SearchResult, error) {
	payload, err := c.client.Get(ctx, c.sources.Search, params)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Results []SearchResult `json:"results"`
	}
	if len(payload) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Results, nil
}

func parsePlacesPayload(payload []byte) ([]types.PlaceRecord, error) {
	var wrapper struct {
		Places []types.PlaceRecord `json:"places"`
	}
	if len(payload) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return nil, types.WrapError(types.FETCH_FAILED, "malformed places payload", err)
	}
	return wrapper.Places, nil
}
