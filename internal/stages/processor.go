package stages

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/database"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/pipeline"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// ProcessorOutput is the processor stage's payload: the cleaned, merged
// place set every scoring stage works from, plus the pass-through enrichment
// data the scorers may use.
type ProcessorOutput struct {
	Places  []types.PlaceRecord
	Weather *WeatherReport
	Search  []SearchResult
	Offline bool
}

// Processor normalizes the collector's raw places, merges them with records
// already in the persistent store, and writes freshly fetched records back
// so future offline runs have data to fall back on.
type Processor struct {
	places *database.PlaceDAO
	logger *slog.Logger
}

// NewProcessor creates the processor stage.
func NewProcessor(places *database.PlaceDAO, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{places: places, logger: logger}
}

func (p *Processor) Name() string           { return StageProcessor }
func (p *Processor) Dependencies() []string { return []string{StageCollector} }
func (p *Processor) Fatal() bool            { return true }

// Run produces the normalized place set. Records are deduplicated by ID with
// fetched data taking precedence over stored data, and sorted by ID so the
// output never depends on map iteration order.
func (p *Processor) Run(ctx context.Context, pctx *pipeline.Context) (*pipeline.StageResult, error) {
	payload, ok := pctx.Payload(StageCollector)
	if !ok {
		return nil, types.NewError(types.PLAN_INSUFFICIENT_DATA, "collector output unavailable")
	}
	collected, ok := payload.(CollectorOutput)
	if !ok {
		return nil, types.NewError(types.STAGE_FAILED, "unexpected collector payload type")
	}

	fetched := normalizePlaces(collected.Places)

	merged := make(map[string]types.PlaceRecord)
	if !collected.Offline {
		stored, err := p.places.GetByCity(ctx, pctx.Request.Destination)
		if err != nil {
			return nil, err
		}
		for _, place := range stored {
			merged[place.ID] = place
		}
	}
	for _, place := range fetched {
		merged[place.ID] = place
	}

	if len(merged) == 0 {
		return nil, types.NewError(types.PLAN_INSUFFICIENT_DATA,
			"no usable places after normalization")
	}

	places := make([]types.PlaceRecord, 0, len(merged))
	for _, place := range merged {
		places = append(places, place)
	}
	sort.Slice(places, func(i, j int) bool { return places[i].ID < places[j].ID })

	var diagnostics []string
	if !collected.Offline && len(fetched) > 0 {
		if err := p.places.UpsertBatch(ctx, fetched); err != nil {
			// The store write is an enrichment for future offline runs; the
			// current run proceeds on the in-memory set.
			p.logger.WarnContext(ctx, "failed to persist fetched places",
				"destination", pctx.Request.Destination,
				"error", err,
			)
			diagnostics = append(diagnostics, "fetched places not persisted for offline reuse")
		}
	}

	status := pipeline.StageStatusSuccess
	if len(diagnostics) > 0 {
		status = pipeline.StageStatusPartial
	}

	return &pipeline.StageResult{
		Stage:  StageProcessor,
		Status: status,
		Payload: ProcessorOutput{
			Places:  places,
			Weather: collected.Weather,
			Search:  collected.Search,
			Offline: collected.Offline,
		},
		Diagnostics: diagnostics,
	}, nil
}

// normalizePlaces drops unusable records and canonicalizes the rest.
// A record needs at least an ID and a name; unknown categories become
// CategoryOther and ratings are clamped to the 0..5 scale.
func normalizePlaces(raw []types.PlaceRecord) []types.PlaceRecord {
	out := make([]types.PlaceRecord, 0, len(raw))
	for _, place := range raw {
		place.ID = strings.TrimSpace(place.ID)
		place.Name = strings.TrimSpace(place.Name)
		place.City = strings.TrimSpace(place.City)
		if place.ID == "" || place.Name == "" {
			continue
		}

		switch place.Category {
		case types.CategoryLodging, types.CategoryFood, types.CategoryAttraction, types.CategoryTransport:
		default:
			place.Category = types.CategoryOther
		}

		if place.Rating < 0 {
			place.Rating = 0
		}
		if place.Rating > 5 {
			place.Rating = 5
		}
		if place.PriceEstimate < 0 {
			place.PriceEstimate = 0
		}

		out = append(out, place)
	}
	return out
}
