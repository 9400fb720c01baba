package stages

import (
	"context"
	"strings"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/pipeline"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/planning"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// Scorer produces one analysis signal over the normalized place set. Scores
// are in [0, 1]; a scorer may return a sparse set, leaving unscored places
// at the aggregator's neutral value. Implementations must be deterministic
// for identical inputs.
type Scorer interface {
	Score(ctx context.Context, req types.Request, input ProcessorOutput) (planning.SignalSet, error)
}

// ScoringStage adapts a Scorer into a non-fatal pipeline stage reading the
// processor's output. All four analysis stages share this shape and run in
// parallel within one level.
type ScoringStage struct {
	name   string
	scorer Scorer
}

// NewScoringStage wraps a scorer as the named pipeline stage.
func NewScoringStage(name string, scorer Scorer) *ScoringStage {
	return &ScoringStage{name: name, scorer: scorer}
}

func (s *ScoringStage) Name() string           { return s.name }
func (s *ScoringStage) Dependencies() []string { return []string{StageProcessor} }
func (s *ScoringStage) Fatal() bool            { return false }

// Run scores the processor's place set.
func (s *ScoringStage) Run(ctx context.Context, pctx *pipeline.Context) (*pipeline.StageResult, error) {
	payload, ok := pctx.Payload(StageProcessor)
	if !ok {
		return nil, types.NewError(types.STAGE_FAILED, "processor output unavailable")
	}
	input, ok := payload.(ProcessorOutput)
	if !ok {
		return nil, types.NewError(types.STAGE_FAILED, "unexpected processor payload type")
	}

	signals, err := s.scorer.Score(ctx, pctx.Request, input)
	if err != nil {
		return nil, err
	}

	return &pipeline.StageResult{
		Stage:   s.name,
		Status:  pipeline.StageStatusSuccess,
		Payload: signals,
	}, nil
}

// RatingScorer is the default recommendation scorer. It maps the place
// rating onto [0, 1] with a small boost when the place matches one of the
// request's preference tags.
type RatingScorer struct{}

func (RatingScorer) Score(_ context.Context, req types.Request, input ProcessorOutput) (planning.SignalSet, error) {
	signals := make(planning.SignalSet, len(input.Places))
	for _, place := range input.Places {
		score := 0.18 * place.Rating // rating 5.0 -> 0.9
		if matchesPreferences(req, place) {
			score += 0.1
		}
		signals[place.ID] = score
	}
	return signals, nil
}

// Word lists for the default sentiment heuristic.
var (
	positiveWords = []string{
		"amazing", "beautiful", "best", "delicious", "excellent", "friendly",
		"great", "lovely", "peaceful", "recommended", "stunning", "wonderful",
	}
	negativeWords = []string{
		"avoid", "bad", "crowded", "dirty", "disappointing", "expensive",
		"overpriced", "rude", "scam", "terrible", "tourist trap", "worst",
	}
)

// LexiconScorer is the default sentiment scorer. It scans search snippets
// that mention a place by name and counts positive against negative words.
// Places never mentioned stay unscored and fall back to neutral.
type LexiconScorer struct{}

func (LexiconScorer) Score(_ context.Context, _ types.Request, input ProcessorOutput) (planning.SignalSet, error) {
	signals := make(planning.SignalSet)
	for _, place := range input.Places {
		name := strings.ToLower(place.Name)
		mentioned := false
		balance := 0

		for _, hit := range input.Search {
			text := strings.ToLower(hit.Title + " " + hit.Snippet)
			if !strings.Contains(text, name) {
				continue
			}
			mentioned = true
			for _, w := range positiveWords {
				balance += strings.Count(text, w)
			}
			for _, w := range negativeWords {
				balance -= strings.Count(text, w)
			}
		}

		if !mentioned {
			continue
		}
		signals[place.ID] = planning.NeutralScore + 0.1*float64(balance)
	}
	return signals, nil
}

// PreferenceScorer is the default similarity scorer. It measures overlap
// between the request's preference tags and the place's category and
// metadata tokens.
type PreferenceScorer struct{}

func (PreferenceScorer) Score(_ context.Context, req types.Request, input ProcessorOutput) (planning.SignalSet, error) {
	if len(req.Preferences) == 0 {
		// Nothing to be similar to; leave every place at neutral.
		return nil, nil
	}

	signals := make(planning.SignalSet, len(input.Places))
	for _, place := range input.Places {
		matched := 0
		for _, pref := range req.Preferences {
			tag := strings.ToLower(strings.TrimSpace(pref))
			if tag == "" {
				continue
			}
			if strings.Contains(strings.ToLower(string(place.Category)), tag) ||
				strings.Contains(strings.ToLower(place.Metadata), tag) ||
				strings.Contains(strings.ToLower(place.Name), tag) {
				matched++
			}
		}
		signals[place.ID] = float64(matched) / float64(len(req.Preferences))
	}
	return signals, nil
}

// PriceFitScorer is the default price scorer. It compares a place's price
// estimate against the daily budget share for its category: well within the
// share scores high, roughly double the share scores zero.
type PriceFitScorer struct {
	Ratios planning.BudgetRatios
}

func (s PriceFitScorer) Score(_ context.Context, req types.Request, input ProcessorOutput) (planning.SignalSet, error) {
	ratios := s.Ratios
	if ratios == (planning.BudgetRatios{}) {
		ratios = planning.DefaultBudgetRatios()
	}

	signals := make(planning.SignalSet)
	for _, place := range input.Places {
		if place.PriceEstimate <= 0 {
			// Unknown price, leave it neutral.
			continue
		}

		share := dailyShareFor(place.Category, req, ratios)
		if share <= 0 {
			continue
		}

		ratio := place.PriceEstimate / share
		switch {
		case ratio <= 0.5:
			signals[place.ID] = 1.0
		case ratio >= 2.0:
			signals[place.ID] = 0.0
		default:
			signals[place.ID] = (2.0 - ratio) / 1.5
		}
	}
	return signals, nil
}

// dailyShareFor returns the per-day budget available for one place of the
// given category.
func dailyShareFor(category types.PlaceCategory, req types.Request, ratios planning.BudgetRatios) float64 {
	perDay := req.Budget / float64(req.Days)
	switch category {
	case types.CategoryLodging:
		return perDay * ratios.Lodging
	case types.CategoryFood:
		// Budgeted per meal, three meals a day for the whole party.
		return perDay * ratios.Food / 3
	case types.CategoryTransport:
		return perDay * ratios.Transport
	case types.CategoryAttraction:
		// Two paid activities a day.
		return perDay * ratios.Activities / 2
	default:
		return perDay * ratios.Activities
	}
}

func matchesPreferences(req types.Request, place types.PlaceRecord) bool {
	for _, pref := range req.Preferences {
		tag := strings.ToLower(strings.TrimSpace(pref))
		if tag == "" {
			continue
		}
		if strings.Contains(strings.ToLower(string(place.Category)), tag) ||
			strings.Contains(strings.ToLower(place.Metadata), tag) {
			return true
		}
	}
	return false
}
