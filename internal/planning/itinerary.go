package planning

import (
	"fmt"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// Slot fallbacks used when the ranked lists run dry or were empty to begin
// with. A thin dataset still yields a complete day structure.
const (
	fallbackActivity = "Free exploration"
	fallbackDining   = "Local street food"
	fallbackNight    = "Rest at lodging"
)

// BuildItinerary fills days x four time slots from the ranked candidate
// lists. Attractions rotate through morning and afternoon, dining rotates
// through evening, and night alternates between the remaining attractions
// and rest. Rotation wraps around so short lists repeat rather than leaving
// slots empty.
func BuildItinerary(days int, attractions, dining []types.Candidate) []types.DayEntry {
	if days <= 0 {
		return nil
	}

	nextAttraction := rotation(attractions, fallbackActivity)
	nextDining := rotation(dining, fallbackDining)

	itinerary := make([]types.DayEntry, 0, days)
	for day := 1; day <= days; day++ {
		entry := types.DayEntry{
			Day:       day,
			Morning:   nextAttraction(),
			Afternoon: nextAttraction(),
			Evening:   fmt.Sprintf("Dinner at %s", nextDining()),
			Night:     fallbackNight,
		}
		// Every other day gets an evening activity instead of an early rest.
		if day%2 == 1 && len(attractions) > 0 {
			entry.Night = fmt.Sprintf("Evening visit to %s", nextAttraction())
		}
		itinerary = append(itinerary, entry)
	}

	return itinerary
}

// rotation returns a closure cycling through the candidates' place names,
// yielding the fallback forever when the list is empty.
func rotation(candidates []types.Candidate, fallback string) func() string {
	if len(candidates) == 0 {
		return func() string { return fallback }
	}
	i := 0
	return func() string {
		name := candidates[i%len(candidates)].Place.Name
		i++
		return name
	}
}
