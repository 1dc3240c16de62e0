package playercount

// Enrich tags each observation with the default Friday-to-Sunday weekend flag
// and with sale-day membership in cal.
func Enrich(observations []Observation, cal *SaleCalendar) []EnrichedObservation {
	return EnrichWith(observations, cal, DefaultWeekend)
}

// EnrichWith is Enrich with an explicit weekend policy. The result has the
// same length and order as the input; neither the input nor the calendar is
// modified. A nil calendar marks no sale days.
func EnrichWith(observations []Observation, cal *SaleCalendar, weekend WeekendPolicy) []EnrichedObservation {
	if weekend == 0 {
		weekend = DefaultWeekend
	}

	enriched := make([]EnrichedObservation, len(observations))
	for i, obs := range observations {
		enriched[i] = EnrichedObservation{
			Observation: obs,
			IsWeekend:   weekend.IsWeekend(obs.Date),
			IsSaleDay:   cal != nil && cal.IsSaleDay(obs.Date),
		}
	}
	return enriched
}
