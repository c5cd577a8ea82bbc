// internal/simulation/aggregate.go
package simulation

import "riigikogu-radar/internal/models"

// Outcome labels for a simulated vote.
const (
	OutcomePasses = "PASSES"
	OutcomeFails  = "FAILS"
	OutcomeTie    = "TIE"
)

// Aggregate tallies per-member predictions into a Summary. Pure function:
// no clock, no state, same input always yields the same output. Members the
// oracle never answered for are simply not in the input and therefore not
// counted — an omission is not an ABSENT vote.
func Aggregate(predictions []models.PredictionResponse) models.Summary {
	var sum models.Summary
	for _, p := range predictions {
		switch p.Prediction {
		case models.DecisionFor:
			sum.For++
		case models.DecisionAgainst:
			sum.Against++
		case models.DecisionAbstain:
			sum.Abstain++
		case models.DecisionAbsent:
			sum.Absent++
		}
	}

	switch {
	case sum.For > sum.Against:
		sum.PredictedOutcome = OutcomePasses
	case sum.Against > sum.For:
		sum.PredictedOutcome = OutcomeFails
	default:
		sum.PredictedOutcome = OutcomeTie
	}
	return sum
}
