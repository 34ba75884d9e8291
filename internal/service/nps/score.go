package nps

import "math"

// Classification is the NPS band a score falls into.
type Classification string

const (
	Detractor Classification = "detractor"
	Passive   Classification = "passive"
	Promoter  Classification = "promoter"
)

// Classify maps a 0-10 score to its NPS band. Boundaries are inclusive and
// fixed: 0-6 detractor, 7-8 passive, 9-10 promoter.
func Classify(score int) Classification {
	switch {
	case score <= 6:
		return Detractor
	case score <= 8:
		return Passive
	default:
		return Promoter
	}
}

// Result holds the aggregate NPS metrics for one response set.
//
// Score is round(100*promoters/total) - round(100*detractors/total), each
// percentage rounded independently before subtraction so the headline number
// always matches the rounded breakdown shown next to it. This can differ by
// a point from the unrounded NPS; that is the intended display contract.
type Result struct {
	TotalResponses int     `json:"totalResponses"`
	AverageScore   float64 `json:"averageScore"`
	Score          int     `json:"npsScore"`
	NoData         bool    `json:"noData"`
	Promoters      int     `json:"promoters"`
	Passives       int     `json:"passives"`
	Detractors     int     `json:"detractors"`
}

// Compute aggregates a set of validated scores into an NPS result.
// An empty set reports Score 0 with NoData set, so callers can tell
// "neutral NPS" apart from "no responses yet".
func Compute(scores []int) Result {
	if len(scores) == 0 {
		return Result{NoData: true}
	}

	var res Result
	res.TotalResponses = len(scores)

	sum := 0
	for _, s := range scores {
		sum += s
		switch Classify(s) {
		case Promoter:
			res.Promoters++
		case Passive:
			res.Passives++
		default:
			res.Detractors++
		}
	}

	total := float64(res.TotalResponses)
	promoterPct := int(math.Round(100 * float64(res.Promoters) / total))
	detractorPct := int(math.Round(100 * float64(res.Detractors) / total))
	res.Score = promoterPct - detractorPct
	res.AverageScore = float64(sum) / total

	return res
}
