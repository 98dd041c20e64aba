package assessment

// GradeBand is a discrete code for a percentage-score range.
type GradeBand string

const (
	BandA1 GradeBand = "A1"
	BandB2 GradeBand = "B2"
	BandB3 GradeBand = "B3"
	BandC4 GradeBand = "C4"
	BandC5 GradeBand = "C5"
	BandC6 GradeBand = "C6"
	BandD7 GradeBand = "D7"
	BandE8 GradeBand = "E8"
	BandF9 GradeBand = "F9"
)

// bandThresholds partitions [0,100]: inclusive lower bounds, checked top
// down. Shared by auto-graded submissions and manual result entry so the two
// paths never diverge.
var bandThresholds = []struct {
	min  int
	band GradeBand
}{
	{75, BandA1},
	{70, BandB2},
	{65, BandB3},
	{60, BandC4},
	{55, BandC5},
	{50, BandC6},
	{45, BandD7},
	{40, BandE8},
	{0, BandF9},
}

// BandFor resolves the grade band of a 0-100 score.
func BandFor(scorePercent int) GradeBand {
	for _, t := range bandThresholds {
		if scorePercent >= t.min {
			return t.band
		}
	}
	return BandF9
}
