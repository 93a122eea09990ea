package matcher

import (
	"slices"

	"github.com/HendryAvila/teamfit/internal/team"
)

// Stats is the team's central tendency, used by balanced scoring and by the
// balanced continuity rule.
type Stats struct {
	AvgSpeed    float64
	AvgRate     float64
	MedianSpeed float64
}

// ComputeStats summarizes the whole team. An empty team yields baseline
// speed and zero rate.
func ComputeStats(members []team.Member) Stats {
	if len(members) == 0 {
		return Stats{AvgSpeed: team.DefaultSpeedFactor, MedianSpeed: team.DefaultSpeedFactor}
	}
	speeds := make([]float64, len(members))
	var sumSpeed, sumRate float64
	for i, m := range members {
		speeds[i] = m.SpeedFactor
		sumSpeed += m.SpeedFactor
		sumRate += m.HourlyRate
	}
	slices.Sort(speeds)
	n := len(speeds)
	median := speeds[n/2]
	if n%2 == 0 {
		median = (speeds[n/2-1] + speeds[n/2]) / 2
	}
	return Stats{
		AvgSpeed:    sumSpeed / float64(n),
		AvgRate:     sumRate / float64(n),
		MedianSpeed: median,
	}
}

// Deviation is |speed - avgSpeed| + |rate - avgRate| / avgRate. The rate
// term is dropped when the team average rate is zero.
func (s Stats) Deviation(m team.Member) float64 {
	d := abs(m.SpeedFactor - s.AvgSpeed)
	if s.AvgRate > 0 {
		d += abs(m.HourlyRate-s.AvgRate) / s.AvgRate
	}
	return d
}

// MedianDistance is how far a member's speed sits from the team median.
func (s Stats) MedianDistance(m team.Member) float64 {
	return abs(m.SpeedFactor - s.MedianSpeed)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
