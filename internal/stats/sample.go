package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// payoutSample accumulates observed payout amounts for one key
type payoutSample []int

// summary reduces a payout sample to its mean, min and max. An empty sample yields the
// break-even average and theoretical=true.
type summary struct {
	Count       int
	Average     float64
	Min         int
	Max         int
	Theoretical bool
}

func (s payoutSample) summarize() summary {
	if len(s) == 0 {
		return summary{Average: theoreticalPayout, Theoretical: true}
	}
	values := make([]float64, len(s))
	for i, v := range s {
		values[i] = float64(v)
	}
	return summary{
		Count:   len(s),
		Average: stat.Mean(values, nil),
		Min:     int(floats.Min(values)),
		Max:     int(floats.Max(values)),
	}
}

// rate returns part/whole as a percentage, 0 when whole is 0
func rate(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
