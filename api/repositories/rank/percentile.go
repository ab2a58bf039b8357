package rankrepo

import "math"

// Percentile returns the share of users behind the given rank, with two decimals.
// It's 0 for an empty leaderboard or an unranked entry.
func Percentile(rank int, total int64) float64 {
	if total <= 0 || rank <= 0 {
		return 0
	}

	value := (float64(total) - float64(rank)) / float64(total) * 100
	value = math.Round(value*100) / 100

	return math.Max(0, math.Min(100, value))
}
