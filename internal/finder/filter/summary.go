package filter

import "math"

// Summary holds the headline statistics shown above a filtered set.
type Summary struct {
	Count         int     `json:"count"`
	AverageRating float64 `json:"averageRating"`
	TopRating     float64 `json:"topRating"`
	Empty         bool    `json:"empty"`
}

// Summarize computes count, mean rating rounded to one decimal, and the
// highest rating. An empty or nil set yields a zero Summary with Empty set.
func Summarize(s *Set) Summary {
	if s.IsEmpty() {
		return Summary{Empty: true}
	}
	var sum, top float64
	for i, v := range s.venues {
		sum += v.Rating
		if i == 0 || v.Rating > top {
			top = v.Rating
		}
	}
	return Summary{
		Count:         len(s.venues),
		AverageRating: math.Round(sum/float64(len(s.venues))*10) / 10,
		TopRating:     top,
	}
}
