package indicator

import "math"

var nan = math.NaN()

func isNaN(v float64) bool {
	return math.IsNaN(v)
}
