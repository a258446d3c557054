package forecast

import "math"

// RMSE returns the root-mean-square error between actual and predicted.
// Returns 0 for empty input. Slices must be the same length.
func RMSE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var sq float64
	for i := range actual {
		d := predicted[i] - actual[i]
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(actual)))
}

// MAPE returns the mean absolute percentage error between actual and
// predicted, in percent. Zero actuals are skipped to keep the result finite;
// if every actual is zero the result is 0. Slices must be the same length.
func MAPE(actual, predicted []float64) float64 {
	var sum float64
	var n int
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) * 100
}
