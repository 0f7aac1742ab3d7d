package types

// WeightLog is one body-weight measurement per person and date.
// TrendWeight is derived from the trailing seven days of measurements.
type WeightLog struct {
	ID          string   `json:"id"`
	PersonID    string   `json:"personId"`
	Date        string   `json:"date"`
	ScaleWeight float64  `json:"scaleWeight" validate:"finite,gt=0"`
	TrendWeight *float64 `json:"trendWeight"`
}

// TrendWindowDays is the number of days, including the measurement date,
// averaged into TrendWeight.
const TrendWindowDays = 7

// Validate checks that ScaleWeight is a finite positive number. Returns a
// *ValidationError wrapping ErrInvalidWeight.
func (w *WeightLog) Validate() error {
	return validateRecord(w, ErrInvalidWeight)
}

// CleanTrend coerces a non-finite or non-positive TrendWeight to nil.
func (w *WeightLog) CleanTrend() {
	if w.TrendWeight != nil && (!IsFinite(*w.TrendWeight) || *w.TrendWeight <= 0) {
		w.TrendWeight = nil
	}
}
