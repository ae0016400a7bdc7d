package models

// Settings carries the grading thresholds used by performance computations.
type Settings struct {
	PassPercentage float64 `db:"pass_percentage" json:"pass_percentage"`
	WeakThreshold  float64 `db:"weak_threshold" json:"weak_threshold"`
}

// DefaultSettings is used when the settings row is absent.
var DefaultSettings = Settings{PassPercentage: 40, WeakThreshold: 50}
