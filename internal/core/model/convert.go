package model

// The recording units report speed in cm/s and location in cm. Exactly one
// conversion constant exists for each; every consumer, including the shutdown
// payload decode, goes through these helpers.
//
//	cm/s -> km/h: x * 3600 / 100000 = x * 0.036
//	cm   -> km:   x / 100000

const (
	speedFactor   = 0.036
	locationScale = 100000.0
)

// SpeedKmh converts a raw speed in cm/s to km/h.
func SpeedKmh(raw int32) float64 {
	return float64(raw) * speedFactor
}

// LocationKm converts a raw location in cm to kilometers.
func LocationKm(raw int32) float64 {
	return float64(raw) / locationScale
}
