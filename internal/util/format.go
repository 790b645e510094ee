package util

import (
	"fmt"
	"time"
)

// FormatDuration renders a trip duration at minute resolution.
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatSpeed renders a speed in km/h with one decimal place.
func FormatSpeed(kmh float64) string {
	return fmt.Sprintf("%.1f km/h", kmh)
}

// FormatDistance renders a distance in km with two decimal places.
func FormatDistance(km float64) string {
	return fmt.Sprintf("%.2f km", km)
}

// FormatSeconds renders a duration given in seconds.
func FormatSeconds(sec float64) string {
	return fmt.Sprintf("%.1fs", sec)
}

// FormatMinutes renders a duration given in minutes.
func FormatMinutes(min float64) string {
	return fmt.Sprintf("%.1f min", min)
}
