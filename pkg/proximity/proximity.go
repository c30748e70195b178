// Package proximity turns a distance within a search radius into a coarse label
// shown next to challenge search results.
package proximity

// Label buckets progress (0-100) where 100 is the search center.
func Label(progressPct float64) string {
	switch {
	case progressPct >= 75:
		return "Very Close"
	case progressPct >= 50:
		return "Nearby"
	case progressPct >= 25:
		return "Within Area"
	case progressPct > 0:
		return "Edge of Range"
	default:
		return ""
	}
}

// Progress computes (1 - distance/radius) * 100, clamped to [0, 100].
func Progress(distanceKm, radiusKm float64) float64 {
	if radiusKm <= 0 || distanceKm >= radiusKm {
		return 0
	}
	p := (1 - distanceKm/radiusKm) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Describe is Label(Progress(distanceKm, radiusKm)).
func Describe(distanceKm, radiusKm float64) string {
	return Label(Progress(distanceKm, radiusKm))
}
