// Package location holds the great-circle helpers used by challenge search.
package location

import "math"

// EarthRadiusKm is the mean Earth radius used by HaversineKm.
const EarthRadiusKm = 6371.0

// KmPerDegree approximates one degree of latitude in km; used only for the coarse box.
const KmPerDegree = 111.32

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Valid reports whether p is a finite coordinate within [-90,90] x [-180,180].
func (p Point) Valid() bool {
	return math.Abs(p.Lat) <= 90 && math.Abs(p.Lng) <= 180
}

// HaversineKm returns distance in km between two points (lat/lng in degrees).
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	φ1, φ2 := rad(lat1), rad(lat2)
	Δφ := rad(lat2 - lat1)
	Δλ := rad(lng2 - lng1)
	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Distance is HaversineKm between two points.
func (p Point) Distance(q Point) float64 {
	return HaversineKm(p.Lat, p.Lng, q.Lat, q.Lng)
}

// Box is a lat/lng rectangle. MinLng > MaxLng means the box crosses the
// antimeridian and covers [MinLng, 180] plus [-180, MaxLng].
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// WrapsLng reports whether the longitude range crosses ±180.
func (b Box) WrapsLng() bool { return b.MinLng > b.MaxLng }

// BoundingBox returns a box that contains every point within radiusKm of
// center. Longitude is widened by 1/cos(lat) so the box never under-selects;
// near a pole it spans all longitudes. Callers must still apply HaversineKm.
func BoundingBox(center Point, radiusKm float64) Box {
	d := radiusKm / KmPerDegree
	b := Box{
		MinLat: math.Max(center.Lat-d, -90),
		MaxLat: math.Min(center.Lat+d, 90),
		MinLng: -180,
		MaxLng: 180,
	}
	// the widest parallel inside the box sets the longitude span
	edge := math.Max(math.Abs(b.MinLat), math.Abs(b.MaxLat))
	cos := math.Cos(edge * math.Pi / 180)
	if edge >= 89.9 || cos < 1e-6 {
		return b
	}
	dLng := d / cos
	if dLng >= 180 {
		return b
	}
	b.MinLng = normalizeLng(center.Lng - dLng)
	b.MaxLng = normalizeLng(center.Lng + dLng)
	return b
}

func normalizeLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}
