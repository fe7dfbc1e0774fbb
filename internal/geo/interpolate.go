package geo

import (
	"math"

	"train-tracker/internal/rail"
)

// PositionAt interpolates a coordinate at fraction (0..1) of a polyline of
// station coordinates. The result always lies on the segment between two
// adjacent points; fractions outside [0,1] are clamped and NaN counts as 0.
func PositionAt(coords []rail.GeoCoordinate, fraction float64) rail.GeoCoordinate {
	n := len(coords)
	if n == 0 {
		return rail.DefaultCoordinate
	}
	if n == 1 {
		return coords[0]
	}
	fraction = clampFraction(fraction)
	segments := n - 1
	scaled := fraction * float64(segments)
	idx := int(math.Floor(scaled))
	if idx > segments-1 {
		idx = segments - 1
	}
	if idx < 0 {
		idx = 0
	}
	frac := scaled - float64(idx)
	return lerp(coords[idx], coords[idx+1], frac)
}

// PositionAlong interpolates along a list of station names. If either end
// of the segment the fraction falls on has no known coordinate the result is
// the default coordinate, never a point pulled toward it.
func PositionAlong(names []string, fraction float64) rail.GeoCoordinate {
	switch len(names) {
	case 0:
		return rail.DefaultCoordinate
	case 1:
		return rail.CoordinateOrDefault(names[0])
	}
	fraction = clampFraction(fraction)
	segments := len(names) - 1
	idx := min(int(math.Floor(fraction*float64(segments))), segments-1)
	from, ok := rail.Coordinate(names[idx])
	if !ok {
		return rail.DefaultCoordinate
	}
	to, ok := rail.Coordinate(names[idx+1])
	if !ok {
		return rail.DefaultCoordinate
	}
	return PositionAt([]rail.GeoCoordinate{from, to}, fraction*float64(segments)-float64(idx))
}

// SegmentAt returns the index of the station a fraction has most recently
// passed and the one after it.
func SegmentAt(n int, fraction float64) (from, to int) {
	if n <= 1 {
		return 0, 0
	}
	from = int(math.Floor(clampFraction(fraction) * float64(n-1)))
	if from > n-1 {
		from = n - 1
	}
	to = from + 1
	if to > n-1 {
		to = n - 1
	}
	return from, to
}

func lerp(a, b rail.GeoCoordinate, t float64) rail.GeoCoordinate {
	return rail.GeoCoordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lng: a.Lng + (b.Lng-a.Lng)*t,
	}
}

func clampFraction(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Haversine distance in meters
func Haversine(a, b rail.GeoCoordinate) float64 {
	const R = 6371000.0
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return R * c
}

// DistanceAlongKm is the great-circle length of a path from start through
// the named stations, in kilometers rounded to 0.1. Stations without a known
// coordinate are skipped.
func DistanceAlongKm(start rail.GeoCoordinate, names []string) float64 {
	meters := 0.0
	prev := start
	for _, n := range names {
		c, ok := rail.Coordinate(n)
		if !ok {
			continue
		}
		meters += Haversine(prev, c)
		prev = c
	}
	return math.Round(meters/100) / 10
}

// Bearing returns the initial bearing from a to b in degrees [0,360).
func Bearing(a, b rail.GeoCoordinate) float64 {
	y := math.Sin((b.Lng-a.Lng)*math.Pi/180.0) * math.Cos(b.Lat*math.Pi/180.0)
	x := math.Cos(a.Lat*math.Pi/180.0)*math.Sin(b.Lat*math.Pi/180.0) - math.Sin(a.Lat*math.Pi/180.0)*math.Cos(b.Lat*math.Pi/180.0)*math.Cos((b.Lng-a.Lng)*math.Pi/180.0)
	brng := math.Atan2(y, x) * 180.0 / math.Pi
	if brng < 0 {
		brng += 360
	}
	return brng
}
