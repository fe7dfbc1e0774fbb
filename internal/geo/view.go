package geo

import "train-tracker/internal/rail"

const (
	FollowZoom  = 11
	DefaultZoom = 7
)

// DefaultCenter frames Java when there is nothing to show.
var DefaultCenter = rail.GeoCoordinate{Lat: -7.0, Lng: 109.5}

type Bounds struct {
	SouthWest rail.GeoCoordinate `json:"southWest"`
	NorthEast rail.GeoCoordinate `json:"northEast"`
}

// BoundsOf returns the smallest box containing every point. ok is false for
// an empty input.
func BoundsOf(points []rail.GeoCoordinate) (b Bounds, ok bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b = Bounds{SouthWest: points[0], NorthEast: points[0]}
	for _, p := range points[1:] {
		b.SouthWest.Lat = min(b.SouthWest.Lat, p.Lat)
		b.SouthWest.Lng = min(b.SouthWest.Lng, p.Lng)
		b.NorthEast.Lat = max(b.NorthEast.Lat, p.Lat)
		b.NorthEast.Lng = max(b.NorthEast.Lng, p.Lng)
	}
	return b, true
}

// Pad grows the box on every side by ratio of its height and width.
func (b Bounds) Pad(ratio float64) Bounds {
	h := (b.NorthEast.Lat - b.SouthWest.Lat) * ratio
	w := (b.NorthEast.Lng - b.SouthWest.Lng) * ratio
	return Bounds{
		SouthWest: rail.GeoCoordinate{Lat: b.SouthWest.Lat - h, Lng: b.SouthWest.Lng - w},
		NorthEast: rail.GeoCoordinate{Lat: b.NorthEast.Lat + h, Lng: b.NorthEast.Lng + w},
	}
}

func (b Bounds) Center() rail.GeoCoordinate {
	return rail.GeoCoordinate{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

// Viewport is what a map surface should show. Zoom is zero when Bounds
// should be fitted instead.
type Viewport struct {
	Center rail.GeoCoordinate `json:"center"`
	Zoom   int                `json:"zoom,omitempty"`
	Bounds *Bounds            `json:"bounds,omitempty"`
	Follow string             `json:"follow,omitempty"`
}

func FollowView(id string, at rail.GeoCoordinate) Viewport {
	return Viewport{Center: at, Zoom: FollowZoom, Follow: id}
}

// FitView frames every point with a 10% margin.
func FitView(points []rail.GeoCoordinate) Viewport {
	b, ok := BoundsOf(points)
	if !ok {
		return Viewport{Center: DefaultCenter, Zoom: DefaultZoom}
	}
	b = b.Pad(0.1)
	return Viewport{Center: b.Center(), Bounds: &b}
}
