package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"train-tracker/internal/rail"
)

var line = []rail.GeoCoordinate{{Lat: 0, Lng: 0}, {Lat: 10, Lng: 0}, {Lat: 10, Lng: 10}}

func TestPositionAt(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		want     rail.GeoCoordinate
	}{
		{"origin", 0, rail.GeoCoordinate{Lat: 0, Lng: 0}},
		{"first segment midpoint", 0.25, rail.GeoCoordinate{Lat: 5, Lng: 0}},
		{"joint", 0.5, rail.GeoCoordinate{Lat: 10, Lng: 0}},
		{"second segment midpoint", 0.75, rail.GeoCoordinate{Lat: 10, Lng: 5}},
		{"terminal", 1, rail.GeoCoordinate{Lat: 10, Lng: 10}},
		{"below range clamps", -0.5, rail.GeoCoordinate{Lat: 0, Lng: 0}},
		{"above range clamps", 3, rail.GeoCoordinate{Lat: 10, Lng: 10}},
		{"NaN is origin", math.NaN(), rail.GeoCoordinate{Lat: 0, Lng: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PositionAt(line, tt.fraction)
			assert.InDelta(t, tt.want.Lat, got.Lat, 1e-9)
			assert.InDelta(t, tt.want.Lng, got.Lng, 1e-9)
		})
	}
}

func TestPositionAtDegenerate(t *testing.T) {
	assert.Equal(t, rail.DefaultCoordinate, PositionAt(nil, 0.5))
	one := rail.GeoCoordinate{Lat: 1, Lng: 2}
	assert.Equal(t, one, PositionAt([]rail.GeoCoordinate{one}, 0.7))
}

func within(b Bounds, p rail.GeoCoordinate) bool {
	return p.Lat >= b.SouthWest.Lat && p.Lat <= b.NorthEast.Lat &&
		p.Lng >= b.SouthWest.Lng && p.Lng <= b.NorthEast.Lng
}

func TestPositionStaysOnSegment(t *testing.T) {
	for f := 0.0; f <= 1.0; f += 0.01 {
		p := PositionAt(line, f)
		from, to := SegmentAt(len(line), f)
		b, ok := BoundsOf([]rail.GeoCoordinate{line[from], line[to]})
		require.True(t, ok)
		assert.True(t, within(b.Pad(1e-9), p), "fraction %.2f -> %+v", f, p)
	}
}

func TestPositionAlong(t *testing.T) {
	bandung := rail.CoordinateOrDefault("Bandung")
	bekasi := rail.CoordinateOrDefault("Bekasi")
	names := []string{"Bandung", "Bekasi", "Jakarta Gambir"}

	assert.Equal(t, bandung, PositionAlong(names, 0))
	mid := PositionAlong(names, 0.25)
	assert.InDelta(t, (bandung.Lat+bekasi.Lat)/2, mid.Lat, 1e-9)
	assert.InDelta(t, (bandung.Lng+bekasi.Lng)/2, mid.Lng, 1e-9)
	assert.Equal(t, rail.CoordinateOrDefault("Jakarta Gambir"), PositionAlong(names, 1))
	assert.Equal(t, rail.DefaultCoordinate, PositionAlong(nil, 0.5))
	assert.Equal(t, bekasi, PositionAlong([]string{"Bekasi"}, 0.5))
}

func TestPositionAlongUnknownStation(t *testing.T) {
	tests := []struct {
		name     string
		names    []string
		fraction float64
		want     rail.GeoCoordinate
	}{
		{"unknown terminal at end", []string{"Bandung", "Purwokerto"}, 1, rail.DefaultCoordinate},
		{"unknown terminal mid segment", []string{"Bandung", "Purwokerto"}, 0.5, rail.DefaultCoordinate},
		{"unknown origin mid segment", []string{"Purwokerto", "Bandung"}, 0.5, rail.DefaultCoordinate},
		{"unknown station on another segment", []string{"Bandung", "Bekasi", "Purwokerto"}, 0.25,
			PositionAt([]rail.GeoCoordinate{rail.CoordinateOrDefault("Bandung"), rail.CoordinateOrDefault("Bekasi")}, 0.5)},
		{"single unknown station", []string{"Purwokerto"}, 0, rail.DefaultCoordinate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PositionAlong(tt.names, tt.fraction))
		})
	}
}

func TestSegmentAt(t *testing.T) {
	from, to := SegmentAt(4, 0.5)
	assert.Equal(t, 1, from)
	assert.Equal(t, 2, to)

	from, to = SegmentAt(4, 1)
	assert.Equal(t, 3, from)
	assert.Equal(t, 3, to)

	from, to = SegmentAt(1, 0.3)
	assert.Zero(t, from)
	assert.Zero(t, to)
}

func TestHaversineAndBearing(t *testing.T) {
	bandung := rail.CoordinateOrDefault("Bandung")
	gambir := rail.CoordinateOrDefault("Jakarta Gambir")

	d := Haversine(bandung, gambir)
	assert.InDelta(t, 120000, d, 3000)
	assert.Zero(t, Haversine(bandung, bandung))

	b := Bearing(bandung, gambir)
	assert.Greater(t, b, 270.0)
	assert.Less(t, b, 360.0)
	assert.InDelta(t, 90, Bearing(rail.GeoCoordinate{}, rail.GeoCoordinate{Lng: 1}), 1e-9)
}

func TestDistanceAlongKm(t *testing.T) {
	bandung := rail.CoordinateOrDefault("Bandung")

	assert.Zero(t, DistanceAlongKm(bandung, nil))
	assert.Zero(t, DistanceAlongKm(bandung, []string{"Bandung"}))

	direct := DistanceAlongKm(bandung, []string{"Jakarta Gambir"})
	assert.InDelta(t, 120, direct, 3)
	via := DistanceAlongKm(bandung, []string{"Bekasi", "Atlantis", "Jakarta Gambir"})
	assert.Greater(t, via, direct)
	assert.Equal(t, via, DistanceAlongKm(bandung, []string{"Bekasi", "Jakarta Gambir"}))
}

func TestBoundsPadCenter(t *testing.T) {
	b, ok := BoundsOf(line)
	require.True(t, ok)
	assert.Equal(t, rail.GeoCoordinate{Lat: 0, Lng: 0}, b.SouthWest)
	assert.Equal(t, rail.GeoCoordinate{Lat: 10, Lng: 10}, b.NorthEast)

	p := b.Pad(0.1)
	assert.InDelta(t, -1, p.SouthWest.Lat, 1e-9)
	assert.InDelta(t, 11, p.NorthEast.Lng, 1e-9)
	assert.Equal(t, rail.GeoCoordinate{Lat: 5, Lng: 5}, p.Center())

	_, ok = BoundsOf(nil)
	assert.False(t, ok)
}

func TestViews(t *testing.T) {
	v := FitView(nil)
	assert.Equal(t, DefaultCenter, v.Center)
	assert.Equal(t, DefaultZoom, v.Zoom)
	assert.Nil(t, v.Bounds)

	v = FitView(line)
	require.NotNil(t, v.Bounds)
	assert.Zero(t, v.Zoom)
	for _, p := range line {
		assert.True(t, within(*v.Bounds, p))
	}

	at := rail.GeoCoordinate{Lat: -6.9, Lng: 107.6}
	v = FollowView("10501", at)
	assert.Equal(t, Viewport{Center: at, Zoom: FollowZoom, Follow: "10501"}, v)
}
