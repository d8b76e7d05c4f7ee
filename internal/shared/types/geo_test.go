package types

import "testing"

// square returns a unit square ring offset by (lat, lng)
func square(lat, lng float64) Ring {
	return Ring{
		{Lat: lat, Lng: lng},
		{Lat: lat + 1, Lng: lng},
		{Lat: lat + 1, Lng: lng + 1},
		{Lat: lat, Lng: lng + 1},
	}
}

func TestRingContains(t *testing.T) {
	ring := square(0, 0)

	tests := []struct {
		name   string
		point  Point
		inside bool
	}{
		{"Center", Point{Lat: 0.5, Lng: 0.5}, true},
		{"Near corner", Point{Lat: 0.1, Lng: 0.9}, true},
		{"Outside north", Point{Lat: 1.5, Lng: 0.5}, false},
		{"Outside west", Point{Lat: 0.5, Lng: -0.5}, false},
		{"Far away", Point{Lat: 19.0, Lng: 72.8}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ring.Contains(tt.point); got != tt.inside {
				t.Errorf("Contains(%v) = %v, want %v", tt.point, got, tt.inside)
			}
		})
	}
}

func TestRingTooFewPoints(t *testing.T) {
	ring := Ring{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}
	if ring.Contains(Point{Lat: 0.5, Lng: 0.5}) {
		t.Error("degenerate ring should contain nothing")
	}
}

func TestPolygonWithHole(t *testing.T) {
	outer := square(0, 0)
	hole := Ring{
		{Lat: 0.4, Lng: 0.4},
		{Lat: 0.6, Lng: 0.4},
		{Lat: 0.6, Lng: 0.6},
		{Lat: 0.4, Lng: 0.6},
	}
	pg := Polygon{outer, hole}

	if !pg.Contains(Point{Lat: 0.2, Lng: 0.2}) {
		t.Error("point between outer ring and hole should be inside")
	}
	if pg.Contains(Point{Lat: 0.5, Lng: 0.5}) {
		t.Error("point inside hole should be outside")
	}
}

func TestMultiPolygonContains(t *testing.T) {
	mp := MultiPolygon{
		{square(0, 0)},
		{square(10, 10)},
	}

	if !mp.Contains(Point{Lat: 10.5, Lng: 10.5}) {
		t.Error("point in second polygon should be inside")
	}
	if mp.Contains(Point{Lat: 5, Lng: 5}) {
		t.Error("point between polygons should be outside")
	}
}
