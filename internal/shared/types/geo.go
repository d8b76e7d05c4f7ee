package types

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Ring is a closed sequence of points. The closing edge from the last
// point back to the first is implicit.
type Ring []Point

// Polygon is one outer ring optionally followed by hole rings.
type Polygon []Ring

// MultiPolygon is a set of disjoint polygons. Jurisdictions are stored in
// this shape so an org can cover separated districts.
type MultiPolygon []Polygon

// Contains reports whether p lies inside the ring, using the even-odd
// ray casting rule. Points exactly on an edge may land on either side.
func (r Ring) Contains(p Point) bool {
	if len(r) < 3 {
		return false
	}
	inside := false
	j := len(r) - 1
	for i := 0; i < len(r); i++ {
		a, b := r[i], r[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			crossLng := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < crossLng {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Contains reports whether p lies inside the outer ring and outside all
// hole rings.
func (pg Polygon) Contains(p Point) bool {
	if len(pg) == 0 || !pg[0].Contains(p) {
		return false
	}
	for _, hole := range pg[1:] {
		if hole.Contains(p) {
			return false
		}
	}
	return true
}

// Contains reports whether p lies inside any member polygon.
func (mp MultiPolygon) Contains(p Point) bool {
	for _, pg := range mp {
		if pg.Contains(p) {
			return true
		}
	}
	return false
}
