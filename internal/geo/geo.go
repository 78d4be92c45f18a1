// Package geo provides the pure geometry primitives the validation engine
// is built on: great-circle distances, point-to-segment projection,
// polyline decoding, line simplification and trajectory resampling.
// No I/O, no side effects.
package geo

import "math"

const earthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// Haversine returns the great-circle distance between two coordinates in
// meters.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// Distance returns the great-circle distance between two points in meters.
func Distance(a, b Point) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// PointToSegment returns the minimum distance in meters from p to the
// segment [a, b]. It projects into a local equirectangular plane centered
// on the segment, which is accurate at urban scale.
func PointToSegment(p, a, b Point) float64 {
	refLat := (a.Lat + b.Lat) / 2 * math.Pi / 180
	mPerDegLat := earthRadiusMeters * math.Pi / 180
	mPerDegLng := mPerDegLat * math.Cos(refLat)

	ax, ay := a.Lng*mPerDegLng, a.Lat*mPerDegLat
	bx, by := b.Lng*mPerDegLng, b.Lat*mPerDegLat
	px, py := p.Lng*mPerDegLng, p.Lat*mPerDegLat

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Distance(p, a)
	}

	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	cx, cy := ax+t*dx, ay+t*dy
	return math.Hypot(px-cx, py-cy)
}

// PointToPolyline returns the minimum distance in meters from p to any
// segment of the polyline. Returns +Inf for polylines shorter than one
// point; a single point degenerates to plain distance.
func PointToPolyline(p Point, line []Point) float64 {
	switch len(line) {
	case 0:
		return math.Inf(1)
	case 1:
		return Distance(p, line[0])
	}

	min := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		if d := PointToSegment(p, line[i], line[i+1]); d < min {
			min = d
		}
	}
	return min
}

// PathLength returns the cumulative great-circle length of a polyline in
// meters.
func PathLength(line []Point) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += Distance(line[i-1], line[i])
	}
	return total
}
