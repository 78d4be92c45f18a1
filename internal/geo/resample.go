package geo

import "time"

// TimedPoint is a position fix on a time base, used when two trajectories
// are aligned for comparison.
type TimedPoint struct {
	Time  time.Time
	Point Point
	Speed float64 // km/h
}

// OverlapWindow returns the intersection of two time intervals. ok is
// false when they do not overlap at all.
func OverlapWindow(aStart, aEnd, bStart, bEnd time.Time) (start, end time.Time, ok bool) {
	start = aStart
	if bStart.After(start) {
		start = bStart
	}
	end = aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	return start, end, end.After(start)
}

// Resample interpolates a trajectory onto instants start, start+step, ...
// up to and including end. Instants outside the recorded window are
// skipped rather than extrapolated. The input must be sorted by time.
func Resample(track []TimedPoint, start, end time.Time, step time.Duration) []TimedPoint {
	if len(track) == 0 || step <= 0 || end.Before(start) {
		return nil
	}

	first, last := track[0].Time, track[len(track)-1].Time
	var out []TimedPoint
	idx := 0

	for t := start; !t.After(end); t = t.Add(step) {
		if t.Before(first) || t.After(last) {
			continue
		}
		for idx < len(track)-1 && track[idx+1].Time.Before(t) {
			idx++
		}
		out = append(out, interpolate(track, idx, t))
	}
	return out
}

// interpolate returns the position at instant t, which lies between
// track[i] and the first later sample.
func interpolate(track []TimedPoint, i int, t time.Time) TimedPoint {
	a := track[i]
	if !t.After(a.Time) || i == len(track)-1 {
		return TimedPoint{Time: t, Point: a.Point, Speed: a.Speed}
	}

	b := track[i+1]
	span := b.Time.Sub(a.Time).Seconds()
	if span <= 0 {
		return TimedPoint{Time: t, Point: a.Point, Speed: a.Speed}
	}

	f := t.Sub(a.Time).Seconds() / span
	if f > 1 {
		f = 1
	}
	return TimedPoint{
		Time: t,
		Point: Point{
			Lat: a.Point.Lat + (b.Point.Lat-a.Point.Lat)*f,
			Lng: a.Point.Lng + (b.Point.Lng-a.Point.Lng)*f,
		},
		Speed: a.Speed + (b.Speed-a.Speed)*f,
	}
}
