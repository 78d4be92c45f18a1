package geo

// Simplify reduces a polyline with the Douglas-Peucker algorithm while
// keeping every retained point within toleranceMeters of the original
// shape. Endpoints are always kept. A non-positive tolerance returns the
// input unchanged.
func Simplify(line []Point, toleranceMeters float64) []Point {
	if len(line) <= 2 || toleranceMeters <= 0 {
		return line
	}

	keep := make([]bool, len(line))
	keep[0], keep[len(line)-1] = true, true
	simplifyRange(line, 0, len(line)-1, toleranceMeters, keep)

	out := make([]Point, 0, len(line))
	for i, k := range keep {
		if k {
			out = append(out, line[i])
		}
	}
	return out
}

func simplifyRange(line []Point, first, last int, tolerance float64, keep []bool) {
	if last-first < 2 {
		return
	}

	var maxDist float64
	maxIdx := first
	for i := first + 1; i < last; i++ {
		if d := PointToSegment(line[i], line[first], line[last]); d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= tolerance {
		return
	}

	keep[maxIdx] = true
	simplifyRange(line, first, maxIdx, tolerance, keep)
	simplifyRange(line, maxIdx, last, tolerance, keep)
}
