package geo

import "errors"

// ErrMalformedPolyline is returned when an encoded polyline is truncated
// or contains bytes outside the encoding alphabet.
var ErrMalformedPolyline = errors.New("malformed encoded polyline")

const polylinePrecision = 1e5

// DecodePolyline decodes a Google encoded polyline (1e-5 precision) into
// an ordered coordinate list. An empty string decodes to an empty list.
func DecodePolyline(encoded string) ([]Point, error) {
	var points []Point
	var lat, lng int64

	for i := 0; i < len(encoded); {
		dLat, n, err := decodeVarint(encoded[i:])
		if err != nil {
			return nil, err
		}
		i += n
		lat += dLat

		dLng, n, err := decodeVarint(encoded[i:])
		if err != nil {
			return nil, err
		}
		i += n
		lng += dLng

		points = append(points, Point{
			Lat: float64(lat) / polylinePrecision,
			Lng: float64(lng) / polylinePrecision,
		})
	}

	return points, nil
}

// EncodePolyline encodes points into the compact polyline format. The
// inverse of DecodePolyline, used by fixtures and tests.
func EncodePolyline(points []Point) string {
	var out []byte
	var prevLat, prevLng int64

	for _, p := range points {
		lat := int64(round(p.Lat * polylinePrecision))
		lng := int64(round(p.Lng * polylinePrecision))
		out = encodeVarint(out, lat-prevLat)
		out = encodeVarint(out, lng-prevLng)
		prevLat, prevLng = lat, lng
	}

	return string(out)
}

func decodeVarint(s string) (int64, int, error) {
	var result int64
	var shift uint
	for i := 0; i < len(s); i++ {
		b := int64(s[i]) - 63
		if b < 0 || b > 63 {
			return 0, 0, ErrMalformedPolyline
		}
		result |= (b & 0x1f) << shift
		if b < 0x20 {
			if result&1 != 0 {
				return ^(result >> 1), i + 1, nil
			}
			return result >> 1, i + 1, nil
		}
		shift += 5
	}
	return 0, 0, ErrMalformedPolyline
}

func encodeVarint(dst []byte, v int64) []byte {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		dst = append(dst, byte(0x20|(u&0x1f))+63)
		u >>= 5
	}
	return append(dst, byte(u)+63)
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int64(f - 0.5))
	}
	return float64(int64(f + 0.5))
}
