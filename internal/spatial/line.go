package spatial

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/paulmach/orb"
)

// Trip geometries travel and persist as "lat,lon|lat,lon|..." strings. The
// format predates this service (the mobile clients parse it), so it is kept
// as-is.

// EncodeLine encodes a line to the wire format.
func EncodeLine(line orb.LineString) string {
	parts := make([]string, 0, len(line))
	for _, p := range line {
		parts = append(parts, fmt.Sprintf("%v,%v", p.Lat(), p.Lon()))
	}
	return strings.Join(parts, "|")
}

// DecodeLine parses the wire format. Malformed coordinates yield an empty
// line, never an error: a trip with unreadable geometry scores zero
// similarity instead of failing the analysis.
func DecodeLine(s string) orb.LineString {
	if s == "" {
		return nil
	}
	var line orb.LineString
	for _, coord := range strings.Split(s, "|") {
		latStr, lonStr, ok := strings.Cut(coord, ",")
		if !ok {
			return nil
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return nil
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return nil
		}
		line = append(line, orb.Point{lon, lat})
	}
	return line
}

// Decimate keeps every n-th point of a line, starting at the first.
func Decimate(line orb.LineString, n int) orb.LineString {
	if n <= 1 {
		return line
	}
	out := make(orb.LineString, 0, len(line)/n+1)
	for i := 0; i < len(line); i += n {
		out = append(out, line[i])
	}
	return out
}

// SampleIndices returns up to k indices evenly spread over a line of length n.
// Returns nil when n == 0 or k < 2.
func SampleIndices(n, k int) []int {
	if n == 0 || k < 2 {
		return nil
	}
	if k > n {
		k = n
	}
	idx := make([]int, 0, k)
	for i := 0; i < k; i++ {
		idx = append(idx, i*(n-1)/(k-1))
	}
	return idx
}

// GeometryHash returns a short stable content hash of an encoded geometry.
func GeometryHash(encoded string) string {
	h, err := hashstructure.Hash(encoded, hashstructure.FormatV2, nil)
	if err != nil {
		// Hashing a string cannot fail; keep the trip storable regardless.
		return ""
	}
	return fmt.Sprintf("%016x", h)
}
