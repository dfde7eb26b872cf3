package spatial

import (
	"reflect"
	"testing"

	"github.com/paulmach/orb"
)

func TestEncodeDecodeLine(t *testing.T) {
	line := orb.LineString{
		{-78.4678, -0.1806},
		{-78.4700, -0.1850},
		{-78.4721, -0.1893},
	}

	encoded := EncodeLine(line)
	if encoded == "" {
		t.Fatal("EncodeLine returned empty string")
	}

	decoded := DecodeLine(encoded)
	if !reflect.DeepEqual(decoded, line) {
		t.Errorf("round trip mismatch: got %v, want %v", decoded, line)
	}
}

func TestDecodeLineMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing comma", "1.0|2.0,3.0"},
		{"non numeric lat", "abc,2.0"},
		{"non numeric lon", "1.0,xyz"},
		{"trailing separator", "1.0,2.0|"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeLine(tt.input); got != nil {
				t.Errorf("DecodeLine(%q) = %v, want nil", tt.input, got)
			}
		})
	}
}

func TestDecimate(t *testing.T) {
	line := orb.LineString{
		{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}, {6, 6},
	}

	tests := []struct {
		name string
		n    int
		want orb.LineString
	}{
		{"every third", 3, orb.LineString{{0, 0}, {3, 3}, {6, 6}}},
		{"every point", 1, line},
		{"zero keeps all", 0, line},
		{"step larger than line", 10, orb.LineString{{0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decimate(line, tt.n); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decimate(n=%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestSampleIndices(t *testing.T) {
	tests := []struct {
		name string
		n, k int
		want []int
	}{
		{"five of ten", 10, 5, []int{0, 2, 4, 6, 9}},
		{"five of five", 5, 5, []int{0, 1, 2, 3, 4}},
		{"k clamped to n", 3, 5, []int{0, 1, 2}},
		{"empty line", 0, 5, nil},
		{"k too small", 10, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SampleIndices(tt.n, tt.k); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SampleIndices(%d, %d) = %v, want %v", tt.n, tt.k, got, tt.want)
			}
		})
	}
}

func TestGeometryHash(t *testing.T) {
	a := GeometryHash("1.0,2.0|3.0,4.0")
	b := GeometryHash("1.0,2.0|3.0,4.0")
	c := GeometryHash("1.0,2.0|3.0,4.1")

	if a == "" {
		t.Fatal("GeometryHash returned empty string")
	}
	if a != b {
		t.Errorf("hash not stable: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("different geometries hashed identically: %s", a)
	}
	if len(a) != 16 {
		t.Errorf("hash length = %d, want 16", len(a))
	}
}
