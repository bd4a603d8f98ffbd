package geo

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name      string
		a         Coordinate
		b         Coordinate
		expected  float64
		tolerance float64
	}{
		{
			name:      "Same location",
			a:         Coordinate{Lat: 3.5836, Lng: -76.4951},
			b:         Coordinate{Lat: 3.5836, Lng: -76.4951},
			expected:  0.0,
			tolerance: 0.0001,
		},
		{
			name:      "Yumbo center to Cerro Las Tres Cruces",
			a:         Coordinate{Lat: 3.5836, Lng: -76.4951},
			b:         Coordinate{Lat: 3.5901, Lng: -76.4887},
			expected:  1.0,
			tolerance: 0.1,
		},
		{
			name:      "New York to London",
			a:         Coordinate{Lat: 40.7128, Lng: -74.0060},
			b:         Coordinate{Lat: 51.5074, Lng: -0.1278},
			expected:  5570.0,
			tolerance: 10.0,
		},
		{
			name:      "Antipodal points",
			a:         Coordinate{Lat: 0, Lng: 0},
			b:         Coordinate{Lat: 0, Lng: 180},
			expected:  math.Pi * 6371.0,
			tolerance: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DistanceKm(tt.a, tt.b)
			if math.IsNaN(result) {
				t.Fatalf("DistanceKm(%v, %v) returned NaN", tt.a, tt.b)
			}
			if diff := math.Abs(result - tt.expected); diff > tt.tolerance {
				t.Errorf("DistanceKm(%v, %v) = %f, expected %f (±%f)", tt.a, tt.b, result, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := Coordinate{Lat: 3.5836, Lng: -76.4951}
	b := Coordinate{Lat: 51.5074, Lng: -0.1278}

	ab := DistanceKm(a, b)
	ba := DistanceKm(b, a)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance is not symmetric: %f vs %f", ab, ba)
	}
	if ab < 0 {
		t.Errorf("distance is negative: %f", ab)
	}
}

func TestCoordinateValid(t *testing.T) {
	tests := []struct {
		name  string
		c     Coordinate
		valid bool
	}{
		{"Yumbo", Coordinate{Lat: 3.5836, Lng: -76.4951}, true},
		{"North pole", Coordinate{Lat: 90, Lng: 0}, true},
		{"Latitude out of range", Coordinate{Lat: 91, Lng: 0}, false},
		{"Longitude out of range", Coordinate{Lat: 0, Lng: -181}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Valid(); got != tt.valid {
				t.Errorf("Valid(%v) = %v, expected %v", tt.c, got, tt.valid)
			}
		})
	}
}

func TestCoordinateIsZero(t *testing.T) {
	if !(Coordinate{}).IsZero() {
		t.Error("zero coordinate should report IsZero")
	}
	if (Coordinate{Lat: 3.5836, Lng: -76.4951}).IsZero() {
		t.Error("Yumbo center should not report IsZero")
	}
}
