package validation

import (
	"errors"
	"testing"
)

func TestValidateCoordinates_Missing(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon string
	}{
		{"both empty", "", ""},
		{"latitude empty", "", "19"},
		{"longitude empty", "50", ""},
		{"whitespace", "  ", "19"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCoordinates(tc.lat, tc.lon)
			if !errors.Is(err, ErrCoordinatesRequired) {
				t.Errorf("error = %v, want ErrCoordinatesRequired", err)
			}
			if !errors.Is(err, ErrInvalidCoordinates) {
				t.Errorf("error = %v, want ErrInvalidCoordinates class", err)
			}
		})
	}
}

// TestValidateCoordinates_Rejected mirrors the invalid cases of the reference
// endpoint suite plus non-finite inputs accepted by strconv.
func TestValidateCoordinates_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon string
		want     error
	}{
		{"latitude above 90", "1000", "50", ErrLatitudeInvalid},
		{"latitude below -90", "-100", "50", ErrLatitudeInvalid},
		{"longitude above 180", "50", "200", ErrLongitudeInvalid},
		{"longitude below -180", "50", "-200", ErrLongitudeInvalid},
		{"latitude not numeric", "abc", "50", ErrLatitudeInvalid},
		{"longitude not numeric", "50", "xyz", ErrLongitudeInvalid},
		{"both not numeric", "invalid", "invalid", ErrLatitudeInvalid},
		{"just over bound", "90.0001", "0", ErrLatitudeInvalid},
		{"longitude just over bound", "0", "-180.0001", ErrLongitudeInvalid},
		{"NaN", "NaN", "0", ErrLatitudeInvalid},
		{"infinity", "0", "+Inf", ErrLongitudeInvalid},
		{"overflow", "1e400", "0", ErrLatitudeInvalid},
		{"trailing garbage", "12abc", "0", ErrLatitudeInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCoordinates(tc.lat, tc.lon)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
			if !errors.Is(err, ErrInvalidCoordinates) {
				t.Errorf("error = %v, want ErrInvalidCoordinates class", err)
			}
		})
	}
}

func TestValidateCoordinates_InclusiveBounds(t *testing.T) {
	tests := []struct {
		lat, lon         string
		wantLat, wantLon float64
	}{
		{"90", "180", 90, 180},
		{"-90", "-180", -90, -180},
		{"50", "19", 50, 19},
		{" 52.2297 ", "21.0122", 52.2297, 21.0122},
		{"0", "-0", 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.lat+","+tc.lon, func(t *testing.T) {
			got, err := ValidateCoordinates(tc.lat, tc.lon)
			if err != nil {
				t.Fatalf("ValidateCoordinates() err = %v", err)
			}
			if got.Latitude != tc.wantLat || got.Longitude != tc.wantLon {
				t.Errorf("got %+v, want (%v, %v)", got, tc.wantLat, tc.wantLon)
			}
		})
	}
}
