package validation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kjstillabower/solar-forecast-service/internal/models"
)

// ErrInvalidCoordinates is the class of every coordinate validation failure.
// Handlers map it to 400.
var ErrInvalidCoordinates = errors.New("invalid latitude or longitude")

// ErrCoordinatesRequired is returned when either query value is missing or blank.
var ErrCoordinatesRequired = fmt.Errorf("%w: both latitude and longitude are required", ErrInvalidCoordinates)

// ErrLatitudeInvalid is returned when latitude is not a finite number in [-90, 90].
var ErrLatitudeInvalid = fmt.Errorf("%w: latitude must be a number between -90 and 90", ErrInvalidCoordinates)

// ErrLongitudeInvalid is returned when longitude is not a finite number in [-180, 180].
var ErrLongitudeInvalid = fmt.Errorf("%w: longitude must be a number between -180 and 180", ErrInvalidCoordinates)

var validate = validator.New()

// ValidateCoordinates parses raw latitude/longitude strings and enforces the
// inclusive geographic bounds declared on models.Coordinate.
// Runs before any upstream fetch; it has no side effects.
func ValidateCoordinates(latRaw, lonRaw string) (models.Coordinate, error) {
	latRaw = strings.TrimSpace(latRaw)
	lonRaw = strings.TrimSpace(lonRaw)
	if latRaw == "" || lonRaw == "" {
		return models.Coordinate{}, ErrCoordinatesRequired
	}

	lat, ok := parseFinite(latRaw)
	if !ok {
		return models.Coordinate{}, ErrLatitudeInvalid
	}
	lon, ok := parseFinite(lonRaw)
	if !ok {
		return models.Coordinate{}, ErrLongitudeInvalid
	}

	c := models.Coordinate{Latitude: lat, Longitude: lon}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Latitude" {
			return models.Coordinate{}, ErrLatitudeInvalid
		}
		return models.Coordinate{}, ErrLongitudeInvalid
	}
	return c, nil
}

// parseFinite rejects anything strconv cannot parse, plus NaN and ±Inf.
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
