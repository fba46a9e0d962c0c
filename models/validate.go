package models

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ErrNonFinite is returned for a NaN or infinite coordinate or score
var ErrNonFinite = errors.New("non-finite value")

// Validate checks that the detection's numbers are finite and its coordinates in range
func (d *Detection) Validate() error {
	for field, v := range map[string]float64{"lat": d.Lat, "lon": d.Lon, "prediction": d.Prediction} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid detection %q: %s: %w", d.Name, field, ErrNonFinite)
		}
	}
	if err := validatorInstance().Struct(d); err != nil {
		return fmt.Errorf("invalid detection %q: %w", d.Name, err)
	}
	return nil
}

// Validate checks every detection in the table, reporting the first bad row
func (t DetectionTable) Validate() error {
	for i := range t {
		if err := t[i].Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}
