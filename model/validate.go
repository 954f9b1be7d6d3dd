package model

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Currencies accepted for guide pricing.
var Currencies = []string{"EUR", "USD", "GBP", "JPY", "TRY"}

// ValidCurrency reports whether c is one of the accepted currency codes.
func ValidCurrency(c string) bool {
	for _, known := range Currencies {
		if c == known {
			return true
		}
	}
	return false
}

// Validate checks an incoming application payload on the server side.
// The wizard runs its own completeness pass before submitting, but the API
// cannot trust clients; every violation is collected so the caller gets the
// full picture in one response.
func (v FormValues) Validate() error {
	var errs *multierror.Error

	if v.Name == "" {
		errs = multierror.Append(errs, fmt.Errorf("name is required"))
	}
	if v.Age < 18 || v.Age > 120 {
		errs = multierror.Append(errs, fmt.Errorf("age must be between 18 and 120, got %d", v.Age))
	}
	if v.City == "" {
		errs = multierror.Append(errs, fmt.Errorf("city is required"))
	}
	if len(v.Languages) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("at least one language is required"))
	}
	if len(v.Services) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("at least one service is required"))
	}
	if v.MinPeople > v.MaxPeople {
		errs = multierror.Append(errs, fmt.Errorf("minPeople %d exceeds maxPeople %d", v.MinPeople, v.MaxPeople))
	}
	if v.MinDuration > v.MaxDuration {
		errs = multierror.Append(errs, fmt.Errorf("minDuration %d exceeds maxDuration %d", v.MinDuration, v.MaxDuration))
	}
	if v.PricePerHour < 0 || v.PricePerExtra < 0 {
		errs = multierror.Append(errs, fmt.Errorf("prices must not be negative"))
	}
	if v.Currency != "" && !ValidCurrency(v.Currency) {
		errs = multierror.Append(errs, fmt.Errorf("unknown currency %q", v.Currency))
	}

	return errs.ErrorOrNil()
}
