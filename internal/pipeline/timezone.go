package pipeline

// timezone.go converts each row's timestamp to store-local time using the
// per-location timezone table. A location without a timezone entry is a
// ConfigError and aborts the run: the pipeline never guesses a store's zone.

import (
	"fmt"
	"time"
)

// TimezoneResolver resolves store-local time for each location in the run.
type TimezoneResolver struct {
	zones map[string]*time.Location
}

// NewTimezoneResolver builds a resolver from the configured locations.
// Every timezone name is validated up front so a bad table fails before any
// row is processed.
func NewTimezoneResolver(locations []Location) (*TimezoneResolver, error) {
	zones := make(map[string]*time.Location, len(locations))
	for _, loc := range locations {
		zone, err := time.LoadLocation(loc.Timezone)
		if err != nil {
			return nil, fmt.Errorf("location %q: invalid timezone %q: %w", loc.ID, loc.Timezone, err)
		}
		zones[loc.ID] = zone
	}
	return &TimezoneResolver{zones: zones}, nil
}

// Zone returns the configured timezone for a location.
func (r *TimezoneResolver) Zone(locationID string) (*time.Location, error) {
	zone, ok := r.zones[locationID]
	if !ok {
		return nil, &ConfigError{LocationID: locationID}
	}
	return zone, nil
}

// Resolve converts a parsed timestamp to store-local time. Naive timestamps
// are interpreted as already being local to the store; zone-aware timestamps
// are converted into the store's zone.
func (r *TimezoneResolver) Resolve(ts time.Time, zoned bool, locationID string) (time.Time, error) {
	zone, err := r.Zone(locationID)
	if err != nil {
		return time.Time{}, err
	}

	if !zoned {
		return time.Date(ts.Year(), ts.Month(), ts.Day(),
			ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), zone), nil
	}
	return ts.In(zone), nil
}
