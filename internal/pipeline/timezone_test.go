package pipeline

import (
	"errors"
	"testing"
	"time"
)

var testLocations = []Location{
	{ID: "loc_001", Name: "Columbus", Timezone: "America/New_York"},
	{ID: "loc_002", Name: "Denver", Timezone: "America/Denver"},
}

func TestTimezoneResolver_NaiveIsAlreadyLocal(t *testing.T) {
	r, err := NewTimezoneResolver(testLocations)
	if err != nil {
		t.Fatalf("NewTimezoneResolver: %v", err)
	}

	// A naive timestamp keeps its wall-clock reading in the store's zone.
	naive := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	local, err := r.Resolve(naive, false, "loc_001")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if local.Hour() != 14 || local.Minute() != 30 {
		t.Errorf("local time = %v, want wall clock 14:30 preserved", local)
	}
	if name, _ := local.Zone(); name == "UTC" {
		t.Error("expected store-local zone, got UTC")
	}
}

func TestTimezoneResolver_AwareConverts(t *testing.T) {
	r, err := NewTimezoneResolver(testLocations)
	if err != nil {
		t.Fatalf("NewTimezoneResolver: %v", err)
	}

	// 19:30 UTC is 14:30 in Columbus during DST.
	utc := time.Date(2024, 6, 15, 19, 30, 0, 0, time.UTC)
	local, err := r.Resolve(utc, true, "loc_001")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if local.Hour() != 15 {
		t.Errorf("local hour = %d, want 15 (EDT)", local.Hour())
	}
	if !local.Equal(utc) {
		t.Error("conversion changed the instant")
	}
}

func TestTimezoneResolver_MissingLocation(t *testing.T) {
	r, err := NewTimezoneResolver(testLocations)
	if err != nil {
		t.Fatalf("NewTimezoneResolver: %v", err)
	}

	_, err = r.Resolve(time.Now(), false, "loc_999")
	if err == nil {
		t.Fatal("expected ConfigError for unknown location")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if cfgErr.LocationID != "loc_999" {
		t.Errorf("ConfigError location = %q, want loc_999", cfgErr.LocationID)
	}
}

func TestNewTimezoneResolver_BadZone(t *testing.T) {
	_, err := NewTimezoneResolver([]Location{{ID: "x", Timezone: "Mars/Olympus_Mons"}})
	if err == nil {
		t.Fatal("expected error for invalid timezone name")
	}
}
