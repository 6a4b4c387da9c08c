package models

import "testing"

func TestValidCategory(t *testing.T) {
	for _, category := range []string{
		"roads", "water", "electricity", "sanitation", "streetlights",
		"drainage", "garbage", "public_safety", "parks", "other",
	} {
		if !ValidCategory(category) {
			t.Errorf("ValidCategory(%q) = false, want true", category)
		}
	}

	for _, category := range []string{"", "potholes", "Roads", "public safety"} {
		if ValidCategory(category) {
			t.Errorf("ValidCategory(%q) = true, want false", category)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, status := range []string{"reported", "verified", "in_progress", "resolved", "rejected"} {
		if !ValidStatus(status) {
			t.Errorf("ValidStatus(%q) = false, want true", status)
		}
	}
	for _, status := range []string{"", "open", "Resolved", "in progress"} {
		if ValidStatus(status) {
			t.Errorf("ValidStatus(%q) = true, want false", status)
		}
	}
}

func TestValidPriority(t *testing.T) {
	for _, priority := range []string{"low", "medium", "high", "critical"} {
		if !ValidPriority(priority) {
			t.Errorf("ValidPriority(%q) = false, want true", priority)
		}
	}
	if ValidPriority("urgent") {
		t.Error("ValidPriority(urgent) = true, want false")
	}
}

func TestValidCoordinates(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
		valid    bool
	}{
		{"origin", 0, 0, true},
		{"limits", 90, 180, true},
		{"negative limits", -90, -180, true},
		{"lat too high", 90.1, 0, false},
		{"lat too low", -91, 0, false},
		{"lng too high", 0, 180.5, false},
		{"lng too low", 0, -181, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidCoordinates(tc.lat, tc.lng); got != tc.valid {
				t.Fatalf("ValidCoordinates(%v, %v) = %v, want %v", tc.lat, tc.lng, got, tc.valid)
			}
		})
	}
}

func TestNewGeoPointStoresLngLatOrder(t *testing.T) {
	point := NewGeoPoint(12.97, 77.59, "MG Road")

	if point.Type != "Point" {
		t.Fatalf("Type = %q, want Point", point.Type)
	}
	if point.Coordinates[0] != 77.59 || point.Coordinates[1] != 12.97 {
		t.Fatalf("Coordinates = %v, want [lng lat] = [77.59 12.97]", point.Coordinates)
	}
	if point.Address != "MG Road" {
		t.Fatalf("Address = %q, want MG Road", point.Address)
	}
}
