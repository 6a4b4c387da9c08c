package controllers

import "testing"

func TestResolutionRate(t *testing.T) {
	tests := []struct {
		name     string
		resolved int64
		total    int64
		want     float64
	}{
		{"zero total", 0, 0, 0},
		{"all resolved", 10, 10, 100},
		{"rounds to one decimal", 1, 3, 33.3},
		{"two thirds", 2, 3, 66.7},
		{"none resolved", 0, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolutionRate(tt.resolved, tt.total); got != tt.want {
				t.Errorf("resolutionRate(%d, %d) = %v, want %v", tt.resolved, tt.total, got, tt.want)
			}
		})
	}
}

func TestAverageDays(t *testing.T) {
	tests := []struct {
		name string
		days []float64
		want float64
	}{
		{"empty", nil, 0},
		{"single sample", []float64{4.2}, 4.2},
		{"rounds mean", []float64{1, 2, 2}, 1.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := averageDays(tt.days); got != tt.want {
				t.Errorf("averageDays(%v) = %v, want %v", tt.days, got, tt.want)
			}
		})
	}
}

func TestClusterPoints(t *testing.T) {
	coords := [][]float64{
		{77.591, 12.971},
		{77.594, 12.972}, // same 2-decimal bucket as the first
		{77.60, 12.98},
		{77.591}, // malformed, skipped
	}

	clusters := clusterPoints(coords)

	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2: %+v", len(clusters), clusters)
	}
	if clusters[0].Count != 2 {
		t.Errorf("first cluster count = %d, want 2", clusters[0].Count)
	}
	// the representative point is the first one seen in the bucket
	if clusters[0].Lng != 77.591 || clusters[0].Lat != 12.971 {
		t.Errorf("first cluster at (%v, %v), want (77.591, 12.971)", clusters[0].Lng, clusters[0].Lat)
	}
	if clusters[1].Count != 1 {
		t.Errorf("second cluster count = %d, want 1", clusters[1].Count)
	}
}

func TestClusterPointsEmpty(t *testing.T) {
	if clusters := clusterPoints(nil); len(clusters) != 0 {
		t.Fatalf("expected no clusters, got %+v", clusters)
	}
}
