package controllers

import "testing"

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name      string
		pageStr   string
		limitStr  string
		wantPage  int
		wantLimit int
	}{
		{"defaults on empty", "", "", 1, 10},
		{"explicit values", "3", "25", 3, 25},
		{"garbage falls back", "abc", "xyz", 1, 10},
		{"zero page clamps to one", "0", "10", 1, 10},
		{"negative page clamps to one", "-4", "10", 1, 10},
		{"over max falls back to default", "1", "500", 1, 10},
		{"at max is kept", "1", "50", 1, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := parsePagination(tt.pageStr, tt.limitStr, 10, 50)
			if page != tt.wantPage || limit != tt.wantLimit {
				t.Errorf("parsePagination(%q, %q) = (%d, %d), want (%d, %d)",
					tt.pageStr, tt.limitStr, page, limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 10, 10},
	}
	for _, tt := range tests {
		if got := totalPages(tt.total, tt.limit); got != tt.want {
			t.Errorf("totalPages(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}
