package controllers

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func floatPtr(v float64) *float64 { return &v }

func TestBuildIssueFilter(t *testing.T) {
	cases := []struct {
		name  string
		query issueListQuery
		want  bson.M
	}{
		{
			name:  "empty",
			query: issueListQuery{},
			want:  bson.M{},
		},
		{
			name:  "exact matches are ANDed",
			query: issueListQuery{Status: "reported", Category: "roads", Priority: "high"},
			want:  bson.M{"status": "reported", "category": "roads", "priority": "high"},
		},
		{
			name:  "search matches title or description case-insensitively",
			query: issueListQuery{Search: "pothole"},
			want: bson.M{"$or": []bson.M{
				{"title": bson.M{"$regex": "pothole", "$options": "i"}},
				{"description": bson.M{"$regex": "pothole", "$options": "i"}},
			}},
		},
		{
			name:  "near query uses lng lat order and default radius",
			query: issueListQuery{Lat: floatPtr(12.97), Lng: floatPtr(77.59)},
			want: bson.M{"location": bson.M{"$near": bson.M{
				"$geometry":    bson.M{"type": "Point", "coordinates": []float64{77.59, 12.97}},
				"$maxDistance": 10000,
			}}},
		},
		{
			name:  "near query honors explicit radius",
			query: issueListQuery{Lat: floatPtr(1), Lng: floatPtr(2), MaxDistance: 250},
			want: bson.M{"location": bson.M{"$near": bson.M{
				"$geometry":    bson.M{"type": "Point", "coordinates": []float64{2, 1}},
				"$maxDistance": 250,
			}}},
		},
		{
			name:  "lat alone does not trigger a near query",
			query: issueListQuery{Lat: floatPtr(12.97)},
			want:  bson.M{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := buildIssueFilter(tc.query)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("buildIssueFilter() = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestWithoutNear(t *testing.T) {
	filter := buildIssueFilter(issueListQuery{
		Status: "reported",
		Lat:    floatPtr(12.97),
		Lng:    floatPtr(77.59),
	})

	countFilter := withoutNear(filter)
	if _, ok := countFilter["location"]; ok {
		t.Fatal("withoutNear() kept the $near clause")
	}
	if countFilter["status"] != "reported" {
		t.Fatal("withoutNear() dropped the status filter")
	}
	if _, ok := filter["location"]; !ok {
		t.Fatal("withoutNear() mutated the original filter")
	}
}

func TestParseCoordinate(t *testing.T) {
	if got := parseCoordinate("12.5"); got == nil || *got != 12.5 {
		t.Fatalf("parseCoordinate(12.5) = %v", got)
	}
	if got := parseCoordinate(""); got != nil {
		t.Fatalf("parseCoordinate(\"\") = %v, want nil", got)
	}
	if got := parseCoordinate("north"); got != nil {
		t.Fatalf("parseCoordinate(north) = %v, want nil", got)
	}
}
