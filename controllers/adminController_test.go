package controllers

import (
	"testing"
	"time"

	"civicengine-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildAdminIssueFilter(t *testing.T) {
	departmentID := primitive.NewObjectID()

	filter, err := buildAdminIssueFilter(adminIssueQuery{
		Status:     "in_progress",
		Department: departmentID.Hex(),
		StartDate:  "2026-01-01",
		EndDate:    "2026-02-01",
	})
	if err != nil {
		t.Fatalf("buildAdminIssueFilter() error = %v", err)
	}

	if filter["status"] != "in_progress" {
		t.Fatalf("status filter = %v, want in_progress", filter["status"])
	}
	if filter["assignedDepartment"] != departmentID {
		t.Fatalf("department filter = %v, want %v", filter["assignedDepartment"], departmentID)
	}

	dateFilter, ok := filter["createdAt"].(bson.M)
	if !ok {
		t.Fatalf("createdAt filter missing: %#v", filter)
	}
	start := dateFilter["$gte"].(time.Time)
	end := dateFilter["$lte"].(time.Time)
	if !start.Before(end) {
		t.Fatalf("date range inverted: %v .. %v", start, end)
	}
}

func TestBuildAdminIssueFilterRejectsBadInput(t *testing.T) {
	if _, err := buildAdminIssueFilter(adminIssueQuery{Department: "not-an-id"}); err == nil {
		t.Fatal("expected an error for a malformed department id")
	}
	if _, err := buildAdminIssueFilter(adminIssueQuery{StartDate: "yesterday"}); err == nil {
		t.Fatal("expected an error for a malformed start date")
	}
}

func TestStatusChangeUpdate(t *testing.T) {
	actor := primitive.NewObjectID()
	now := time.Now()

	set, entry := statusChangeUpdate(models.InProgress, actor, "crew dispatched", now)

	if set["status"] != models.InProgress {
		t.Fatalf("set status = %v, want in_progress", set["status"])
	}
	if _, ok := set["resolvedAt"]; ok {
		t.Fatal("resolvedAt must only be stamped on resolved")
	}
	if entry.Status != models.InProgress || entry.ChangedBy != actor || entry.Comment != "crew dispatched" {
		t.Fatalf("unexpected history entry: %+v", entry)
	}
	if !entry.ChangedAt.Equal(now) {
		t.Fatalf("ChangedAt = %v, want %v", entry.ChangedAt, now)
	}
}

func TestStatusChangeUpdateStampsResolvedAt(t *testing.T) {
	now := time.Now()

	set, entry := statusChangeUpdate(models.Resolved, primitive.NewObjectID(), "", now)

	resolvedAt, ok := set["resolvedAt"].(time.Time)
	if !ok {
		t.Fatal("resolvedAt not stamped on resolved")
	}
	if !resolvedAt.Equal(now) {
		t.Fatalf("resolvedAt = %v, want %v", resolvedAt, now)
	}
	if entry.Comment != "Status changed to resolved" {
		t.Fatalf("default comment = %q", entry.Comment)
	}
}

func TestParseFilterDateFormats(t *testing.T) {
	if _, err := parseFilterDate("2026-03-15"); err != nil {
		t.Fatalf("parseFilterDate(date only) error = %v", err)
	}
	if _, err := parseFilterDate("2026-03-15T10:30:00Z"); err != nil {
		t.Fatalf("parseFilterDate(RFC3339) error = %v", err)
	}
	if _, err := parseFilterDate("15/03/2026"); err == nil {
		t.Fatal("expected an error for an unsupported date format")
	}
}
