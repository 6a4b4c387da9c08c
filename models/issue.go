package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IssueCategory enum
type IssueCategory string

const (
	Roads        IssueCategory = "roads"
	Water        IssueCategory = "water"
	Electricity  IssueCategory = "electricity"
	Sanitation   IssueCategory = "sanitation"
	Streetlights IssueCategory = "streetlights"
	Drainage     IssueCategory = "drainage"
	Garbage      IssueCategory = "garbage"
	PublicSafety IssueCategory = "public_safety"
	Parks        IssueCategory = "parks"
	OtherIssue   IssueCategory = "other"
)

// IssueStatus enum
type IssueStatus string

const (
	Reported   IssueStatus = "reported"
	Verified   IssueStatus = "verified"
	InProgress IssueStatus = "in_progress"
	Resolved   IssueStatus = "resolved"
	Rejected   IssueStatus = "rejected"
)

// IssuePriority enum
type IssuePriority string

const (
	Low      IssuePriority = "low"
	Medium   IssuePriority = "medium"
	High     IssuePriority = "high"
	Critical IssuePriority = "critical"
)

func ValidCategory(s string) bool {
	switch IssueCategory(s) {
	case Roads, Water, Electricity, Sanitation, Streetlights,
		Drainage, Garbage, PublicSafety, Parks, OtherIssue:
		return true
	}
	return false
}

func ValidStatus(s string) bool {
	switch IssueStatus(s) {
	case Reported, Verified, InProgress, Resolved, Rejected:
		return true
	}
	return false
}

func ValidPriority(s string) bool {
	switch IssuePriority(s) {
	case Low, Medium, High, Critical:
		return true
	}
	return false
}

// ValidCoordinates checks latitude and longitude ranges.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// IssueImage is one uploaded photo, stored on the external media host.
type IssueImage struct {
	URL       string `bson:"url" json:"url"`
	StorageID string `bson:"storageId" json:"storageId"`
}

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
	Address     string    `bson:"address" json:"address"`
}

// NewGeoPoint builds a Point from latitude/longitude in the store's
// [lng, lat] order.
func NewGeoPoint(lat, lng float64, address string) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}, Address: address}
}

// StatusChange is one entry of an issue's append-only status history.
type StatusChange struct {
	Status    IssueStatus        `bson:"status" json:"status"`
	ChangedBy primitive.ObjectID `bson:"changedBy" json:"changedBy"`
	Comment   string             `bson:"comment" json:"comment"`
	ChangedAt time.Time          `bson:"changedAt" json:"changedAt"`
}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID                      primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title                   string              `bson:"title" json:"title"`
	Description             string              `bson:"description" json:"description"`
	Category                IssueCategory       `bson:"category" json:"category"`
	Images                  []IssueImage        `bson:"images" json:"images"`
	Location                GeoPoint            `bson:"location" json:"location"`
	Status                  IssueStatus         `bson:"status" json:"status"`
	Priority                IssuePriority       `bson:"priority" json:"priority"`
	Reporter                primitive.ObjectID  `bson:"reporter" json:"reporter"`
	AssignedDepartment      *primitive.ObjectID `bson:"assignedDepartment,omitempty" json:"assignedDepartment,omitempty"`
	AssignedTo              *primitive.ObjectID `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	UpvoteCount             int                 `bson:"upvoteCount" json:"upvoteCount"`
	CommentCount            int                 `bson:"commentCount" json:"commentCount"`
	StatusHistory           []StatusChange      `bson:"statusHistory" json:"statusHistory"`
	ResolvedAt              *time.Time          `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	EstimatedResolutionDate *time.Time          `bson:"estimatedResolutionDate,omitempty" json:"estimatedResolutionDate,omitempty"`
	CreatedAt               time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// EnsureIssueIndexes creates the 2dsphere index on location plus the
// common query indexes.
func EnsureIssueIndexes(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "reporter", Value: 1}}},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes, options.CreateIndexes())
	return err
}
