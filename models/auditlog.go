package models

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuditAction enum
type AuditAction string

const (
	ActionIssueCreated       AuditAction = "issue_created"
	ActionIssueUpdated       AuditAction = "issue_updated"
	ActionIssueDeleted       AuditAction = "issue_deleted"
	ActionStatusChanged      AuditAction = "status_changed"
	ActionDepartmentAssigned AuditAction = "department_assigned"
	ActionUserAssigned       AuditAction = "user_assigned"
	ActionCommentAdded       AuditAction = "comment_added"
	ActionUpvoteAdded        AuditAction = "upvote_added"
	ActionUpvoteRemoved      AuditAction = "upvote_removed"
	ActionUserLogin          AuditAction = "user_login"
	ActionUserRegister       AuditAction = "user_register"
)

// AuditLog is an append-only activity record. Entries are never mutated
// or deleted.
type AuditLog struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Action     AuditAction            `bson:"action" json:"action"`
	EntityType string                 `bson:"entityType" json:"entityType"`
	EntityID   primitive.ObjectID     `bson:"entityId" json:"entityId"`
	User       primitive.ObjectID     `bson:"user,omitempty" json:"user"`
	Details    map[string]interface{} `bson:"details" json:"details"`
	IPAddress  string                 `bson:"ipAddress" json:"ipAddress"`
	CreatedAt  time.Time              `bson:"createdAt" json:"createdAt"`
}

// RecordAudit writes one audit entry inline. A failed write is logged and
// otherwise ignored so it never blocks the response.
func RecordAudit(collection *mongo.Collection, entry AuditLog) {
	if entry.Details == nil {
		entry.Details = map[string]interface{}{}
	}
	entry.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := collection.InsertOne(ctx, entry); err != nil {
		log.Printf("Failed to write audit entry %s: %v", entry.Action, err)
	}
}
