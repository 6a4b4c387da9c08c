package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment belongs to one issue. IsOfficial is fixed at write time from the
// author's role and never recomputed.
type Comment struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Issue         primitive.ObjectID  `bson:"issue" json:"issue"`
	User          primitive.ObjectID  `bson:"user" json:"user"`
	Content       string              `bson:"content" json:"content"`
	IsOfficial    bool                `bson:"isOfficial" json:"isOfficial"`
	ParentComment *primitive.ObjectID `bson:"parentComment,omitempty" json:"parentComment,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}
