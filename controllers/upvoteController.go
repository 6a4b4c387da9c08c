package controllers

import (
	"context"
	"net/http"
	"time"

	"civicengine-be/config"
	"civicengine-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// incUpvoteCount atomically adjusts the denormalized counter and returns
// the resulting value.
func incUpvoteCount(ctx context.Context, issueID primitive.ObjectID, delta int) int {
	var issue models.Issue
	err := config.GetCollection("issues").FindOneAndUpdate(ctx, bson.M{"_id": issueID},
		bson.M{"$inc": bson.M{"upvoteCount": delta}}, afterUpdate()).Decode(&issue)
	if err != nil {
		return 0
	}
	return issue.UpvoteCount
}

// ToggleUpvote flips the caller's upvote on an issue. The unique
// (issue, user) index is what guarantees at most one live record per
// pair under concurrent toggles.
func ToggleUpvote(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid issue ID"})
		return
	}

	userID, ok := callerObjectID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")
	upvoteCollection := config.GetCollection("upvotes")
	auditCollection := config.GetCollection("auditlogs")

	count, err := issueCollection.CountDocuments(ctx, bson.M{"_id": issueID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issue"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		return
	}

	pair := bson.M{"issue": issueID, "user": userID}

	result, err := upvoteCollection.DeleteOne(ctx, pair)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to remove upvote"})
		return
	}

	if result.DeletedCount > 0 {
		upvoteCount := incUpvoteCount(ctx, issueID, -1)

		models.RecordAudit(auditCollection, models.AuditLog{
			Action:     models.ActionUpvoteRemoved,
			EntityType: "issue",
			EntityID:   issueID,
			User:       userID,
			IPAddress:  c.ClientIP(),
		})

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"upvoted":     false,
			"upvoteCount": upvoteCount,
		})
		return
	}

	upvote := models.Upvote{
		ID:        primitive.NewObjectID(),
		Issue:     issueID,
		User:      userID,
		CreatedAt: time.Now(),
	}

	if _, err := upvoteCollection.InsertOne(ctx, upvote); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// A concurrent toggle won the insert; the pair already has its
			// one live record, so report the state without double counting.
			var issue models.Issue
			_ = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
			c.JSON(http.StatusOK, gin.H{
				"success":     true,
				"upvoted":     true,
				"upvoteCount": issue.UpvoteCount,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to cast upvote"})
		return
	}

	upvoteCount := incUpvoteCount(ctx, issueID, 1)

	models.RecordAudit(auditCollection, models.AuditLog{
		Action:     models.ActionUpvoteAdded,
		EntityType: "issue",
		EntityID:   issueID,
		User:       userID,
		IPAddress:  c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"upvoted":     true,
		"upvoteCount": upvoteCount,
	})
}

// GetUpvoteStatus reports whether the caller has upvoted an issue.
func GetUpvoteStatus(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid issue ID"})
		return
	}

	userID, ok := callerObjectID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := config.GetCollection("upvotes").CountDocuments(ctx, bson.M{
		"issue": issueID,
		"user":  userID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to check upvote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"upvoted": count > 0,
	})
}
