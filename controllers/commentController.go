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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type commentWithAuthor struct {
	models.Comment
	User map[string]interface{} `json:"user"`
}

// GetComments lists an issue's comments newest first, paginated, with
// authors resolved in one batched lookup.
func GetComments(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, limit := parsePagination(c.DefaultQuery("page", "1"), c.DefaultQuery("limit", "20"), 20, 100)

	commentCollection := config.GetCollection("comments")

	total, err := commentCollection.CountDocuments(ctx, bson.M{"issue": issueID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to count comments"})
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := commentCollection.Find(ctx, bson.M{"issue": issueID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve comments"})
		return
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode comments"})
		return
	}

	authorIDs := make([]primitive.ObjectID, 0, len(comments))
	for _, comment := range comments {
		authorIDs = append(authorIDs, comment.User)
	}
	authors := lookupUsers(ctx, authorIDs)

	decorated := make([]commentWithAuthor, 0, len(comments))
	for _, comment := range comments {
		author := map[string]interface{}{"_id": comment.User}
		if u, ok := authors[comment.User.Hex()]; ok {
			author["name"] = u.Name
			author["avatar"] = u.Avatar
			author["role"] = u.Role
		}
		decorated = append(decorated, commentWithAuthor{Comment: comment, User: author})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(decorated),
		"total":    total,
		"page":     page,
		"pages":    totalPages(total, limit),
		"comments": decorated,
	})
}

// AddComment attaches a comment to an issue. isOfficial is computed once
// from the caller's role at write time; the issue's counter moves with an
// atomic increment.
func AddComment(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid issue ID"})
		return
	}

	authorID, ok := callerObjectID(c)
	if !ok {
		return
	}

	var input struct {
		Content       string  `json:"content" binding:"required,max=1000"`
		ParentComment *string `json:"parentComment,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")

	count, err := issueCollection.CountDocuments(ctx, bson.M{"_id": issueID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issue"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		return
	}

	var parentComment *primitive.ObjectID
	if input.ParentComment != nil && *input.ParentComment != "" {
		parentID, err := primitive.ObjectIDFromHex(*input.ParentComment)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid parent comment ID"})
			return
		}
		parentComment = &parentID
	}

	now := time.Now()
	comment := models.Comment{
		ID:            primitive.NewObjectID(),
		Issue:         issueID,
		User:          authorID,
		Content:       input.Content,
		IsOfficial:    models.IsStaffRole(c.GetString("role")),
		ParentComment: parentComment,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := config.GetCollection("comments").InsertOne(ctx, comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to add comment"})
		return
	}

	_, _ = issueCollection.UpdateOne(ctx, bson.M{"_id": issueID},
		bson.M{"$inc": bson.M{"commentCount": 1}})

	models.RecordAudit(config.GetCollection("auditlogs"), models.AuditLog{
		Action:     models.ActionCommentAdded,
		EntityType: "comment",
		EntityID:   comment.ID,
		User:       authorID,
		Details:    map[string]interface{}{"issueId": issueID.Hex()},
		IPAddress:  c.ClientIP(),
	})

	author := map[string]interface{}{"_id": authorID}
	if u, ok := lookupUsers(ctx, []primitive.ObjectID{authorID})[authorID.Hex()]; ok {
		author["name"] = u.Name
		author["avatar"] = u.Avatar
		author["role"] = u.Role
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"comment": commentWithAuthor{Comment: comment, User: author},
	})
}

// DeleteComment removes a comment (owner or admin) and decrements the
// issue's counter.
func DeleteComment(c *gin.Context) {
	commentID, err := primitive.ObjectIDFromHex(c.Param("commentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid comment ID"})
		return
	}

	callerID, ok := callerObjectID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	commentCollection := config.GetCollection("comments")

	var comment models.Comment
	err = commentCollection.FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Comment not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve comment"})
		}
		return
	}

	if comment.User != callerID && !models.IsStaffRole(c.GetString("role")) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized to delete this comment"})
		return
	}

	result, err := commentCollection.DeleteOne(ctx, bson.M{"_id": commentID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete comment"})
		return
	}

	if result.DeletedCount > 0 {
		_, _ = config.GetCollection("issues").UpdateOne(ctx, bson.M{"_id": comment.Issue},
			bson.M{"$inc": bson.M{"commentCount": -1}})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Comment deleted successfully",
	})
}
