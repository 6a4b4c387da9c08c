package controllers

import (
	"context"
	"net/http"
	"strconv"

	"civicengine-be/config"
	"civicengine-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// callerObjectID pulls the authenticated user's id off the context. It
// writes the error response itself so handlers can just bail out.
func callerObjectID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return primitive.NilObjectID, false
	}

	objectID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return objectID, true
}

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// parsePagination clamps the offset-based page parameters.
func parsePagination(pageStr, limitStr string, defaultLimit, maxLimit int) (page, limit int) {
	page, _ = strconv.Atoi(pageStr)
	limit, _ = strconv.Atoi(limitStr)

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	return page, limit
}

// totalPages computes the page count for a total and limit.
func totalPages(total int64, limit int) int {
	return int((total + int64(limit) - 1) / int64(limit))
}

// lookupUsers fetches a projection of the given users in one query and
// returns them keyed by id hex. Avoids the N+1 per-item lookup on lists.
func lookupUsers(ctx context.Context, ids []primitive.ObjectID) map[string]models.User {
	users := make(map[string]models.User)
	if len(ids) == 0 {
		return users
	}

	cursor, err := config.GetCollection("users").Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1, "email": 1, "avatar": 1, "role": 1}))
	if err != nil {
		return users
	}
	defer cursor.Close(ctx)

	var results []models.User
	if err := cursor.All(ctx, &results); err != nil {
		return users
	}
	for _, u := range results {
		users[u.ID.Hex()] = u
	}
	return users
}

// lookupDepartments fetches the given departments in one query keyed by
// id hex.
func lookupDepartments(ctx context.Context, ids []primitive.ObjectID) map[string]models.Department {
	departments := make(map[string]models.Department)
	if len(ids) == 0 {
		return departments
	}

	cursor, err := config.GetCollection("departments").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return departments
	}
	defer cursor.Close(ctx)

	var results []models.Department
	if err := cursor.All(ctx, &results); err != nil {
		return departments
	}
	for _, d := range results {
		departments[d.ID.Hex()] = d
	}
	return departments
}

// lookupViewerUpvotes returns the set of issue ids (hex) the viewer has
// upvoted, fetched in a single batched query.
func lookupViewerUpvotes(ctx context.Context, viewer primitive.ObjectID, issueIDs []primitive.ObjectID) map[string]bool {
	upvoted := make(map[string]bool)
	if len(issueIDs) == 0 {
		return upvoted
	}

	cursor, err := config.GetCollection("upvotes").Find(ctx, bson.M{
		"issue": bson.M{"$in": issueIDs},
		"user":  viewer,
	})
	if err != nil {
		return upvoted
	}
	defer cursor.Close(ctx)

	var votes []models.Upvote
	if err := cursor.All(ctx, &votes); err != nil {
		return upvoted
	}
	for _, v := range votes {
		upvoted[v.Issue.Hex()] = true
	}
	return upvoted
}
