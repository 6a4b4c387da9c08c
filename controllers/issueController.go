package controllers

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"civicengine-be/config"
	"civicengine-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	maxImagesPerIssue = 5
	maxImageBytes     = 5 * 1024 * 1024
	defaultListRadius = 10000
	defaultNearRadius = 5000
	mapIssueCap       = 500
)

// issueListQuery is the filter surface of the public listing.
type issueListQuery struct {
	Status      string
	Category    string
	Priority    string
	Search      string
	Lat         *float64
	Lng         *float64
	MaxDistance int
}

// buildIssueFilter translates the query surface into a store filter.
// Exact-match filters are AND'd; search matches title or description
// case-insensitively; lat+lng switch the query to a $near, sorted by
// distance by the store.
func buildIssueFilter(q issueListQuery) bson.M {
	filter := bson.M{}

	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Priority != "" {
		filter["priority"] = q.Priority
	}

	if q.Search != "" {
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": q.Search, "$options": "i"}},
			{"description": bson.M{"$regex": q.Search, "$options": "i"}},
		}
	}

	if q.Lat != nil && q.Lng != nil {
		maxDistance := q.MaxDistance
		if maxDistance <= 0 {
			maxDistance = defaultListRadius
		}
		filter["location"] = bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{*q.Lng, *q.Lat},
				},
				"$maxDistance": maxDistance,
			},
		}
	}

	return filter
}

// withoutNear strips the $near clause; the store rejects it in counts.
func withoutNear(filter bson.M) bson.M {
	countFilter := bson.M{}
	for k, v := range filter {
		if k != "location" {
			countFilter[k] = v
		}
	}
	return countFilter
}

func parseCoordinate(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

type issueWithMeta struct {
	models.Issue
	HasUpvoted         bool                   `json:"hasUpvoted"`
	Reporter           map[string]interface{} `json:"reporter"`
	AssignedDepartment map[string]interface{} `json:"assignedDepartment,omitempty"`
}

// decorateIssues resolves reporters and departments and annotates the
// viewer's upvote state, all via batched lookups.
func decorateIssues(ctx context.Context, issues []models.Issue, viewer *primitive.ObjectID) []issueWithMeta {
	issueIDs := make([]primitive.ObjectID, 0, len(issues))
	reporterIDs := make([]primitive.ObjectID, 0, len(issues))
	departmentIDs := make([]primitive.ObjectID, 0, len(issues))
	for _, issue := range issues {
		issueIDs = append(issueIDs, issue.ID)
		reporterIDs = append(reporterIDs, issue.Reporter)
		if issue.AssignedDepartment != nil {
			departmentIDs = append(departmentIDs, *issue.AssignedDepartment)
		}
	}

	reporters := lookupUsers(ctx, reporterIDs)
	departments := lookupDepartments(ctx, departmentIDs)

	upvoted := map[string]bool{}
	if viewer != nil {
		upvoted = lookupViewerUpvotes(ctx, *viewer, issueIDs)
	}

	decorated := make([]issueWithMeta, 0, len(issues))
	for _, issue := range issues {
		reporter := map[string]interface{}{"_id": issue.Reporter}
		if u, ok := reporters[issue.Reporter.Hex()]; ok {
			reporter["name"] = u.Name
			reporter["avatar"] = u.Avatar
		}

		var department map[string]interface{}
		if issue.AssignedDepartment != nil {
			department = map[string]interface{}{"_id": issue.AssignedDepartment}
			if d, ok := departments[issue.AssignedDepartment.Hex()]; ok {
				department["name"] = d.Name
			}
		}

		decorated = append(decorated, issueWithMeta{
			Issue:              issue,
			HasUpvoted:         upvoted[issue.ID.Hex()],
			Reporter:           reporter,
			AssignedDepartment: department,
		})
	}
	return decorated
}

func uploadIssueImages(ctx context.Context, files []*multipart.FileHeader) ([]models.IssueImage, error) {
	if len(files) > maxImagesPerIssue {
		return nil, fmt.Errorf("at most %d images are allowed", maxImagesPerIssue)
	}

	images := make([]models.IssueImage, 0, len(files))
	for _, header := range files {
		if header.Size > maxImageBytes {
			return nil, fmt.Errorf("image %s exceeds the 5MB limit", header.Filename)
		}
		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			return nil, fmt.Errorf("only image files are allowed")
		}

		file, err := header.Open()
		if err != nil {
			return nil, err
		}

		objectName := "issues/" + primitive.NewObjectID().Hex() + strings.ToLower(filepath.Ext(header.Filename))
		url, err := config.UploadImage(ctx, objectName, file, header.Size, contentType)
		file.Close()
		if err != nil {
			return nil, err
		}

		images = append(images, models.IssueImage{URL: url, StorageID: objectName})
	}
	return images, nil
}

// CreateIssue handles the multipart creation of a new issue, delegating
// photos to the media host and seeding the status history.
func CreateIssue(c *gin.Context) {
	reporterID, ok := callerObjectID(c)
	if !ok {
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	description := strings.TrimSpace(c.PostForm("description"))
	category := c.PostForm("category")
	priority := c.PostForm("priority")
	address := c.PostForm("address")

	if title == "" || len(title) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Title is required and cannot exceed 100 characters"})
		return
	}
	if description == "" || len(description) > 2000 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Description is required and cannot exceed 2000 characters"})
		return
	}
	if !models.ValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category"})
		return
	}
	if priority == "" {
		priority = string(models.Medium)
	}
	if !models.ValidPriority(priority) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid priority"})
		return
	}

	lat, errLat := strconv.ParseFloat(c.PostForm("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.PostForm("lng"), 64)
	if errLat != nil || errLng != nil || !models.ValidCoordinates(lat, lng) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Valid latitude and longitude are required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	images := []models.IssueImage{}
	if form, err := c.MultipartForm(); err == nil && form != nil {
		if files := form.File["images"]; len(files) > 0 {
			if !config.StorageEnabled() {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Image uploads are not available"})
				return
			}
			uploaded, err := uploadIssueImages(ctx, files)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
				return
			}
			images = uploaded
		}
	}

	now := time.Now()
	issue := models.Issue{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: description,
		Category:    models.IssueCategory(category),
		Images:      images,
		Location:    models.NewGeoPoint(lat, lng, address),
		Status:      models.Reported,
		Priority:    models.IssuePriority(priority),
		Reporter:    reporterID,
		StatusHistory: []models.StatusChange{{
			Status:    models.Reported,
			ChangedBy: reporterID,
			Comment:   "Issue reported",
			ChangedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := config.GetCollection("issues").InsertOne(ctx, issue); err != nil {
		log.Println("Error inserting issue:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create issue"})
		return
	}

	models.RecordAudit(config.GetCollection("auditlogs"), models.AuditLog{
		Action:     models.ActionIssueCreated,
		EntityType: "issue",
		EntityID:   issue.ID,
		User:       reporterID,
		Details:    map[string]interface{}{"title": title, "category": category},
		IPAddress:  c.ClientIP(),
	})

	decorated := decorateIssues(ctx, []models.Issue{issue}, nil)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"issue":   decorated[0],
	})
}

// ListIssues retrieves issues with filtering, search, near-queries and
// pagination. Known viewers get per-item upvote state.
func ListIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, limit := parsePagination(c.DefaultQuery("page", "1"), c.DefaultQuery("limit", "10"), 10, 100)

	maxDistance, _ := strconv.Atoi(c.Query("maxDistance"))
	query := issueListQuery{
		Status:      c.Query("status"),
		Category:    c.Query("category"),
		Priority:    c.Query("priority"),
		Search:      c.Query("search"),
		Lat:         parseCoordinate(c.Query("lat")),
		Lng:         parseCoordinate(c.Query("lng")),
		MaxDistance: maxDistance,
	}
	filter := buildIssueFilter(query)
	nearActive := query.Lat != nil && query.Lng != nil

	issueCollection := config.GetCollection("issues")

	total, err := issueCollection.CountDocuments(ctx, withoutNear(filter))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to count issues"})
		return
	}

	findOptions := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	if !nearActive {
		// $near results come back sorted by distance already.
		findOptions.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	}

	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode issues"})
		return
	}

	var viewer *primitive.ObjectID
	if userIDStr, exists := c.Get("user_id"); exists {
		if objID, err := primitive.ObjectIDFromHex(userIDStr.(string)); err == nil {
			viewer = &objID
		}
	}

	decorated := decorateIssues(ctx, issues, viewer)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(decorated),
		"total":   total,
		"page":    page,
		"pages":   totalPages(total, limit),
		"issues":  decorated,
	})
}

// GetIssue retrieves one issue with its related entities resolved.
func GetIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = config.GetCollection("issues").FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issue"})
		}
		return
	}

	// Resolve reporter, assignee and history actors in one batched lookup.
	userIDs := []primitive.ObjectID{issue.Reporter}
	if issue.AssignedTo != nil {
		userIDs = append(userIDs, *issue.AssignedTo)
	}
	for _, entry := range issue.StatusHistory {
		userIDs = append(userIDs, entry.ChangedBy)
	}
	users := lookupUsers(ctx, userIDs)

	reporter := map[string]interface{}{"_id": issue.Reporter}
	if u, ok := users[issue.Reporter.Hex()]; ok {
		reporter["name"] = u.Name
		reporter["avatar"] = u.Avatar
		reporter["email"] = u.Email
	}

	var assignee map[string]interface{}
	if issue.AssignedTo != nil {
		assignee = map[string]interface{}{"_id": issue.AssignedTo}
		if u, ok := users[issue.AssignedTo.Hex()]; ok {
			assignee["name"] = u.Name
			assignee["avatar"] = u.Avatar
		}
	}

	var department map[string]interface{}
	if issue.AssignedDepartment != nil {
		department = map[string]interface{}{"_id": issue.AssignedDepartment}
		if d, ok := lookupDepartments(ctx, []primitive.ObjectID{*issue.AssignedDepartment})[issue.AssignedDepartment.Hex()]; ok {
			department["name"] = d.Name
			department["contactEmail"] = d.ContactEmail
		}
	}

	history := make([]gin.H, 0, len(issue.StatusHistory))
	for _, entry := range issue.StatusHistory {
		actor := map[string]interface{}{"_id": entry.ChangedBy}
		if u, ok := users[entry.ChangedBy.Hex()]; ok {
			actor["name"] = u.Name
			actor["role"] = u.Role
		}
		history = append(history, gin.H{
			"status":    entry.Status,
			"changedBy": actor,
			"comment":   entry.Comment,
			"changedAt": entry.ChangedAt,
		})
	}

	hasUpvoted := false
	if userIDStr, exists := c.Get("user_id"); exists {
		if viewerID, err := primitive.ObjectIDFromHex(userIDStr.(string)); err == nil {
			count, err := config.GetCollection("upvotes").CountDocuments(ctx, bson.M{
				"issue": issueID,
				"user":  viewerID,
			})
			hasUpvoted = err == nil && count > 0
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"issue": gin.H{
			"id":                      issue.ID,
			"title":                   issue.Title,
			"description":             issue.Description,
			"category":                issue.Category,
			"images":                  issue.Images,
			"location":                issue.Location,
			"status":                  issue.Status,
			"priority":                issue.Priority,
			"reporter":                reporter,
			"assignedDepartment":      department,
			"assignedTo":              assignee,
			"upvoteCount":             issue.UpvoteCount,
			"commentCount":            issue.CommentCount,
			"statusHistory":           history,
			"resolvedAt":              issue.ResolvedAt,
			"estimatedResolutionDate": issue.EstimatedResolutionDate,
			"createdAt":               issue.CreatedAt,
			"updatedAt":               issue.UpdatedAt,
			"hasUpvoted":              hasUpvoted,
		},
	})
}

// UpdateIssue edits issue fields. Citizens cannot edit past creation, by
// design; they are told to contact an admin.
func UpdateIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid issue ID"})
		return
	}

	if !models.IsStaffRole(c.GetString("role")) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized to update issues. Please contact an admin for changes."})
		return
	}

	var input struct {
		Title       *string `json:"title,omitempty" binding:"omitempty,max=100"`
		Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
		Category    *string `json:"category,omitempty"`
		Priority    *string `json:"priority,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Title != nil {
		update["title"] = *input.Title
	}
	if input.Description != nil {
		update["description"] = *input.Description
	}
	if input.Category != nil {
		if !models.ValidCategory(*input.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category"})
			return
		}
		update["category"] = *input.Category
	}
	if input.Priority != nil {
		if !models.ValidPriority(*input.Priority) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid priority"})
			return
		}
		update["priority"] = *input.Priority
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = config.GetCollection("issues").FindOneAndUpdate(ctx, bson.M{"_id": issueID},
		bson.M{"$set": update}, afterUpdate()).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update issue"})
		}
		return
	}

	decorated := decorateIssues(ctx, []models.Issue{issue}, nil)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"issue":   decorated[0],
	})
}

// DeleteIssue removes an issue along with its comments, upvotes and
// stored images. Only the reporter or an admin may delete.
func DeleteIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid issue ID"})
		return
	}

	callerID, ok := callerObjectID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issue"})
		}
		return
	}

	if issue.Reporter != callerID && !models.IsStaffRole(c.GetString("role")) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized to delete this issue"})
		return
	}

	if _, err := issueCollection.DeleteOne(ctx, bson.M{"_id": issueID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete issue"})
		return
	}

	// Child records and stored images go with the issue.
	_, _ = config.GetCollection("upvotes").DeleteMany(ctx, bson.M{"issue": issueID})
	_, _ = config.GetCollection("comments").DeleteMany(ctx, bson.M{"issue": issueID})
	for _, image := range issue.Images {
		config.RemoveImage(ctx, image.StorageID)
	}

	models.RecordAudit(config.GetCollection("auditlogs"), models.AuditLog{
		Action:     models.ActionIssueDeleted,
		EntityType: "issue",
		EntityID:   issueID,
		User:       callerID,
		Details:    map[string]interface{}{"title": issue.Title},
		IPAddress:  c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Issue deleted successfully",
	})
}

// GetMyIssues lists the caller's own reports, newest first.
func GetMyIssues(c *gin.Context) {
	callerID, ok := callerObjectID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, limit := parsePagination(c.DefaultQuery("page", "1"), c.DefaultQuery("limit", "10"), 10, 100)

	filter := bson.M{"reporter": callerID}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	issueCollection := config.GetCollection("issues")

	total, err := issueCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to count issues"})
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode issues"})
		return
	}

	decorated := decorateIssues(ctx, issues, &callerID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(decorated),
		"total":   total,
		"page":    page,
		"pages":   totalPages(total, limit),
		"issues":  decorated,
	})
}

// GetNearbyIssues returns issues within maxDistance meters of a point,
// sorted by distance.
func GetNearbyIssues(c *gin.Context) {
	lat := parseCoordinate(c.Query("lat"))
	lng := parseCoordinate(c.Query("lng"))
	if lat == nil || lng == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Latitude and longitude are required"})
		return
	}

	maxDistance, _ := strconv.Atoi(c.DefaultQuery("maxDistance", strconv.Itoa(defaultNearRadius)))
	if maxDistance <= 0 {
		maxDistance = defaultNearRadius
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := buildIssueFilter(issueListQuery{Lat: lat, Lng: lng, MaxDistance: maxDistance})

	cursor, err := config.GetCollection("issues").Find(ctx, filter, options.Find().SetLimit(50))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode issues"})
		return
	}

	decorated := decorateIssues(ctx, issues, nil)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(decorated),
		"issues":  decorated,
	})
}

// GetMapIssues returns a bounded minimal field set for map rendering.
func GetMapIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if category := c.Query("category"); category != "" {
		filter["category"] = category
	}

	projection := bson.M{
		"title":       1,
		"category":    1,
		"status":      1,
		"location":    1,
		"upvoteCount": 1,
		"createdAt":   1,
	}

	cursor, err := config.GetCollection("issues").Find(ctx, filter,
		options.Find().SetProjection(projection).SetLimit(mapIssueCap))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	type mapIssue struct {
		ID          primitive.ObjectID `bson:"_id" json:"id"`
		Title       string             `bson:"title" json:"title"`
		Category    string             `bson:"category" json:"category"`
		Status      string             `bson:"status" json:"status"`
		Location    models.GeoPoint    `bson:"location" json:"location"`
		UpvoteCount int                `bson:"upvoteCount" json:"upvoteCount"`
		CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	}

	issues := []mapIssue{}
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode issues"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(issues),
		"issues":  issues,
	})
}
