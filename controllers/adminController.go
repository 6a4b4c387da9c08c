package controllers

import (
	"context"
	"fmt"
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

// adminIssueQuery is the extended filter surface of the admin listing.
type adminIssueQuery struct {
	Status     string
	Category   string
	Priority   string
	Department string
	StartDate  string
	EndDate    string
}

func parseFilterDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// buildAdminIssueFilter adds department and date-range filters on top of
// the public exact-match surface.
func buildAdminIssueFilter(q adminIssueQuery) (bson.M, error) {
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

	if q.Department != "" {
		departmentID, err := primitive.ObjectIDFromHex(q.Department)
		if err != nil {
			return nil, fmt.Errorf("invalid department ID")
		}
		filter["assignedDepartment"] = departmentID
	}

	if q.StartDate != "" || q.EndDate != "" {
		dateFilter := bson.M{}
		if q.StartDate != "" {
			start, err := parseFilterDate(q.StartDate)
			if err != nil {
				return nil, fmt.Errorf("invalid start date")
			}
			dateFilter["$gte"] = start
		}
		if q.EndDate != "" {
			end, err := parseFilterDate(q.EndDate)
			if err != nil {
				return nil, fmt.Errorf("invalid end date")
			}
			dateFilter["$lte"] = end
		}
		filter["createdAt"] = dateFilter
	}

	return filter, nil
}

// statusChangeUpdate computes the document update for a status transition:
// the fields to set and the history entry to append. resolvedAt is stamped
// exactly when the status becomes resolved.
func statusChangeUpdate(status models.IssueStatus, actor primitive.ObjectID, comment string, now time.Time) (bson.M, models.StatusChange) {
	if comment == "" {
		comment = fmt.Sprintf("Status changed to %s", status)
	}

	set := bson.M{"status": status, "updatedAt": now}
	if status == models.Resolved {
		set["resolvedAt"] = now
	}

	entry := models.StatusChange{
		Status:    status,
		ChangedBy: actor,
		Comment:   comment,
		ChangedAt: now,
	}
	return set, entry
}

// AdminListIssues lists issues with the extended admin filter surface,
// always paginated.
func AdminListIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, limit := parsePagination(c.DefaultQuery("page", "1"), c.DefaultQuery("limit", "20"), 20, 100)

	filter, err := buildAdminIssueFilter(adminIssueQuery{
		Status:     c.Query("status"),
		Category:   c.Query("category"),
		Priority:   c.Query("priority"),
		Department: c.Query("department"),
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
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

	decorated := decorateIssues(ctx, issues, nil)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(decorated),
		"total":   total,
		"page":    page,
		"pages":   totalPages(total, limit),
		"issues":  decorated,
	})
}

// UpdateIssueStatus writes a status transition. Any of the five statuses
// may be written from any current status; only the history append and
// resolvedAt stamping are enforced.
func UpdateIssueStatus(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid issue ID"})
		return
	}

	actorID, ok := callerObjectID(c)
	if !ok {
		return
	}

	var input struct {
		Status  string `json:"status" binding:"required"`
		Comment string `json:"comment"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if !models.ValidStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")

	var before models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&before)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issue"})
		}
		return
	}

	set, entry := statusChangeUpdate(models.IssueStatus(input.Status), actorID, input.Comment, time.Now())

	var issue models.Issue
	err = issueCollection.FindOneAndUpdate(ctx, bson.M{"_id": issueID},
		bson.M{"$set": set, "$push": bson.M{"statusHistory": entry}}, afterUpdate()).Decode(&issue)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update status"})
		return
	}

	models.RecordAudit(config.GetCollection("auditlogs"), models.AuditLog{
		Action:     models.ActionStatusChanged,
		EntityType: "issue",
		EntityID:   issueID,
		User:       actorID,
		Details: map[string]interface{}{
			"oldStatus": string(before.Status),
			"newStatus": input.Status,
		},
		IPAddress: c.ClientIP(),
	})

	decorated := decorateIssues(ctx, []models.Issue{issue}, nil)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"issue":   decorated[0],
	})
}

// AssignIssue sets the department and/or assignee, and auto-promotes a
// still-reported issue to verified with a history entry.
func AssignIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid issue ID"})
		return
	}

	actorID, ok := callerObjectID(c)
	if !ok {
		return
	}

	var input struct {
		DepartmentID            string `json:"departmentId"`
		AssigneeID              string `json:"assigneeId"`
		EstimatedResolutionDate string `json:"estimatedResolutionDate"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")

	var before models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&before)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issue"})
		}
		return
	}

	set := bson.M{"updatedAt": time.Now()}

	if input.DepartmentID != "" {
		departmentID, err := primitive.ObjectIDFromHex(input.DepartmentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid department ID"})
			return
		}
		count, err := config.GetCollection("departments").CountDocuments(ctx, bson.M{"_id": departmentID})
		if err != nil || count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"message": "Department not found"})
			return
		}
		set["assignedDepartment"] = departmentID
	}

	if input.AssigneeID != "" {
		assigneeID, err := primitive.ObjectIDFromHex(input.AssigneeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid assignee ID"})
			return
		}
		count, err := config.GetCollection("users").CountDocuments(ctx, bson.M{"_id": assigneeID})
		if err != nil || count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"message": "Assignee not found"})
			return
		}
		set["assignedTo"] = assigneeID
	}

	if input.EstimatedResolutionDate != "" {
		eta, err := parseFilterDate(input.EstimatedResolutionDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid estimated resolution date"})
			return
		}
		set["estimatedResolutionDate"] = eta
	}

	update := bson.M{"$set": set}

	// Assignment on an unverified issue promotes it.
	if before.Status == models.Reported {
		set["status"] = models.Verified
		update["$push"] = bson.M{"statusHistory": models.StatusChange{
			Status:    models.Verified,
			ChangedBy: actorID,
			Comment:   "Issue verified and assigned",
			ChangedAt: time.Now(),
		}}
	}

	var issue models.Issue
	err = issueCollection.FindOneAndUpdate(ctx, bson.M{"_id": issueID}, update, afterUpdate()).Decode(&issue)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to assign issue"})
		return
	}

	models.RecordAudit(config.GetCollection("auditlogs"), models.AuditLog{
		Action:     models.ActionDepartmentAssigned,
		EntityType: "issue",
		EntityID:   issueID,
		User:       actorID,
		Details: map[string]interface{}{
			"departmentId": input.DepartmentID,
			"assigneeId":   input.AssigneeID,
		},
		IPAddress: c.ClientIP(),
	})

	decorated := decorateIssues(ctx, []models.Issue{issue}, nil)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"issue":   decorated[0],
	})
}

// GetDepartments lists active departments.
func GetDepartments(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := config.GetCollection("departments").Find(ctx, bson.M{"isActive": true})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve departments"})
		return
	}
	defer cursor.Close(ctx)

	departments := []models.Department{}
	if err := cursor.All(ctx, &departments); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode departments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"departments": departments,
	})
}

// CreateDepartment adds a municipal department. Names are unique.
func CreateDepartment(c *gin.Context) {
	var input struct {
		Name         string   `json:"name" binding:"required"`
		Description  string   `json:"description"`
		Categories   []string `json:"categories"`
		ContactEmail string   `json:"contactEmail" binding:"omitempty,email"`
		ContactPhone string   `json:"contactPhone"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	for _, category := range input.Categories {
		if !models.ValidCategory(category) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category: " + category})
			return
		}
	}

	now := time.Now()
	department := models.Department{
		ID:           primitive.NewObjectID(),
		Name:         input.Name,
		Description:  input.Description,
		Categories:   input.Categories,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if department.Categories == nil {
		department.Categories = []string{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := config.GetCollection("departments").InsertOne(ctx, department); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"message": "Department already exists with this name"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create department"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"department": department,
	})
}

// GetUsers lists users for the superadmin console. Password and refresh
// token never leave the store.
func GetUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, limit := parsePagination(c.DefaultQuery("page", "1"), c.DefaultQuery("limit", "20"), 20, 100)

	filter := bson.M{}
	if role := c.Query("role"); role != "" {
		filter["role"] = role
	}

	userCollection := config.GetCollection("users")

	total, err := userCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to count users"})
		return
	}

	findOptions := options.Find().
		SetProjection(bson.M{"password": 0, "refreshToken": 0}).
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := userCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve users"})
		return
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(users),
		"total":   total,
		"page":    page,
		"pages":   totalPages(total, limit),
		"users":   users,
	})
}

// UpdateUserRole changes a user's role. Superadmin only.
func UpdateUserRole(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	var input struct {
		Role string `json:"role" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if !models.ValidRole(input.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid role"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = config.GetCollection("users").FindOneAndUpdate(ctx, bson.M{"_id": userID},
		bson.M{"$set": bson.M{"role": input.Role, "updatedAt": time.Now()}}, afterUpdate()).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update user role"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"_id":      user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"role":     user.Role,
			"avatar":   user.Avatar,
			"isActive": user.IsActive,
		},
	})
}
