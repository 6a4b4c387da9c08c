package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"civicengine-be/config"
	"civicengine-be/models"
	authUtils "civicengine-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func issueTokens(user *models.User) (access, refresh string, err error) {
	access, err = authUtils.GenerateAccessToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		return "", "", err
	}
	refresh, err = authUtils.GenerateRefreshToken(user.ID.Hex())
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Register handles user registration
func Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := userCollection.CountDocuments(ctx, bson.M{"email": input.Email})
	if err != nil {
		log.Println("Error checking existing user:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "User already exists with this email"})
		return
	}

	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      input.Name,
		Email:     input.Email,
		Password:  input.Password,
		Phone:     input.Phone,
		Address:   input.Address,
		Role:      models.RoleCitizen,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := user.HashPassword(); err != nil {
		log.Println("Error hashing password:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	accessToken, refreshToken, err := issueTokens(&user)
	if err != nil {
		log.Println("Error generating tokens:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}
	user.RefreshToken = refreshToken

	if _, err := userCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"message": "User already exists with this email"})
			return
		}
		log.Println("Error inserting user:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	models.RecordAudit(config.GetCollection("auditlogs"), models.AuditLog{
		Action:     models.ActionUserRegister,
		EntityType: "user",
		EntityID:   user.ID,
		User:       user.ID,
		IPAddress:  c.ClientIP(),
	})

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"user":         user.Public(),
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

// Login verifies credentials and rotates the refresh token. A new login
// invalidates the previous device's refresh token.
func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := userCollection.FindOne(ctx, bson.M{"email": input.Email}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Account is deactivated"})
		return
	}

	if !user.ComparePassword(input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	accessToken, refreshToken, err := issueTokens(&user)
	if err != nil {
		log.Println("Error generating tokens:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	_, err = userCollection.UpdateOne(ctx, bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"refreshToken": refreshToken, "updatedAt": time.Now()}})
	if err != nil {
		log.Println("Error saving refresh token:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	models.RecordAudit(config.GetCollection("auditlogs"), models.AuditLog{
		Action:     models.ActionUserLogin,
		EntityType: "user",
		EntityID:   user.ID,
		User:       user.ID,
		IPAddress:  c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"user":         user.Public(),
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

// RefreshToken issues a new access token when the presented refresh token
// is valid and matches the one persisted for the user.
func RefreshToken(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Refresh token is required"})
		return
	}

	userID, err := authUtils.ParseRefreshToken(input.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}

	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}

	// Single active session: the token must match the persisted one.
	if user.RefreshToken != input.RefreshToken {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}

	accessToken, err := authUtils.GenerateAccessToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		log.Println("Error generating token:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"accessToken": accessToken,
	})
}

// Logout clears the caller's persisted refresh token so subsequent refresh
// attempts with the old token fail.
func Logout(c *gin.Context) {
	callerID, ok := callerObjectID(c)
	if !ok {
		return
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := userCollection.UpdateOne(ctx, bson.M{"_id": callerID},
		bson.M{"$set": bson.M{"refreshToken": "", "updatedAt": time.Now()}})
	if err != nil {
		log.Println("Error clearing refresh token:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

// GetMe retrieves the authenticated user's profile
func GetMe(c *gin.Context) {
	callerID, ok := callerObjectID(c)
	if !ok {
		return
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": callerID}).Decode(&user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"_id":       user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"role":      user.Role,
			"avatar":    user.Avatar,
			"phone":     user.Phone,
			"address":   user.Address,
			"createdAt": user.CreatedAt,
		},
	})
}

// UpdateProfile edits the caller's contact fields
func UpdateProfile(c *gin.Context) {
	callerID, ok := callerObjectID(c)
	if !ok {
		return
	}

	var input struct {
		Name    *string `json:"name,omitempty" binding:"omitempty,max=50"`
		Phone   *string `json:"phone,omitempty"`
		Address *string `json:"address,omitempty"`
		Avatar  *string `json:"avatar,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Name != nil {
		update["name"] = *input.Name
	}
	if input.Phone != nil {
		update["phone"] = *input.Phone
	}
	if input.Address != nil {
		update["address"] = *input.Address
	}
	if input.Avatar != nil {
		update["avatar"] = *input.Avatar
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := userCollection.FindOneAndUpdate(ctx, bson.M{"_id": callerID},
		bson.M{"$set": update}, afterUpdate()).Decode(&user)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"_id":     user.ID,
			"name":    user.Name,
			"email":   user.Email,
			"role":    user.Role,
			"avatar":  user.Avatar,
			"phone":   user.Phone,
			"address": user.Address,
		},
	})
}

// ChangePassword overwrites the caller's password hash after checking the
// current password.
func ChangePassword(c *gin.Context) {
	callerID, ok := callerObjectID(c)
	if !ok {
		return
	}

	var input struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": callerID}).Decode(&user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	if !user.ComparePassword(input.CurrentPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Current password is incorrect"})
		return
	}

	user.Password = input.NewPassword
	if err := user.HashPassword(); err != nil {
		log.Println("Error hashing password:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	_, err := userCollection.UpdateOne(ctx, bson.M{"_id": callerID},
		bson.M{"$set": bson.M{"password": user.Password, "updatedAt": time.Now()}})
	if err != nil {
		log.Println("Error updating password:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password updated successfully",
	})
}
