package routes

import (
	"civicengine-be/controllers"
	"civicengine-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue, comment and upvote routes
func IssueRoutes(r *gin.Engine) {
	issues := r.Group("/api/issues")
	{
		// Public reads; optional auth annotates viewer upvote state.
		issues.GET("", middlewares.OptionalAuthMiddleware(), controllers.ListIssues)
		issues.GET("/map", controllers.GetMapIssues)
		issues.GET("/nearby", controllers.GetNearbyIssues)
		issues.GET("/user/my-issues", middlewares.AuthMiddleware(), controllers.GetMyIssues)
		issues.GET("/:id", middlewares.OptionalAuthMiddleware(), controllers.GetIssue)

		issues.POST("", middlewares.AuthMiddleware(), middlewares.IssueRateLimiter(20), controllers.CreateIssue)
		issues.PUT("/:id", middlewares.AuthMiddleware(), controllers.UpdateIssue)
		issues.DELETE("/:id", middlewares.AuthMiddleware(), controllers.DeleteIssue)

		// Comments
		issues.GET("/:id/comments", controllers.GetComments)
		issues.POST("/:id/comments", middlewares.AuthMiddleware(), controllers.AddComment)
		issues.DELETE("/comments/:commentId", middlewares.AuthMiddleware(), controllers.DeleteComment)

		// Upvotes
		issues.POST("/:id/upvote", middlewares.AuthMiddleware(), controllers.ToggleUpvote)
		issues.GET("/:id/upvote", middlewares.AuthMiddleware(), controllers.GetUpvoteStatus)
	}
}
