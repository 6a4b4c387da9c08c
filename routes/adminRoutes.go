package routes

import (
	"civicengine-be/controllers"
	"civicengine-be/middlewares"

	"github.com/gin-gonic/gin"
)

// AdminRoutes sets up the admin workflow routes. Everything requires an
// admin role; user management requires superadmin.
func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/api/admin", middlewares.AuthMiddleware(), middlewares.RequireAdmin())
	{
		admin.GET("/issues", controllers.AdminListIssues)
		admin.PATCH("/issues/:id/status", controllers.UpdateIssueStatus)
		admin.PATCH("/issues/:id/assign", controllers.AssignIssue)

		admin.GET("/departments", controllers.GetDepartments)
		admin.POST("/departments", controllers.CreateDepartment)

		admin.GET("/users", middlewares.RequireSuperAdmin(), controllers.GetUsers)
		admin.PATCH("/users/:id/role", middlewares.RequireSuperAdmin(), controllers.UpdateUserRole)
	}
}
