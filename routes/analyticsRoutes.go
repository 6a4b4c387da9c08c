package routes

import (
	"civicengine-be/controllers"
	"civicengine-be/middlewares"

	"github.com/gin-gonic/gin"
)

// AnalyticsRoutes sets up the admin-only analytics routes
func AnalyticsRoutes(r *gin.Engine) {
	analytics := r.Group("/api/analytics", middlewares.AuthMiddleware(), middlewares.RequireAdmin())
	{
		analytics.GET("/overview", controllers.GetOverview)
		analytics.GET("/by-category", controllers.GetByCategory)
		analytics.GET("/trend", controllers.GetTrend)
		analytics.GET("/resolution-time", controllers.GetResolutionTime)
		analytics.GET("/geographic", controllers.GetGeographicStats)
	}
}
