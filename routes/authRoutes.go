package routes

import (
	"civicengine-be/controllers"
	"civicengine-be/middlewares"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.POST("/refresh", controllers.RefreshToken)
		auth.POST("/logout", middlewares.AuthMiddleware(), controllers.Logout)
		auth.GET("/me", middlewares.AuthMiddleware(), controllers.GetMe)
		auth.PUT("/profile", middlewares.AuthMiddleware(), controllers.UpdateProfile)
		auth.PUT("/password", middlewares.AuthMiddleware(), controllers.ChangePassword)
	}
}
