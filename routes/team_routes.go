package routes

import (
	"teambuilder/internal/handlers"
	"teambuilder/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupUserRoutes sets up routes for the authenticated user's own data
func SetupUserRoutes(r *gin.RouterGroup, userHandler *handlers.UserHandler, verifier middleware.TokenVerifier) {
	users := r.Group("/users")
	users.Use(middleware.AuthRequired(verifier))
	{
		users.GET("/me/downline", userHandler.GetMyDownline)
		users.GET("/profile", userHandler.GetProfile)
	}
}

// SetupAdminRoutes sets up user record maintenance and team count routes
func SetupAdminRoutes(r *gin.RouterGroup, userHandler *handlers.UserHandler, teamHandler *handlers.TeamHandler, verifier middleware.TokenVerifier) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(verifier), middleware.AdminRequired())
	{
		admin.POST("/users", userHandler.CreateUser)
		admin.GET("/users/:uid", userHandler.GetUser)
		admin.PATCH("/users/:uid", userHandler.UpdateUser)
		admin.POST("/users/:uid/increment", userHandler.IncrementField)

		admin.POST("/team-counts/recalculate", teamHandler.Recalculate)
		admin.GET("/team-counts/last-run", teamHandler.GetLastRun)
		admin.GET("/team-counts/reports", teamHandler.ListReports)
		admin.GET("/team-counts/reports/*key", teamHandler.GetReport)
	}
}
