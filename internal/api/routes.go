package api

import (
	"net/http"

	"pulseapp/pulse/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers every endpoint on the router.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	workoutService service.WorkoutService,
	routineService service.RoutineService,
	analyticsService service.AnalyticsService,
	badgeService service.BadgeService,
	transferService service.TransferService,
	accountService service.AccountService,
	planService service.PlanService,
) {
	authHandler := NewAuthHandler(authService)
	workoutHandler := NewWorkoutHandler(workoutService)
	routineHandler := NewRoutineHandler(routineService)
	analyticsHandler := NewAnalyticsHandler(analyticsService, badgeService)
	badgeHandler := NewBadgeHandler(badgeService)
	settingsHandler := NewSettingsHandler(transferService, accountService)
	planHandler := NewPlanHandler(planService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)
		protected.PUT("/me/profile", authHandler.UpdateProfile)

		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.POST("/start", workoutHandler.Start)
			workoutGroup.GET("/active", workoutHandler.GetActive)
			workoutGroup.GET("/:workoutId", workoutHandler.Get)
			workoutGroup.POST("/:workoutId/finish", workoutHandler.Finish)
			workoutGroup.POST("/:workoutId/cancel", workoutHandler.Cancel)
			workoutGroup.POST("/:workoutId/sets", workoutHandler.AddSet)
		}
		setGroup := protected.Group("/sets")
		{
			setGroup.PATCH("/:setId", workoutHandler.UpdateSet)
			setGroup.POST("/:setId/complete", workoutHandler.CompleteSet)
			setGroup.DELETE("/:setId", workoutHandler.DeleteSet)
		}

		routineGroup := protected.Group("/routines")
		{
			routineGroup.POST("", routineHandler.Create)
			routineGroup.GET("", routineHandler.List)
			routineGroup.GET("/:routineId", routineHandler.Get)
			routineGroup.PUT("/:routineId", routineHandler.Update)
			routineGroup.DELETE("/:routineId", routineHandler.Delete)
		}

		analyticsGroup := protected.Group("/analytics")
		{
			analyticsGroup.GET("/overview", analyticsHandler.Overview)
			analyticsGroup.GET("/weekly-volume", analyticsHandler.WeeklyVolume)
			analyticsGroup.GET("/records", analyticsHandler.PersonalRecords)
			analyticsGroup.GET("/history", analyticsHandler.History)
			analyticsGroup.GET("/calendar", analyticsHandler.Calendar)
			analyticsGroup.GET("/streak", analyticsHandler.Streak)
		}

		badgeGroup := protected.Group("/badges")
		{
			badgeGroup.GET("", badgeHandler.List)
			badgeGroup.GET("/user/:userId", badgeHandler.ListForUser)
			badgeGroup.POST("/award", badgeHandler.Award)
			badgeGroup.GET("/:badgeId", badgeHandler.Get)
		}

		planGroup := protected.Group("/plans")
		{
			planGroup.POST("/generate", planHandler.Generate)
			planGroup.POST("/adapt", planHandler.Adapt)
			planGroup.POST("/explain", planHandler.Explain)
			planGroup.POST("/chat", planHandler.Chat)
			planGroup.POST("", planHandler.Save)
			planGroup.GET("/active", planHandler.Active)
		}

		settingsGroup := protected.Group("/settings")
		{
			settingsGroup.POST("/import", settingsHandler.ImportCSV)
			settingsGroup.GET("/export", settingsHandler.ExportCSV)
			settingsGroup.POST("/export/archive", settingsHandler.ExportArchive)
			settingsGroup.DELETE("/account", settingsHandler.DeleteAccount)
		}
	}
}
