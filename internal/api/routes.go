package api

import (
	"net/http"

	"peakform/coaching-app/internal/domain"
	"peakform/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every handler under /api/v1.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	coachService service.CoachService,
	clientService service.ClientService,
	checkInService service.CheckInService,
	exerciseService service.ExerciseService,
) {
	authHandler := NewAuthHandler(authService)
	coachHandler := NewCoachHandler(coachService, clientService)
	clientHandler := NewClientHandler(clientService)
	checkInHandler := NewCheckInHandler(checkInService)
	exerciseHandler := NewExerciseHandler(exerciseService)

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
		protected.GET("/me", func(c *gin.Context) {
			caller, err := callerFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": caller.UserID.Hex(), "role": caller.Role})
		})

		// --- Exercise Catalog ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
			exerciseGroup.POST("", RoleMiddleware(domain.RoleCoach), exerciseHandler.CreateExercise)
		}

		// --- Coach Routes ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			coachGroup.POST("/clients", coachHandler.AddClientByEmail)
			coachGroup.GET("/clients", coachHandler.GetClients)
			coachGroup.GET("/clients/:clientId/templates", coachHandler.ListClientTemplates)
			coachGroup.GET("/clients/:clientId/templates/active", coachHandler.GetClientActiveTemplate)

			coachGroup.POST("/templates", coachHandler.CreateTemplate)
			coachGroup.GET("/templates", coachHandler.ListTemplates)
			coachGroup.GET("/templates/find", coachHandler.FindTemplate)
			coachGroup.PUT("/templates/:id", coachHandler.UpdateTemplate)
			coachGroup.DELETE("/templates/:id", coachHandler.DeleteTemplate)
			coachGroup.POST("/templates/:id/sessions", coachHandler.AddSession)
			coachGroup.PUT("/sessions/:id", coachHandler.UpdateSession)

			coachGroup.POST("/assignments", coachHandler.AssignTemplate)

			coachGroup.GET("/checkins", checkInHandler.ListCheckIns)
			coachGroup.GET("/checkins/find", checkInHandler.FindCheckIn)
			coachGroup.PUT("/checkins", checkInHandler.SubmitCheckIn)
		}

		// --- Client Routes (scoped to the caller's own data) ---
		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientGroup.GET("/templates", clientHandler.ListMyTemplates)
			clientGroup.GET("/templates/find", clientHandler.FindMyTemplate)
			clientGroup.GET("/templates/active", clientHandler.GetMyActiveTemplate)

			clientGroup.GET("/sessions/next", clientHandler.NextSession)
			clientGroup.GET("/training-log", clientHandler.TrainingLog)

			clientGroup.GET("/checkins", checkInHandler.ListMyCheckIns)
			clientGroup.GET("/checkins/current", checkInHandler.GetMyCheckIn)
			clientGroup.PUT("/checkins/current", checkInHandler.SubmitMyCheckIn)
			clientGroup.POST("/checkins/:id/photos/upload-url", checkInHandler.RequestPhotoUpload)
			clientGroup.POST("/checkins/:id/photos", checkInHandler.ConfirmPhotoUpload)
		}

		// --- Shared Client-Template Routes ---
		// Coaches author client programs and clients mutate their own;
		// the service layer enforces the per-client scope.
		sharedGroup := protected.Group("")
		sharedGroup.Use(RoleMiddleware(domain.RoleCoach, domain.RoleClient))
		{
			sharedGroup.PUT("/client-templates/:id", clientHandler.UpdateClientTemplate)
			sharedGroup.DELETE("/client-templates/:id", clientHandler.DeleteClientTemplate)
			sharedGroup.POST("/client-templates/:id/sessions", clientHandler.CreateClientSession)
			sharedGroup.PUT("/client-sessions/:id", clientHandler.UpdateClientSession)
			sharedGroup.GET("/checkins/:id/photos", checkInHandler.GetCheckInPhotos)
		}
	}
}
