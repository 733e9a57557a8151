package api

import (
	"net/http"

	"alcyxob/fitness-tracker/internal/identity"
	"alcyxob/fitness-tracker/internal/metrics"
	"alcyxob/fitness-tracker/internal/notify"
	"alcyxob/fitness-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(
	router *gin.Engine,
	session *identity.Session,
	accountService service.AccountService,
	trackerService service.TrackerService,
	hub *notify.Hub,
) {
	authHandler := NewAuthHandler(accountService, session, trackerService)
	trackerHandler := NewTrackerHandler(trackerService)
	backupHandler := NewBackupHandler(trackerService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", func(c *gin.Context) {
			hub.ServeWS(c.Writer, c.Request)
		})
		apiV1.GET("/notifications", func(c *gin.Context) {
			c.JSON(http.StatusOK, hub.Recent())
		})

		authGroup := apiV1.Group("/auth", MetricsMiddleware(metrics.EndpointAuth))
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		sessionGroup := apiV1.Group("/session", MetricsMiddleware(metrics.EndpointSession))
		{
			sessionGroup.GET("", authHandler.Status)
			sessionGroup.POST("/signin", authHandler.SignIn)
			sessionGroup.POST("/signout", authHandler.SignOut)
		}

		profileGroup := apiV1.Group("/profiles", MetricsMiddleware(metrics.EndpointProfiles))
		{
			profileGroup.GET("", trackerHandler.ListProfiles)
			profileGroup.POST("", trackerHandler.CreateProfile)
			profileGroup.POST("/:profileId/select", trackerHandler.SwitchProfile)
			profileGroup.DELETE("/:profileId", trackerHandler.DeleteProfile)
		}

		workoutGroup := apiV1.Group("/workouts", MetricsMiddleware(metrics.EndpointWorkouts))
		{
			workoutGroup.GET("", trackerHandler.ListWorkouts)
			workoutGroup.POST("", trackerHandler.AddWorkout)
			workoutGroup.GET("/repeat-last", trackerHandler.RepeatLast)
			workoutGroup.GET("/suggest-body-part", trackerHandler.SuggestBodyPart)
			workoutGroup.PUT("/:workoutId", trackerHandler.UpdateWorkout)
			workoutGroup.DELETE("/:workoutId", trackerHandler.DeleteWorkout)
		}

		templateGroup := apiV1.Group("/templates", MetricsMiddleware(metrics.EndpointTemplate))
		{
			templateGroup.GET("", trackerHandler.ListTemplates)
			templateGroup.POST("", trackerHandler.SaveTemplate)
			templateGroup.GET("/:templateId/entry", trackerHandler.LoadTemplate)
			templateGroup.DELETE("/:templateId", trackerHandler.DeleteTemplate)
		}

		apiV1.GET("/stats", MetricsMiddleware(metrics.EndpointStats), trackerHandler.Stats)

		backupGroup := apiV1.Group("/backup", MetricsMiddleware(metrics.EndpointBackup))
		{
			backupGroup.GET("/export", backupHandler.Export)
			backupGroup.POST("/export/storage", backupHandler.ExportToStorage)
			backupGroup.POST("/import", backupHandler.Import)
		}

		syncGroup := apiV1.Group("/sync", MetricsMiddleware(metrics.EndpointSync))
		{
			syncGroup.GET("/status", backupHandler.SyncStatus)
			syncGroup.POST("/migrate", RequireSignedIn(session), backupHandler.Migrate)
		}
	}
}
