package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker/internal/constants"
	"github.com/yukikurage/task-tracker/internal/middleware"
	"github.com/yukikurage/task-tracker/internal/services"
)

// SessionOptions returns the cookie options for the filter session.
// secure should be true when served over HTTPS.
func SessionOptions(secure bool) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   constants.SessionMaxAgeSecond,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewCookieSessionStore keeps the whole session in a signed cookie
func NewCookieSessionStore(secret string, secure bool) sessions.Store {
	store := cookie.NewStore([]byte(secret))
	store.Options(SessionOptions(secure))
	return store
}

// NewRouter wires the task routes onto a gin engine
func NewRouter(store *services.TaskStore, taskHandler *TaskHandler, sessionStore sessions.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(sessions.Sessions(constants.SessionCookieName, sessionStore))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Tracker is running",
		})
	})

	api := r.Group("/api")
	{
		api.PUT("/filter", taskHandler.SetFilter)
		api.GET("/history", taskHandler.ListHistory)

		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", middleware.RequireTask(store), taskHandler.GetTask)
			tasks.PATCH("/:id/status", middleware.RequireTask(store), taskHandler.UpdateStatus)
			tasks.DELETE("/:id", middleware.RequireTask(store), taskHandler.DeleteTask)
		}
	}

	return r
}
