package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker/internal/constants"
	apierrors "github.com/yukikurage/task-tracker/internal/errors"
	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/services"
)

// RequireTask loads the live task named by the :id parameter into the
// context, responding 404 when it does not exist
func RequireTask(store *services.TaskStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, ok := store.Get(c.Param("id"))
		if !ok {
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask retrieves the task stored by RequireTask
func GetTask(c *gin.Context) (models.Task, bool) {
	v, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := v.(models.Task)
	return task, ok
}
