package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/studytrackhq/studytrack-api/internal/middleware"
	"github.com/studytrackhq/studytrack-api/internal/models"
)

func userFromContext(c *gin.Context) *models.AuthUser {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.AuthUser)
	if !ok {
		return nil
	}
	return user
}
