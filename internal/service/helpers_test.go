package service

import (
	"github.com/studytrackhq/studytrack-api/internal/models"
	appErrors "github.com/studytrackhq/studytrack-api/pkg/errors"
)

func adminUser() *models.AuthUser {
	return &models.AuthUser{ID: "admin-1", Email: "admin@example.com", FullName: "Admin", Role: models.RoleAdmin}
}

func studentUser(id string) *models.AuthUser {
	return &models.AuthUser{ID: id, Email: id + "@example.com", FullName: "Student " + id, Role: models.RoleStudent}
}

func errCode(err error) string {
	if err == nil {
		return ""
	}
	return appErrors.FromError(err).Code
}
