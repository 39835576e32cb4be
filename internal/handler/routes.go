package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/studytrackhq/studytrack-api/internal/middleware"
	"github.com/studytrackhq/studytrack-api/internal/models"
	"github.com/studytrackhq/studytrack-api/internal/service"
)

// Handlers bundles the API surface for route registration.
type Handlers struct {
	Auth       *AuthHandler
	Subject    *SubjectHandler
	Assignment *AssignmentHandler
	Exam       *ExamHandler
}

// RegisterRoutes wires every endpoint under the API prefix. All resource
// routes sit behind the authentication gate; admin-only writes additionally
// pass the role gate. Assignment get/update authorization is ownership-based
// and therefore enforced in the service, not here.
func RegisterRoutes(r *gin.Engine, prefix string, authService *service.AuthService, h Handlers) {
	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", middleware.JWT(authService), h.Auth.Logout)
	auth.GET("/me", middleware.JWT(authService), h.Auth.Me)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	subjects := api.Group("/subjects", middleware.JWT(authService))
	subjects.GET("", h.Subject.List)
	subjects.GET("/:id", h.Subject.Get)
	subjects.POST("", adminOnly, h.Subject.Create)
	subjects.PUT("/:id", adminOnly, h.Subject.Update)
	subjects.DELETE("/:id", adminOnly, h.Subject.Delete)

	assignments := api.Group("/assignments", middleware.JWT(authService))
	assignments.GET("", h.Assignment.List)
	assignments.GET("/overdue", h.Assignment.ListOverdue)
	assignments.GET("/:id", h.Assignment.Get)
	assignments.POST("", h.Assignment.Create)
	assignments.PUT("/:id", h.Assignment.Update)
	assignments.DELETE("/:id", adminOnly, h.Assignment.Delete)

	exams := api.Group("/exams", middleware.JWT(authService))
	exams.GET("", h.Exam.List)
	exams.GET("/:id", h.Exam.Get)
	exams.POST("", adminOnly, h.Exam.Create)
	exams.PUT("/:id", adminOnly, h.Exam.Update)
	exams.DELETE("/:id", adminOnly, h.Exam.Delete)
}
