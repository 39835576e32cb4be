package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/studytrackhq/studytrack-api/internal/models"
	"github.com/studytrackhq/studytrack-api/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Message string          `json:"message"`
}

type testAPI struct {
	router *gin.Engine
	store  *memStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	authService := service.NewAuthService(&memUserRepo{store}, &memTokenStore{store}, nil, nil, service.AuthConfig{
		AccessTokenSecret:  "integration-secret",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
		Issuer:             "studytrack-api-test",
	})
	subjectService := service.NewSubjectService(&memSubjectRepo{store}, nil, nil)
	assignmentService := service.NewAssignmentService(&memAssignmentRepo{store}, &memSubjectRepo{store}, nil, nil)
	examService := service.NewExamService(&memExamRepo{store}, &memSubjectRepo{store}, nil, nil)

	router := gin.New()
	RegisterRoutes(router, "/api/v1", authService, Handlers{
		Auth:       NewAuthHandler(authService),
		Subject:    NewSubjectHandler(subjectService),
		Assignment: NewAssignmentHandler(assignmentService),
		Exam:       NewExamHandler(examService),
	})
	return &testAPI{router: router, store: store}
}

func (api *testAPI) seedUser(t *testing.T, email, password string, role models.UserRole) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Email: email, PasswordHash: string(hash), FullName: "Seeded " + email, Role: role, Active: true}
	require.NoError(t, (&memUserRepo{api.store}).Create(context.Background(), user))
	return user.ID
}

func (api *testAPI) request(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func (api *testAPI) login(t *testing.T, email, password string) string {
	t.Helper()
	status, env := api.request(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, status)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp.AccessToken
}

func TestAPIRequiresAuthentication(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.request(t, http.MethodGet, "/api/v1/subjects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)

	status, _ = api.request(t, http.MethodGet, "/api/v1/assignments", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPIOwnershipScenario(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "admin@example.com", "admin-pass", models.RoleAdmin)
	studentAID := api.seedUser(t, "alice@example.com", "alice-pass", models.RoleStudent)
	api.seedUser(t, "bob@example.com", "bob-pass", models.RoleStudent)

	adminToken := api.login(t, "admin@example.com", "admin-pass")
	aliceToken := api.login(t, "alice@example.com", "alice-pass")
	bobToken := api.login(t, "bob@example.com", "bob-pass")

	// Admin creates a subject; the code is normalised to upper case.
	status, env := api.request(t, http.MethodPost, "/api/v1/subjects", adminToken, map[string]string{
		"name": "Mathematics", "code": "math101", "color": "#336699",
	})
	require.Equal(t, http.StatusCreated, status)
	var subject models.Subject
	require.NoError(t, json.Unmarshal(env.Data, &subject))
	assert.Equal(t, "MATH101", subject.Code)

	// Students cannot write subjects.
	status, _ = api.request(t, http.MethodPost, "/api/v1/subjects", aliceToken, map[string]string{
		"name": "Physics", "code": "PHY101", "color": "#ff0000",
	})
	assert.Equal(t, http.StatusForbidden, status)

	// Alice creates an assignment and is stamped as its owner.
	due := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	status, env = api.request(t, http.MethodPost, "/api/v1/assignments", aliceToken, map[string]string{
		"title": "Problem set 1", "subject_id": subject.ID, "due_date": due,
	})
	require.Equal(t, http.StatusCreated, status)
	var assignment models.Assignment
	require.NoError(t, json.Unmarshal(env.Data, &assignment))
	assert.Equal(t, studentAID, assignment.CreatedBy)
	require.NotNil(t, assignment.Subject)
	assert.Equal(t, "MATH101", assignment.Subject.Code)

	// Bob cannot read Alice's assignment; the admin can.
	status, _ = api.request(t, http.MethodGet, "/api/v1/assignments/"+assignment.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = api.request(t, http.MethodGet, "/api/v1/assignments/"+assignment.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)

	// List scoping: Bob sees none, Alice sees hers, admin sees all.
	status, env = api.request(t, http.MethodGet, "/api/v1/assignments", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Count)
	assert.Equal(t, 0, *env.Count)

	status, env = api.request(t, http.MethodGet, "/api/v1/assignments", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	status, env = api.request(t, http.MethodGet, "/api/v1/assignments", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	// The subject cannot be deleted while the assignment references it.
	status, _ = api.request(t, http.MethodDelete, "/api/v1/subjects/"+subject.ID, adminToken, nil)
	assert.Equal(t, http.StatusPreconditionFailed, status)

	// Deleting assignments is admin-only, even for the owner.
	status, _ = api.request(t, http.MethodDelete, "/api/v1/assignments/"+assignment.ID, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = api.request(t, http.MethodDelete, "/api/v1/assignments/"+assignment.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Message)

	status, _ = api.request(t, http.MethodGet, "/api/v1/assignments/"+assignment.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// With the reference gone the subject delete goes through.
	status, _ = api.request(t, http.MethodDelete, "/api/v1/subjects/"+subject.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAPIExamWritesAdminOnly(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "admin@example.com", "admin-pass", models.RoleAdmin)
	api.seedUser(t, "alice@example.com", "alice-pass", models.RoleStudent)

	adminToken := api.login(t, "admin@example.com", "admin-pass")
	aliceToken := api.login(t, "alice@example.com", "alice-pass")

	status, env := api.request(t, http.MethodPost, "/api/v1/subjects", adminToken, map[string]string{
		"name": "Physics", "code": "PHY101", "color": "#ff0000",
	})
	require.Equal(t, http.StatusCreated, status)
	var subject models.Subject
	require.NoError(t, json.Unmarshal(env.Data, &subject))

	date := time.Now().Add(14 * 24 * time.Hour).UTC().Format(time.RFC3339)
	status, _ = api.request(t, http.MethodPost, "/api/v1/exams", aliceToken, map[string]string{
		"title": "Midterm", "subject_id": subject.ID, "date": date,
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = api.request(t, http.MethodPost, "/api/v1/exams", adminToken, map[string]string{
		"title": "Midterm", "subject_id": subject.ID, "date": date,
	})
	require.Equal(t, http.StatusCreated, status)
	var exam models.Exam
	require.NoError(t, json.Unmarshal(env.Data, &exam))
	require.NotNil(t, exam.Subject)
	assert.Equal(t, "PHY101", exam.Subject.Code)

	// Exams are readable by any authenticated user.
	status, env = api.request(t, http.MethodGet, "/api/v1/exams", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
}

func TestAPIValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "admin@example.com", "admin-pass", models.RoleAdmin)
	adminToken := api.login(t, "admin@example.com", "admin-pass")

	// Missing required fields.
	status, env := api.request(t, http.MethodPost, "/api/v1/subjects", adminToken, map[string]string{"name": "Math"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)

	// Unknown subject reference.
	due := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	status, _ = api.request(t, http.MethodPost, "/api/v1/assignments", adminToken, map[string]string{
		"title": "Orphan", "subject_id": "missing", "due_date": due,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIAuthLifecycle(t *testing.T) {
	api := newTestAPI(t)

	// Self-registration yields an active student.
	status, env := api.request(t, http.MethodPost, "/api/v1/auth/register", "", models.RegisterRequest{
		Email: "carol@example.com", Password: "carol-pass", FullName: "Carol",
	})
	require.Equal(t, http.StatusCreated, status)
	var registered models.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &registered))
	assert.Equal(t, models.RoleStudent, registered.User.Role)

	// The issued access token works against /auth/me.
	status, env = api.request(t, http.MethodGet, "/api/v1/auth/me", registered.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var me models.UserInfo
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "carol@example.com", me.Email)

	// Refresh rotates the refresh token.
	status, env = api.request(t, http.MethodPost, "/api/v1/auth/refresh", "", models.RefreshTokenRequest{RefreshToken: registered.RefreshToken})
	require.Equal(t, http.StatusOK, status)
	var refreshed models.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &refreshed))
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	// The used refresh token is dead.
	status, _ = api.request(t, http.MethodPost, "/api/v1/auth/refresh", "", models.RefreshTokenRequest{RefreshToken: registered.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, status)

	// Logout revokes the current refresh token.
	status, _ = api.request(t, http.MethodPost, "/api/v1/auth/logout", refreshed.AccessToken, models.RefreshTokenRequest{RefreshToken: refreshed.RefreshToken})
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.request(t, http.MethodPost, "/api/v1/auth/refresh", "", models.RefreshTokenRequest{RefreshToken: refreshed.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, status)
}
