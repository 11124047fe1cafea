package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/rongwang/litigation-tracker/internal/api/testutils"
	"github.com/rongwang/litigation-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	newUser := models.CreateUserRequest{
		Username: "clerk",
		Password: "secret1",
		FullName: "Court Clerk",
		Email:    "clerk@example.com",
		Role:     "standard",
	}

	// Test case 1: Successful creation
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/users", newUser, testutils.AuthHeaders(testCtx.AdminJWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp models.UserResponse
	testutils.DecodeJSON(t, w, &resp)
	assert.Equal(t, "clerk", resp.User.Username)
	assert.Equal(t, models.RoleStandard, resp.User.Role)
	assert.True(t, resp.User.Active)

	// Test case 2: Duplicate username
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/users", newUser, testutils.AuthHeaders(testCtx.AdminJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	// Test case 3: Invalid request (bad role)
	invalid := newUser
	invalid.Username = "other"
	invalid.Role = "superuser"
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/users", invalid, testutils.AuthHeaders(testCtx.AdminJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case 4: Standard users cannot manage accounts
	token := testCtx.Login(t, "clerk", "secret1")
	invalid.Role = "standard"
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/users", invalid, testutils.AuthHeaders(token))
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/users", nil, testutils.AuthHeaders(token))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserLimit(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	for i := 1; i <= 9; i++ {
		testCtx.CreateStandardUser(t, fmt.Sprintf("user%d", i))
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/users", nil, testutils.AuthHeaders(testCtx.AdminJWT))
	require.Equal(t, http.StatusOK, w.Code)
	var list models.UsersResponse
	testutils.DecodeJSON(t, w, &list)
	assert.Len(t, list.Users, 10)
	assert.Equal(t, 10, list.MaxUsers)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/users", models.CreateUserRequest{
		Username: "eleventh", Password: "secret1", Role: "standard",
	}, testutils.AuthHeaders(testCtx.AdminJWT))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var errResp models.ErrorResponse
	testutils.DecodeJSON(t, w, &errResp)
	assert.Equal(t, "USER_LIMIT_EXCEEDED", errResp.Code)
}

func TestLastAdminProtection(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	path := "/api/users/" + testutils.TestAdminName

	inactive := false
	w := testutils.PerformRequest(testCtx.Router, http.MethodPatch, path,
		models.UpdateUserRequest{Active: &inactive}, testutils.AuthHeaders(testCtx.AdminJWT))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var errResp models.ErrorResponse
	testutils.DecodeJSON(t, w, &errResp)
	assert.Equal(t, "LAST_ADMIN_PROTECTED", errResp.Code)

	standard := "standard"
	w = testutils.PerformRequest(testCtx.Router, http.MethodPatch, path,
		models.UpdateUserRequest{Role: &standard}, testutils.AuthHeaders(testCtx.AdminJWT))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// With a second admin the first may step down
	testCtx.CreateStandardUser(t, "deputy")
	admin := "admin"
	w = testutils.PerformRequest(testCtx.Router, http.MethodPatch, "/api/users/deputy",
		models.UpdateUserRequest{Role: &admin}, testutils.AuthHeaders(testCtx.AdminJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutils.PerformRequest(testCtx.Router, http.MethodPatch, path,
		models.UpdateUserRequest{Role: &standard}, testutils.AuthHeaders(testCtx.AdminJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.UserResponse
	testutils.DecodeJSON(t, w, &resp)
	assert.Equal(t, models.RoleStandard, resp.User.Role)

	// The role is read from the store, so the old token is now standard
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/users", nil, testutils.AuthHeaders(testCtx.AdminJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Empty patch
	w = testutils.PerformRequest(testCtx.Router, http.MethodPatch, "/api/users/deputy",
		models.UpdateUserRequest{}, testutils.AuthHeaders(testCtx.Login(t, "deputy", testutils.TestUserPassword)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetPassword(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	testCtx.CreateStandardUser(t, "clerk")

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/users/clerk/password",
		models.ResetPasswordRequest{NewPassword: "fresh-pass"}, testutils.AuthHeaders(testCtx.AdminJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testCtx.Login(t, "clerk", "fresh-pass")

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/users/ghost/password",
		models.ResetPasswordRequest{NewPassword: "fresh-pass"}, testutils.AuthHeaders(testCtx.AdminJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUser(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	adminHeaders := testutils.AuthHeaders(testCtx.AdminJWT)
	testCtx.CreateStandardUser(t, "temp")
	clerkToken := testCtx.CreateStandardUser(t, "clerk")

	// Test case 1: An account with no history is removed
	w := testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/users/temp", nil, adminHeaders)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/users/temp", nil, adminHeaders)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Test case 2: An account that authored a case is kept
	req := caseRequest("HC", "2024-03-15")
	req.CaseNumber = "WP 5/2024"
	testCtx.CreateCase(t, clerkToken, req)
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/users/clerk", nil, adminHeaders)
	require.Equal(t, http.StatusConflict, w.Code)
	var errResp models.ErrorResponse
	testutils.DecodeJSON(t, w, &errResp)
	assert.Equal(t, "USER_HAS_RECORDS", errResp.Code)

	// Test case 3: Admins cannot delete themselves
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/users/"+testutils.TestAdminName, nil, adminHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case 4: Standard users cannot delete accounts
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/users/"+testutils.TestAdminName, nil, testutils.AuthHeaders(clerkToken))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateUserAppliesBothFields(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	testCtx.CreateStandardUser(t, "deputy")

	inactive := false
	admin := "admin"
	w := testutils.PerformRequest(testCtx.Router, http.MethodPatch, "/api/users/deputy",
		models.UpdateUserRequest{Active: &inactive, Role: &admin}, testutils.AuthHeaders(testCtx.AdminJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.UserResponse
	testutils.DecodeJSON(t, w, &resp)
	assert.False(t, resp.User.Active)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
}
