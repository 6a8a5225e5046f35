package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bossmaker/core/user"
)

func TestUserCreate(t *testing.T) {
	admin := createTestUser(t, user.RoleAdmin, true, user.User{})
	token := getToken(t, admin)

	payload := marshallObj(t, map[string]interface{}{
		"first_name": "New",
		"last_name":  "Boss",
		"email":      "newboss@test.cm",
		"password":   "s3cr3t!",
		"user_type":  user.RoleInstructor,
		"mobile_no":  "677111111",
		"status":     true,
	})
	req, rec := newAuthRequest(http.MethodPost, "/api/user/create", token, payload)
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User created successfully", decodeBody(t, rec)["message"])

	// duplicate email conflicts
	req, rec = newAuthRequest(http.MethodPost, "/api/user/create", token, payload)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// admins only create instructors
	payload = marshallObj(t, map[string]interface{}{
		"first_name": "New",
		"last_name":  "Student",
		"email":      "newstudent@test.cm",
		"password":   "s3cr3t!",
		"user_type":  user.RoleParticipant,
		"mobile_no":  "677222222",
	})
	req, rec = newAuthRequest(http.MethodPost, "/api/user/create", token, payload)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// participants cannot manage users at all
	boss := createTestUser(t, user.RoleInstructor, true, admin)
	student := createTestUser(t, user.RoleParticipant, true, boss)
	req, rec = newAuthRequest(http.MethodPost, "/api/user/create", getToken(t, student), payload)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserQuery(t *testing.T) {
	admin := createTestUser(t, user.RoleAdmin, true, user.User{})
	for i := 0; i < 3; i++ {
		createTestUser(t, user.RoleInstructor, true, admin)
	}
	// a participant created by someone else must not show up
	boss := createTestUser(t, user.RoleInstructor, true, admin)
	createTestUser(t, user.RoleParticipant, true, boss)

	req, rec := newAuthRequest(http.MethodGet, "/api/user?page=1&limit=2", getToken(t, admin))
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["users"], 2)

	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(4), pagination["total_records"])
	assert.Equal(t, float64(1), pagination["current_page"])
	assert.Equal(t, float64(2), pagination["limit"])
	assert.Equal(t, float64(2), pagination["total_pages"])
}

func TestUserRetrieve_exposesPassword(t *testing.T) {
	admin := createTestUser(t, user.RoleAdmin, true, user.User{})
	boss := createTestUser(t, user.RoleInstructor, true, admin)

	req, rec := newAuthRequest(http.MethodGet, "/api/user/"+boss.ID, getToken(t, admin))
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	usr := decodeBody(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "s3cr3t!", usr["password"], "the stored password is decrypted for managers")
}

func TestUserDestroy(t *testing.T) {
	admin := createTestUser(t, user.RoleAdmin, true, user.User{})
	boss := createTestUser(t, user.RoleInstructor, true, admin)
	token := getToken(t, admin)

	// self-deletion is forbidden
	req, rec := newAuthRequest(http.MethodDelete, "/api/user/delete", token, marshallObj(t, map[string]string{"id": admin.ID}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodDelete, "/api/user/delete", token, marshallObj(t, map[string]string{"id": boss.ID}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deleted Successfully", decodeBody(t, rec)["message"])

	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/api/user/%s", boss.ID), token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserStatusCheck_anyAuthenticatedRole(t *testing.T) {
	admin := createTestUser(t, user.RoleAdmin, true, user.User{})
	boss := createTestUser(t, user.RoleInstructor, true, admin)
	student := createTestUser(t, user.RoleParticipant, true, boss)

	// participants can poll their own account status
	req, rec := newAuthRequest(http.MethodGet, "/api/user/status/"+student.ID, getToken(t, student))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isActive"])
	assert.Equal(t, "User is active", body["message"])

	// but the rest of the user routes stay manager-only
	req, rec = newAuthRequest(http.MethodGet, "/api/user", getToken(t, student))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserPermissions(t *testing.T) {
	admin := createTestUser(t, user.RoleAdmin, true, user.User{})
	boss := createTestUser(t, user.RoleInstructor, true, admin)
	token := getToken(t, admin)

	req, rec := newAuthRequest(http.MethodGet, "/api/user/permissions/"+boss.ID, token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	perms := decodeBody(t, rec)["permission"].(map[string]interface{})
	assert.Contains(t, perms, "Category")

	// instructors cannot touch permissions
	req, rec = newAuthRequest(http.MethodGet, "/api/user/permissions/"+boss.ID, getToken(t, boss))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	grant := boss.Permissions["Course"][0]
	payload := marshallObj(t, map[string]interface{}{
		"id":          boss.ID,
		"permissions": []map[string]interface{}{{"id": grant.ID, "is_access": !grant.IsAccess}},
	})
	req, rec = newAuthRequest(http.MethodPut, "/api/user/update-permissions", token, payload)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Permissions updated successfully", decodeBody(t, rec)["message"])
}

func TestProfile(t *testing.T) {
	admin := createTestUser(t, user.RoleAdmin, true, user.User{})
	token := getToken(t, admin)

	req, rec := newAuthRequest(http.MethodGet, "/api/profile", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, admin.Email, data["email"])
	assert.Equal(t, "s3cr3t!", data["password"])

	// change password: wrong old password is rejected
	payload := marshallObj(t, map[string]string{
		"old_password": "nope", "new_password": "n3w-pwd", "confirm_password": "n3w-pwd",
	})
	req, rec = newAuthRequest(http.MethodPost, "/api/profile/changePassword", token, payload)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Old password is incorrect.", decodeBody(t, rec)["message"])

	payload = marshallObj(t, map[string]string{
		"old_password": "s3cr3t!", "new_password": "n3w-pwd", "confirm_password": "n3w-pwd",
	})
	req, rec = newAuthRequest(http.MethodPost, "/api/profile/changePassword", token, payload)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password changed successfully", decodeBody(t, rec)["message"])
}
