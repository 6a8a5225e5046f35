package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bossmaker/core/user"
)

func TestHealth(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/health")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestAuthLogin(t *testing.T) {
	admin := createTestUser(t, user.RoleAdmin, true, user.User{})
	boss := createTestUser(t, user.RoleInstructor, true, admin)
	sleeper := createTestUser(t, user.RoleInstructor, false, admin)
	offAdmin := createTestUser(t, user.RoleAdmin, false, user.User{})

	tests := []struct {
		name     string
		email    string
		password string
		wantCode int
		wantMsg  string
	}{
		{name: "ok", email: boss.Email, password: "s3cr3t!", wantCode: http.StatusOK, wantMsg: "Login Successful"},
		{name: "unknown email", email: "ghost@test.cm", password: "s3cr3t!", wantCode: http.StatusBadRequest, wantMsg: "Invalid credentials."},
		{name: "wrong password", email: boss.Email, password: "nope", wantCode: http.StatusBadRequest, wantMsg: "Invalid credentials."},
		{name: "deactivated instructor", email: sleeper.Email, password: "s3cr3t!", wantCode: http.StatusForbidden, wantMsg: "Your account is deactivated. Please contact your administrator."},
		{name: "deactivated admin still logs in", email: offAdmin.Email, password: "s3cr3t!", wantCode: http.StatusOK, wantMsg: "Login Successful"},
		{name: "missing fields", email: "", password: "", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := marshallObj(t, map[string]string{"email": tt.email, "password": tt.password})
			req, rec := newRequest(http.MethodPost, "/api/auth/login", payload)
			app.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body["message"])
			}
			if tt.wantCode == http.StatusOK {
				assert.NotEmpty(t, body["token"])
				data := body["data"].(map[string]interface{})
				assert.Equal(t, tt.email, data["email"])
			}
		})
	}
}

func TestJWTRequired(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/api/user")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["status"])
	assert.Equal(t, true, body["jwtExpired"])
	assert.Equal(t, "Authorization header missing. Access denied.", body["message"])
}

func TestJWTInvalidToken(t *testing.T) {
	req, rec := newAuthRequest(http.MethodGet, "/api/user", "not-a-token")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["jwtExpired"])
	assert.Equal(t, "Invalid or expired token. Access denied.", body["message"])
}
