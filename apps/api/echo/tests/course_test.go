package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bossmaker/core/user"
)

func TestCourseCreate(t *testing.T) {
	admin := createTestUser(t, user.RoleAdmin, true, user.User{})
	boss := createTestUser(t, user.RoleInstructor, true, admin)
	cat := createTestCategory(t, admin, boss, "Algebra")
	token := getToken(t, boss)

	payload := marshallObj(t, map[string]interface{}{
		"title":       "Algebra I",
		"description": "Linear equations",
		"category_id": cat.ID,
		"sections": []map[string]interface{}{
			{"title": "Basics", "lesson": "Variables and constants"},
		},
	})
	req, rec := newAuthRequest(http.MethodPost, "/api/course/create", token, payload)
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Course created Successfully", body["message"])
	courses := body["data"].([]interface{})
	assert.Len(t, courses, 1)
	crs := courses[0].(map[string]interface{})
	assert.Equal(t, "Algebra I", crs["title"])
	assert.Equal(t, boss.ID, crs["assigned_to"])

	// duplicate title within the same owner's scope conflicts
	req, rec = newAuthRequest(http.MethodPost, "/api/course/create", token, payload)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// title and category are required
	req, rec = newAuthRequest(http.MethodPost, "/api/course/create", token, marshallObj(t, map[string]string{"description": "nope"}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCourseQueryAndRetrieve(t *testing.T) {
	admin := createTestUser(t, user.RoleAdmin, true, user.User{})
	boss := createTestUser(t, user.RoleInstructor, true, admin)
	student := createTestUser(t, user.RoleParticipant, true, boss)
	cat := createTestCategory(t, admin, boss, "Geometry")
	token := getToken(t, boss)

	payload := marshallObj(t, map[string]interface{}{
		"title":           "Geometry I",
		"category_id":     cat.ID,
		"participant_ids": []string{student.ID},
		"sections": []map[string]interface{}{
			{"title": "Shapes", "lesson": "Triangles"},
		},
	})
	req, rec := newAuthRequest(http.MethodPost, "/api/course/create", token, payload)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/api/course", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Courses retrieved successfully", body["message"])
	courses := body["data"].([]interface{})
	assert.Len(t, courses, 1)
	crs := courses[0].(map[string]interface{})
	id := crs["_id"].(string)

	// instructor listings embed the category name and participant name refs
	assert.Equal(t, "Geometry", crs["category_name"])
	participants := crs["participants"].([]interface{})
	if assert.Len(t, participants, 1) {
		ref := participants[0].(map[string]interface{})
		assert.Equal(t, student.ID, ref["id"])
		assert.Equal(t, student.FirstName, ref["first_name"])
	}

	// participants see the courses assigned to them, read-only
	req, rec = newAuthRequest(http.MethodGet, "/api/course", getToken(t, student))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["data"], 1)

	req, rec = newAuthRequest(http.MethodGet, "/api/course/"+id, getToken(t, student))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	detail := decodeBody(t, rec)["course"].(map[string]interface{})
	assert.Equal(t, "Geometry I", detail["title"])
	assert.Len(t, detail["sections"], 1)

	// but they cannot create
	req, rec = newAuthRequest(http.MethodPost, "/api/course/create", getToken(t, student), payload)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/api/course/nope", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Course not found", decodeBody(t, rec)["message"])
}

func TestCourseQuery_adminListingHasAssignee(t *testing.T) {
	admin := createTestUser(t, user.RoleAdmin, true, user.User{})
	boss := createTestUser(t, user.RoleInstructor, true, admin)
	cat := createTestCategory(t, admin, boss, "Trigonometry")
	token := getToken(t, admin)

	payload := marshallObj(t, map[string]interface{}{
		"title":          "Trigonometry I",
		"category_id":    cat.ID,
		"instructor_ids": []string{boss.ID},
	})
	req, rec := newAuthRequest(http.MethodPost, "/api/course/create", token, payload)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/api/course", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	courses := decodeBody(t, rec)["data"].([]interface{})
	if assert.Len(t, courses, 1) {
		crs := courses[0].(map[string]interface{})
		assert.Equal(t, "Trigonometry", crs["category_name"])
		assignee := crs["assignee"].(map[string]interface{})
		assert.Equal(t, boss.ID, assignee["id"])
		assert.Equal(t, boss.FirstName, assignee["first_name"])
	}
}

func TestCourseUpdate(t *testing.T) {
	admin := createTestUser(t, user.RoleAdmin, true, user.User{})
	boss := createTestUser(t, user.RoleInstructor, true, admin)
	cat := createTestCategory(t, admin, boss, "Calculus")
	token := getToken(t, boss)

	payload := marshallObj(t, map[string]interface{}{
		"title":       "Calculus I",
		"category_id": cat.ID,
		"sections":    []map[string]interface{}{{"title": "Limits", "lesson": "Intro"}},
	})
	req, rec := newAuthRequest(http.MethodPost, "/api/course/create", token, payload)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	id := decodeBody(t, rec)["data"].([]interface{})[0].(map[string]interface{})["_id"].(string)

	payload = marshallObj(t, map[string]interface{}{
		"title":       "Calculus I, revised",
		"category_id": cat.ID,
		"sections": []map[string]interface{}{
			{"title": "Limits", "lesson": "Intro, expanded"},
			{"title": "Derivatives", "lesson": "Rates of change"},
		},
	})
	req, rec = newAuthRequest(http.MethodPut, "/api/course/update/"+id, token, payload)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Course updated successfully", decodeBody(t, rec)["message"])

	req, rec = newAuthRequest(http.MethodGet, "/api/course/"+id, token)
	app.ServeHTTP(rec, req)
	detail := decodeBody(t, rec)["course"].(map[string]interface{})
	assert.Equal(t, "Calculus I, revised", detail["title"])
	assert.Len(t, detail["sections"], 2)
}

func TestCourseStatusAndDestroy(t *testing.T) {
	admin := createTestUser(t, user.RoleAdmin, true, user.User{})
	boss := createTestUser(t, user.RoleInstructor, true, admin)
	cat := createTestCategory(t, admin, boss, "Statistics")
	token := getToken(t, boss)

	payload := marshallObj(t, map[string]interface{}{
		"title":       "Statistics I",
		"category_id": cat.ID,
		"sections":    []map[string]interface{}{{"title": "Sampling", "lesson": "Populations"}},
	})
	req, rec := newAuthRequest(http.MethodPost, "/api/course/create", token, payload)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	id := decodeBody(t, rec)["data"].([]interface{})[0].(map[string]interface{})["_id"].(string)

	off := false
	req, rec = newAuthRequest(http.MethodPatch, "/api/course/status", token, marshallObj(t, map[string]interface{}{"id": id, "status": off}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Course status updated successfully", decodeBody(t, rec)["message"])

	req, rec = newAuthRequest(http.MethodDelete, "/api/course/delete", token, marshallObj(t, map[string]string{"id": id}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Course deleted successfully", decodeBody(t, rec)["message"])

	req, rec = newAuthRequest(http.MethodGet, "/api/course/"+id, token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
