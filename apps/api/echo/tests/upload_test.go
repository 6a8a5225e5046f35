package tests

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newUploadRequest(t *testing.T, filename, content string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err = fw.Write([]byte(content)); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/uploadFile", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, httptest.NewRecorder()
}

func TestUploadCreate(t *testing.T) {
	req, rec := newUploadRequest(t, "lesson.pdf", "%PDF-1.4 fake")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "File uploaded successfully.", body["message"])

	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["_id"])
	assert.Equal(t, "lesson.pdf", data["file_name"])
	stored := data["file_title"].(string)
	assert.True(t, strings.HasSuffix(stored, ".pdf"))
	assert.Equal(t, "uploads/sections/"+stored, data["file_path"])
}

func TestUploadCreate_noFile(t *testing.T) {
	req, rec := newRequest(http.MethodPost, "/api/uploadFile")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded.", decodeBody(t, rec)["message"])
}

func TestUploadDestroy(t *testing.T) {
	req, rec := newUploadRequest(t, "notes.pdf", "scrap")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	id := decodeBody(t, rec)["data"].(map[string]interface{})["_id"].(string)

	// empty payload
	req, rec = newRequest(http.MethodDelete, "/api/uploadFile/delete", marshallObj(t, map[string]interface{}{"ids": []string{}}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown IDs
	req, rec = newRequest(http.MethodDelete, "/api/uploadFile/delete", marshallObj(t, map[string]interface{}{"ids": []string{"nope"}}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No matching files found.", decodeBody(t, rec)["message"])

	req, rec = newRequest(http.MethodDelete, "/api/uploadFile/delete", marshallObj(t, map[string]interface{}{"ids": []string{id}}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1 file(s) deleted successfully.", decodeBody(t, rec)["message"])
}
