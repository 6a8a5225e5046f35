package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/trezcool/bossmaker/apps/api/echo"
	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/category"
	"github.com/trezcool/bossmaker/core/course"
	"github.com/trezcool/bossmaker/core/upload"
	"github.com/trezcool/bossmaker/core/user"
	appfs "github.com/trezcool/bossmaker/fs"
	emailsvc "github.com/trezcool/bossmaker/services/email"
	logsvc "github.com/trezcool/bossmaker/services/logger"
	inmemdb "github.com/trezcool/bossmaker/storage/database/inmem"
	"github.com/trezcool/bossmaker/storage/files"
)

var (
	app        Server
	usrSvc     *user.Service
	catSvc     *category.Service
	courseSvc  *course.Service
	uploadSvc  *upload.Service
	uploadRoot string
)

func TestMain(m *testing.M) {
	core.Conf.TestMode = true
	core.SetTemplatesFS(appfs.FS)

	var err error
	uploadRoot, err = os.MkdirTemp("", "uploads")
	if err != nil {
		fmt.Printf("creating uploads dir: %v", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(uploadRoot) }()
	core.Conf.UploadsDir = uploadRoot

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	// set up services over the in-memory DB
	db := inmemdb.Open()
	store := files.NewLocal(uploadRoot)
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc = user.NewService(inmemdb.NewUserRepository(db), mailSvc, store)
	catSvc = category.NewService(inmemdb.NewCategoryRepository(db), usrSvc)
	uploadSvc = upload.NewService(inmemdb.NewUploadRepository(db), store)
	courseSvc = course.NewService(inmemdb.NewCourseRepository(db), catSvc, uploadSvc, usrSvc)
	usrSvc.BindCascades(courseSvc, catSvc)
	catSvc.BindCascades(courseSvc)

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), core.Conf)
	logger.Enable(false)

	app = NewServer(
		&Options{
			DisableReqLogs: true,
			UserSvc:        usrSvc,
			CategorySvc:    catSvc,
			CourseSvc:      courseSvc,
			UploadSvc:      uploadSvc,
			FileStore:      store,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			SignalShutdown: func() {},
		},
	)

	os.Exit(m.Run())
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
	}
	return body
}

var userSeq int

func createTestUser(t *testing.T, role user.Role, isActive bool, createdBy user.User) user.User {
	t.Helper()
	userSeq++
	usr, err := usrSvc.Create(context.Background(), user.NewUser{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     fmt.Sprintf("user%d@test.cm", userSeq),
		Password:  "s3cr3t!",
		Role:      role,
		MobileNo:  "677000000",
		IsActive:  &isActive,
	}, createdBy, "")
	if err != nil {
		t.Fatalf("createTestUser(): %v", err)
	}
	return usr
}
