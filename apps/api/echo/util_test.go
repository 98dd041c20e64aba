package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/ebusmomentum88/school-portal-backend/core"
	"github.com/ebusmomentum88/school-portal-backend/core/account"
	"github.com/ebusmomentum88/school-portal-backend/core/assessment"
	appfs "github.com/ebusmomentum88/school-portal-backend/fs"
	dummymail "github.com/ebusmomentum88/school-portal-backend/services/email/dummy"
	dummyident "github.com/ebusmomentum88/school-portal-backend/services/identity/dummy"
	logsvc "github.com/ebusmomentum88/school-portal-backend/services/logger"
	"github.com/ebusmomentum88/school-portal-backend/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func TestMain(m *testing.M) {
	core.Conf.Debug = false
	core.Conf.TestMode = true
	core.SetTemplatesFS(appfs.FS)
	os.Exit(m.Run())
}

type testApp struct {
	server   Server
	asmtRepo interface {
		assessment.Repository
		SeedQuestions(assessmentID string, correctAnswers ...string)
	}
	identity *dummyident.Provider
	mailSvc  *dummymail.Service
	acctSvc  *account.Service
}

func setup(t *testing.T) *testApp {
	t.Helper()

	db := inmem.Open()
	acctRepo := inmem.NewAccountRepository(db)
	asmtRepo := inmem.NewAssessmentRepository(db)

	identity := dummyident.NewProvider()
	mailSvc := dummymail.NewService()
	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))

	acctSvc := account.NewService(
		acctRepo,
		acctRepo,
		identity,
		account.NewPasswordPolicy(core.Conf.Provisioning),
		mailSvc,
		logger,
	)
	asmtSvc := assessment.NewService(asmtRepo, logger)

	app := NewServer(
		&Options{
			DisableReqLogs: true,
			AccountSvc:     acctSvc,
			AssessmentSvc:  asmtSvc,
			Logger:         logger,
		},
	)

	return &testApp{
		server:   app,
		asmtRepo: asmtRepo,
		identity: identity,
		mailSvc:  mailSvc,
		acctSvc:  acctSvc,
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
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

func getToken(t *testing.T, acct account.Account) string {
	t.Helper()
	claims := GetAccountClaims(acct)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func adminToken(t *testing.T) string {
	return getToken(t, account.Account{Role: account.RoleAdmin, DisplayName: "Admin", Identifier: "admin", CredentialRef: "admin-ref"})
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) bool {
	t.Helper()
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		t.Fatalf("jsonBytesEqual() failed: %v", err)
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		t.Fatalf("jsonBytesEqual() failed: %v", err)
	}
	return reflect.DeepEqual(j1, j2)
}

func ctxBg() context.Context { return context.Background() }

func ucFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("code = %d; want %d (body: %s)", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData != nil {
		if !jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData) {
			t.Errorf("body = %s; want %s", rec.Body.String(), tt.wantData)
		}
	}
}
