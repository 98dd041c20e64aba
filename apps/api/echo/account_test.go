package echoapi

import (
	"encoding/json"
	"net/http"
	"regexp"
	"testing"

	"github.com/ebusmomentum88/school-portal-backend/core/account"
)

var teacherIDRegex = regexp.MustCompile(`^[a-z]+[1-9]\d{2}$`)

func Test_accountApi_login(t *testing.T) {
	app := setup(t)

	acct, err := app.acctSvc.ProvisionTeacher(ctxBg(), account.NewTeacher{
		Name:  "Jane Okafor",
		Email: "jane@school.test",
	})
	if err != nil {
		t.Fatalf("provisioning teacher: %v", err)
	}

	body := func(identifier, password string) []byte {
		return marchallObj(t, LoginRequest{Identifier: identifier, Password: password})
	}

	tests := []httpTest{
		{
			name: "empty body", wantCode: http.StatusBadRequest,
			body:     []byte("{}"),
			wantData: marchallObj(t, map[string]string{"identifier": "this field is required", "password": "this field is required"}),
		},
		{
			name: "malformed identifier", wantCode: http.StatusBadRequest,
			body:     body("jane<okafor>", "teacher"),
			wantData: marchallObj(t, map[string]string{"identifier": "only alphanumeric characters and underscores are allowed"}),
		},
		{
			name: "unknown identifier", wantCode: http.StatusBadRequest,
			body:     body("nobody123", "teacher"),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     body(acct.Identifier, "nope"),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{name: "ok", wantCode: http.StatusOK, body: body(acct.Identifier, acct.InitialPassword)},
		{name: "identifier is case-insensitive", wantCode: http.StatusOK, body: body(" "+ucFirst(acct.Identifier)+" ", acct.InitialPassword)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling LoginResponse: %v", err)
				}
				if resp.Token == "" {
					t.Error("token is empty")
				}
			}
		})
	}
}

func Test_accountApi_provisionTeacher(t *testing.T) {
	app := setup(t)
	admToken := adminToken(t)
	studentToken := getToken(t, account.Account{Role: account.RoleStudent, Identifier: "0001"})

	tests := []httpTest{
		{
			name: "auth required", wantCode: http.StatusUnauthorized,
			body:     marchallObj(t, account.NewTeacher{Name: "Jane Okafor", Email: "jane@school.test"}),
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "admin required", token: studentToken, wantCode: http.StatusForbidden,
			body:     marchallObj(t, account.NewTeacher{Name: "Jane Okafor", Email: "jane@school.test"}),
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "name and email required", token: admToken, wantCode: http.StatusBadRequest,
			body:     []byte("{}"),
			wantData: marchallObj(t, map[string]string{"name": "this field is required", "email": "this field is required"}),
		},
		{
			name: "ok", token: admToken, wantCode: http.StatusCreated,
			body: marchallObj(t, account.NewTeacher{Name: "Jane Okafor", Email: "jane@school.test", Subjects: []string{"Mathematics"}}),
		},
		{
			name: "same surname gets a fresh suffix", token: admToken, wantCode: http.StatusCreated,
			body: marchallObj(t, account.NewTeacher{Name: "John Okafor", Email: "john@school.test"}),
		},
	}

	var seen []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/admin/teachers", tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusCreated {
				return
			}
			var acct account.ProvisionedAccount
			if err := json.Unmarshal(rec.Body.Bytes(), &acct); err != nil {
				t.Fatalf("unmarshalling ProvisionedAccount: %v", err)
			}
			if !teacherIDRegex.MatchString(acct.Identifier) {
				t.Errorf("identifier = %q; want surname+3-digit suffix", acct.Identifier)
			}
			if acct.InitialPassword == "" {
				t.Error("initial_password is empty")
			}
			for _, id := range seen {
				if id == acct.Identifier {
					t.Errorf("identifier %q issued twice", id)
				}
			}
			seen = append(seen, acct.Identifier)
		})
	}

	// each provisioned teacher got a welcome email
	if got := len(app.mailSvc.SentMessages()); got != 2 {
		t.Errorf("sent emails = %d; want 2", got)
	}
}

func Test_accountApi_provisionStudent(t *testing.T) {
	app := setup(t)
	admToken := adminToken(t)

	tests := []httpTest{
		{
			name: "auth required", wantCode: http.StatusUnauthorized,
			body:     marchallObj(t, account.NewStudent{Name: "Chidi Obi", ClassLevel: "JSS1"}),
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "name and class required", token: admToken, wantCode: http.StatusBadRequest,
			body:     []byte("{}"),
			wantData: marchallObj(t, map[string]string{"name": "this field is required", "class_level": "this field is required"}),
		},
		{
			name: "first student", token: admToken, wantCode: http.StatusCreated,
			body:  marchallObj(t, account.NewStudent{Name: "Chidi Obi", ClassLevel: "JSS1"}),
			extra: "0001",
		},
		{
			name: "second student", token: admToken, wantCode: http.StatusCreated,
			body:  marchallObj(t, account.NewStudent{Name: "Ada Eze", ClassLevel: "JSS2"}),
			extra: "0002",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/admin/students", tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusCreated {
				return
			}
			var acct account.ProvisionedAccount
			if err := json.Unmarshal(rec.Body.Bytes(), &acct); err != nil {
				t.Fatalf("unmarshalling ProvisionedAccount: %v", err)
			}
			if want := tt.extra.(string); acct.Identifier != want {
				t.Errorf("identifier = %q; want %q", acct.Identifier, want)
			}
			if acct.ClassAssignment == "" {
				t.Error("class_assignment is empty")
			}
		})
	}

	// students without emails get no welcome mail
	if got := len(app.mailSvc.SentMessages()); got != 0 {
		t.Errorf("sent emails = %d; want 0", got)
	}
}
