package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ebusmomentum88/school-portal-backend/core/account"
	"github.com/ebusmomentum88/school-portal-backend/core/assessment"
)

func Test_assessmentApi_submit(t *testing.T) {
	app := setup(t)
	app.asmtRepo.SeedQuestions("math-101", "b", "2", "true", "x")

	studentToken := getToken(t, account.Account{Role: account.RoleStudent, Identifier: "0001"})
	body := marchallObj(t, assessment.NewSubmission{SubjectID: "0001", Answers: []string{" B", "2 ", "TRUE", "y"}})

	type banded struct {
		ScorePercent int    `json:"score_percent"`
		GradeBand    string `json:"grade_band"`
	}

	tests := []httpTest{
		{name: "auth required", path: "/v1/assessments/math-101/submissions", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "subject required", path: "/v1/assessments/math-101/submissions", token: studentToken,
			body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"subject_id": "this field is required"}),
		},
		{
			name: "students submit for themselves only", path: "/v1/assessments/math-101/submissions", token: studentToken,
			body:     marchallObj(t, assessment.NewSubmission{SubjectID: "0002", Answers: []string{"b"}}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "graded case-insensitively", path: "/v1/assessments/math-101/submissions", token: studentToken,
			body: body, wantCode: http.StatusCreated, extra: banded{ScorePercent: 75, GradeBand: "A1"},
		},
		{
			name: "second submission is rejected", path: "/v1/assessments/math-101/submissions", token: studentToken,
			body: body, wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "this assessment has already been submitted"}),
		},
		{
			name: "assessment without questions scores zero", path: "/v1/assessments/empty-101/submissions", token: studentToken,
			body: body, wantCode: http.StatusCreated, extra: banded{ScorePercent: 0, GradeBand: "F9"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.extra == nil {
				return
			}
			var sub assessment.Submission
			if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
				t.Fatalf("unmarshalling Submission: %v", err)
			}
			want := tt.extra.(banded)
			if sub.ScorePercent != want.ScorePercent {
				t.Errorf("score_percent = %d; want %d", sub.ScorePercent, want.ScorePercent)
			}
			if string(sub.GradeBand) != want.GradeBand {
				t.Errorf("grade_band = %s; want %s", sub.GradeBand, want.GradeBand)
			}
		})
	}
}

func Test_assessmentApi_enterResult(t *testing.T) {
	app := setup(t)

	teacherToken := getToken(t, account.Account{Role: account.RoleTeacher, Identifier: "okafor123"})
	studentToken := getToken(t, account.Account{Role: account.RoleStudent, Identifier: "0001"})
	body := marchallObj(t, assessment.NewResult{SubjectID: "0001", CAScore: 35, ExamScore: 40})

	tests := []httpTest{
		{name: "auth required", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "staff required", token: studentToken, body: body,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "scores are bounded", token: teacherToken,
			body:     marchallObj(t, assessment.NewResult{SubjectID: "0001", CAScore: 41, ExamScore: 40}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"ca_score": "ca_score must be 40 or less"}),
		},
		{name: "ok", token: teacherToken, body: body, wantCode: http.StatusCreated},
		{
			name: "one result per student", token: teacherToken, body: body, wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "a result has already been recorded for this student"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/assessments/term-1/results", tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusCreated {
				return
			}
			var res assessment.Result
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("unmarshalling Result: %v", err)
			}
			if res.TotalPercent != 75 {
				t.Errorf("total_percent = %d; want 75", res.TotalPercent)
			}
			if res.GradeBand != assessment.BandA1 {
				t.Errorf("grade_band = %s; want %s", res.GradeBand, assessment.BandA1)
			}
		})
	}
}
